package sched

import (
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// traceRecorder writes down every job-level hook as "Pos Job @ time".
type traceRecorder struct {
	lines []string
}

func (r *traceRecorder) Func(ctx hooking.HookCtx) {
	j, ok := ctx.Item.(*Job)
	if !ok {
		return
	}

	r.lines = append(r.lines,
		fmt.Sprintf("%s %s @ %s", ctx.Pos.Name, j, ctx.Detail.(timing.VTime)))
}

var _ = Describe("Simulator", func() {
	var (
		mockCtrl  *gomock.Controller
		simulator *Simulator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		simulator = MakeBuilder().Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should accept an empty task set", func() {
		r := simulator.Simulate(nil)

		Expect(r.Verdict).To(Equal(Schedulable))
		Expect(r.Preemptions).To(BeEmpty())
		Expect(r.Hyperperiod.Sign()).To(Equal(0))
	})

	It("should schedule a single light task", func() {
		r := simulator.Simulate(tasks([3]string{"1", "4", "4"}))

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Preemptions).To(Equal([]int{0}))
		Expect(r.Jobs).To(Equal(1))
		Expect(r.Miss).To(BeNil())
	})

	It("should detect the miss in an overloaded pair", func() {
		// A0 0-3, B0 3-5 (A1's deadline 8 is later than B0's 6),
		// A1 5-8, then A2 and B1 share deadline 12 and A2 wins the tie:
		// A2 8-11, B1 11-12 with one unit left.
		r := simulator.Simulate(tasks(
			[3]string{"3", "4", "4"},
			[3]string{"2", "6", "6"},
		))

		Expect(r.Verdict).To(Equal(NotSchedulable))
		Expect(r.Schedulable()).To(BeFalse())
		Expect(r.Preemptions).To(BeNil())
		Expect(r.Miss).ToNot(BeNil())
		Expect(r.Miss.Job).To(Equal(JobID{Task: 1, Seq: 1}))
		Expect(r.Miss.Deadline.String()).To(Equal("12"))
		Expect(r.Miss.Remaining.String()).To(Equal("1"))
	})

	It("should count a preemption when the tie goes to the lower task", func() {
		// B0 runs 1-4, then A1 arrives with the same deadline 8 and wins.
		r := simulator.Simulate(tasks(
			[3]string{"1", "4", "4"},
			[3]string{"4", "8", "8"},
		))

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Preemptions).To(Equal([]int{0, 1}))
	})

	It("should count every preemption of a long job", func() {
		// B0 runs 1-2, 3-4 and 5-6; A1 and A2 cut in at 2 and 4.
		r := simulator.Simulate(tasks(
			[3]string{"1", "2", "2"},
			[3]string{"3", "8", "8"},
		))

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Preemptions).To(Equal([]int{0, 2}))
	})

	It("should report preemptions in input order, not priority order", func() {
		r := simulator.Simulate(tasks(
			[3]string{"3", "8", "8"},
			[3]string{"1", "2", "2"},
		))

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Preemptions).To(Equal([]int{2, 0}))
	})

	It("should follow the exact event trace", func() {
		recorder := &traceRecorder{}
		simulator.AcceptHook(recorder)

		simulator.Simulate(tasks(
			[3]string{"1", "4", "4"},
			[3]string{"4", "8", "8"},
		))

		Expect(recorder.lines).To(Equal([]string{
			"Release T0.0 @ 0",
			"Release T1.0 @ 0",
			"Dispatch T0.0 @ 0",
			"Complete T0.0 @ 1",
			"Dispatch T1.0 @ 1",
			"Release T0.1 @ 4",
			"Preempt T1.0 @ 4",
			"Dispatch T0.1 @ 4",
			"Complete T0.1 @ 5",
			"Dispatch T1.0 @ 5",
			"Complete T1.0 @ 6",
		}))
	})

	It("should advance by exact decimal amounts", func() {
		r := simulator.Simulate(tasks(
			[3]string{"0.1", "0.3", "0.3"},
			[3]string{"0.2", "0.5", "0.5"},
		))

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Hyperperiod.String()).To(Equal("1.5"))
		Expect(r.Jobs).To(Equal(8))
	})

	Context("with zero slack", func() {
		It("should schedule a task that fills its whole period alone", func() {
			r := simulator.Simulate(tasks([3]string{"4", "4", "4"}))

			Expect(r.Schedulable()).To(BeTrue())
			Expect(r.Preemptions).To(Equal([]int{0}))
		})

		It("should fail once another task needs the processor", func() {
			r := simulator.Simulate(tasks(
				[3]string{"4", "4", "4"},
				[3]string{"1", "8", "8"},
			))

			Expect(r.Verdict).To(Equal(NotSchedulable))
			Expect(r.Miss.Job).To(Equal(JobID{Task: 1, Seq: 0}))
			Expect(r.Miss.Deadline.String()).To(Equal("8"))
		})
	})

	Context("with deadlines longer than periods", func() {
		It("should let a job finish after its next release", func() {
			// A0 0-2, B0 2-4, A1 (tie at 10) preempts B0 at 4, B0 6-7,
			// B1 7-8, A2 preempts B1 at 8, B1 10-12.
			r := simulator.Simulate(tasks(
				[3]string{"2", "4", "6"},
				[3]string{"3", "6", "10"},
			))

			Expect(r.Schedulable()).To(BeTrue())
			Expect(r.Preemptions).To(Equal([]int{0, 2}))
		})

		It("should keep checking deadlines past the hyperperiod", func() {
			r := simulator.Simulate(tasks(
				[3]string{"1", "2", "3"},
				[3]string{"5", "4", "6"},
			))

			Expect(r.Verdict).To(Equal(NotSchedulable))
			Expect(r.Hyperperiod.String()).To(Equal("4"))
			Expect(r.Miss.Job).To(Equal(JobID{Task: 1, Seq: 0}))
			Expect(r.Miss.Deadline.String()).To(Equal("6"))
			Expect(r.Miss.Remaining.String()).To(Equal("1"))
		})
	})

	Context("when the hyperperiod is too long", func() {
		It("should give up without generating jobs", func() {
			gen := NewMockJobGenerator(mockCtrl)
			gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
			simulator = MakeBuilder().WithJobGenerator(gen).Build()

			r := simulator.Simulate(tasks(
				[3]string{"1", "999983", "999983"},
				[3]string{"1", "999979", "999979"},
			))

			Expect(r.Verdict).To(Equal(Inconclusive))
			Expect(r.Schedulable()).To(BeFalse())
			Expect(r.Preemptions).To(BeNil())
			Expect(r.Miss).To(BeNil())
		})

		It("should simulate once the ceiling is lifted", func() {
			gen := NewMockJobGenerator(mockCtrl)
			gen.EXPECT().
				Generate(gomock.Any(), gomock.Any()).
				Return(nil).
				Times(1)
			simulator = MakeBuilder().
				WithJobGenerator(gen).
				WithoutHyperperiodCeiling().
				Build()

			r := simulator.Simulate(tasks(
				[3]string{"1", "999983", "999983"},
				[3]string{"1", "999979", "999979"},
			))

			Expect(r.Verdict).To(Equal(Schedulable))
		})
	})

	It("should run the jobs its generator returns", func() {
		set := tasks([3]string{"1", "4", "4"}, [3]string{"2", "6", "6"})
		gen := NewMockJobGenerator(mockCtrl)
		gen.EXPECT().
			Generate(set, gomock.Any()).
			DoAndReturn(NewPeriodicJobGenerator().Generate).
			Times(1)
		simulator = MakeBuilder().WithJobGenerator(gen).Build()

		r := simulator.Simulate(set)

		Expect(r.Schedulable()).To(BeTrue())
		Expect(r.Jobs).To(Equal(5))
	})

	It("should panic on a job released outside the hyperperiod", func() {
		set := tasks([3]string{"1", "4", "4"})
		gen := NewMockJobGenerator(mockCtrl)
		gen.EXPECT().
			Generate(gomock.Any(), gomock.Any()).
			Return([]*Job{newJob(set[0], 1, timing.FromInt(4))})
		simulator = MakeBuilder().WithJobGenerator(gen).Build()

		Expect(func() { simulator.Simulate(set) }).To(Panic())
	})

	It("should give the same answer for equal task sets", func() {
		build := func() task.Set {
			return tasks(
				[3]string{"1", "2", "2"},
				[3]string{"3", "8", "8"},
				[3]string{"1", "16", "16"},
			)
		}

		first := simulator.Simulate(build())
		second := simulator.Simulate(build())

		Expect(second).To(Equal(first))
	})

	It("should fire start and end hooks", func() {
		counter := hooking.NewPosCounter()
		simulator = MakeBuilder().WithHook(counter).Build()

		simulator.Simulate(tasks([3]string{"1", "4", "4"}))
		simulator.Simulate(tasks([3]string{"3", "4", "4"}, [3]string{"2", "6", "6"}))

		Expect(counter.Count(HookPosSimulationStart)).To(Equal(2))
		Expect(counter.Count(HookPosSimulationEnd)).To(Equal(2))
		Expect(counter.Count(HookPosDeadlineMiss)).To(Equal(1))
	})

	It("should work through the package-level shortcut", func() {
		r := Simulate(tasks([3]string{"1", "4", "4"}))

		Expect(r.Preemptions).To(Equal([]int{0}))
	})

	It("should never count more preemptions than jobs", func() {
		rng := rand.New(rand.NewSource(455))
		periods := []int64{2, 3, 4, 5, 6, 8, 10, 12}

		for round := 0; round < 200; round++ {
			n := 1 + rng.Intn(4)
			specs := make([]task.Spec, n)
			for i := range specs {
				p := periods[rng.Intn(len(periods))]
				e := 1 + rng.Int63n(p/2+1)
				d := e + rng.Int63n(2*p)
				specs[i] = task.Spec{
					ExecutionTime: timing.FromInt(e),
					Period:        timing.FromInt(p),
					Deadline:      timing.FromInt(d),
				}
			}

			r := simulator.Simulate(task.MustNewSet(specs...))
			if !r.Schedulable() {
				continue
			}

			sum := 0
			for _, c := range r.Preemptions {
				sum += c
			}

			Expect(r.Preemptions).To(HaveLen(n))
			Expect(sum).To(BeNumerically("<=", r.Jobs))
		}
	})
})

var _ = Describe("Builder", func() {
	It("should refuse a negative ceiling", func() {
		Expect(func() {
			MakeBuilder().WithHyperperiodCeiling(timing.FromInt(-1)).Build()
		}).To(Panic())
	})

	It("should not share hooks between builders", func() {
		base := MakeBuilder()
		a := base.WithHook(hooking.NewPosCounter()).Build()
		b := base.Build()

		Expect(a.NumHooks()).To(Equal(1))
		Expect(b.NumHooks()).To(Equal(0))
	})
})

var _ = Describe("Verdict", func() {
	It("should print names", func() {
		Expect(Schedulable.String()).To(Equal("schedulable"))
		Expect(NotSchedulable.String()).To(Equal("not_schedulable"))
		Expect(Inconclusive.String()).To(Equal("inconclusive"))
		Expect(Verdict(9).String()).To(Equal("Verdict(9)"))
	})

	It("should print event kinds", func() {
		Expect(ReleaseEvent.String()).To(Equal("Release"))
		Expect(DeadlineEvent.String()).To(Equal("Deadline"))
	})
})

var _ = Describe("JobID", func() {
	It("should marshal as its name", func() {
		text, err := JobID{Task: 2, Seq: 5}.MarshalText()

		Expect(err).ToNot(HaveOccurred())
		Expect(string(text)).To(Equal("T2.5"))
	})
})
