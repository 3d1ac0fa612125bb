// Package sched simulates preemptive deadline-monotonic scheduling of
// periodic tasks on one processor over one hyperperiod.
package sched

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// Hook positions fired by a Simulator. Item is the job and Detail the
// current time, except for the start and end positions, whose Item is the
// task set and the Result.
var (
	HookPosSimulationStart = &hooking.HookPos{Name: "SimulationStart"}
	HookPosRelease         = &hooking.HookPos{Name: "Release"}
	HookPosDispatch        = &hooking.HookPos{Name: "Dispatch"}
	HookPosPreempt         = &hooking.HookPos{Name: "Preempt"}
	HookPosComplete        = &hooking.HookPos{Name: "Complete"}
	HookPosDeadlineMiss    = &hooking.HookPos{Name: "DeadlineMiss"}
	HookPosSimulationEnd   = &hooking.HookPos{Name: "SimulationEnd"}
)

// A Simulator runs task sets. It keeps no state between runs, so one
// Simulator may serve many calls; concurrent calls are safe as long as the
// registered hooks are.
type Simulator struct {
	*hooking.HookableBase

	generator JobGenerator
	ceiling   timing.VTime
	log       logrus.FieldLogger
}

// Simulate runs tasks with a default Simulator.
func Simulate(tasks task.Set) Result {
	return MakeBuilder().Build().Simulate(tasks)
}

// Simulate decides whether tasks meet all deadlines during one hyperperiod
// and counts how often each task is preempted.
func (s *Simulator) Simulate(tasks task.Set) Result {
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosSimulationStart,
		Item:   tasks,
		Detail: timing.Zero,
	})

	result := s.simulate(tasks)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosSimulationEnd,
		Item:   result,
		Detail: result.Hyperperiod,
	})

	return result
}

// HyperperiodCeiling returns the largest hyperperiod the simulator accepts.
// Zero means no limit.
func (s *Simulator) HyperperiodCeiling() timing.VTime {
	return s.ceiling
}

func (s *Simulator) simulate(tasks task.Set) Result {
	if len(tasks) == 0 {
		return Result{
			Verdict:     Schedulable,
			Preemptions: []int{},
			Hyperperiod: timing.Zero,
		}
	}

	h, ok := BoundedHyperperiod(tasks, s.ceiling)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"hyperperiod": h,
			"ceiling":     s.ceiling,
		}).Warn("hyperperiod exceeds ceiling, task set not simulated")

		return Result{Verdict: Inconclusive, Hyperperiod: h}
	}

	jobs := s.generator.Generate(tasks, h)
	s.log.WithFields(logrus.Fields{
		"tasks":       len(tasks),
		"jobs":        len(jobs),
		"hyperperiod": h,
	}).Debug("simulation started")

	result := newRun(s, tasks, h, jobs).execute()

	if result.Miss != nil {
		s.log.WithFields(logrus.Fields{
			"job":       result.Miss.Job,
			"deadline":  result.Miss.Deadline,
			"remaining": result.Miss.Remaining,
		}).Info("deadline missed")
	}

	return result
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
