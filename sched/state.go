package sched

import (
	"fmt"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// run is the state of one simulation. It is created by Simulate and dropped
// when Simulate returns.
type run struct {
	sim         *Simulator
	hyperperiod timing.VTime
	numJobs     int

	now     timing.VTime
	events  *eventQueue
	ready   *readyQueue
	running *Job

	pendingReleases int
	preemptions     []int
	taskIndex       map[*task.Task]int
}

func newRun(
	sim *Simulator,
	tasks task.Set,
	hyperperiod timing.VTime,
	jobs []*Job,
) *run {
	r := &run{
		sim:         sim,
		hyperperiod: hyperperiod,
		numJobs:     len(jobs),
		events:      newEventQueue(),
		ready:       newReadyQueue(),
		preemptions: make([]int, len(tasks)),
		taskIndex:   make(map[*task.Task]int, len(tasks)),
	}

	for i, t := range tasks {
		r.taskIndex[t] = i
	}

	for _, j := range jobs {
		r.jobMustBeValid(j)

		r.events.Push(Event{Kind: ReleaseEvent, Time: j.release, Job: j})
		r.events.Push(Event{Kind: DeadlineEvent, Time: j.deadline, Job: j})
		r.pendingReleases++
	}

	return r
}

func (r *run) jobMustBeValid(j *Job) {
	if _, ok := r.taskIndex[j.task]; !ok {
		panic(fmt.Sprintf("job %s belongs to a task outside the task set", j))
	}

	if j.release.Sign() < 0 || j.release.Cmp(r.hyperperiod) >= 0 {
		panic(fmt.Sprintf(
			"job %s released @ %s, outside the hyperperiod [0, %s)",
			j, j.release, r.hyperperiod))
	}
}

// execute runs until every job released in the hyperperiod has finished or
// one job misses its deadline.
func (r *run) execute() Result {
	for {
		if miss := r.admit(); miss != nil {
			return r.fail(miss)
		}

		next := r.ready.Top()
		r.switchTo(next)

		if next == nil && r.pendingReleases == 0 {
			return r.succeed()
		}

		r.advance()
	}
}

// admit handles every event due at the current time. Releases come first, so
// by the time deadline events are seen all arrivals of this instant are
// ready. It returns the first job found past its deadline.
func (r *run) admit() *Job {
	for r.events.Len() > 0 && timing.NotAfter(r.events.Peek().Time, r.now) {
		evt := r.events.Pop()

		switch evt.Kind {
		case ReleaseEvent:
			r.ready.Push(evt.Job)
			r.pendingReleases--
			r.invoke(HookPosRelease, evt.Job)
		case DeadlineEvent:
			if !evt.Job.completed {
				return evt.Job
			}
		default:
			panic(fmt.Sprintf("unknown event kind %s", evt.Kind))
		}
	}

	return nil
}

// switchTo gives the processor to next. A different job taking over from an
// unfinished one counts as a preemption of the unfinished job's task.
func (r *run) switchTo(next *Job) {
	prev := r.running
	if prev == next {
		return
	}

	if prev != nil && !prev.completed {
		r.preemptions[r.taskIndex[prev.task]]++
		r.invoke(HookPosPreempt, prev)
	}

	r.running = next
	if next != nil {
		r.invoke(HookPosDispatch, next)
	}
}

// advance jumps to the next instant something can change: the next queued
// event, the running job's completion, or the end of the hyperperiod.
func (r *run) advance() {
	var candidates []timing.VTime

	if r.events.Len() > 0 {
		candidates = append(candidates, r.events.Peek().Time)
	}

	if r.running != nil {
		candidates = append(candidates, r.now.Add(r.running.remaining))
	}

	if timing.Before(r.now, r.hyperperiod) {
		candidates = append(candidates, r.hyperperiod)
	}

	if len(candidates) == 0 {
		panic(fmt.Sprintf("simulation stalled @ %s", r.now))
	}

	next := timing.Min(candidates[0], candidates[1:]...)
	elapsed := next.Sub(r.now)
	r.now = next

	if r.running == nil {
		return
	}

	if r.running.execute(elapsed) {
		r.invoke(HookPosComplete, r.running)
		r.ready.Pop()
		r.running = nil
	}
}

func (r *run) fail(j *Job) Result {
	r.invoke(HookPosDeadlineMiss, j)

	return Result{
		Verdict:     NotSchedulable,
		Hyperperiod: r.hyperperiod,
		Jobs:        r.numJobs,
		Miss: &Miss{
			Job:       j.ID(),
			Deadline:  j.deadline,
			Remaining: j.remaining,
		},
	}
}

func (r *run) succeed() Result {
	return Result{
		Verdict:     Schedulable,
		Preemptions: r.preemptions,
		Hyperperiod: r.hyperperiod,
		Jobs:        r.numJobs,
	}
}

func (r *run) invoke(pos *hooking.HookPos, j *Job) {
	r.sim.InvokeHook(hooking.HookCtx{
		Domain: r.sim,
		Pos:    pos,
		Item:   j,
		Detail: r.now,
	})
}
