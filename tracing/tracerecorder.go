package tracing

import (
	"fmt"
	"sync"

	"github.com/rs/xid"

	"github.com/sarchlab/dmsched/datarecording"
	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// Table names written by a TraceRecorder.
const (
	RunTable     = "runs"
	SegmentTable = "segments"
	JobTable     = "jobs"
)

// Segment outcomes.
const (
	OutcomeCompleted   = "completed"
	OutcomePreempted   = "preempted"
	OutcomeInterrupted = "interrupted"
)

// RunEntry is one row per simulation.
type RunEntry struct {
	RunID       string
	Verdict     string
	Tasks       int
	Jobs        int
	Hyperperiod float64
}

// SegmentEntry is one uninterrupted stretch of execution of a job.
type SegmentEntry struct {
	RunID   string
	Task    int
	Job     string
	Start   float64
	End     float64
	Outcome string
}

// JobEntry summarizes a job that completed or missed its deadline.
type JobEntry struct {
	RunID       string
	Task        int
	Job         string
	Release     float64
	Deadline    float64
	Finish      float64
	Preemptions int
	Missed      bool
}

type openSegment struct {
	job   *sched.Job
	start timing.VTime
}

// TraceRecorder is a hook that stores the execution trace of simulations.
// Runs are recorded one at a time; simulations that run concurrently must
// use separate recorders.
type TraceRecorder struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	runID       string
	tasks       int
	running     *openSegment
	preemptions map[sched.JobID]int
}

// NewTraceRecorder creates the trace tables in dataRecorder and returns a
// recorder writing into them.
func NewTraceRecorder(dataRecorder datarecording.DataRecorder) *TraceRecorder {
	dataRecorder.CreateTable(RunTable, RunEntry{})
	dataRecorder.CreateTable(SegmentTable, SegmentEntry{})
	dataRecorder.CreateTable(JobTable, JobEntry{})

	return &TraceRecorder{
		backend:     dataRecorder,
		preemptions: make(map[sched.JobID]int),
	}
}

// RunID returns the ID of the current or last recorded run.
func (r *TraceRecorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runID
}

// Func records the hook.
func (r *TraceRecorder) Func(ctx hooking.HookCtx) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ctx.Pos {
	case sched.HookPosSimulationStart:
		r.start(ctx)
	case sched.HookPosSimulationEnd:
		r.end(ctx)
	case sched.HookPosDispatch:
		r.running = &openSegment{job: ctx.Item.(*sched.Job), start: now(ctx)}
	case sched.HookPosPreempt:
		j := ctx.Item.(*sched.Job)
		r.preemptions[j.ID()]++
		r.closeSegment(j, now(ctx), OutcomePreempted)
	case sched.HookPosComplete:
		j := ctx.Item.(*sched.Job)
		r.closeSegment(j, now(ctx), OutcomeCompleted)
		r.writeJob(j, now(ctx), false)
	case sched.HookPosDeadlineMiss:
		j := ctx.Item.(*sched.Job)
		if r.running != nil {
			r.closeSegment(r.running.job, now(ctx), OutcomeInterrupted)
		}
		r.writeJob(j, now(ctx), true)
	}
}

func (r *TraceRecorder) start(ctx hooking.HookCtx) {
	r.runID = xid.New().String()
	r.running = nil
	r.preemptions = make(map[sched.JobID]int)

	if tasks, ok := ctx.Item.(task.Set); ok {
		r.tasks = len(tasks)
	}
}

func (r *TraceRecorder) end(ctx hooking.HookCtx) {
	result := ctx.Item.(sched.Result)

	r.backend.InsertData(RunTable, RunEntry{
		RunID:       r.runID,
		Verdict:     result.Verdict.String(),
		Tasks:       r.tasks,
		Jobs:        result.Jobs,
		Hyperperiod: result.Hyperperiod.Float64(),
	})
	r.backend.Flush()
}

func (r *TraceRecorder) closeSegment(j *sched.Job, end timing.VTime, outcome string) {
	if r.running == nil || r.running.job != j {
		panic(fmt.Sprintf("job %s leaves the processor without running", j))
	}

	r.backend.InsertData(SegmentTable, SegmentEntry{
		RunID:   r.runID,
		Task:    int(j.ID().Task),
		Job:     j.ID().String(),
		Start:   r.running.start.Float64(),
		End:     end.Float64(),
		Outcome: outcome,
	})

	r.running = nil
}

func (r *TraceRecorder) writeJob(j *sched.Job, at timing.VTime, missed bool) {
	r.backend.InsertData(JobTable, JobEntry{
		RunID:       r.runID,
		Task:        int(j.ID().Task),
		Job:         j.ID().String(),
		Release:     j.Release().Float64(),
		Deadline:    j.AbsoluteDeadline().Float64(),
		Finish:      at.Float64(),
		Preemptions: r.preemptions[j.ID()],
		Missed:      missed,
	})
}

func now(ctx hooking.HookCtx) timing.VTime {
	return ctx.Detail.(timing.VTime)
}
