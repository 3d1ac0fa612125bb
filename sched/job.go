package sched

import (
	"fmt"

	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// JobID names the seq-th job released by a task, counting from 0.
type JobID struct {
	Task task.ID `json:"task"`
	Seq  int     `json:"seq"`
}

func (id JobID) String() string {
	return fmt.Sprintf("T%d.%d", id.Task, id.Seq)
}

// MarshalText writes the job name.
func (id JobID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// A Job is one release of a task. Only the simulator changes a job's
// remaining time.
type Job struct {
	task      *task.Task
	seq       int
	release   timing.VTime
	deadline  timing.VTime
	remaining timing.VTime
	completed bool
}

func newJob(t *task.Task, seq int, release timing.VTime) *Job {
	return &Job{
		task:      t,
		seq:       seq,
		release:   release,
		deadline:  release.Add(t.Deadline()),
		remaining: t.ExecutionTime(),
	}
}

// Task returns the task that released the job.
func (j *Job) Task() *task.Task {
	return j.task
}

// ID returns the job's identity.
func (j *Job) ID() JobID {
	return JobID{Task: j.task.ID(), Seq: j.seq}
}

// Seq returns the index of the job among its task's releases.
func (j *Job) Seq() int {
	return j.seq
}

// Release returns the release time.
func (j *Job) Release() timing.VTime {
	return j.release
}

// AbsoluteDeadline returns the instant by which the job must finish.
func (j *Job) AbsoluteDeadline() timing.VTime {
	return j.deadline
}

// Remaining returns the execution time the job still needs.
func (j *Job) Remaining() timing.VTime {
	return j.remaining
}

// Completed reports whether the job has finished.
func (j *Job) Completed() bool {
	return j.completed
}

func (j *Job) String() string {
	return j.ID().String()
}

// execute runs the job for d and reports whether it finished.
func (j *Job) execute(d timing.VTime) bool {
	j.remaining = j.remaining.Sub(d)
	if timing.IsZero(j.remaining) {
		j.remaining = timing.Zero
		j.completed = true
	}

	return j.completed
}

// releaseOrder orders jobs by release time, then absolute deadline, then task
// and sequence so that equal instants still sort deterministically.
func releaseOrder(a, b *Job) bool {
	if c := a.release.Cmp(b.release); c != 0 {
		return c < 0
	}

	return priorityOrder(a, b)
}

// priorityOrder is the deadline-monotonic order: the earlier absolute
// deadline wins, then the lower task ID.
func priorityOrder(a, b *Job) bool {
	if c := a.deadline.Cmp(b.deadline); c != 0 {
		return c < 0
	}

	if a.task.ID() != b.task.ID() {
		return a.task.ID() < b.task.ID()
	}

	return a.seq < b.seq
}
