// Package task describes periodic real-time tasks.
package task

import (
	"errors"
	"fmt"

	"github.com/sarchlab/dmsched/timing"
)

// ErrNonPositive is returned when a task parameter is zero or negative.
var ErrNonPositive = errors.New("task: parameters must be positive")

// ID identifies a task by its position in the task set, starting at 0.
type ID int

// A Task releases a job every Period. Each job needs ExecutionTime units of
// processor time and must finish within Deadline of its release. The deadline
// may be longer than the period.
//
// Tasks are immutable once created.
type Task struct {
	id            ID
	executionTime timing.VTime
	period        timing.VTime
	deadline      timing.VTime
}

// Spec holds the parameters of a task before it is assigned an ID.
type Spec struct {
	ExecutionTime timing.VTime `json:"execution_time"`
	Period        timing.VTime `json:"period"`
	Deadline      timing.VTime `json:"deadline"`
}

// Validate checks that all parameters are positive.
func (s Spec) Validate() error {
	if s.ExecutionTime.Sign() <= 0 ||
		s.Period.Sign() <= 0 ||
		s.Deadline.Sign() <= 0 {
		return fmt.Errorf("%w: e=%s, P=%s, D=%s",
			ErrNonPositive, s.ExecutionTime, s.Period, s.Deadline)
	}

	return nil
}

// ParseSpec reads the three parameters from their text form. The result is
// not validated.
func ParseSpec(executionTime, period, deadline string) (Spec, error) {
	var (
		spec Spec
		err  error
	)

	if spec.ExecutionTime, err = timing.Parse(executionTime); err != nil {
		return Spec{}, fmt.Errorf("execution time: %w", err)
	}

	if spec.Period, err = timing.Parse(period); err != nil {
		return Spec{}, fmt.Errorf("period: %w", err)
	}

	if spec.Deadline, err = timing.Parse(deadline); err != nil {
		return Spec{}, fmt.Errorf("deadline: %w", err)
	}

	return spec, nil
}

// MustParseSpec is ParseSpec that panics on malformed numbers.
func MustParseSpec(executionTime, period, deadline string) Spec {
	spec, err := ParseSpec(executionTime, period, deadline)
	if err != nil {
		panic(err)
	}

	return spec
}

// New creates a task. The caller guarantees the parameters are valid; use
// NewSet to validate.
func New(id ID, executionTime, period, deadline timing.VTime) *Task {
	return &Task{
		id:            id,
		executionTime: executionTime,
		period:        period,
		deadline:      deadline,
	}
}

// ID returns the task's identity.
func (t *Task) ID() ID {
	return t.id
}

// ExecutionTime returns the worst-case execution time of each job.
func (t *Task) ExecutionTime() timing.VTime {
	return t.executionTime
}

// Period returns the time between two releases.
func (t *Task) Period() timing.VTime {
	return t.period
}

// Deadline returns the relative deadline.
func (t *Task) Deadline() timing.VTime {
	return t.deadline
}

// Spec returns the task's parameters.
func (t *Task) Spec() Spec {
	return Spec{
		ExecutionTime: t.executionTime,
		Period:        t.period,
		Deadline:      t.deadline,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("T%d(e=%s, P=%s, D=%s)",
		t.id, t.executionTime, t.period, t.deadline)
}
