package sched

import (
	"fmt"

	"github.com/sarchlab/dmsched/timing"
)

// Verdict is the outcome of a simulation.
type Verdict int

const (
	// Schedulable means every job met its deadline.
	Schedulable Verdict = iota

	// NotSchedulable means some job missed its deadline.
	NotSchedulable

	// Inconclusive means the hyperperiod exceeded the ceiling and nothing
	// was simulated.
	Inconclusive
)

func (v Verdict) String() string {
	switch v {
	case Schedulable:
		return "schedulable"
	case NotSchedulable:
		return "not_schedulable"
	case Inconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// MarshalText writes the verdict name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// A Miss is the first deadline miss of a run.
type Miss struct {
	Job       JobID        `json:"job"`
	Deadline  timing.VTime `json:"deadline"`
	Remaining timing.VTime `json:"remaining"`
}

// Result reports a simulation.
type Result struct {
	Verdict Verdict `json:"verdict"`

	// Preemptions holds one count per task, in task set order. It is nil
	// unless the verdict is Schedulable.
	Preemptions []int `json:"preemptions,omitempty"`

	// Hyperperiod is the simulated window. For an Inconclusive result it is
	// the partial value that crossed the ceiling.
	Hyperperiod timing.VTime `json:"hyperperiod"`

	// Jobs is the number of jobs generated.
	Jobs int `json:"jobs"`

	// Miss is set when the verdict is NotSchedulable.
	Miss *Miss `json:"miss,omitempty"`
}

// Schedulable reports whether the task set was shown to be schedulable.
func (r Result) Schedulable() bool {
	return r.Verdict == Schedulable
}
