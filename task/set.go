package task

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// A Set is an ordered list of tasks. Task i has ID i.
type Set []*Task

// NewSet validates the specs and creates tasks with IDs in input order.
func NewSet(specs ...Spec) (Set, error) {
	s := make(Set, 0, len(specs))

	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}

		s = append(s, New(ID(i), spec.ExecutionTime, spec.Period, spec.Deadline))
	}

	return s, nil
}

// MustNewSet is NewSet that panics on invalid input.
func MustNewSet(specs ...Spec) Set {
	s, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}

	return s
}

// Specs returns the parameters of every task in order.
func (s Set) Specs() []Spec {
	specs := make([]Spec, len(s))
	for i, t := range s {
		specs[i] = t.Spec()
	}

	return specs
}

// Utilization returns the sum of execution time over period. The value is
// for reporting; it plays no part in the schedulability verdict.
func (s Set) Utilization() float64 {
	u := decimal.Zero
	for _, t := range s {
		u = u.Add(t.executionTime.Decimal().
			DivRound(t.period.Decimal(), 16))
	}

	f, _ := u.Float64()

	return f
}
