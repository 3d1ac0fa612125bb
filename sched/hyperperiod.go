package sched

import (
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// DefaultHyperperiodCeiling is the largest hyperperiod simulated unless
// configured otherwise. It bounds run time; it says nothing about
// schedulability.
var DefaultHyperperiodCeiling = timing.FromInt(1_000_000)

// Hyperperiod returns the least common multiple of all task periods, or 0 for
// an empty set.
func Hyperperiod(tasks task.Set) timing.VTime {
	h, _ := BoundedHyperperiod(tasks, timing.Zero)
	return h
}

// BoundedHyperperiod folds the periods into their least common multiple from
// left to right. It gives up and returns false as soon as a partial result
// exceeds ceiling; the returned value is then that partial result. A
// non-positive ceiling means no bound.
func BoundedHyperperiod(
	tasks task.Set,
	ceiling timing.VTime,
) (timing.VTime, bool) {
	if len(tasks) == 0 {
		return timing.Zero, true
	}

	exceeds := func(h timing.VTime) bool {
		return ceiling.Sign() > 0 && h.Cmp(ceiling) > 0
	}

	h := tasks[0].Period()
	if exceeds(h) {
		return h, false
	}

	for _, t := range tasks[1:] {
		h = timing.LCM(h, t.Period())
		if exceeds(h) {
			return h, false
		}
	}

	return h, true
}
