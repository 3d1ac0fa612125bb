package sched

import (
	"sort"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// HookPosJobGenerated fires once per generated job, in output order.
var HookPosJobGenerated = &hooking.HookPos{Name: "JobGenerated"}

// A JobGenerator expands a task set into the jobs released within one
// hyperperiod.
type JobGenerator interface {
	// Generate returns fresh jobs with release times in [0, hyperperiod),
	// ordered by release time and then absolute deadline.
	Generate(tasks task.Set, hyperperiod timing.VTime) []*Job
}

// PeriodicJobGenerator releases the first job of every task at time 0 and one
// more every period.
type PeriodicJobGenerator struct {
	*hooking.HookableBase
}

// NewPeriodicJobGenerator creates a PeriodicJobGenerator.
func NewPeriodicJobGenerator() *PeriodicJobGenerator {
	return &PeriodicJobGenerator{HookableBase: hooking.NewHookableBase()}
}

// Generate implements JobGenerator. It has no side effects apart from hooks.
func (g *PeriodicJobGenerator) Generate(
	tasks task.Set,
	hyperperiod timing.VTime,
) []*Job {
	jobs := make([]*Job, 0)

	for _, t := range tasks {
		for seq := 0; ; seq++ {
			release := t.Period().MulInt(int64(seq))
			if release.Cmp(hyperperiod) >= 0 {
				break
			}

			jobs = append(jobs, newJob(t, seq, release))
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return releaseOrder(jobs[i], jobs[j])
	})

	for _, j := range jobs {
		g.InvokeHook(hooking.HookCtx{
			Domain: g,
			Pos:    HookPosJobGenerated,
			Item:   j,
			Detail: j.release,
		})
	}

	return jobs
}
