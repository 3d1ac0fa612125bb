// Package tracing observes simulations through hooks. EventLogger writes the
// scheduler's decisions to a logger and TraceRecorder stores the execution
// trace in a database.
package tracing

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// EventLogger is a hook that logs every scheduler event at debug level.
type EventLogger struct {
	logger logrus.FieldLogger
}

// NewEventLogger returns an EventLogger that writes into logger.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	fields := logrus.Fields{"pos": ctx.Pos.Name}
	if now, ok := ctx.Detail.(timing.VTime); ok {
		fields["time"] = now.String()
	}

	switch item := ctx.Item.(type) {
	case *sched.Job:
		fields["task"] = int(item.ID().Task)
		fields["job"] = item.ID().String()
		h.logger.WithFields(fields).Debug("scheduler event")
	case task.Set:
		fields["tasks"] = len(item)
		h.logger.WithFields(fields).Debug("simulation start")
	case sched.Result:
		fields["verdict"] = item.Verdict.String()
		fields["jobs"] = item.Jobs
		h.logger.WithFields(fields).Debug("simulation end")
	}
}
