// Package telemetry exports simulation counters through OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/sched"
)

const instrumentationName = "github.com/sarchlab/dmsched"

// Counter names.
const (
	JobsReleased   = "dmsched.jobs.released"
	JobsCompleted  = "dmsched.jobs.completed"
	Preemptions    = "dmsched.preemptions"
	DeadlineMisses = "dmsched.deadline_misses"
	Simulations    = "dmsched.simulations"
)

// Meter returns the meter of the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// MetricsHook counts scheduler events.
type MetricsHook struct {
	released    metric.Int64Counter
	completed   metric.Int64Counter
	preemptions metric.Int64Counter
	misses      metric.Int64Counter
	simulations metric.Int64Counter
}

// NewMetricsHook creates the counters on meter.
func NewMetricsHook(meter metric.Meter) (*MetricsHook, error) {
	h := &MetricsHook{}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&h.released, JobsReleased, "Jobs released", "{job}"},
		{&h.completed, JobsCompleted, "Jobs run to completion", "{job}"},
		{&h.preemptions, Preemptions, "Jobs displaced by a higher priority job", "{preemption}"},
		{&h.misses, DeadlineMisses, "Deadline misses", "{miss}"},
		{&h.simulations, Simulations, "Simulations run, by verdict", "{simulation}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("telemetry: create %s: %w", c.name, err)
		}

		*c.target = counter
	}

	return h, nil
}

// Func counts the hook.
func (h *MetricsHook) Func(ctx hooking.HookCtx) {
	bg := context.Background()

	switch ctx.Pos {
	case sched.HookPosRelease:
		h.released.Add(bg, 1)
	case sched.HookPosComplete:
		h.completed.Add(bg, 1)
	case sched.HookPosPreempt:
		h.preemptions.Add(bg, 1)
	case sched.HookPosDeadlineMiss:
		h.misses.Add(bg, 1)
	case sched.HookPosSimulationEnd:
		result := ctx.Item.(sched.Result)
		h.simulations.Add(bg, 1, metric.WithAttributes(
			attribute.String("verdict", result.Verdict.String())))
	}
}

// SetupStdout installs a global meter provider that prints metrics as JSON
// to w. The returned shutdown function exports what is left and must be
// called before exiting.
func SetupStdout(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
