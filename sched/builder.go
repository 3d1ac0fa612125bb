package sched

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dmsched/hooking"
	"github.com/sarchlab/dmsched/timing"
)

// Builder configures a Simulator.
type Builder struct {
	generator JobGenerator
	ceiling   timing.VTime
	logger    logrus.FieldLogger
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with the periodic job generator, the default
// hyperperiod ceiling, and a silent logger.
func MakeBuilder() Builder {
	return Builder{
		ceiling: DefaultHyperperiodCeiling,
	}
}

// WithJobGenerator replaces the job generator.
func (b Builder) WithJobGenerator(g JobGenerator) Builder {
	b.generator = g
	return b
}

// WithHyperperiodCeiling sets the largest hyperperiod that will be simulated.
func (b Builder) WithHyperperiodCeiling(ceiling timing.VTime) Builder {
	b.ceiling = ceiling
	return b
}

// WithoutHyperperiodCeiling simulates any hyperperiod, however long.
func (b Builder) WithoutHyperperiodCeiling() Builder {
	b.ceiling = timing.Zero
	return b
}

// WithLogger sets where the simulator logs.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithHook registers a hook on the simulator being built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	hooks := make([]hooking.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, hook)

	return b
}

func (b Builder) parametersMustBeValid() {
	if b.ceiling.Sign() < 0 {
		panic("hyperperiod ceiling cannot be negative")
	}
}

// Build creates the Simulator.
func (b Builder) Build() *Simulator {
	b.parametersMustBeValid()

	s := &Simulator{
		HookableBase: hooking.NewHookableBase(),
		generator:    b.generator,
		ceiling:      b.ceiling,
		log:          b.logger,
	}

	if s.generator == nil {
		s.generator = NewPeriodicJobGenerator()
	}

	if s.log == nil {
		s.log = discardLogger()
	}

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	return s
}
