// Package hooking lets observers attach to the simulator without the
// simulator knowing who is listening.
package hooking

import "sync"

// HookPos names a place where hooks fire.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	return p.Name
}

// HookCtx describes one firing of a hook.
type HookCtx struct {
	// Domain is the object that fires the hook.
	Domain Hookable

	// Pos is where in the domain's lifecycle the hook fires.
	Pos *HookPos

	// Item is the subject, usually a job.
	Item any

	// Detail carries extra data, usually the simulated instant.
	Detail any
}

// Hookable accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook. Register hooks before the domain runs;
	// there is no removal.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// InvokeHook calls every registered hook in registration order.
	InvokeHook(ctx HookCtx)
}

// Hook is invoked by a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements Hookable for embedding.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase with no hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{hooks: make([]Hook, 0)}
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, existing := range h.hooks {
		if existing == hook {
			panic("duplicated hook")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)

// PosCounter counts how many times each position fired. It is safe to share
// between domains running on different goroutines.
type PosCounter struct {
	mu     sync.Mutex
	counts map[*HookPos]int
}

// NewPosCounter creates an empty PosCounter.
func NewPosCounter() *PosCounter {
	return &PosCounter{counts: make(map[*HookPos]int)}
}

// Func records one firing.
func (c *PosCounter) Func(ctx HookCtx) {
	c.mu.Lock()
	c.counts[ctx.Pos]++
	c.mu.Unlock()
}

// Count returns how many times pos fired.
func (c *PosCounter) Count(pos *HookPos) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[pos]
}
