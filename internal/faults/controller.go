// Package faults is the message-loss injection control plane. A Controller
// owns a lazily created table of per-endpoint loss percentages and installs
// its drop decision as the single predicate hook on the runtime's outbound
// send path. Decisions are evaluated inline on the send path, once per
// message, from any number of goroutines; control operations come from the
// test driver and may interleave freely with in-flight decisions.
package faults

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/maniacs-sfa/orleans/internal/model"
)

// SendPathHook is the extension point the runtime's send path exposes:
// a single settable drop predicate, checked once per outbound message.
type SendPathHook interface {
	InstallDropPredicate(pred func(dest model.Endpoint) bool)
	RemoveDropPredicate()
}

// Controller arms and disarms per-endpoint message loss.
type Controller struct {
	hook      SendPathHook
	table     atomic.Pointer[LossTable]
	installed atomic.Bool
	random    func() float64
	observer  func(dest model.Endpoint, dropped bool)
}

// Option configures a Controller at creation time.
type Option func(*Controller)

// WithSeed makes drop decisions deterministic by drawing from a seeded
// generator guarded by a mutex, instead of the shared runtime source.
func WithSeed(seed uint64) Option {
	return func(c *Controller) { c.random = seededFloat(seed) }
}

// WithDecisionObserver registers a callback invoked after every decision
// for an armed endpoint. Used by the harness journal; must not block.
func WithDecisionObserver(fn func(dest model.Endpoint, dropped bool)) Option {
	return func(c *Controller) { c.observer = fn }
}

// NewController creates a controller bound to the given send-path hook.
// The table does not exist until the first Enable call.
func NewController(hook SendPathHook, opts ...Option) *Controller {
	c := &Controller{
		hook:   hook,
		random: rand.Float64,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Enable arms message loss toward ep at the given percentage, creating the
// table on first use and installing the drop predicate if not yet installed.
// Repeated calls for the same endpoint overwrite the percentage.
func (c *Controller) Enable(ep model.Endpoint, percent float64) {
	t := c.table.Load()
	if t == nil {
		fresh := newLossTable()
		if !c.table.CompareAndSwap(nil, fresh) {
			t = c.table.Load()
		} else {
			t = fresh
		}
	}
	t.Set(ep, percent)
	if c.installed.CompareAndSwap(false, true) {
		c.hook.InstallDropPredicate(c.Decide)
	}
}

// DisableAll removes the predicate from the send path and discards the
// table. Safe when nothing was ever armed, and safe to interleave with
// Enable and Decide calls: a racing Enable ends up either fully armed or
// fully cleared, and Decide treats a missing table as "never drop".
func (c *Controller) DisableAll() {
	if c.installed.CompareAndSwap(true, false) {
		c.hook.RemoveDropPredicate()
	}
	c.table.Store(nil)
}

// Decide is the drop predicate: true means drop the message addressed to
// dest. An absent table or an unarmed endpoint never drops. For an armed
// endpoint with percentage p the decision is an independent Bernoulli
// trial, drop iff r < p for uniform r in [0,100). Values of p at or above
// 100 always drop; values at or below 0 never drop.
func (c *Controller) Decide(dest model.Endpoint) bool {
	t := c.table.Load()
	if t == nil {
		return false
	}
	p, ok := t.Get(dest)
	if !ok {
		return false
	}
	dropped := c.random()*100 < p
	if c.observer != nil {
		c.observer(dest, dropped)
	}
	return dropped
}

// Faults reports the currently armed endpoints and their percentages.
func (c *Controller) Faults() map[string]float64 {
	t := c.table.Load()
	if t == nil {
		return map[string]float64{}
	}
	return t.Snapshot()
}

// Armed reports whether any endpoint is currently armed.
func (c *Controller) Armed() bool {
	t := c.table.Load()
	return t != nil && t.Len() > 0
}

// seededFloat returns a deterministic uniform source in [0,1). rand/v2
// generators are not safe for concurrent use, so the generator is guarded.
func seededFloat(seed uint64) func() float64 {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed))
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return rng.Float64()
	}
}
