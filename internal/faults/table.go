package faults

import (
	"sync"

	"github.com/maniacs-sfa/orleans/internal/model"
)

// LossTable maps destination endpoints to message-loss percentages.
// Reads happen once per outbound message from many goroutines; writes are
// rare control operations. Entries are visible atomically per key.
type LossTable struct {
	entries sync.Map // model.Endpoint -> float64
}

func newLossTable() *LossTable {
	return &LossTable{}
}

// Set upserts the loss percentage for an endpoint. Last write wins.
func (t *LossTable) Set(ep model.Endpoint, percent float64) {
	t.entries.Store(ep, percent)
}

// Get returns the loss percentage for an endpoint, if armed.
func (t *LossTable) Get(ep model.Endpoint) (float64, bool) {
	v, ok := t.entries.Load(ep)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// Len counts armed endpoints.
func (t *LossTable) Len() int {
	n := 0
	t.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Snapshot copies the table into a plain map keyed by endpoint string,
// for introspection and driver reporting.
func (t *LossTable) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	t.entries.Range(func(k, v any) bool {
		out[k.(model.Endpoint).String()] = v.(float64)
		return true
	})
	return out
}
