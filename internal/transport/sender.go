// Package transport models the outbound send path of the silo messaging
// stack, reduced to the one extension point the fault-injection control
// plane needs: a single, atomically swappable drop predicate consulted
// once per outbound message.
package transport

import (
	"context"
	"sync/atomic"

	"github.com/maniacs-sfa/orleans/internal/model"
)

// SendFunc delivers one message to its destination silo.
type SendFunc func(ctx context.Context, msg *model.Message) error

// DropPredicate decides whether an outbound message to dest is discarded.
type DropPredicate func(dest model.Endpoint) bool

// Sender is the outbound send path. When no predicate is installed every
// message is delivered; an installed predicate is consulted before
// transmission and a true result silently discards the message, which is
// how injected network loss appears to the rest of the runtime.
type Sender struct {
	send    SendFunc
	pred    atomic.Pointer[DropPredicate]
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewSender wraps the given delivery function.
func NewSender(send SendFunc) *Sender {
	return &Sender{send: send}
}

// InstallDropPredicate atomically installs pred on the send path.
// Concurrent Send calls observe either the fully installed predicate or
// the previous state, never a partial one.
func (s *Sender) InstallDropPredicate(pred func(dest model.Endpoint) bool) {
	p := DropPredicate(pred)
	s.pred.Store(&p)
}

// RemoveDropPredicate restores the default behavior: never drop.
func (s *Sender) RemoveDropPredicate() {
	s.pred.Store(nil)
}

// Send transmits msg unless the installed predicate drops it. A dropped
// message is not an error; loss is indistinguishable from the network
// losing the packet.
func (s *Sender) Send(ctx context.Context, msg *model.Message) error {
	if p := s.pred.Load(); p != nil && (*p)(msg.Destination()) {
		s.dropped.Add(1)
		return nil
	}
	s.sent.Add(1)
	return s.send(ctx, msg)
}

// Stats reports messages delivered and messages dropped since creation.
func (s *Sender) Stats() (sent, dropped uint64) {
	return s.sent.Load(), s.dropped.Load()
}
