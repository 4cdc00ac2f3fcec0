// Package silo assembles the per-test-host runtime collaborators: the
// grain directory, the type registry, the outbound sender, the named
// provider registry, and the fault-injection controller bound to the
// sender's hook. One Host exists per hosted silo and is torn down with
// it; nothing here is process-global.
package silo

import (
	"context"
	"fmt"
	"sync"

	"github.com/maniacs-sfa/orleans/internal/boundary"
	"github.com/maniacs-sfa/orleans/internal/directory"
	"github.com/maniacs-sfa/orleans/internal/faults"
	"github.com/maniacs-sfa/orleans/internal/model"
	"github.com/maniacs-sfa/orleans/internal/transport"
)

// Provider kinds known to the harness.
const (
	ProviderStorage   = "storage"
	ProviderBootstrap = "bootstrap"
)

// Host is one hosted silo's control-plane assembly.
type Host struct {
	dir    *directory.Directory
	types  *directory.TypeRegistry
	sender *transport.Sender
	ctrl   *faults.Controller

	mu        sync.RWMutex
	providers map[string]map[string]any // kind -> name -> provider
}

// Option configures a Host at creation time.
type Option func(*cfg)

type cfg struct {
	send      transport.SendFunc
	faultOpts []faults.Option
}

// WithSendFunc sets the delivery function behind the outbound sender.
// The default discards messages, which is enough for harness-only hosts.
func WithSendFunc(send transport.SendFunc) Option {
	return func(c *cfg) { c.send = send }
}

// WithFaultOptions forwards options to the fault-injection controller.
func WithFaultOptions(opts ...faults.Option) Option {
	return func(c *cfg) { c.faultOpts = append(c.faultOpts, opts...) }
}

// NewHost assembles a host with an empty directory and provider registry.
func NewHost(opts ...Option) *Host {
	c := cfg{
		send: func(context.Context, *model.Message) error { return nil },
	}
	for _, o := range opts {
		o(&c)
	}

	sender := transport.NewSender(c.send)
	return &Host{
		dir:       directory.New(),
		types:     directory.NewTypeRegistry(),
		sender:    sender,
		ctrl:      faults.NewController(sender, c.faultOpts...),
		providers: make(map[string]map[string]any),
	}
}

// Faults returns the fault-injection controller for this host.
func (h *Host) Faults() *faults.Controller { return h.ctrl }

// Sender returns the outbound send path.
func (h *Host) Sender() *transport.Sender { return h.sender }

// Directory returns the grain routing directory.
func (h *Host) Directory() *directory.Directory { return h.dir }

// Types returns the grain type registry.
func (h *Host) Types() *directory.TypeRegistry { return h.types }

// RegisterGrain records a grain in the directory and binds its owning
// grain interface type name in one step.
func (h *Host) RegisterGrain(id model.GrainID, info model.GrainInfo, typeName string) {
	h.dir.Register(id, info)
	h.types.Bind(id, typeName)
}

// QueryDirectory returns ordinary directory entries whose grain type name
// contains substr.
func (h *Host) QueryDirectory(substr string) (map[model.GrainID]model.GrainInfo, error) {
	return directory.Query(h.dir, h.types, substr)
}

// RegisterProvider makes a named provider resolvable through Provider.
func (h *Host) RegisterProvider(kind, name string, p any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byName, ok := h.providers[kind]
	if !ok {
		byName = make(map[string]any)
		h.providers[kind] = byName
	}
	byName[name] = p
}

// Provider resolves a named provider and validates it for return across
// the isolation boundary. A missing provider is (nil, nil): not found is
// a normal introspection outcome, not an error. An unsafe provider is a
// *boundary.UnsafeReturnError.
func (h *Host) Provider(kind, name string) (any, error) {
	h.mu.RLock()
	p := h.providers[kind][name]
	h.mu.RUnlock()
	if p == nil {
		return nil, nil
	}
	return boundary.ValidateForReturn(p, fmt.Sprintf("%s provider %q", kind, name))
}
