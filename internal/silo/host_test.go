package silo

import (
	"context"
	"errors"
	"testing"

	"github.com/maniacs-sfa/orleans/internal/boundary"
	"github.com/maniacs-sfa/orleans/internal/faults"
	"github.com/maniacs-sfa/orleans/internal/model"
)

type memStorage struct{ name string }

func (p *memStorage) RemoteReference() boundary.Ref {
	return boundary.Ref{Kind: ProviderStorage, Name: p.name}
}

type legacyStorage struct{}

func TestProviderLookupThroughGuard(t *testing.T) {
	h := NewHost()
	p := &memStorage{name: "mem"}
	h.RegisterProvider(ProviderStorage, "mem", p)

	got, err := h.Provider(ProviderStorage, "mem")
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}
	if got != p {
		t.Error("expected the registered provider back, unchanged")
	}
}

func TestProviderAbsentIsNilNotError(t *testing.T) {
	h := NewHost()
	got, err := h.Provider(ProviderBootstrap, "missing")
	if err != nil {
		t.Fatalf("absent provider must not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestProviderUnsafeIsBoundaryViolation(t *testing.T) {
	h := NewHost()
	h.RegisterProvider(ProviderStorage, "legacy", &legacyStorage{})

	_, err := h.Provider(ProviderStorage, "legacy")
	var unsafe *boundary.UnsafeReturnError
	if !errors.As(err, &unsafe) {
		t.Fatalf("expected *UnsafeReturnError, got %v", err)
	}
	if unsafe.Role != `storage provider "legacy"` {
		t.Errorf("role = %q", unsafe.Role)
	}
}

func TestRegisterGrainAndQuery(t *testing.T) {
	h := NewHost()
	siloEP := model.Endpoint{Address: "10.0.0.1", Port: 11111}
	h.RegisterGrain(model.NewGrainID("foo-1"), model.GrainInfo{Silo: siloEP, Activation: "a1"}, "FooGrain")
	h.RegisterGrain(model.NewGrainID("bar-1"), model.GrainInfo{Silo: siloEP, Activation: "a2"}, "BarGrain")

	got, err := h.QueryDirectory("Bar")
	if err != nil {
		t.Fatalf("QueryDirectory: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	info, ok := got[model.NewGrainID("bar-1")]
	if !ok || info.Activation != "a2" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestHostWiresControllerToSendPath(t *testing.T) {
	var delivered int
	h := NewHost(
		WithSendFunc(func(context.Context, *model.Message) error {
			delivered++
			return nil
		}),
		WithFaultOptions(faults.WithSeed(1)),
	)

	lossy := model.Endpoint{Address: "10.0.0.2", Port: 11111}
	h.Faults().Enable(lossy, 100)

	send := func(ep model.Endpoint) {
		h.Sender().Send(context.Background(), &model.Message{Target: model.NewGrainID("g"), Silo: ep})
	}
	for i := 0; i < 50; i++ {
		send(lossy)
	}
	if delivered != 0 {
		t.Errorf("expected all messages to lossy endpoint dropped, %d delivered", delivered)
	}

	h.Faults().DisableAll()
	for i := 0; i < 50; i++ {
		send(lossy)
	}
	if delivered != 50 {
		t.Errorf("expected delivery restored after DisableAll, got %d", delivered)
	}

	_, dropped := h.Sender().Stats()
	if dropped != 50 {
		t.Errorf("expected 50 drops recorded, got %d", dropped)
	}
}
