package harness

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/maniacs-sfa/orleans/internal/boundary"
	"github.com/maniacs-sfa/orleans/internal/model"
	"github.com/maniacs-sfa/orleans/internal/server"
	"github.com/maniacs-sfa/orleans/internal/silo"
)

type refProvider struct{}

func (p *refProvider) RemoteReference() boundary.Ref {
	return boundary.Ref{Kind: silo.ProviderStorage, Name: "mem"}
}

type plainProvider struct{}

func testClient(t *testing.T) (*silo.Host, *Client) {
	t.Helper()
	host := silo.NewHost()
	srv := server.New(host, nil, server.Config{}, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return host, New(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
}

func TestEnableAndFaultsRoundTrip(t *testing.T) {
	host, c := testClient(t)
	ctx := context.Background()

	if err := c.Enable(ctx, "10.0.0.2:11111", 50); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !host.Faults().Armed() {
		t.Fatal("expected loss armed on the host")
	}

	table, err := c.Faults(ctx)
	if err != nil {
		t.Fatalf("Faults: %v", err)
	}
	if table["10.0.0.2:11111"] != 50 {
		t.Errorf("unexpected table: %v", table)
	}

	if err := c.DisableAll(ctx); err != nil {
		t.Fatalf("DisableAll: %v", err)
	}
	if host.Faults().Armed() {
		t.Error("expected loss disarmed")
	}
}

func TestEnableInvalidEndpoint(t *testing.T) {
	_, c := testClient(t)
	if err := c.Enable(context.Background(), "bogus", 50); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}

func TestQueryDirectory(t *testing.T) {
	host, c := testClient(t)
	siloEP := model.Endpoint{Address: "10.0.0.1", Port: 11111}
	host.RegisterGrain(model.NewGrainID("foo-1"), model.GrainInfo{Silo: siloEP, Activation: "a1"}, "FooGrain")
	host.RegisterGrain(model.NewGrainID("bar-1"), model.GrainInfo{Silo: siloEP, Activation: "a2"}, "BarGrain")

	entries, err := c.QueryDirectory(context.Background(), "Foo")
	if err != nil {
		t.Fatalf("QueryDirectory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", entries)
	}
	for _, e := range entries {
		if e.Type != "FooGrain" || e.Key != "foo-1" {
			t.Errorf("unexpected entry: %+v", e)
		}
	}

	all, err := c.QueryDirectory(context.Background(), "")
	if err != nil {
		t.Fatalf("QueryDirectory: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty filter should match all ordinary entries, got %d", len(all))
	}
}

func TestProviderNotFound(t *testing.T) {
	_, c := testClient(t)
	_, err := c.Provider(context.Background(), "storage", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProviderBoundaryError(t *testing.T) {
	host, c := testClient(t)
	host.RegisterProvider(silo.ProviderStorage, "legacy", &plainProvider{})

	_, err := c.Provider(context.Background(), "storage", "legacy")
	var be *BoundaryError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BoundaryError, got %v", err)
	}
	if be.TypeName == "" || be.Role == "" {
		t.Errorf("boundary error must carry type and role: %+v", be)
	}
}

func TestProviderReference(t *testing.T) {
	host, c := testClient(t)
	host.RegisterProvider(silo.ProviderStorage, "mem", &refProvider{})

	ref, err := c.Provider(context.Background(), "storage", "mem")
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}
	if ref.Kind != "storage" || ref.Name != "mem" {
		t.Errorf("unexpected ref: %+v", ref)
	}
	if ref.Reference["name"] != "mem" {
		t.Errorf("expected remote reference payload, got %v", ref.Reference)
	}
}

func TestStatus(t *testing.T) {
	_, c := testClient(t)
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Armed {
		t.Error("fresh host should not be armed")
	}
}
