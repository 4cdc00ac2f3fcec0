package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/maniacs-sfa/orleans/internal/boundary"
	"github.com/maniacs-sfa/orleans/internal/faults"
	"github.com/maniacs-sfa/orleans/internal/model"
	"github.com/maniacs-sfa/orleans/internal/silo"
)

type refProvider struct{ name string }

func (p *refProvider) RemoteReference() boundary.Ref {
	return boundary.Ref{Kind: silo.ProviderStorage, Name: p.name}
}

type plainProvider struct{}

func testServer(t *testing.T, opts ...silo.Option) (*silo.Host, *httptest.Server) {
	t.Helper()
	opts = append(opts, silo.WithFaultOptions(faults.WithSeed(1)))
	host := silo.NewHost(opts...)
	srv := New(host, nil, Config{}, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return host, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// --- Fault endpoints ---

func TestEnableArmsLoss(t *testing.T) {
	host, ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/faults", map[string]any{
		"endpoint": "10.0.0.2:11111",
		"percent":  50,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	if got := host.Faults().Faults()["10.0.0.2:11111"]; got != 50 {
		t.Errorf("expected 50 armed, got %v", got)
	}
}

func TestEnableRejectsBadEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/faults", map[string]any{
		"endpoint": "bogus",
		"percent":  50,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDisableAllClears(t *testing.T) {
	host, ts := testServer(t)
	ep, _ := model.ParseEndpoint("10.0.0.2:11111")
	host.Faults().Enable(ep, 100)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/faults", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if host.Faults().Armed() {
		t.Error("expected nothing armed after disable")
	}
}

func TestFaultsReportsTable(t *testing.T) {
	host, ts := testServer(t)
	ep, _ := model.ParseEndpoint("10.0.0.2:11111")
	host.Faults().Enable(ep, 75)

	resp, err := http.Get(ts.URL + "/v1/faults")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Faults map[string]float64 `json:"faults"`
	}
	decode(t, resp, &body)
	if body.Faults["10.0.0.2:11111"] != 75 {
		t.Errorf("unexpected table: %v", body.Faults)
	}
}

// --- Directory endpoint ---

func TestDirectoryQueryFilters(t *testing.T) {
	host, ts := testServer(t)
	siloEP := model.Endpoint{Address: "10.0.0.1", Port: 11111}
	host.RegisterGrain(model.NewGrainID("foo-1"), model.GrainInfo{Silo: siloEP}, "FooGrain")
	host.RegisterGrain(model.NewGrainID("bar-1"), model.GrainInfo{Silo: siloEP}, "BarGrain")
	host.Directory().Register(model.GrainID{Kind: model.KindSystemTarget, Key: "sys"}, model.GrainInfo{})
	host.Types().Bind(model.GrainID{Kind: model.KindSystemTarget, Key: "sys"}, "FooSystem")

	resp, err := http.Get(ts.URL + "/v1/directory?type=Foo")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Entries map[string]directoryEntry `json:"entries"`
	}
	decode(t, resp, &body)
	if len(body.Entries) != 1 {
		t.Fatalf("expected one entry, got %v", body.Entries)
	}
	for _, e := range body.Entries {
		if e.Type != "FooGrain" {
			t.Errorf("unexpected entry: %+v", e)
		}
	}
}

// --- Provider endpoint ---

func TestProviderFound(t *testing.T) {
	host, ts := testServer(t)
	host.RegisterProvider(silo.ProviderStorage, "mem", &refProvider{name: "mem"})

	resp, err := http.Get(ts.URL + "/v1/providers/storage/mem")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Kind      string         `json:"kind"`
		Name      string         `json:"name"`
		Reference map[string]any `json:"reference"`
	}
	decode(t, resp, &body)
	if body.Kind != "storage" || body.Name != "mem" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Reference["name"] != "mem" {
		t.Errorf("expected remote reference, got %v", body.Reference)
	}
}

func TestProviderNotFound(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/providers/storage/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProviderBoundaryViolation(t *testing.T) {
	host, ts := testServer(t)
	host.RegisterProvider(silo.ProviderStorage, "legacy", &plainProvider{})

	resp, err := http.Get(ts.URL + "/v1/providers/storage/legacy")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
		Type  string `json:"type"`
		Role  string `json:"role"`
	}
	decode(t, resp, &body)
	if body.Type == "" || body.Role == "" {
		t.Errorf("violation must name type and role: %+v", body)
	}
}

// --- Scenario reload ---

func TestReloadScenarioApplies(t *testing.T) {
	host := silo.NewHost()
	path := filepath.Join(t.TempDir(), "loss.yaml")
	content := "name: reload-test\nlosses:\n  - endpoint: 10.0.0.2:11111\n    percent: 50\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	srv := New(host, nil, Config{ScenarioPath: path}, zerolog.Nop())
	if err := srv.ReloadScenario(); err != nil {
		t.Fatalf("ReloadScenario: %v", err)
	}
	if host.Faults().Faults()["10.0.0.2:11111"] != 50 {
		t.Errorf("scenario not applied: %v", host.Faults().Faults())
	}
}

func TestStatusReportsCounters(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Armed  bool   `json:"armed"`
		Uptime string `json:"uptime"`
	}
	decode(t, resp, &body)
	if body.Armed {
		t.Error("expected nothing armed on a fresh host")
	}
	if _, err := time.ParseDuration(body.Uptime); err != nil {
		t.Errorf("uptime not a duration: %q", body.Uptime)
	}
}
