// Package server exposes a silo host's fault-injection and introspection
// control plane to an out-of-process test driver over HTTP/JSON, and
// hot-reapplies the loss scenario file on change.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/maniacs-sfa/orleans/internal/boundary"
	"github.com/maniacs-sfa/orleans/internal/journal"
	"github.com/maniacs-sfa/orleans/internal/model"
	"github.com/maniacs-sfa/orleans/internal/scenario"
	"github.com/maniacs-sfa/orleans/internal/silo"
)

// Config holds control server configuration.
type Config struct {
	Addr         string
	ScenarioPath string
}

// Server serves the driver-facing control API for one silo host.
type Server struct {
	host    *silo.Host
	jrnl    *journal.Journal
	cfg     Config
	log     zerolog.Logger
	httpSrv *http.Server
	started time.Time
}

// New creates a control server for host. jrnl may be nil.
func New(host *silo.Host, jrnl *journal.Journal, cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		host:    host,
		jrnl:    jrnl,
		cfg:     cfg,
		log:     log,
		started: time.Now().UTC(),
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the control API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/faults", s.handleEnable)
	mux.HandleFunc("DELETE /v1/faults", s.handleDisableAll)
	mux.HandleFunc("GET /v1/faults", s.handleFaults)
	mux.HandleFunc("GET /v1/directory", s.handleDirectory)
	mux.HandleFunc("GET /v1/providers/{kind}/{name}", s.handleProvider)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	return mux
}

// ListenAndServe starts serving on the configured address. Blocks.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeOn(lis)
}

// ServeOn serves on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	s.log.Info().Str("addr", lis.Addr().String()).Msg("control server listening")
	err := s.httpSrv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the server down immediately.
func (s *Server) Close() error {
	return s.httpSrv.Close()
}

// ReloadScenario loads the configured scenario file and applies it,
// replacing the armed state. Called at startup and by the reloader.
func (s *Server) ReloadScenario() error {
	if s.cfg.ScenarioPath == "" {
		return nil
	}
	sc, err := scenario.Load(s.cfg.ScenarioPath)
	if err != nil {
		return err
	}
	for _, w := range sc.Warnings() {
		s.log.Warn().Str("scenario", sc.Name).Msg(w)
	}
	if err := sc.Apply(s.host.Faults()); err != nil {
		return err
	}
	s.jrnl.RecordDisableAll()
	for _, l := range sc.Losses {
		if ep, err := model.ParseEndpoint(l.Endpoint); err == nil {
			s.jrnl.RecordEnable(ep, l.Percent)
		}
	}
	s.log.Info().Str("scenario", sc.Name).Int("losses", len(sc.Losses)).Msg("scenario applied")
	return nil
}

type enableRequest struct {
	Endpoint string  `json:"endpoint"`
	Percent  float64 `json:"percent"`
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	var req enableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	ep, err := model.ParseEndpoint(req.Endpoint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.host.Faults().Enable(ep, req.Percent)
	s.jrnl.RecordEnable(ep, req.Percent)
	s.log.Debug().Str("endpoint", ep.String()).Float64("percent", req.Percent).Msg("loss armed")
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoint": ep.String(),
		"percent":  req.Percent,
	})
}

func (s *Server) handleDisableAll(w http.ResponseWriter, r *http.Request) {
	s.host.Faults().DisableAll()
	s.jrnl.RecordDisableAll()
	s.log.Debug().Msg("loss disarmed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"faults": s.host.Faults().Faults(),
	})
}

type directoryEntry struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	Silo       string `json:"silo"`
	Activation string `json:"activation"`
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	substr := r.URL.Query().Get("type")
	matches, err := s.host.QueryDirectory(substr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries := make(map[string]directoryEntry, len(matches))
	for id, info := range matches {
		name, err := s.host.Types().TypeName(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		entries[id.String()] = directoryEntry{
			Key:        id.Key,
			Type:       name,
			Silo:       info.Silo.String(),
			Activation: info.Activation,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	name := r.PathValue("name")

	p, err := s.host.Provider(kind, name)
	if err != nil {
		var unsafe *boundary.UnsafeReturnError
		if errors.As(err, &unsafe) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": unsafe.Error(),
				"type":  unsafe.TypeName,
				"role":  unsafe.Role,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s provider %q not found", kind, name))
		return
	}

	resp := map[string]any{"kind": kind, "name": name}
	switch v := p.(type) {
	case boundary.RemoteReferencer:
		resp["reference"] = v.RemoteReference()
	case boundary.ValueCopier:
		resp["value"] = v.CopyValue()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sent, dropped := s.host.Sender().Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    s.jrnl.RunID(),
		"uptime":    time.Since(s.started).String(),
		"armed":     s.host.Faults().Armed(),
		"sent":      sent,
		"dropped":   dropped,
		"directory": s.host.Directory().Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
