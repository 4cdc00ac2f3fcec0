package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reloader watches the scenario file and reapplies it on change, so a
// running test can change loss rules by editing the file.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
	log     zerolog.Logger
}

// NewReloader creates a file watcher for the server's scenario path.
// Returns an error if the path is unset or not watchable.
func NewReloader(server *Server, log zerolog.Logger) (*Reloader, error) {
	path := server.cfg.ScenarioPath
	if path == "" {
		return nil, fmt.Errorf("server: no scenario path configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("server: scenario file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("server: watch %q: %w", path, err)
	}

	return &Reloader{watcher: watcher, server: server, log: log}, nil
}

// Run watches for file changes and reapplies the scenario. Blocks until
// ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reapplying
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := r.server.ReloadScenario(); err != nil {
						r.log.Error().Err(err).Msg("scenario hot-reload failed")
					} else {
						r.log.Info().Msg("scenario hot-reloaded")
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error().Err(err).Msg("file watcher error")
		}
	}
}
