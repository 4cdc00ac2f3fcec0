// Package journal persists a per-run record of control-plane operations
// and drop decisions to SQLite, so a test driver can assert on observed
// loss after the fact. Records are buffered in memory and written by a
// single goroutine; the hot decision path only enqueues.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/maniacs-sfa/orleans/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   TEXT NOT NULL,
	at       TEXT NOT NULL,
	kind     TEXT NOT NULL,
	endpoint TEXT,
	percent  REAL,
	dropped  INTEGER
);
CREATE INDEX IF NOT EXISTS events_run_kind ON events (run_id, kind);
`

// Event kinds recorded by the journal.
const (
	KindEnable     = "enable"
	KindDisableAll = "disable_all"
	KindDecision   = "decision"
)

type event struct {
	at       time.Time
	kind     string
	endpoint string
	percent  float64
	dropped  bool
}

// Journal is a buffered, append-only event journal for one harness run.
// A nil *Journal is valid and records nothing.
type Journal struct {
	db    *sql.DB
	runID string
	log   zerolog.Logger

	mu      sync.Mutex
	cv      *sync.Cond
	pending *queue.Queue
	writing bool
	closed  bool
	done    chan struct{}
}

// Open creates or opens the journal database at path and starts the
// writer. Each Open is a distinct run with a fresh run ID.
func Open(path string, log zerolog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	j := &Journal{
		db:      db,
		runID:   uuid.NewString(),
		log:     log,
		pending: queue.New(),
		done:    make(chan struct{}),
	}
	j.cv = sync.NewCond(&j.mu)
	go j.writer()
	j.log.Debug().Str("run_id", j.runID).Str("path", path).Msg("journal opened")
	return j, nil
}

// RunID identifies this journal session.
func (j *Journal) RunID() string {
	if j == nil {
		return ""
	}
	return j.runID
}

// RecordEnable journals an enable control operation.
func (j *Journal) RecordEnable(ep model.Endpoint, percent float64) {
	j.enqueue(event{kind: KindEnable, endpoint: ep.String(), percent: percent})
}

// RecordDisableAll journals a disable-all control operation.
func (j *Journal) RecordDisableAll() {
	j.enqueue(event{kind: KindDisableAll})
}

// RecordDecision journals one drop decision for an armed endpoint.
func (j *Journal) RecordDecision(ep model.Endpoint, dropped bool) {
	j.enqueue(event{kind: KindDecision, endpoint: ep.String(), dropped: dropped})
}

func (j *Journal) enqueue(e event) {
	if j == nil {
		return
	}
	e.at = time.Now().UTC()
	j.mu.Lock()
	if !j.closed {
		j.pending.Add(e)
	}
	j.cv.Broadcast()
	j.mu.Unlock()
}

// writer drains pending events in batches until Close.
func (j *Journal) writer() {
	defer close(j.done)
	for {
		j.mu.Lock()
		for j.pending.Length() == 0 && !j.closed {
			j.cv.Wait()
		}
		if j.pending.Length() == 0 && j.closed {
			j.mu.Unlock()
			return
		}
		batch := make([]event, 0, j.pending.Length())
		for j.pending.Length() > 0 {
			batch = append(batch, j.pending.Remove().(event))
		}
		j.writing = true
		j.mu.Unlock()

		if err := j.writeBatch(batch); err != nil {
			j.log.Error().Err(err).Int("events", len(batch)).Msg("journal write failed")
		}

		j.mu.Lock()
		j.writing = false
		j.cv.Broadcast()
		j.mu.Unlock()
	}
}

func (j *Journal) writeBatch(batch []event) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO events (run_id, at, kind, endpoint, percent, dropped) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, e := range batch {
		dropped := 0
		if e.dropped {
			dropped = 1
		}
		if _, err := stmt.Exec(j.runID, e.at.Format(time.RFC3339Nano), e.kind, e.endpoint, e.percent, dropped); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

// Flush blocks until every event enqueued so far is committed.
func (j *Journal) Flush() {
	if j == nil {
		return
	}
	j.mu.Lock()
	for j.pending.Length() > 0 || j.writing {
		j.cv.Wait()
	}
	j.mu.Unlock()
}

// DecisionCounts reports drop decisions recorded for an endpoint in this
// run: how many were drops and how many decisions happened in total.
func (j *Journal) DecisionCounts(ep model.Endpoint) (dropped, total int, err error) {
	if j == nil {
		return 0, 0, nil
	}
	j.Flush()
	row := j.db.QueryRow(
		"SELECT COALESCE(SUM(dropped), 0), COUNT(*) FROM events WHERE run_id = ? AND kind = ? AND endpoint = ?",
		j.runID, KindDecision, ep.String())
	if err := row.Scan(&dropped, &total); err != nil {
		return 0, 0, fmt.Errorf("journal: decision counts: %w", err)
	}
	return dropped, total, nil
}

// CountByKind reports how many events of each kind this run recorded.
func (j *Journal) CountByKind() (map[string]int, error) {
	if j == nil {
		return map[string]int{}, nil
	}
	j.Flush()
	rows, err := j.db.Query(
		"SELECT kind, COUNT(*) FROM events WHERE run_id = ? GROUP BY kind", j.runID)
	if err != nil {
		return nil, fmt.Errorf("journal: count by kind: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("journal: count by kind: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// Close drains pending events and closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.cv.Broadcast()
	j.mu.Unlock()
	<-j.done
	return j.db.Close()
}
