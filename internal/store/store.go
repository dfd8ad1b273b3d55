// Package store persists comparison runs and definition snapshots in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/logx"
)

// Run is one comparison run: a prompt fanned out to every configured model.
type Run struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Task      string    `json:"task"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// Result is one model's outcome within a run.
type Result struct {
	RunID            string        `json:"run_id"`
	Model            string        `json:"model"`
	ModelID          string        `json:"model_id"`
	Duration         time.Duration `json:"duration"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Cached           bool          `json:"cached"`
	Status           string        `json:"status"` // ok | error
	Response         string        `json:"response,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// Definition is a stored agent/task definition snapshot with its security
// tags. Tags are recorded, not evaluated.
type Definition struct {
	Kind     string    `json:"kind"` // agent | task
	Name     string    `json:"name"`
	Tags     []string  `json:"tags"`
	Body     string    `json:"body"` // JSON of the definition as loaded
	LoadedAt time.Time `json:"loaded_at"`
}

// timeLayout is fixed-width (no trimmed fractional zeros) so the TEXT
// timestamp columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating db directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// WAL for concurrent readers while a run is being written
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	db := &DB{sql: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logx.Info("Store", "database opened at %s", path)
	return db, nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			prompt     TEXT NOT NULL,
			task       TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			total      INTEGER NOT NULL,
			succeeded  INTEGER NOT NULL,
			failed     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			model             TEXT NOT NULL,
			model_id          TEXT NOT NULL,
			duration_ms       INTEGER NOT NULL,
			prompt_tokens     INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			cached            INTEGER NOT NULL DEFAULT 0,
			status            TEXT NOT NULL,
			response          TEXT NOT NULL DEFAULT '',
			error             TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)`,
		`CREATE TABLE IF NOT EXISTS definitions (
			kind      TEXT NOT NULL,
			name      TEXT NOT NULL,
			tags      TEXT NOT NULL DEFAULT '',
			body      TEXT NOT NULL,
			loaded_at TEXT NOT NULL,
			PRIMARY KEY (kind, name)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.sql.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun writes the run and all its results in one transaction.
func (db *DB) SaveRun(run Run, results []Result) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, prompt, task, started_at, total, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Prompt, run.Task, run.StartedAt.UTC().Format(timeLayout),
		run.Total, run.Succeeded, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, r := range results {
		_, err = tx.Exec(
			`INSERT INTO results (run_id, model, model_id, duration_ms, prompt_tokens, completion_tokens, cached, status, response, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Model, r.ModelID, r.Duration.Milliseconds(),
			r.PromptTokens, r.CompletionTokens, boolToInt(r.Cached),
			r.Status, r.Response, r.Error,
		)
		if err != nil {
			return fmt.Errorf("inserting result for %s: %w", r.Model, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the newest runs first, at most limit.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.sql.Query(
		`SELECT id, prompt, task, started_at, total, succeeded, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Prompt, &r.Task, &started, &r.Total, &r.Succeeded, &r.Failed); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a run and its results, or sql.ErrNoRows.
func (db *DB) GetRun(id string) (Run, []Result, error) {
	var run Run
	var started string
	err := db.sql.QueryRow(
		`SELECT id, prompt, task, started_at, total, succeeded, failed FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Prompt, &run.Task, &started, &run.Total, &run.Succeeded, &run.Failed)
	if err != nil {
		return Run{}, nil, err
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)

	rows, err := db.sql.Query(
		`SELECT run_id, model, model_id, duration_ms, prompt_tokens, completion_tokens, cached, status, response, error
		 FROM results WHERE run_id = ?
		 ORDER BY CASE WHEN status = 'ok' THEN 0 ELSE 1 END, duration_ms ASC`, id)
	if err != nil {
		return Run{}, nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var durMs int64
		var cached int
		if err := rows.Scan(&r.RunID, &r.Model, &r.ModelID, &durMs, &r.PromptTokens, &r.CompletionTokens, &cached, &r.Status, &r.Response, &r.Error); err != nil {
			return Run{}, nil, err
		}
		r.Duration = time.Duration(durMs) * time.Millisecond
		r.Cached = cached != 0
		results = append(results, r)
	}
	return run, results, rows.Err()
}

// SnapshotDefinitions upserts the loaded agent and task definitions, tags
// included, so later runs can be read against the definitions of their day.
func (db *DB) SnapshotDefinitions(cfg *config.Config) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	upsert := `INSERT INTO definitions (kind, name, tags, body, loaded_at)
	           VALUES (?, ?, ?, ?, ?)
	           ON CONFLICT(kind, name) DO UPDATE SET tags=excluded.tags, body=excluded.body, loaded_at=excluded.loaded_at`

	for name, a := range cfg.Agents {
		body, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(upsert, "agent", name, strings.Join(a.Tags, ","), string(body), now); err != nil {
			return fmt.Errorf("snapshotting agent %s: %w", name, err)
		}
	}
	for name, t := range cfg.Tasks {
		body, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(upsert, "task", name, strings.Join(t.Tags, ","), string(body), now); err != nil {
			return fmt.Errorf("snapshotting task %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// ListDefinitions returns the stored definitions of one kind.
func (db *DB) ListDefinitions(kind string) ([]Definition, error) {
	rows, err := db.sql.Query(
		`SELECT kind, name, tags, body, loaded_at FROM definitions WHERE kind = ? ORDER BY name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Definition
	for rows.Next() {
		var d Definition
		var tags, loaded string
		if err := rows.Scan(&d.Kind, &d.Name, &tags, &d.Body, &loaded); err != nil {
			return nil, err
		}
		if tags != "" {
			d.Tags = strings.Split(tags, ",")
		}
		d.LoadedAt, _ = time.Parse(timeLayout, loaded)
		out = append(out, d)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
