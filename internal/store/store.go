// Package store keeps an audit history in a local SQLite database: one row
// per batch run and one row per audited document.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	directory    TEXT NOT NULL,
	rules_digest TEXT NOT NULL,
	total        INTEGER NOT NULL,
	succeeded    INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	issues       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	path      TEXT NOT NULL,
	digest    TEXT NOT NULL,
	clean     INTEGER NOT NULL,
	score     INTEGER NOT NULL,
	findings  INTEGER NOT NULL,
	issues    INTEGER NOT NULL,
	cached    INTEGER NOT NULL,
	error     TEXT NOT NULL,
	PRIMARY KEY (run_id, path)
);
CREATE INDEX IF NOT EXISTS runs_started ON runs(started_at);
`

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Run summarizes one batch.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Directory   string
	RulesDigest string
	Total       int
	Succeeded   int
	Failed      int
	Issues      int
}

// Document is the outcome of one document within a run.
type Document struct {
	Path     string
	Digest   string
	Clean    bool
	Score    int
	Findings int
	Issues   int
	Cached   bool
	Error    string
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" works for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RecordRun inserts or replaces the run row.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(id, started_at, finished_at, directory, rules_digest, total, succeeded, failed, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Directory, r.RulesDigest,
		r.Total, r.Succeeded, r.Failed, r.Issues)
	if err != nil {
		return fmt.Errorf("store: record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordDocument inserts or replaces one document row of runID.
func (s *Store) RecordDocument(ctx context.Context, runID string, d Document) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO documents
		(run_id, path, digest, clean, score, findings, issues, cached, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, d.Path, d.Digest, boolInt(d.Clean), d.Score, d.Findings, d.Issues, boolInt(d.Cached), d.Error)
	if err != nil {
		return fmt.Errorf("store: record document %s: %w", d.Path, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, directory, rules_digest,
		total, succeeded, failed, issues FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Directory, &r.RulesDigest,
			&r.Total, &r.Succeeded, &r.Failed, &r.Issues); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Documents returns the document rows of runID ordered by path.
func (s *Store) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, digest, clean, score, findings, issues, cached, error
		FROM documents WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query documents: %w", err)
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		var clean, cached int
		if err := rows.Scan(&d.Path, &d.Digest, &clean, &d.Score, &d.Findings, &d.Issues, &cached, &d.Error); err != nil {
			return nil, fmt.Errorf("store: scan document: %w", err)
		}
		d.Clean = clean != 0
		d.Cached = cached != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
