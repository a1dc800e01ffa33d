// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records every batch run in a SQLite database so past
// conversions can be listed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// Status is the state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded batch.
type Run struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	OutputRoot       string
	Format           types.ArchiveFormat
	ChapterStructure bool
	Status           Status
	Message          string
	Documents        []types.DocumentResult
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			output_root TEXT NOT NULL,
			format TEXT NOT NULL,
			chapter_structure INTEGER NOT NULL,
			status TEXT NOT NULL,
			message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_documents (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			document TEXT NOT NULL,
			pages INTEGER NOT NULL,
			archive_path TEXT,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin records a run that has just started and returns its ID.
func (s *Store) Begin(ctx context.Context, cfg types.RunConfig, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, output_root, format, chapter_structure, status) VALUES (?, ?, ?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339Nano), cfg.OutputRoot, string(cfg.Format), cfg.ChapterStructure, string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// Finish stamps the outcome of run id. On success result lists the
// documents produced; on failure runErr carries the message and result may
// be nil.
func (s *Store) Finish(ctx context.Context, id int64, result *types.BatchResult, runErr error, finishedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, message = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), string(status), message, id,
	); err != nil {
		return fmt.Errorf("updating run %d: %w", id, err)
	}

	if result != nil {
		for i, d := range result.Documents {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO run_documents (run_id, position, document, pages, archive_path) VALUES (?, ?, ?, ?, ?)`,
				id, i, d.Document, d.Pages, d.ArchivePath,
			); err != nil {
				return fmt.Errorf("inserting document %s: %w", d.Document, err)
			}
		}
	}
	return tx.Commit()
}

// List returns up to limit runs, newest first, with their documents.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), output_root, format, chapter_structure, status, COALESCE(message, '')
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			format, status    string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.OutputRoot, &format, &r.ChapterStructure, &status, &r.Message); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		r.Format = types.ArchiveFormat(format)
		r.Status = Status(status)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		docs, err := s.documents(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Documents = docs
	}
	return runs, nil
}

func (s *Store) documents(ctx context.Context, runID int64) ([]types.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document, pages, COALESCE(archive_path, '') FROM run_documents WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying documents of run %d: %w", runID, err)
	}
	defer rows.Close()

	var docs []types.DocumentResult
	for rows.Next() {
		var d types.DocumentResult
		if err := rows.Scan(&d.Document, &d.Pages, &d.ArchivePath); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.BaseName = types.BaseName(d.Document)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
