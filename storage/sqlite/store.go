// Package sqlite provides a file-backed tender store for single-process
// use, without requiring a NATS server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/c360studio/tendercheck/tender"
)

// Store persists tenders in a local SQLite database. It implements
// tender.Repository. Validation results live in an append-only table:
// Save only inserts result rows not yet persisted, it never rewrites
// history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenders (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            requirements TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS results (
            seq INTEGER PRIMARY KEY,
            tender_id TEXT NOT NULL REFERENCES tenders(id),
            payload TEXT NOT NULL,
            created_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_results_tender ON results(tender_id, seq);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return tx.Commit()
}

// FindByID loads a tender and its full result history.
func (s *Store) FindByID(ctx context.Context, id string) (*tender.Tender, error) {
	var t tender.Tender
	var requirementsJSON string

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, requirements, created_at, updated_at FROM tenders WHERE id = ?`, id)
	if err := row.Scan(&t.ID, &t.Title, &requirementsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, tender.ErrNotFound
		}
		return nil, fmt.Errorf("query tender: %w", err)
	}

	if err := json.Unmarshal([]byte(requirementsJSON), &t.Requirements); err != nil {
		return nil, fmt.Errorf("unmarshal requirements: %w", err)
	}

	results, err := s.loadResults(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Results = results

	return &t, nil
}

// Save upserts the tender row and appends any result entries beyond what
// is already persisted. Existing result rows are never touched.
func (s *Store) Save(ctx context.Context, t *tender.Tender) error {
	if t.ID == "" {
		return fmt.Errorf("tender ID is required")
	}

	requirementsJSON, err := json.Marshal(t.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tenders(id, title, requirements, created_at, updated_at)
         VALUES(?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET title=excluded.title,
            requirements=excluded.requirements, updated_at=excluded.updated_at`,
		t.ID, t.Title, string(requirementsJSON), createdAt, now); err != nil {
		return fmt.Errorf("upsert tender: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE tender_id = ?`, t.ID).Scan(&stored); err != nil {
		return fmt.Errorf("count results: %w", err)
	}
	if stored > len(t.Results) {
		return fmt.Errorf("tender %s has %d stored results but only %d in memory, refusing to save", t.ID, stored, len(t.Results))
	}

	for _, result := range t.Results[stored:] {
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results(tender_id, payload, created_at) VALUES(?, ?, ?)`,
			t.ID, string(payload), result.CreatedAt); err != nil {
			return fmt.Errorf("append result: %w", err)
		}
	}

	return tx.Commit()
}

// List returns all stored tenders without their result histories.
func (s *Store) List(ctx context.Context) ([]*tender.Tender, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, requirements, created_at, updated_at FROM tenders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query tenders: %w", err)
	}
	defer rows.Close()

	var tenders []*tender.Tender
	for rows.Next() {
		var t tender.Tender
		var requirementsJSON string
		if err := rows.Scan(&t.ID, &t.Title, &requirementsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tender: %w", err)
		}
		if err := json.Unmarshal([]byte(requirementsJSON), &t.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshal requirements: %w", err)
		}
		tenders = append(tenders, &t)
	}
	return tenders, rows.Err()
}

func (s *Store) loadResults(ctx context.Context, tenderID string) ([]tender.ValidationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM results WHERE tender_id = ? ORDER BY seq`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []tender.ValidationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var result tender.ValidationResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
