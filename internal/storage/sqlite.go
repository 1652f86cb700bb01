package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/grantseek/internal/models"
)

// SQLiteStorage implements Catalog using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS grants (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL UNIQUE,
		number TEXT,
		title TEXT,
		description TEXT,
		agency TEXT,
		amount_min TEXT,
		amount_max TEXT,
		deadline TEXT,
		posted_date TEXT,
		category TEXT,
		url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_grants_category ON grants(category);

	CREATE TABLE IF NOT EXISTS index_runs (
		id TEXT PRIMARY KEY,
		indexed_at TIMESTAMP NOT NULL,
		record_count INTEGER NOT NULL,
		dimensions INTEGER NOT NULL,
		model TEXT NOT NULL,
		index_type TEXT NOT NULL,
		used_fallback BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_index_runs_indexed_at ON index_runs(indexed_at);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `id, number, title, description, agency, amount_min, amount_max, deadline, posted_date, category, url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	err := row.Scan(&r.ID, &r.Number, &r.Title, &r.Description, &r.Agency,
		&r.AmountMin, &r.AmountMax, &r.Deadline, &r.PostedDate, &r.Category, &r.URL)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReplaceRecords deletes all records and inserts records in one transaction.
func (s *SQLiteStorage) ReplaceRecords(ctx context.Context, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM grants`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO grants (position, `+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Number, r.Title, r.Description, r.Agency,
			r.AmountMin, r.AmountMax, r.Deadline, r.PostedDate, r.Category, r.URL); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// GetRecord returns a record by ID.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM grants WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecords returns records in position order with offset and limit.
func (s *SQLiteStorage) ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM grants ORDER BY position LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grants`).Scan(&count)
	return count, err
}

// RecordIndexRun inserts an index run. IndexedAt defaults to now.
func (s *SQLiteStorage) RecordIndexRun(ctx context.Context, run *IndexRun) error {
	if run.IndexedAt.IsZero() {
		run.IndexedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_runs (id, indexed_at, record_count, dimensions, model, index_type, used_fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.IndexedAt, run.RecordCount, run.Dimensions, run.Model, run.IndexType, run.UsedFallback,
	)
	return err
}

// LatestIndexRun returns the most recent index run.
func (s *SQLiteStorage) LatestIndexRun(ctx context.Context) (*IndexRun, error) {
	var run IndexRun
	err := s.db.QueryRowContext(ctx,
		`SELECT id, indexed_at, record_count, dimensions, model, index_type, used_fallback
		 FROM index_runs ORDER BY indexed_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.IndexedAt, &run.RecordCount, &run.Dimensions, &run.Model, &run.IndexType, &run.UsedFallback)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
