package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

const defaultListLimit = 20

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Run operations

// recordRunWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) recordRunWithQuerier(ctx context.Context, q querier, run *Run) error {
	query := `
		INSERT INTO filter_runs (id, batch_id, root, infile, outfile, total_entries, kept_entries, error, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().Round(0)
	}

	var batchID sql.NullString
	if run.BatchID != "" {
		batchID = sql.NullString{String: run.BatchID, Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		run.ID, batchID, run.Root, run.Infile, run.Outfile,
		run.TotalEntries, run.KeptEntries, run.Error, int64(run.Duration), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordRun stores a single run, assigning an ID if it has none
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *Run) error {
	return s.recordRunWithQuerier(ctx, s.db, run)
}

// RecordRuns stores runs in one transaction under a shared batch ID.
// Runs that already carry a BatchID keep it.
func (s *SQLiteStorage) RecordRuns(ctx context.Context, runs []*Run) error {
	if len(runs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	batchID := uuid.New().String()
	for _, run := range runs {
		if run.BatchID == "" {
			run.BatchID = batchID
		}
		if err := s.recordRunWithQuerier(ctx, tx, run); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const runColumns = `id, batch_id, root, infile, outfile, total_entries, kept_entries, error, duration_ns, created_at`

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var batchID, runErr sql.NullString
	var durationNs int64
	var createdAt sql.NullTime
	err := row.Scan(
		&run.ID, &batchID, &run.Root, &run.Infile, &run.Outfile,
		&run.TotalEntries, &run.KeptEntries, &runErr, &durationNs, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if batchID.Valid {
		run.BatchID = batchID.String
	}
	if runErr.Valid {
		run.Error = &runErr.String
	}
	if createdAt.Valid {
		run.CreatedAt = createdAt.Time
	}
	run.Duration = time.Duration(durationNs)
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM filter_runs WHERE id = ?`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter *RunFilter) ([]*Run, error) {
	if filter == nil {
		filter = &RunFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var conditions []string
	var args []interface{}
	if filter.Root != "" {
		conditions = append(conditions, "root = ?")
		args = append(args, filter.Root)
	}
	if filter.FailedOnly {
		conditions = append(conditions, "error IS NOT NULL")
	}

	query := `SELECT ` + runColumns + ` FROM filter_runs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Status operations

// GetStatus returns aggregate statistics over all stored runs
func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(error),
		       COALESCE(SUM(total_entries), 0),
		       COALESCE(SUM(kept_entries), 0)
		FROM filter_runs
	`).Scan(&status.RunsCount, &status.FailedCount, &status.EntriesRead, &status.EntriesKept)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	if status.RunsCount > 0 {
		var lastRunAt sql.NullTime
		err = s.db.QueryRowContext(ctx, "SELECT created_at FROM filter_runs ORDER BY seq DESC LIMIT 1").Scan(&lastRunAt)
		if err != nil {
			return nil, fmt.Errorf("failed to read last run: %w", err)
		}
		if lastRunAt.Valid {
			status.LastRunAt = lastRunAt.Time
		}
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			status.DatabaseSize = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	status.Health.DatabaseAccessible = s.db.PingContext(ctx) == nil
	return status, nil
}
