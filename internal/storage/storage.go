package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting and querying filter run history
type Storage interface {
	// Run operations
	RecordRun(ctx context.Context, run *Run) error
	RecordRuns(ctx context.Context, runs []*Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter *RunFilter) ([]*Run, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
}

// Run represents one filter invocation
type Run struct {
	ID           string // UUID, assigned on insert when empty
	BatchID      string // Shared by runs recorded together; empty for single runs
	Root         string // Resolved root directory
	Infile       string
	Outfile      string
	TotalEntries int
	KeptEntries  int
	Error        *string // Nullable
	Duration     time.Duration
	CreatedAt    time.Time
}

// Failed reports whether the run ended with an error
func (r *Run) Failed() bool {
	return r.Error != nil
}

// RunFilter narrows ListRuns results
type RunFilter struct {
	Root       string // Exact resolved root; empty matches all
	FailedOnly bool
	Limit      int // Maximum rows (default: 20)
}

// Status contains aggregate statistics over the stored history
type Status struct {
	RunsCount    int
	FailedCount  int
	EntriesRead  int
	EntriesKept  int
	LastRunAt    time.Time // Zero when no runs are stored
	DatabaseSize float64   // Megabytes
	Health       HealthStatus
}

// HealthStatus represents the health of the history database
type HealthStatus struct {
	DatabaseAccessible bool
}
