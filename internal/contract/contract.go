// Package contract provides interfaces and shared utilities for rtei's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/rtei-org/rtei/schema"
)

// DataSource provides the static RTEI data files.
// This allows the core logic to be tested without files on disk.
type DataSource interface {
	// Records returns the per-country scores, in file order.
	Records() ([]schema.Record, error)

	// Indicators returns indicator metadata keyed by code.
	Indicators() (map[string]schema.IndicatorMeta, error)

	// Countries returns the country lookup table.
	Countries() ([]schema.Country, error)
}

// SnapshotManager defines the interface for managing the snapshot store.
// This allows the persistence layer to be mocked for testing.
type SnapshotManager interface {
	GetSnapshotStore() SnapshotStore
}

// SnapshotStore defines the interface for tracking bake runs and storing baked charts.
type SnapshotStore interface {
	// BeginRun creates a new bake run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the bake run with completion data
	EndRun(runID int64, endTime time.Time, totalSnapshots int) error

	// RecordSnapshot stores one baked chart document
	RecordSnapshot(runID int64, snapshot schema.Snapshot) error

	// GetSnapshots returns all snapshots of a run, or of the latest run when runID is 0
	GetSnapshots(runID int64) ([]schema.Snapshot, error)

	// GetStatus returns status information about the store
	GetStatus() (schema.SnapshotStatus, error)

	// Close closes the underlying connection
	Close() error
}

// Publisher copies baked files to their final destination.
type Publisher interface {
	// Publish writes body at the relative path and returns where it ended up.
	Publish(ctx context.Context, path string, body []byte, contentType string) (string, error)

	// Name identifies the destination in logs.
	Name() string
}
