package schema

import "time"

// SnapshotStatus represents the status of the snapshot store.
type SnapshotStatus struct {
	Backend          string    `json:"backend"`
	Connected        bool      `json:"connected"`
	TotalSnapshots   int       `json:"total_snapshots"`
	TotalRuns        int       `json:"total_runs"`
	LastSnapshotTime time.Time `json:"last_snapshot_time"`
	LastRunID        int64     `json:"last_run_id"`
	SchemaVersion    uint      `json:"schema_version"`
}
