package iocache

import (
	"errors"
	"fmt"

	"github.com/rtei-org/rtei/internal/parquet"
)

// ExecuteSnapshotExport writes the snapshots of a run to a Parquet file.
// A runID of 0 exports the latest run.
func ExecuteSnapshotExport(outputFile string, runID int64) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetSnapshotStore()
	if store == nil {
		return errors.New("snapshot store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get snapshot status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no bake runs found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total bake runs: %d\n", status.TotalRuns)

	snapshots, err := store.GetSnapshots(runID)
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("run %d has no snapshots", runID)
	}

	rows := parquet.ConvertSnapshots(snapshots)
	if err := parquet.WriteSnapshotsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	fmt.Printf("Exported %d snapshots of run %d to: %s\n", len(rows), snapshots[0].RunID, outputFile)

	return nil
}
