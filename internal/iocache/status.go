package iocache

import (
	"fmt"

	"github.com/rtei-org/rtei/schema"
)

// PrintSnapshotStatus prints snapshot store status information.
func PrintSnapshotStatus(status schema.SnapshotStatus) {
	fmt.Printf("Snapshot Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
	}
	fmt.Printf("Total Snapshots: %d\n", status.TotalSnapshots)
	if status.TotalSnapshots > 0 {
		fmt.Printf("Last Snapshot: %s\n", status.LastSnapshotTime.Local().Format("2006-01-02 15:04:05"))
	}
	if status.SchemaVersion > 0 {
		fmt.Printf("Schema Version: %d\n", status.SchemaVersion)
	}
}
