// Package iocache persists baked chart snapshots and bake runs.
package iocache

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// SnapshotStoreManager manages the SnapshotStore instance.
type SnapshotStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	snapshots    contract.SnapshotStore
}

var _ contract.SnapshotManager = &SnapshotStoreManager{} // Compile-time check

// GetSnapshotStore returns the SnapshotStore.
func (mgr *SnapshotStoreManager) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshots
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName guards table names that are interpolated into queries.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %q (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("%q", name)
	}
}

// formatTime converts a time to the representation the backend stores.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// placeholder returns the n-th (1-based) bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
