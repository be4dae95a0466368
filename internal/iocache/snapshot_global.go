package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &SnapshotStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetSnapshotDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetSnapshotDBFilePath() string {
	return contract.GetSnapshotDBFilePath()
}

// InitStores initializes the global manager with the snapshot store.
// An empty backend leaves the store unset.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		if backend == "" {
			return
		}
		store, err := NewSnapshotStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize snapshot store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.snapshots = store
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.snapshots != nil {
			_ = Manager.snapshots.Close()
		}
	})
}

// ClearSnapshots clears stored snapshots for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the snapshot tables.
// For NoneBackend, it does nothing.
func ClearSnapshots(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range []string{snapshotsTable, bakeRunsTable, migrationsTable} {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported snapshot backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	driverName := driverFor(backend)
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
