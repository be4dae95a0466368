package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"rtei_bake_runs", false},
		{"_private", false},
		{"Table1", false},
		{"1table", true},
		{"drop table;", true},
		{"", true},
		{"name-with-dash", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"rtei_bake_runs"`, quoteTableName(bakeRunsTable, schema.SQLiteBackend))
	assert.Equal(t, `"rtei_bake_runs"`, quoteTableName(bakeRunsTable, schema.PostgreSQLBackend))
	assert.Equal(t, "`rtei_bake_runs`", quoteTableName(bakeRunsTable, schema.MySQLBackend))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))
}

func TestDataSourceName(t *testing.T) {
	dsn, err := dataSourceName(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/rtei")
	require.NoError(t, err)
	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, parsed.MultiStatements)
	assert.Equal(t, "rtei", parsed.DBName)
	assert.Equal(t, "localhost:3306", parsed.Addr)

	_, err = dataSourceName(schema.MySQLBackend, "user:pass@tcp(localhost:3306")
	assert.Error(t, err)

	dsn, err = dataSourceName(schema.SQLiteBackend, "")
	require.NoError(t, err)
	assert.Equal(t, GetSnapshotDBFilePath(), dsn)

	dsn, err = dataSourceName(schema.PostgreSQLBackend, "host=localhost dbname=rtei")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=rtei", dsn)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-05-06T06:08:09Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts, formatTime(ts, schema.MySQLBackend))
}

func TestClearSnapshots(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "snap.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))
		require.NoError(t, ClearSnapshots(schema.SQLiteBackend, dbPath, ""))
		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearSnapshots(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite empty path", func(t *testing.T) {
		assert.Error(t, ClearSnapshots(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearSnapshots(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearSnapshots("oracle", "", ""))
	})
}

func TestInitStores(t *testing.T) {
	resetManager := func() {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &SnapshotStoreManager{}
	}
	t.Cleanup(resetManager)

	t.Run("none backend", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStores(schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetSnapshotStore())
		CloseStores()
	})

	t.Run("empty backend leaves store unset", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStores("", ""))
		assert.Nil(t, Manager.GetSnapshotStore())
		CloseStores()
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetManager()
		err := InitStores("oracle", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize snapshot store")
	})

	t.Run("only first call wins", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:"))
		first := Manager.GetSnapshotStore()
		require.NoError(t, InitStores(schema.NoneBackend, ""))
		assert.Same(t, first, Manager.GetSnapshotStore())
		CloseStores()
		CloseStores() // second close is a no-op
	})
}

func TestManagerConcurrency(t *testing.T) {
	mgr := &SnapshotStoreManager{}
	store := &MockSnapshotStore{}
	mgr.snapshots = store

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.Same(t, store, mgr.GetSnapshotStore())
		})
	}
	wg.Wait()
}

func TestExecuteSnapshotExport(t *testing.T) {
	orig := Manager
	t.Cleanup(func() { Manager = orig })

	t.Run("requires output file", func(t *testing.T) {
		assert.ErrorContains(t, ExecuteSnapshotExport("", 0), "--output-file is required")
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockSnapshotStore{}
		store.On("GetStatus").Return(schema.SnapshotStatus{Backend: "sqlite", Connected: true}, nil)
		Manager = &SnapshotStoreManager{snapshots: store}

		assert.ErrorContains(t, ExecuteSnapshotExport(filepath.Join(t.TempDir(), "out.parquet"), 0), "no bake runs")
		store.AssertExpectations(t)
	})

	t.Run("writes parquet", func(t *testing.T) {
		store := &MockSnapshotStore{}
		store.On("GetStatus").Return(schema.SnapshotStatus{Backend: "sqlite", Connected: true, TotalRuns: 1}, nil)
		store.On("GetSnapshots", mock.AnythingOfType("int64")).Return([]schema.Snapshot{
			{RunID: 3, ChartKey: "compare", Code: "1", Format: "json", Series: []string{"1.1"}, Document: []byte("{}")},
		}, nil)
		Manager = &SnapshotStoreManager{snapshots: store}

		out := filepath.Join(t.TempDir(), "out.parquet")
		require.NoError(t, ExecuteSnapshotExport(out, 0))
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		store.AssertExpectations(t)
	})
}
