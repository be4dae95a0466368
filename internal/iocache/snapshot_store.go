package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for snapshot tracking.
const (
	bakeRunsTable   = "rtei_bake_runs"
	snapshotsTable  = "rtei_chart_snapshots"
	migrationsTable = "schema_migrations"
)

// SnapshotStoreImpl implements the SnapshotStore interface.
type SnapshotStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// driverFor maps a backend to its database/sql driver name.
func driverFor(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite"
	case schema.MySQLBackend:
		return "mysql"
	case schema.PostgreSQLBackend:
		return "pgx"
	default:
		return ""
	}
}

// openDB opens and pings the database behind a backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driverName := driverFor(backend)
	if driverName == "" {
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	dsn, err := dataSourceName(backend, connStr)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dsn, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		default:
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, nil
}

// dataSourceName resolves the driver DSN of a backend.
// MySQL connections allow multiple statements since migration files hold several.
func dataSourceName(backend schema.DatabaseBackend, connStr string) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			return GetSnapshotDBFilePath(), nil
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(connStr)
		if err != nil {
			return "", fmt.Errorf("invalid MySQL connection string: %w", err)
		}
		cfg.MultiStatements = true
		return cfg.FormatDSN(), nil
	}
	return connStr, nil
}

// NewSnapshotStore creates a new SnapshotStore with the specified backend.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (contract.SnapshotStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &SnapshotStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createSnapshotTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshot tables: %w", err)
	}

	return &SnapshotStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverFor(backend),
	}, nil
}

// createSnapshotTables runs the first embedded migration of the backend.
// Statements are idempotent so a store opened after `snapshot migrate` is unaffected.
func createSnapshotTables(db *sql.DB, backend schema.DatabaseBackend) error {
	path := fmt.Sprintf("migrations/%s/000001_create_snapshot_tables.up.sql", backend)
	body, err := fs.ReadFile(migrationsFS, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	for stmt := range strings.SplitSeq(string(body), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %s: %w", path, err)
		}
	}
	return nil
}

// noop reports whether the store is disabled.
func (ss *SnapshotStoreImpl) noop() bool {
	return ss.backend == schema.NoneBackend || ss.db == nil
}

// BeginRun creates a new bake run and returns its unique ID.
func (ss *SnapshotStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if ss.noop() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(bakeRunsTable, ss.backend)

	var runID int64
	switch ss.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quotedTableName)
		err = ss.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quotedTableName)
		var result sql.Result
		result, err = ss.db.Exec(query, formatTime(startTime, ss.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert bake run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert bake run: %w", err)
	}

	return runID, nil
}

// EndRun updates the bake run with completion data.
func (ss *SnapshotStoreImpl) EndRun(runID int64, endTime time.Time, totalSnapshots int) error {
	if ss.noop() {
		return nil
	}

	quotedTableName := quoteTableName(bakeRunsTable, ss.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(ss.backend, 1))
	startTime, err := ss.scanTime(ss.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_snapshots = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(ss.backend, 1), placeholder(ss.backend, 2),
		placeholder(ss.backend, 3), placeholder(ss.backend, 4))
	if _, err := ss.db.Exec(updateQuery, formatTime(endTime, ss.backend), durationMs, totalSnapshots, runID); err != nil {
		return fmt.Errorf("failed to update bake run: %w", err)
	}

	return nil
}

// RecordSnapshot stores one baked chart document.
func (ss *SnapshotStoreImpl) RecordSnapshot(runID int64, snapshot schema.Snapshot) error {
	if ss.noop() {
		return nil
	}

	seriesJSON, err := json.Marshal(snapshot.Series)
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}
	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	marks := make([]string, 7)
	for i := range marks {
		marks[i] = placeholder(ss.backend, i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, chart_key, code, format, series, document, created_at) VALUES (%s)`,
		quoteTableName(snapshotsTable, ss.backend), strings.Join(marks, ", "))

	_, err = ss.db.Exec(query, runID, snapshot.ChartKey, snapshot.Code, snapshot.Format,
		string(seriesJSON), snapshot.Document, formatTime(createdAt, ss.backend))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s/%s.%s: %w", snapshot.ChartKey, snapshot.Code, snapshot.Format, err)
	}

	return nil
}

// GetSnapshots returns the snapshots of a run ordered by chart and code.
// A runID of 0 selects the latest run.
func (ss *SnapshotStoreImpl) GetSnapshots(runID int64) ([]schema.Snapshot, error) {
	if ss.noop() {
		return nil, nil
	}

	if runID == 0 {
		latest, err := ss.latestRunID()
		if err != nil {
			return nil, err
		}
		if latest == 0 {
			return nil, nil
		}
		runID = latest
	}

	query := fmt.Sprintf(`SELECT run_id, chart_key, code, format, series, document, created_at FROM %s WHERE run_id = %s ORDER BY chart_key, code, format`,
		quoteTableName(snapshotsTable, ss.backend), placeholder(ss.backend, 1))
	rows, err := ss.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Snapshot
	for rows.Next() {
		var (
			snap       schema.Snapshot
			seriesJSON string
			createdAt  any
		)
		if err := rows.Scan(&snap.RunID, &snap.ChartKey, &snap.Code, &snap.Format, &seriesJSON, &snap.Document, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(seriesJSON), &snap.Series); err != nil {
			return nil, fmt.Errorf("failed to decode series of %s/%s: %w", snap.ChartKey, snap.Code, err)
		}
		if snap.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		results = append(results, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return results, nil
}

// GetStatus returns status information about the snapshot store.
func (ss *SnapshotStoreImpl) GetStatus() (schema.SnapshotStatus, error) {
	status := schema.SnapshotStatus{
		Backend:   string(ss.backend),
		Connected: ss.db != nil,
	}

	if ss.noop() {
		return status, nil
	}

	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(bakeRunsTable, ss.backend))
	if err := ss.db.QueryRow(runsQuery).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	snapshotsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(snapshotsTable, ss.backend))
	if err := ss.db.QueryRow(snapshotsQuery).Scan(&status.TotalSnapshots); err != nil {
		return status, fmt.Errorf("failed to get total snapshots: %w", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(bakeRunsTable, ss.backend))
		if err := ss.db.QueryRow(lastRunQuery).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
	}

	if status.TotalSnapshots > 0 {
		lastQuery := fmt.Sprintf("SELECT MAX(created_at) FROM %s", quoteTableName(snapshotsTable, ss.backend))
		var raw any
		if err := ss.db.QueryRow(lastQuery).Scan(&raw); err != nil {
			return status, fmt.Errorf("failed to get last snapshot time: %w", err)
		}
		last, err := parseStoredTime(raw)
		if err != nil {
			return status, fmt.Errorf("failed to parse last snapshot time: %w", err)
		}
		status.LastSnapshotTime = last
	}

	// The version table only exists once `snapshot migrate` has run.
	versionQuery := fmt.Sprintf("SELECT version FROM %s LIMIT 1", quoteTableName(migrationsTable, ss.backend))
	var version int64
	if err := ss.db.QueryRow(versionQuery).Scan(&version); err == nil && version > 0 {
		status.SchemaVersion = uint(version)
	}

	return status, nil
}

// Close closes the underlying connection.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// latestRunID returns the newest run, or 0 when none exist.
func (ss *SnapshotStoreImpl) latestRunID() (int64, error) {
	query := fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(bakeRunsTable, ss.backend))
	var runID int64
	err := ss.db.QueryRow(query).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

// scanTime reads a single timestamp column in the backend's storage format.
func (ss *SnapshotStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	var raw any
	if err := row.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return parseStoredTime(raw)
}

// parseStoredTime accepts RFC3339Nano text (SQLite) or native timestamps.
func parseStoredTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return time.Parse(time.RFC3339Nano, v)
	case []byte:
		s := string(v)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, nil
		}
		// MySQL DATETIME without parseTime=true
		return time.Parse("2006-01-02 15:04:05.999999", s)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", raw)
	}
}
