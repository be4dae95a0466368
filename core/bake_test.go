package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/iocache"
	"github.com/rtei-org/rtei/internal/publish"
	"github.com/rtei-org/rtei/internal/render"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// storeManager hands out a fixed store.
type storeManager struct {
	store contract.SnapshotStore
}

func (m storeManager) GetSnapshotStore() contract.SnapshotStore {
	return m.store
}

func TestBakerJobs(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	data, err := LoadDataset(src)
	require.NoError(t, err)

	jobs := NewBaker(cfg, src, nil, nil).jobs(data)

	// index, 1, 1.1, 1.2, 2, 3, 4, 5, t1
	selectable := 9
	// index plus five level-1 codes for each of two countries
	country := 2 * 6
	assert.Len(t, jobs, 2*selectable+country)

	var rels []string
	for _, j := range jobs {
		rels = append(rels, j.rel())
	}
	assert.Contains(t, rels, "compare/index")
	assert.Contains(t, rels, "theme/t1")
	assert.Contains(t, rels, "country/KE/3")
	assert.NotContains(t, rels, "country/KE/1.1")

	cfg.Country = "CL"
	jobs = NewBaker(cfg, src, nil, nil).jobs(data)
	assert.Len(t, jobs, 2*selectable+6)
}

func TestBake_WritesFilesAndSnapshots(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	cfg.Country = "KE"

	store, err := iocache.NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	summary, err := NewBaker(cfg, src, storeManager{store}, nil).Bake(context.Background())
	require.NoError(t, err)

	assert.Greater(t, summary.RunID, int64(0))
	assert.Equal(t, 2*9+6, summary.Charts)
	// json and html per chart, plus the map index and one map layer per selectable code
	assert.Len(t, summary.Files, 2*summary.Charts+1+9)
	assert.Equal(t, len(summary.Files), summary.Snapshots)
	assert.IsIncreasing(t, summary.Files)

	body, err := os.ReadFile(filepath.Join(cfg.OutputDir, "compare", "1.json"))
	require.NoError(t, err)
	var doc render.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, schema.CompareChart, doc.Key)

	page, err := os.ReadFile(filepath.Join(cfg.OutputDir, "country", "KE", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<html")

	var index MapIndex
	body, err = os.ReadFile(filepath.Join(cfg.OutputDir, "map", "indicators.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &index))
	assert.Len(t, index.Indicators, 5)

	snaps, err := store.GetSnapshots(0)
	require.NoError(t, err)
	assert.Len(t, snaps, summary.Snapshots)
	var countrySnap *schema.Snapshot
	for i := range snaps {
		if snaps[i].ChartKey == schema.CountryChart && snaps[i].Code == "KE/index" && snaps[i].Format == formatJSON {
			countrySnap = &snaps[i]
		}
	}
	require.NotNil(t, countrySnap, "country snapshots are keyed by ISO2 and code")
	assert.Equal(t, schema.Level1Categories, countrySnap.Series)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, status.LastRunID)
}

func TestBake_Publishes(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	cfg.Country = "CL"
	publishDir := t.TempDir()
	publisher, err := publish.NewDirPublisher(publishDir)
	require.NoError(t, err)

	summary, err := NewBaker(cfg, src, nil, publisher).Bake(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.RunID)
	assert.Zero(t, summary.Snapshots)

	for _, rel := range summary.Files {
		published, err := os.ReadFile(filepath.Join(publishDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		written, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, written, published, rel)
	}
}

func TestBake_TrackingErrorsAreNotFatal(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	cfg.Country = "KE"

	store := &iocache.MockSnapshotStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(7), nil)
	store.On("RecordSnapshot", int64(7), mock.Anything).Return(errors.New("disk full"))
	store.On("EndRun", int64(7), mock.Anything, 0).Return(nil)
	mgr := &iocache.MockSnapshotManager{}
	mgr.On("GetSnapshotStore").Return(store)

	summary, err := NewBaker(cfg, src, mgr, nil).Bake(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.RunID)
	assert.Zero(t, summary.Snapshots)
	assert.NotEmpty(t, summary.Files)
	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestBake_Canceled(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBaker(cfg, src, nil, nil).Bake(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBake_MissingData(t *testing.T) {
	cfg := newTestConfig(t.TempDir())
	_, src := newTestData(t)
	require.NoError(t, os.Remove(filepath.Join(src.Dir(), contract.ScoresFileName)))

	_, err := NewBaker(cfg, src, nil, nil).Bake(context.Background())
	assert.Error(t, err)
}

func TestExecuteBake_JSONSummary(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	cfg.Country = "KE"
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "summary.json")

	require.NoError(t, ExecuteBake(WithSuppressHeader(context.Background()), cfg, src, nil))

	body, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var summary schema.BakeSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 2*9+6, summary.Charts)
}

func TestExecuteBake_Watch(t *testing.T) {
	dir, src := newTestData(t)
	cfg := newTestConfig(dir)
	cfg.Country = "KE"
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "summary.json")
	cfg.Watch = true
	cfg.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ExecuteBake(WithSuppressHeader(ctx), cfg, src, nil) }()

	target := filepath.Join(cfg.OutputDir, "map", "2.json")
	updated := strings.Replace(testScores, `"2": 55`, `"2": 99`, 1)
	assert.Eventually(t, func() bool {
		// Rewritten on every poll so a write before the watcher starts is not lost.
		_ = os.WriteFile(filepath.Join(dir, contract.ScoresFileName), []byte(updated), 0o644)
		body, err := os.ReadFile(target)
		return err == nil && strings.Contains(string(body), `"score": 99`)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}
