package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/publish"
	"github.com/rtei-org/rtei/internal/render"
	"github.com/rtei-org/rtei/schema"
)

// Snapshot formats.
const (
	formatJSON = "json"
	formatHTML = "html"
)

// mapChartKey is the snapshot chart key of baked map layers.
const mapChartKey = "map"

// bakeJob is one chart selection to derive.
type bakeJob struct {
	chartKey string
	code     string
	iso2     string // country chart only
}

// rel returns the output path of the job without extension.
func (j bakeJob) rel() string {
	return path.Join(j.chartKey, j.iso2, j.code)
}

// snapshotCode keeps country charts of different countries apart.
func (j bakeJob) snapshotCode() string {
	return path.Join(j.iso2, j.code)
}

// bakedFile is one output file and its snapshot record.
type bakedFile struct {
	rel      string
	body     []byte
	snapshot schema.Snapshot
}

// bakeResult is what a worker returns for one job.
type bakeResult struct {
	files []bakedFile
	err   error
}

// Baker writes every chart of every selectable code to the output directory.
type Baker struct {
	cfg       *contract.Config
	src       contract.DataSource
	mgr       contract.SnapshotManager
	publisher contract.Publisher
}

// NewBaker creates a Baker. The snapshot manager and publisher are optional.
func NewBaker(cfg *contract.Config, src contract.DataSource, mgr contract.SnapshotManager, publisher contract.Publisher) *Baker {
	return &Baker{cfg: cfg, src: src, mgr: mgr, publisher: publisher}
}

// Bake derives all charts and map layers, writes them, records snapshots and publishes.
func (b *Baker) Bake(ctx context.Context) (schema.BakeSummary, error) {
	start := time.Now()
	summary := schema.BakeSummary{}

	data, err := LoadDataset(b.src)
	if err != nil {
		return summary, err
	}

	store := b.store()
	var runID int64
	if store != nil {
		runID, err = store.BeginRun(start, b.runParams())
		if err != nil {
			logTrackingError("BeginRun", "", err)
		}
	}
	ctx = withRunID(ctx, runID)
	summary.RunID = runID

	jobs := b.jobs(data)
	files, err := b.deriveAll(ctx, data, jobs)
	if err != nil {
		return summary, err
	}
	mapFiles, err := bakeMaps(data)
	if err != nil {
		return summary, err
	}
	files = append(files, mapFiles...)
	slices.SortFunc(files, func(a, c bakedFile) int { return strings.Compare(a.rel, c.rel) })

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		recorded, err := b.emit(ctx, store, f)
		if err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, f.rel)
		if recorded {
			summary.Snapshots++
		}
	}

	if store != nil && runID > 0 {
		if err := store.EndRun(runID, time.Now(), summary.Snapshots); err != nil {
			logTrackingError("EndRun", "", err)
		}
	}

	summary.Charts = len(jobs)
	summary.Duration = time.Since(start)
	return summary, nil
}

// jobs lists the chart selections of every chart key.
// The country chart is baked per country for the index and level-1 codes.
func (b *Baker) jobs(data *Dataset) []bakeJob {
	codes := scores.SelectableCodes(data.Meta)
	countryCodes := []string{schema.OverallCode}
	for _, ind := range scores.MapIndicators(data.Meta) {
		countryCodes = append(countryCodes, ind.Code)
	}

	var countries []string
	if b.cfg.Country != "" {
		countries = []string{b.cfg.Country}
	} else {
		for _, r := range data.Records {
			if r.ISO2 != "" {
				countries = append(countries, r.ISO2)
			}
		}
	}

	var jobs []bakeJob
	for _, key := range b.cfg.ChartKeys() {
		if key == schema.CountryChart {
			for _, iso2 := range countries {
				for _, code := range countryCodes {
					jobs = append(jobs, bakeJob{chartKey: key, code: code, iso2: iso2})
				}
			}
			continue
		}
		for _, code := range codes {
			jobs = append(jobs, bakeJob{chartKey: key, code: code})
		}
	}
	return jobs
}

// deriveAll runs the jobs on a worker pool. Each worker owns its sessions.
func (b *Baker) deriveAll(ctx context.Context, data *Dataset, jobs []bakeJob) ([]bakedFile, error) {
	jobCh := make(chan bakeJob, len(jobs))
	resultCh := make(chan bakeResult, len(jobs))
	var wg sync.WaitGroup

	for range max(b.cfg.Workers, 1) {
		wg.Go(func() {
			jsonSession := NewChartSession(b.cfg, data, render.C3Renderer{})
			htmlSession := NewChartSession(b.cfg, data, RendererFor(schema.HTMLOut))
			defer jsonSession.Close()
			defer htmlSession.Close()
			for job := range jobCh {
				if err := ctx.Err(); err != nil {
					resultCh <- bakeResult{err: err}
					continue
				}
				files, err := bakeChart(job, jsonSession, htmlSession)
				resultCh <- bakeResult{files: files, err: err}
			}
		})
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	var files []bakedFile
	var errs []error
	for r := range resultCh {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		files = append(files, r.files...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return files, nil
}

// bakeChart derives one selection as a c3 document and as an HTML page.
func bakeChart(job bakeJob, jsonSession, htmlSession *ChartSession) ([]bakedFile, error) {
	result, chart, err := jsonSession.Derive(job.chartKey, job.code, job.iso2)
	if err != nil {
		return nil, fmt.Errorf("bake %s: %w", job.rel(), err)
	}
	doc, ok := chart.(*render.C3Chart)
	if !ok {
		return nil, fmt.Errorf("bake %s: chart has no JSON document", job.rel())
	}
	var jsonBuf bytes.Buffer
	if err := doc.WriteJSON(&jsonBuf); err != nil {
		return nil, fmt.Errorf("bake %s: %w", job.rel(), err)
	}

	_, chart, err = htmlSession.Derive(job.chartKey, job.code, job.iso2)
	if err != nil {
		return nil, fmt.Errorf("bake %s: %w", job.rel(), err)
	}
	page, ok := chart.(*render.HTMLChart)
	if !ok {
		return nil, fmt.Errorf("bake %s: chart has no HTML page", job.rel())
	}
	var htmlBuf bytes.Buffer
	if err := page.Render(&htmlBuf); err != nil {
		return nil, fmt.Errorf("bake %s: %w", job.rel(), err)
	}

	snapshot := func(format string, body []byte) schema.Snapshot {
		return schema.Snapshot{
			ChartKey: job.chartKey,
			Code:     job.snapshotCode(),
			Format:   format,
			Series:   result.Series,
			Document: body,
		}
	}
	return []bakedFile{
		{rel: job.rel() + ".json", body: jsonBuf.Bytes(), snapshot: snapshot(formatJSON, jsonBuf.Bytes())},
		{rel: job.rel() + ".html", body: htmlBuf.Bytes(), snapshot: snapshot(formatHTML, htmlBuf.Bytes())},
	}, nil
}

// bakeMaps styles the map for every selectable code, plus the switcher index.
func bakeMaps(data *Dataset) ([]bakedFile, error) {
	var files []bakedFile
	add := func(code string, v any) error {
		body, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("bake map %s: %w", code, err)
		}
		files = append(files, bakedFile{
			rel:  path.Join(mapChartKey, code+".json"),
			body: body,
			snapshot: schema.Snapshot{
				ChartKey: mapChartKey,
				Code:     code,
				Format:   formatJSON,
				Series:   []string{code},
				Document: body,
			},
		})
		return nil
	}

	if err := add("indicators", mapIndex(data)); err != nil {
		return nil, err
	}
	for _, code := range scores.SelectableCodes(data.Meta) {
		doc, err := mapDocument(code, data)
		if err != nil {
			return nil, fmt.Errorf("bake map %s: %w", code, err)
		}
		if err := add(code, doc); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// emit writes a file under the output directory, records its snapshot and publishes it.
// It reports whether the snapshot was recorded.
func (b *Baker) emit(ctx context.Context, store contract.SnapshotStore, f bakedFile) (bool, error) {
	dst := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(f.rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, f.body, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", dst, err)
	}

	recorded := false
	if runID, ok := getRunID(ctx); ok && runID > 0 && store != nil {
		snap := f.snapshot
		snap.RunID = runID
		snap.CreatedAt = time.Now()
		if err := store.RecordSnapshot(runID, snap); err != nil {
			logTrackingError("RecordSnapshot", f.rel, err)
		} else {
			recorded = true
		}
	}

	if b.publisher != nil {
		if _, err := b.publisher.Publish(ctx, f.rel, f.body, publish.ContentType(f.rel)); err != nil {
			return recorded, fmt.Errorf("failed to publish %s to %s: %w", f.rel, b.publisher.Name(), err)
		}
	}
	return recorded, nil
}

// store returns the snapshot store, nil when tracking is off.
func (b *Baker) store() contract.SnapshotStore {
	if b.mgr == nil {
		return nil
	}
	return b.mgr.GetSnapshotStore()
}

// runParams is the configuration recorded with a bake run.
func (b *Baker) runParams() map[string]any {
	params := map[string]any{
		"data_dir":     b.cfg.DataDir,
		"output_dir":   b.cfg.OutputDir,
		"charts":       b.cfg.ChartKeys(),
		"index_series": b.cfg.IndexSeries,
		"workers":      b.cfg.Workers,
	}
	if b.cfg.Country != "" {
		params["country"] = b.cfg.Country
	}
	if b.publisher != nil {
		params["publish"] = b.publisher.Name()
	}
	return params
}

// logTrackingError reports a snapshot store failure without stopping the bake.
func logTrackingError(operation, rel string, err error) {
	if rel == "" {
		contract.LogWarn(fmt.Sprintf("snapshot %s failed", operation), err)
		return
	}
	contract.LogWarn(fmt.Sprintf("snapshot %s failed for %s", operation, rel), err)
}
