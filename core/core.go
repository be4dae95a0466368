// Package core wires data loading, chart derivation, map styling and baking together.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/datasource"
	"github.com/rtei-org/rtei/internal/outwriter"
	"github.com/rtei-org/rtei/internal/publish"
	"github.com/rtei-org/rtei/internal/watch"
	"github.com/rtei-org/rtei/internal/workbook"
	"github.com/rtei-org/rtei/schema"
)

// invalidator is a data source whose cached files can be dropped.
type invalidator interface {
	Invalidate()
}

// ExecuteChart derives the configured chart and prints it.
// It serves as the main entry point for the 'chart' command.
func ExecuteChart(ctx context.Context, cfg *contract.Config, src contract.DataSource) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		logChartHeader(cfg, "Chart: "+cfg.ChartKey)
	}
	result, chart, err := GetChartResult(cfg, src)
	if err != nil {
		return err
	}
	defer chart.Destroy()
	return outwriter.NewOutWriter().WriteChart(result, chart, cfg, time.Since(start))
}

// ExecuteMap styles every country for the selected indicator and prints the features.
func ExecuteMap(ctx context.Context, cfg *contract.Config, src contract.DataSource) error {
	if !shouldSuppressHeader(ctx) {
		logChartHeader(cfg, "Map")
	}
	features, legend, err := GetMapFeatures(cfg, src)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteMap(features, legend, cfg)
}

// ExecuteScores prints the per-country scores sorted by the configured key.
func ExecuteScores(_ context.Context, cfg *contract.Config, src contract.DataSource) error {
	records, columns, err := GetScores(cfg, src)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteScores(records, columns, cfg)
}

// ExecuteImport converts an RTEI workbook into the JSON data files of cfg.DataDir.
// A missing countries.json only loses the ISO2 codes, which is reported as a warning.
func ExecuteImport(_ context.Context, cfg *contract.Config, workbookPath string, src contract.DataSource) error {
	if workbookPath == "" {
		return errors.New("a workbook path is required")
	}

	var countries []schema.Country
	if src != nil {
		var err error
		countries, err = src.Countries()
		if err != nil && !errors.Is(err, datasource.ErrNotFound) {
			return fmt.Errorf("failed to load countries: %w", err)
		}
	}

	result, err := workbook.Import(workbookPath, countries)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		contract.LogWarn("import", errors.New(w))
	}

	written, err := result.Save(cfg.DataDir)
	if err != nil {
		return err
	}
	if inv, ok := src.(invalidator); ok {
		inv.Invalidate()
	}
	for _, path := range written {
		contract.LogInfo("💾 Imported %s to %s", workbookPath, path)
	}
	return nil
}

// ExecuteBake writes every chart to cfg.OutputDir and prints a summary.
// With cfg.Watch it keeps re-baking whenever a data file changes until ctx is done.
func ExecuteBake(ctx context.Context, cfg *contract.Config, src contract.DataSource, mgr contract.SnapshotManager) error {
	publisher, err := publish.New(cfg.Publish)
	if err != nil {
		return err
	}
	baker := NewBaker(cfg, src, mgr, publisher)

	bakeOnce := func(ctx context.Context) error {
		if !shouldSuppressHeader(ctx) {
			logBakeHeader(cfg, publisher)
		}
		summary, err := baker.Bake(ctx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteBake(summary, cfg)
	}

	if err := bakeOnce(ctx); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}

	w, err := watch.New(cfg.DataDir, cfg.Debounce, func(ctx context.Context, changed []string) error {
		contract.LogInfo("🔁 Changed: %v", changed)
		if inv, ok := src.(invalidator); ok {
			inv.Invalidate()
		}
		return bakeOnce(WithSuppressHeader(ctx))
	})
	if err != nil {
		return err
	}
	contract.LogInfo("👀 Watching %s (debounce %v)", cfg.DataDir, cfg.Debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
