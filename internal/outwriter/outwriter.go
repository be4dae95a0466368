// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/core/mapstyle"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteChart prints a derived chart using the configured output format.
func (ow *OutWriter) WriteChart(result schema.ChartResult, chart chartcfg.Chart, cfg *contract.Config, duration time.Duration) error {
	return PrintChartResult(result, chart, cfg, duration)
}

// WriteMap prints map styling using the configured output format.
func (ow *OutWriter) WriteMap(features []schema.MapFeature, legend []mapstyle.LegendEntry, cfg *contract.Config) error {
	return PrintMapFeatures(features, legend, cfg)
}

// WriteScores prints country scores using the configured output format.
func (ow *OutWriter) WriteScores(records []schema.Record, columns []string, cfg *contract.Config) error {
	return PrintScores(records, columns, cfg)
}

// WriteBake prints the summary of a bake run.
func (ow *OutWriter) WriteBake(summary schema.BakeSummary, cfg *contract.Config) error {
	return PrintBakeSummary(summary, cfg)
}
