package core

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/core/mapstyle"
	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/render"
	"github.com/rtei-org/rtei/schema"
)

// ChartSession derives charts from one dataset through a single Deriver.
// It is not safe for concurrent use; bake workers each own one.
type ChartSession struct {
	cfg     *contract.Config
	data    *Dataset
	deriver *chartcfg.Deriver
	flags   *render.NoDataFlags
}

// NewChartSession creates a session rendering with r.
func NewChartSession(cfg *contract.Config, data *Dataset, r chartcfg.Renderer) *ChartSession {
	flags := render.NewNoDataFlags()
	return &ChartSession{
		cfg:  cfg,
		data: data,
		deriver: chartcfg.NewDeriver(
			chartcfg.WithRenderer(r),
			chartcfg.WithNoDataIndicator(flags),
			chartcfg.WithIndexSeries(cfg.IndexSeries...),
		),
		flags: flags,
	}
}

// FormatValue formats a raw value the way the tooltip of a derived chart shows it.
func (s *ChartSession) FormatValue(chartKey, series string, raw float64) (schema.DisplayValue, error) {
	return s.deriver.FormatTooltipValue(chartKey, series, raw)
}

// Close destroys every chart the session rendered.
func (s *ChartSession) Close() {
	for _, key := range s.deriver.Keys() {
		s.deriver.Remove(key)
	}
}

// RendererFor picks the renderer matching an output mode.
func RendererFor(output schema.OutputMode) chartcfg.Renderer {
	if output == schema.HTMLOut {
		return render.HTMLRenderer{Title: "Right to Education Index"}
	}
	return render.C3Renderer{}
}

// Derive registers chartKey over its rows, applies the chart profile and selects code.
// The country chart plots the single record of iso2.
func (s *ChartSession) Derive(chartKey, code, iso2 string) (schema.ChartResult, chartcfg.Chart, error) {
	records, err := s.chartRecords(chartKey, code, iso2)
	if err != nil {
		return schema.ChartResult{}, nil, err
	}

	s.deriver.Register(chartKey, records, baseOverlay(chartKey, len(records)), s.data.Names)
	if profile := s.cfg.Profile(chartKey); !profile.IsEmpty() {
		if _, err := s.deriver.Reconfigure(chartKey, profile); err != nil {
			return schema.ChartResult{}, nil, err
		}
	}

	series, err := s.deriver.Update(chartKey, code)
	if err != nil {
		return schema.ChartResult{}, nil, err
	}
	rc, err := s.deriver.Config(chartKey)
	if err != nil {
		return schema.ChartResult{}, nil, err
	}
	chart, err := s.deriver.Chart(chartKey)
	if err != nil {
		return schema.ChartResult{}, nil, err
	}

	return schema.ChartResult{
		ChartKey: chartKey,
		Code:     code,
		Kind:     schema.ParseCode(code).Kind.String(),
		Series:   series,
		NoData:   s.flags.Visible(chartKey),
		Points:   chartPoints(rc),
	}, chart, nil
}

// chartRecords selects and orders the rows of a chart.
func (s *ChartSession) chartRecords(chartKey, code, iso2 string) ([]schema.Record, error) {
	switch chartKey {
	case schema.CountryChart:
		if iso2 == "" {
			return nil, fmt.Errorf("the %s chart needs a country", schema.CountryChart)
		}
		r, ok := s.data.Country(iso2)
		if !ok {
			return nil, fmt.Errorf("country %s not found in %s", iso2, contract.ScoresFileName)
		}
		return []schema.Record{r}, nil
	case schema.ThemeChart:
		records := schema.CloneRecords(s.data.Records)
		key := code
		if s.cfg.SortKey == scores.NameSortKey {
			key = scores.NameSortKey
		}
		scores.SortRecords(records, key, s.cfg.Desc)
		return records, nil
	default:
		return s.data.Records, nil
	}
}

// baseOverlay sizes multi-country charts to their row count.
func baseOverlay(chartKey string, rows int) chartcfg.Overlay {
	if chartKey == schema.CountryChart {
		return chartcfg.Overlay{}
	}
	height := scores.ChartHeight(rows)
	return chartcfg.Overlay{Size: &chartcfg.SizeOverlay{Height: &height}}
}

// chartPoints flattens the plotted values of rc, one point per country and series.
func chartPoints(rc *chartcfg.RendererConfig) []schema.SeriesPoint {
	var points []schema.SeriesPoint
	for _, r := range rc.Data.JSON {
		for _, series := range rc.Data.Keys.Value {
			score := r.Get(series)
			if !score.Present {
				continue
			}
			p := schema.SeriesPoint{
				Country: r.Name,
				ISO2:    r.ISO2,
				Series:  series,
				Label:   cmp.Or(rc.Data.Names[series], series),
				Raw:     score,
				Color:   rc.Data.Colors[series],
			}
			switch {
			case score.Insufficient:
				p.Display = schema.InsufficientDisplay()
			case rc.Tooltip.Format != nil:
				p.Display = rc.Tooltip.Format(series, score.Value)
			default:
				p.Display = schema.Display(score.Value)
			}
			points = append(points, p)
		}
	}
	return points
}

// GetChartResult derives the configured chart and selection.
func GetChartResult(cfg *contract.Config, src contract.DataSource) (schema.ChartResult, chartcfg.Chart, error) {
	data, err := LoadDataset(src)
	if err != nil {
		return schema.ChartResult{}, nil, err
	}
	session := NewChartSession(cfg, data, RendererFor(cfg.Output))
	return session.Derive(cfg.ChartKey, cfg.Code, cfg.Country)
}

// GetMapFeatures styles every country for the selected indicator.
func GetMapFeatures(cfg *contract.Config, src contract.DataSource) ([]schema.MapFeature, []mapstyle.LegendEntry, error) {
	data, err := LoadDataset(src)
	if err != nil {
		return nil, nil, err
	}
	styler := newStyler(cfg.Code, data)
	features, err := styler.Features(data.Records)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to style map: %w", err)
	}
	return features, styler.Legend(), nil
}

// GetScores returns the records sorted by cfg.SortKey and the columns to show.
// A configured country narrows the result to that record.
func GetScores(cfg *contract.Config, src contract.DataSource) ([]schema.Record, []string, error) {
	data, err := LoadDataset(src)
	if err != nil {
		return nil, nil, err
	}

	records := schema.CloneRecords(data.Records)
	if cfg.Country != "" {
		r, ok := data.Country(cfg.Country)
		if !ok {
			return nil, nil, fmt.Errorf("country %s not found in %s", cfg.Country, contract.ScoresFileName)
		}
		records = []schema.Record{r}
	}
	scores.SortRecords(records, cfg.SortKey, cfg.Desc)

	columns := append([]string{schema.OverallCode}, schema.Level1Categories...)
	for _, extra := range []string{cfg.Code, cfg.SortKey} {
		if extra != scores.NameSortKey && !slices.Contains(columns, extra) {
			columns = append(columns, extra)
		}
	}
	return records, columns, nil
}
