package render

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rtei-org/rtei/core/chartcfg"
)

// stackName is the stack id shared by every grouped series.
const stackName = "total"

// HTMLChart is a go-echarts bar chart ready to be written as a standalone page.
type HTMLChart struct {
	key       string
	bar       *charts.Bar
	destroyed bool
}

var _ chartcfg.Chart = &HTMLChart{} // Compile-time check

// Destroy marks the chart as torn down.
func (c *HTMLChart) Destroy() {
	c.destroyed = true
}

// Destroyed reports whether Destroy was called.
func (c *HTMLChart) Destroyed() bool {
	return c.destroyed
}

// Render writes the chart as an HTML page.
func (c *HTMLChart) Render(w io.Writer) error {
	if err := c.bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", c.key, err)
	}
	return nil
}

// HTMLRenderer builds go-echarts bar charts from derived configurations.
type HTMLRenderer struct {
	Title string
}

var _ chartcfg.Renderer = HTMLRenderer{} // Compile-time check

// Generate builds a stacked bar chart. Rotated configs become horizontal bars.
// Each bar carries its formatted tooltip value as the data item name.
func (h HTMLRenderer) Generate(key string, cfg *chartcfg.RendererConfig) (chartcfg.Chart, error) {
	if cfg == nil {
		return nil, fmt.Errorf("chart %q has no configuration", key)
	}

	categories := make([]string, len(cfg.Data.JSON))
	for i, r := range cfg.Data.JSON {
		categories[i] = r.Name
	}

	bar := charts.NewBar()
	initOpts := opts.Initialization{PageTitle: h.Title, ChartID: key}
	if cfg.Size.Height > 0 {
		initOpts.Height = fmt.Sprintf("%dpx", cfg.Size.Height)
	}
	if cfg.Size.Width > 0 {
		initOpts.Width = fmt.Sprintf("%dpx", cfg.Size.Width)
	}

	valueAxisMax := any(nil)
	if cfg.Axis.Y.Max > 0 {
		valueAxisMax = cfg.Axis.Y.Max
	}
	categoryX := opts.XAxis{Type: "category", Show: opts.Bool(cfg.Axis.X.Show)}
	valueY := opts.YAxis{Type: "value", Show: opts.Bool(cfg.Axis.Y.Show), Max: valueAxisMax}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: h.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(cfg.Tooltip.Show),
			Trigger:   "item",
			Formatter: "{a}: {b}",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(cfg.Data.Keys.Value) > 1)}),
	)
	if cfg.Axis.Rotated {
		bar.SetGlobalOptions(
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Show: valueY.Show, Max: valueAxisMax}),
			charts.WithYAxisOpts(opts.YAxis{Type: "category", Show: categoryX.Show}),
		)
	} else {
		bar.SetGlobalOptions(charts.WithXAxisOpts(categoryX), charts.WithYAxisOpts(valueY))
	}

	bar.SetXAxis(categories)
	stacked := stackedSeries(cfg.Data.Groups)
	for _, series := range cfg.Data.Keys.Value {
		seriesOpts := []charts.SeriesOpts{}
		if color, ok := cfg.Data.Colors[series]; ok {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
		}
		if slices.Contains(stacked, series) {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
		}
		bar.AddSeries(seriesLabel(cfg, series), barData(cfg, series), seriesOpts...)
	}
	if cfg.Axis.Rotated {
		bar.XYReversal()
	}

	return &HTMLChart{key: key, bar: bar}, nil
}

func barData(cfg *chartcfg.RendererConfig, series string) []opts.BarData {
	out := make([]opts.BarData, len(cfg.Data.JSON))
	for i, r := range cfg.Data.JSON {
		s := r.Get(series)
		if !s.IsNumber() {
			out[i] = opts.BarData{Value: "-"}
			continue
		}
		item := opts.BarData{Value: s.Value}
		if cfg.Tooltip.Format != nil {
			item.Name = cfg.Tooltip.Format(series, s.Value).String()
		}
		out[i] = item
	}
	return out
}

func seriesLabel(cfg *chartcfg.RendererConfig, series string) string {
	if name, ok := cfg.Data.Names[series]; ok && name != "" {
		return name
	}
	return series
}

func stackedSeries(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g...)
		}
	}
	return out
}
