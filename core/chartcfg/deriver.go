package chartcfg

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rtei-org/rtei/schema"
	"github.com/samber/lo"
)

// ErrUnknownChartKey is returned for operations on a chart key that was never registered.
var ErrUnknownChartKey = errors.New("unknown chart key")

// State is the lifecycle state of one chart key.
type State int

// All chart states.
const (
	Unregistered State = iota // never registered, or removed
	Registered                // configured, no series selected yet
	Active                    // configured and rendered with a series selection
)

// String returns a readable name for the state.
func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Active:
		return "active"
	default:
		return "unregistered"
	}
}

// Chart is a rendered chart instance.
type Chart interface {
	Destroy()
}

// Renderer builds a chart from a configuration.
type Renderer interface {
	Generate(key string, cfg *RendererConfig) (Chart, error)
}

// NoDataIndicator shows or hides the "no data" notice of a chart.
type NoDataIndicator interface {
	SetNoData(key string, visible bool)
}

// entry is everything the Deriver keeps for one chart key.
type entry struct {
	config  *RendererConfig
	names   schema.NameMap
	lengths *CategoryLengths
	chart   Chart
	code    schema.IndicatorCode
	series  []string
	state   State
}

// Deriver owns the renderer configurations of all registered charts.
type Deriver struct {
	mu          sync.Mutex
	entries     map[string]*entry
	renderer    Renderer
	noData      NoDataIndicator
	palettes    schema.PaletteTable
	indexSeries []string
	base        Overlay
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithRenderer sets the chart renderer. The default renderer draws nothing.
func WithRenderer(r Renderer) Option {
	return func(d *Deriver) { d.renderer = r }
}

// WithNoDataIndicator sets the "no data" notice handler.
func WithNoDataIndicator(n NoDataIndicator) Option {
	return func(d *Deriver) { d.noData = n }
}

// WithIndexSeries sets the series plotted for the overall index.
func WithIndexSeries(codes ...string) Option {
	return func(d *Deriver) { d.indexSeries = slices.Clone(codes) }
}

// WithPalettes replaces the palette table used for series colors.
func WithPalettes(p schema.PaletteTable) Option {
	return func(d *Deriver) { d.palettes = p }
}

// WithBaseConfig sets an overlay applied to the default configuration of every chart.
func WithBaseConfig(o Overlay) Option {
	return func(d *Deriver) { d.base = o }
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	lengths *CategoryLengths
}

// WithSharedLengths accumulates category counts into l instead of a fresh registry.
// Charts registered with the same l share counts.
func WithSharedLengths(l *CategoryLengths) RegisterOption {
	return func(o *registerOptions) { o.lengths = l }
}

// NewDeriver creates a Deriver.
func NewDeriver(opts ...Option) *Deriver {
	d := &Deriver{
		entries:     make(map[string]*entry),
		renderer:    nopRenderer{},
		noData:      nopIndicator{},
		palettes:    schema.DefaultPalettes(),
		indexSeries: slices.Clone(schema.Level1Categories),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register builds and stores the configuration for key, overwriting any previous one.
// The dataset is copied; later Updates never touch the caller's records.
func (d *Deriver) Register(key string, dataset []schema.Record, base Overlay, names schema.NameMap, opts ...RegisterOption) *RendererConfig {
	ro := registerOptions{}
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.lengths == nil {
		ro.lengths = NewCategoryLengths()
	}

	cfg := DefaultConfig()
	d.base.ApplyTo(cfg)
	base.ApplyTo(cfg)

	cfg.Data.JSON = schema.CloneRecords(dataset)
	if cfg.Data.JSON == nil {
		cfg.Data.JSON = []schema.Record{}
	}

	codes := parseNames(names)
	ro.lengths.scan(codes)
	if len(names) > 0 {
		cfg.Data.Names = mergeMap(maps.Clone(map[string]string(names)), cfg.Data.Names)
		colors := d.seriesColors(codes)
		cfg.Data.Colors = mergeMap(colors, cfg.Data.Colors)
	}

	e := &entry{
		config:  cfg,
		names:   maps.Clone(names),
		lengths: ro.lengths,
		state:   Registered,
	}
	cfg.Tooltip.Format = e.formatValue

	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.entries[key]; ok && old.chart != nil {
		old.chart.Destroy()
	}
	d.entries[key] = e
	return cfg.Clone()
}

// Reconfigure merges an overlay into the stored configuration of key.
// It does not re-render.
func (d *Deriver) Reconfigure(key string, o Overlay) (*RendererConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	o.ApplyTo(e.config)
	return e.config.Clone(), nil
}

// Update selects an indicator code for key, re-renders the chart and returns the plotted series.
// On a renderer error the previous configuration and chart are kept.
func (d *Deriver) Update(key, rawCode string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}

	code := schema.ParseCode(rawCode)
	series := d.resolveSeries(code, e.names)

	next := e.config.Clone()
	noData := false
	if code.Kind == schema.Level1 {
		noData = fillInsufficient(next.Data.JSON, code, series)
	}
	next.Tooltip.Show = !noData
	next.Data.Keys.X = "name"
	next.Data.Keys.Value = slices.Clone(series)
	next.Data.Groups = [][]string{slices.Clone(series)}

	chart, err := d.renderer.Generate(key, next)
	if err != nil {
		return nil, fmt.Errorf("render chart %q: %w", key, err)
	}
	if e.chart != nil {
		e.chart.Destroy()
	}
	e.config = next
	e.chart = chart
	e.code = code
	e.series = series
	e.state = Active
	d.noData.SetNoData(key, noData)

	return slices.Clone(series), nil
}

// FormatTooltipValue converts a raw chart value of one series into its display value.
func (d *Deriver) FormatTooltipValue(key, seriesID string, raw float64) (schema.DisplayValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return schema.DisplayValue{}, err
	}
	return e.formatValue(seriesID, raw), nil
}

// Config returns a copy of the stored configuration of key.
func (d *Deriver) Config(key string) (*RendererConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.config.Clone(), nil
}

// Chart returns the current chart of key, nil before the first Update.
func (d *Deriver) Chart(key string) (Chart, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.chart, nil
}

// Lengths returns the category counts registry of key.
func (d *Deriver) Lengths(key string) (*CategoryLengths, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.lengths, nil
}

// Series returns the series plotted by the last Update of key.
func (d *Deriver) Series(key string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.series), nil
}

// State returns the lifecycle state of key.
func (d *Deriver) State(key string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[key]; ok {
		return e.state
	}
	return Unregistered
}

// Keys returns all registered chart keys, sorted.
func (d *Deriver) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := lo.Keys(d.entries)
	slices.Sort(keys)
	return keys
}

// Remove destroys the chart of key and forgets it.
func (d *Deriver) Remove(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[key]; ok {
		if e.chart != nil {
			e.chart.Destroy()
		}
		delete(d.entries, key)
	}
}

func (d *Deriver) lookup(key string) (*entry, error) {
	e, ok := d.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChartKey, key)
	}
	return e, nil
}

// resolveSeries returns the sorted series plotted for a selection.
func (d *Deriver) resolveSeries(code schema.IndicatorCode, names schema.NameMap) []string {
	var series []string
	switch code.Kind {
	case schema.Overall:
		series = slices.Clone(d.indexSeries)
	case schema.Level1:
		series = lo.Filter(lo.Keys(names), func(k string, _ int) bool {
			child := schema.ParseCode(k)
			return child.Kind == schema.Level2 && child.Category == code.Category
		})
	default:
		series = []string{code.Raw}
	}
	slices.Sort(series)
	return series
}

// seriesColors assigns a palette shade to every code of the NameMap.
// The overall index is never a plotted series and gets no color.
func (d *Deriver) seriesColors(codes []schema.IndicatorCode) map[string]string {
	colors := make(map[string]string, len(codes))
	for _, code := range codes {
		switch code.Kind {
		case schema.Overall:
			continue
		case schema.Level2:
			colors[code.Raw] = d.palettes.Shade(code.Category, code.Sub-1)
		case schema.Level1:
			colors[code.Raw] = d.palettes.Shade(code.Category, 0)
		default:
			colors[code.Raw] = d.palettes.Shade(schema.OverallCode, 0)
		}
	}
	return colors
}

// parseNames parses the NameMap keys in sorted order.
func parseNames(names schema.NameMap) []schema.IndicatorCode {
	keys := lo.Keys(names)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) schema.IndicatorCode {
		return schema.ParseCode(k)
	})
}

// fillInsufficient replaces insufficient-data values of a level-1 selection with the
// chart placeholder. It reports whether every record lacks data for the parent.
func fillInsufficient(records []schema.Record, parent schema.IndicatorCode, children []string) bool {
	missing := 0
	for i := range records {
		r := &records[i]
		if p := r.Get(parent.Raw); p.Insufficient || p.IsPlaceholder() {
			missing++
			r.Set(parent.Raw, schema.PlaceholderScore())
			for _, child := range children {
				r.Set(child, schema.PlaceholderScore())
			}
			continue
		}
		for _, child := range children {
			if r.Get(child).Insufficient {
				r.Set(child, schema.PlaceholderScore())
			}
		}
	}
	return missing == len(records)
}

// formatValue scales an averaged chart value back to its display score.
func (e *entry) formatValue(seriesID string, raw float64) schema.DisplayValue {
	if raw == schema.Placeholder {
		return schema.InsufficientDisplay()
	}
	code := schema.ParseCode(seriesID)
	switch code.Kind {
	case schema.Theme, schema.Unrecognized:
		return schema.Display(raw)
	case schema.Level2:
		return schema.Rounded(raw * float64(e.lengths.Count(code.Category)))
	case schema.Level1:
		if code.IsComposite() {
			return schema.Rounded(raw)
		}
		return schema.Rounded(raw * float64(e.lengths.Index()))
	default:
		return schema.Rounded(raw * float64(e.lengths.Index()))
	}
}

type nopRenderer struct{}

func (nopRenderer) Generate(string, *RendererConfig) (Chart, error) { return nopChart{}, nil }

type nopChart struct{}

func (nopChart) Destroy() {}

type nopIndicator struct{}

func (nopIndicator) SetNoData(string, bool) {}
