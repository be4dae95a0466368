// Package chartcfg derives bar-chart renderer configurations from RTEI score records.
//
// A Deriver owns one configuration per chart key. Register builds it from a base
// overlay and a NameMap, Reconfigure merges device-specific overlays into it, and
// Update resolves the series to plot for a selected indicator code.
package chartcfg

import (
	"maps"
	"slices"

	"github.com/rtei-org/rtei/schema"
)

// TooltipFormatter converts a raw chart value of one series into its display value.
type TooltipFormatter func(seriesID string, raw float64) schema.DisplayValue

// RendererConfig mirrors the configuration object consumed by the bar-chart library.
type RendererConfig struct {
	BindTo     string           `json:"bindto"`
	Data       DataConfig       `json:"data"`
	Axis       AxisConfig       `json:"axis"`
	Bar        BarConfig        `json:"bar"`
	Tooltip    TooltipConfig    `json:"tooltip"`
	Size       SizeConfig       `json:"size"`
	Padding    PaddingConfig    `json:"padding"`
	Transition TransitionConfig `json:"transition"`
}

// DataConfig holds the dataset and series selection.
type DataConfig struct {
	JSON   []schema.Record   `json:"json"`
	Order  *string           `json:"order"` // nil keeps series in declaration order
	Type   string            `json:"type"`
	Keys   KeysConfig        `json:"keys"`
	Groups [][]string        `json:"groups,omitempty"`
	Names  map[string]string `json:"names,omitempty"`
	Colors map[string]string `json:"colors,omitempty"`
}

// KeysConfig selects the category field and the plotted series.
type KeysConfig struct {
	X     string   `json:"x,omitempty"`
	Value []string `json:"value,omitempty"`
}

// AxisConfig holds both axes.
type AxisConfig struct {
	Rotated bool        `json:"rotated"`
	X       XAxisConfig `json:"x"`
	Y       YAxisConfig `json:"y"`
}

// XAxisConfig is the category axis.
type XAxisConfig struct {
	Type   string     `json:"type"`
	Show   bool       `json:"show"`
	Height int        `json:"height,omitempty"`
	Tick   TickConfig `json:"tick"`
}

// TickConfig controls tick label layout.
type TickConfig struct {
	Multiline bool `json:"multiline"`
}

// YAxisConfig is the value axis.
type YAxisConfig struct {
	Show    bool          `json:"show"`
	Max     float64       `json:"max"`
	Padding PaddingConfig `json:"padding"`
}

// BarConfig sizes the bars.
type BarConfig struct {
	Width int `json:"width"`
}

// TooltipConfig toggles the tooltip and carries its value formatter.
type TooltipConfig struct {
	Show   bool             `json:"show"`
	Format TooltipFormatter `json:"-"`
}

// SizeConfig is the chart size in pixels. Zero means "let the renderer decide".
type SizeConfig struct {
	Height int `json:"height,omitempty"`
	Width  int `json:"width,omitempty"`
}

// PaddingConfig is a padding box in pixels.
type PaddingConfig struct {
	Top    int `json:"top,omitempty"`
	Right  int `json:"right,omitempty"`
	Bottom int `json:"bottom,omitempty"`
	Left   int `json:"left,omitempty"`
}

// TransitionConfig controls animation.
type TransitionConfig struct {
	Duration int `json:"duration"`
}

// DefaultConfig returns the configuration every chart starts from.
func DefaultConfig() *RendererConfig {
	return &RendererConfig{
		BindTo: "#chart",
		Data: DataConfig{
			Type: "bar",
		},
		Axis: AxisConfig{
			Rotated: true,
			X: XAxisConfig{
				Type: "category",
				Show: true,
			},
			Y: YAxisConfig{
				Show:    true,
				Max:     100,
				Padding: PaddingConfig{Top: 10},
			},
		},
		Bar:        BarConfig{Width: 16},
		Tooltip:    TooltipConfig{Show: true},
		Size:       SizeConfig{Height: 150},
		Padding:    PaddingConfig{Bottom: 20},
		Transition: TransitionConfig{Duration: 300},
	}
}

// Clone returns a deep copy of the configuration, dataset included.
// The tooltip formatter is shared.
func (c *RendererConfig) Clone() *RendererConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Data.JSON = schema.CloneRecords(c.Data.JSON)
	if c.Data.Order != nil {
		order := *c.Data.Order
		out.Data.Order = &order
	}
	out.Data.Keys.Value = slices.Clone(c.Data.Keys.Value)
	if c.Data.Groups != nil {
		out.Data.Groups = make([][]string, len(c.Data.Groups))
		for i, g := range c.Data.Groups {
			out.Data.Groups[i] = slices.Clone(g)
		}
	}
	out.Data.Names = maps.Clone(c.Data.Names)
	out.Data.Colors = maps.Clone(c.Data.Colors)
	return &out
}
