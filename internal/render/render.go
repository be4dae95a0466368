// Package render turns derived chart configurations into concrete charts.
package render

import (
	"sync"

	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/schema"
)

// TooltipRow holds the formatted tooltip values of one record.
type TooltipRow struct {
	Name   string                         `json:"name"`
	ISO2   string                         `json:"iso2,omitempty"`
	Values map[string]schema.DisplayValue `json:"values"`
}

// Tooltips formats every plotted value of cfg the way the chart tooltip shows it.
// Missing values are left out. A hidden tooltip yields no rows.
func Tooltips(cfg *chartcfg.RendererConfig) []TooltipRow {
	if cfg == nil || !cfg.Tooltip.Show || cfg.Tooltip.Format == nil {
		return nil
	}
	rows := make([]TooltipRow, 0, len(cfg.Data.JSON))
	for _, r := range cfg.Data.JSON {
		row := TooltipRow{Name: r.Name, ISO2: r.ISO2, Values: make(map[string]schema.DisplayValue)}
		for _, series := range cfg.Data.Keys.Value {
			s := r.Get(series)
			if !s.IsNumber() {
				continue
			}
			row.Values[series] = cfg.Tooltip.Format(series, s.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

// NoDataFlags records the no-data notice visibility per chart key.
type NoDataFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

var _ chartcfg.NoDataIndicator = &NoDataFlags{} // Compile-time check

// NewNoDataFlags creates an empty flag set.
func NewNoDataFlags() *NoDataFlags {
	return &NoDataFlags{flags: make(map[string]bool)}
}

// SetNoData shows or hides the notice for key.
func (n *NoDataFlags) SetNoData(key string, visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flags[key] = visible
}

// Visible reports whether the notice for key is shown.
func (n *NoDataFlags) Visible(key string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.flags[key]
}
