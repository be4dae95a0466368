package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rtei-org/rtei/core/chartcfg"
)

// Document is the baked form of one chart: the c3 configuration plus the
// tooltip values the page would compute on hover.
type Document struct {
	Key      string                   `json:"key"`
	Config   *chartcfg.RendererConfig `json:"config"`
	Tooltips []TooltipRow             `json:"tooltips,omitempty"`
	NoData   bool                     `json:"no_data"`
}

// C3Chart is a generated chart document.
type C3Chart struct {
	doc       Document
	destroyed bool
}

var _ chartcfg.Chart = &C3Chart{} // Compile-time check

// Destroy marks the chart as torn down.
func (c *C3Chart) Destroy() {
	c.destroyed = true
}

// Destroyed reports whether Destroy was called.
func (c *C3Chart) Destroyed() bool {
	return c.destroyed
}

// Document returns the chart document.
func (c *C3Chart) Document() Document {
	return c.doc
}

// WriteJSON writes the document as indented JSON.
func (c *C3Chart) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.doc); err != nil {
		return fmt.Errorf("failed to encode chart %q: %w", c.doc.Key, err)
	}
	return nil
}

// C3Renderer builds chart documents from derived configurations.
type C3Renderer struct{}

var _ chartcfg.Renderer = C3Renderer{} // Compile-time check

// Generate snapshots cfg into a document. The config is deep-copied.
func (C3Renderer) Generate(key string, cfg *chartcfg.RendererConfig) (chartcfg.Chart, error) {
	if cfg == nil {
		return nil, fmt.Errorf("chart %q has no configuration", key)
	}
	return &C3Chart{doc: Document{
		Key:      key,
		Config:   cfg.Clone(),
		Tooltips: Tooltips(cfg),
		NoData:   !cfg.Tooltip.Show,
	}}, nil
}
