package schema

import "time"

// SeriesPoint is one bar segment of a derived chart: one country, one series.
type SeriesPoint struct {
	Country string       `json:"country"`
	ISO2    string       `json:"iso2,omitempty"`
	Series  string       `json:"series"`
	Label   string       `json:"label"`
	Raw     Score        `json:"raw"`
	Display DisplayValue `json:"display"`
	Color   string       `json:"color"`
}

// ChartResult is the outcome of deriving one chart for one indicator selection.
type ChartResult struct {
	ChartKey string        `json:"chart_key"`
	Code     string        `json:"code"`
	Kind     string        `json:"kind"`
	Series   []string      `json:"series"`
	NoData   bool          `json:"no_data"`
	Points   []SeriesPoint `json:"points"`
}

// MapFeature is the per-country styling consumed by the map layer.
type MapFeature struct {
	Name      string `json:"name"`
	ISO2      string `json:"iso2"`
	Score     Score  `json:"score"`
	FillColor string `json:"fill_color"`
	Popup     string `json:"popup"`
	Link      string `json:"link,omitempty"`
}

// MapIndicator is a selectable indicator in the map switcher, with its level-2 children.
type MapIndicator struct {
	Code          string         `json:"code"`
	Title         string         `json:"title"`
	Level         int            `json:"level"`
	Core          bool           `json:"core"`
	Subindicators []MapIndicator `json:"subindicators,omitempty"`
}

// Snapshot is one baked chart document.
type Snapshot struct {
	RunID     int64     `json:"run_id"`
	ChartKey  string    `json:"chart_key"`
	Code      string    `json:"code"`
	Format    string    `json:"format"`
	Series    []string  `json:"series"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BakeSummary describes a completed bake run.
type BakeSummary struct {
	RunID     int64         `json:"run_id"`
	Charts    int           `json:"charts"`
	Snapshots int           `json:"snapshots"`
	Files     []string      `json:"files"`
	Duration  time.Duration `json:"duration"`
}
