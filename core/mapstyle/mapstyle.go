// Package mapstyle colors and labels countries on the choropleth map for the selected indicator.
package mapstyle

import (
	"bytes"
	"html/template"

	"github.com/rtei-org/rtei/schema"
	"github.com/samber/lo"
)

// Bucket thresholds, highest first. A score above thresholds[i] gets shade i.
var thresholds = [schema.PaletteSize]float64{80, 60, 40, 20, 0}

// Bucket returns the palette shade for a score.
// It returns false when the score has no usable value (absent, insufficient or not above zero).
func Bucket(score schema.Score) (int, bool) {
	if !score.IsNumber() {
		return 0, false
	}
	for i, limit := range thresholds {
		if score.Value > limit {
			return i, true
		}
	}
	return 0, false
}

var popupTemplate = template.Must(template.New("popup").Parse(`<div class="hoverinfo">
 <h3>{{ .Name }}</h3>
{{- if .HasScore }}
 <div class="country-score">{{ .Label }}: {{ .Value }}</div>
 <div class="more-details"><a href="{{ .Link }}">Click for more details</a></div>
{{- else if .Insufficient }}
 <div class="no-data">` + schema.InsufficientData + `</div>
{{- else }}
 <div class="no-data">No data available</div>
{{- end }}
</div>`))

type popupData struct {
	Name         string
	Label        string
	Value        string
	Link         string
	HasScore     bool
	Insufficient bool
}

// Styler styles records for one selected indicator.
type Styler struct {
	current  schema.IndicatorCode
	palettes schema.PaletteTable
	names    schema.NameMap
}

// Option configures a Styler.
type Option func(*Styler)

// WithPalettes replaces the palette table.
func WithPalettes(p schema.PaletteTable) Option {
	return func(s *Styler) { s.palettes = p }
}

// WithNames sets the labels shown in popups for non-index selections.
func WithNames(names schema.NameMap) Option {
	return func(s *Styler) { s.names = names }
}

// NewStyler creates a Styler for the selected indicator code.
func NewStyler(code string, opts ...Option) *Styler {
	s := &Styler{
		current:  schema.ParseCode(code),
		palettes: schema.DefaultPalettes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the selected indicator.
func (s *Styler) Current() schema.IndicatorCode {
	return s.current
}

// Color returns the fill color of a country.
func (s *Styler) Color(r schema.Record) string {
	score := r.Get(s.current.Raw)
	if score.Present && score.Insufficient {
		return schema.InsufficientDataPattern
	}
	shade, ok := Bucket(score)
	if !ok {
		return schema.NoDataColor
	}
	return s.palettes.Shade(s.current.PaletteKey(), shade)
}

// Popup returns the escaped HTML shown when hovering a country.
func (s *Styler) Popup(r schema.Record) (string, error) {
	score := r.Get(s.current.Raw)
	_, hasScore := Bucket(score)
	data := popupData{
		Name:         r.Name,
		Label:        s.label(),
		Value:        score.String(),
		Link:         Permalink(r.ISO2),
		HasScore:     hasScore,
		Insufficient: score.Present && score.Insufficient,
	}
	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Feature returns the map properties of a country.
func (s *Styler) Feature(r schema.Record) (schema.MapFeature, error) {
	popup, err := s.Popup(r)
	if err != nil {
		return schema.MapFeature{}, err
	}
	f := schema.MapFeature{
		Name:      r.Name,
		ISO2:      r.ISO2,
		Score:     r.Get(s.current.Raw),
		FillColor: s.Color(r),
		Popup:     popup,
	}
	if r.ISO2 != "" {
		f.Link = Permalink(r.ISO2)
	}
	return f, nil
}

// Features styles every record, in order.
func (s *Styler) Features(records []schema.Record) ([]schema.MapFeature, error) {
	out := make([]schema.MapFeature, 0, len(records))
	for _, r := range records {
		f, err := s.Feature(r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Legend returns the shades of the current palette with their lower thresholds.
func (s *Styler) Legend() []LegendEntry {
	palette := s.palettes.Palette(s.current.PaletteKey())
	return lo.Map(thresholds[:], func(limit float64, i int) LegendEntry {
		return LegendEntry{Above: limit, Color: palette[i]}
	})
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Above float64 `json:"above"`
	Color string  `json:"color"`
}

func (s *Styler) label() string {
	if s.current.Kind == schema.Overall {
		return "Index"
	}
	if label, ok := s.names[s.current.Raw]; ok && label != "" {
		return label
	}
	return s.current.Raw
}

// Permalink returns the country page of an ISO2 code.
func Permalink(iso2 string) string {
	return schema.CountryPermalink + iso2
}
