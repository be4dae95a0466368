package schema

// Colors used when a country has no score to show.
const (
	NoDataColor             = "#B2B2B2"
	InsufficientDataPattern = "url(#insufficient-data)"
)

// PaletteSize is the number of shades per palette, one per score bucket.
const PaletteSize = 5

// Palette is an ordered list of shades, indexed by score bucket (80/60/40/20/0).
type Palette [PaletteSize]string

// PaletteTable maps a category (or "index") to its palette.
type PaletteTable map[string]Palette

// DefaultPalettes returns the dashboard palettes.
func DefaultPalettes() PaletteTable {
	return PaletteTable{
		OverallCode: {"#E55066", "#D21E43", "#8D1423", "#48130B", "#120E05"},
		"1":         {"#c35727", "#cf7852", "#db9a7d", "#e7bba8", "#f3ddd3"},
		"2":         {"#bdb831", "#cac65a", "#d7d483", "#e4e2ac", "#f1f0d5"},
		"3":         {"#af1f2c", "#bf4c56", "#cf7980", "#dfa5aa", "#efd2d5"},
		"4":         {"#357b9e", "#5d95b1", "#86b0c5", "#aecad8", "#d7e5ec"},
		"5":         {"#469a8f", "#6baea5", "#90c2bc", "#b5d7d2", "#daebe9"},
	}
}

// Palette returns the palette for a category, falling back to the index palette.
func (t PaletteTable) Palette(category string) Palette {
	if p, ok := t[category]; ok {
		return p
	}
	if p, ok := t[OverallCode]; ok {
		return p
	}
	return DefaultPalettes()[OverallCode]
}

// Shade returns shade i of a category palette.
// Indices below zero clamp to the first shade; indices past the end wrap.
func (t PaletteTable) Shade(category string, i int) string {
	if i < 0 {
		i = 0
	}
	return t.Palette(category)[i%PaletteSize]
}
