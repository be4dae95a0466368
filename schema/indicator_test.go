package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw      string
		kind     CodeKind
		category string
		sub      int
		theme    string
	}{
		{"index", Overall, "", 0, ""},
		{"t1", Theme, "", 0, "1"},
		{"t12", Theme, "", 0, "12"},
		{"t1.2", Theme, "", 0, "1.2"},
		{"3", Level1, "3", 0, ""},
		{"O", Level1, "O", 0, ""},
		{"1.2", Level2, "1", 2, ""},
		{"4.10", Level2, "4", 10, ""},
		{"2.3a", Level2, "2", 3, ""},
		{"2.x", Level2, "2", 0, ""},
		{"1.2.3", Level2, "1", 2, ""},
		{"", Unrecognized, "", 0, ""},
		{".5", Unrecognized, "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code := ParseCode(tt.raw)
			assert.Equal(t, tt.kind, code.Kind)
			assert.Equal(t, tt.raw, code.Raw)
			assert.Equal(t, tt.category, code.Category)
			assert.Equal(t, tt.sub, code.Sub)
			assert.Equal(t, tt.theme, code.ThemeID)
			assert.Equal(t, tt.raw, code.String())
		})
	}
}

func TestIndicatorCodeHelpers(t *testing.T) {
	assert.True(t, ParseCode("O").IsComposite())
	assert.True(t, ParseCode("S").IsComposite())
	assert.False(t, ParseCode("1").IsComposite())
	assert.False(t, ParseCode("O.1").IsComposite())

	assert.True(t, ParseCode("2.3a").IsDerived())
	assert.False(t, ParseCode("2.3").IsDerived())
	assert.False(t, ParseCode("").IsDerived())

	assert.Equal(t, "2", ParseCode("2.3").PaletteKey())
	assert.Equal(t, "4", ParseCode("4").PaletteKey())
	assert.Equal(t, OverallCode, ParseCode("t2").PaletteKey())
	assert.Equal(t, OverallCode, ParseCode("index").PaletteKey())

	assert.Equal(t, "level2", Level2.String())
	assert.Equal(t, "unrecognized", Unrecognized.String())
}

func TestPaletteShade(t *testing.T) {
	p := DefaultPalettes()
	tests := []struct {
		name     string
		category string
		i        int
		want     string
	}{
		{"first shade", "1", 0, "#c35727"},
		{"last shade", "4", 4, "#d7e5ec"},
		{"negative clamps", "2", -1, "#bdb831"},
		{"wraps past end", "3", 6, "#bf4c56"},
		{"unknown falls back to index", "O", 0, "#E55066"},
		{"index palette", OverallCode, 2, "#8D1423"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Shade(tt.category, tt.i))
		})
	}

	var empty PaletteTable
	assert.Equal(t, "#E55066", empty.Shade("1", 0))
}
