package chartcfg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ignoreFormatter skips the tooltip closure, which cannot be compared.
var ignoreFormatter = cmpopts.IgnoreFields(TooltipConfig{}, "Format")

func sampleNames() schema.NameMap {
	return schema.NameMap{"1": "Gov", "1.1": "A", "1.2": "B", "2": "Avail"}
}

func record(name string, fields map[string]schema.Score) schema.Record {
	return schema.Record{Name: name, ISO2: name[:2], Fields: fields}
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Generate(key string, cfg *RendererConfig) (Chart, error) {
	args := m.Called(key, cfg)
	chart, _ := args.Get(0).(Chart)
	return chart, args.Error(1)
}

type mockChart struct {
	mock.Mock
}

func (m *mockChart) Destroy() {
	m.Called()
}

type recordingIndicator struct {
	visible map[string]bool
}

func (r *recordingIndicator) SetNoData(key string, visible bool) {
	if r.visible == nil {
		r.visible = make(map[string]bool)
	}
	r.visible[key] = visible
}

func TestRegisterCategoryLengths(t *testing.T) {
	tests := []struct {
		name      string
		names     schema.NameMap
		perCat    map[string]int
		indexSize int
	}{
		{
			name:      "scenario map",
			names:     sampleNames(),
			perCat:    map[string]int{"1": 2, "2": 0},
			indexSize: 2,
		},
		{
			name:      "themes add no length",
			names:     schema.NameMap{"t1": "Gender", "t2": "Disability", "3": "Acc", "3.1": "x"},
			perCat:    map[string]int{"3": 1, "t1": 0},
			indexSize: 1,
		},
		{
			name:      "empty name map",
			names:     schema.NameMap{},
			perCat:    map[string]int{"1": 0},
			indexSize: 0,
		},
		{
			name:      "multi-digit sub indices",
			names:     schema.NameMap{"4": "Q", "4.1": "a", "4.2": "b", "4.10": "c", "5.3": "d"},
			perCat:    map[string]int{"4": 3, "5": 1},
			indexSize: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeriver()
			d.Register("chart", nil, Overlay{}, tt.names)
			lengths, err := d.Lengths("chart")
			require.NoError(t, err)
			for cat, want := range tt.perCat {
				assert.Equal(t, want, lengths.Count(cat), "category %s", cat)
			}
			assert.Equal(t, tt.indexSize, lengths.Index())
		})
	}
}

func TestRegisterColorsAndNames(t *testing.T) {
	names := schema.NameMap{"1": "Gov", "1.2": "B", "t3": "Theme", "5.7": "wrap"}
	palettes := schema.DefaultPalettes()

	d := NewDeriver()
	cfg := d.Register("chart", nil, Overlay{}, names)

	assert.Equal(t, palettes["1"][0], cfg.Data.Colors["1"])
	assert.Equal(t, palettes["1"][1], cfg.Data.Colors["1.2"])
	assert.Equal(t, palettes[schema.OverallCode][0], cfg.Data.Colors["t3"])
	assert.Equal(t, palettes["5"][1], cfg.Data.Colors["5.7"])
	assert.Equal(t, map[string]string(names), cfg.Data.Names)
	assert.Equal(t, Registered, d.State("chart"))
	assert.NotNil(t, cfg.Data.JSON)
	assert.Empty(t, cfg.Data.JSON)
}

func TestRegisterSkipsIndexName(t *testing.T) {
	names := schema.NameMap{schema.OverallCode: "Overall", "1": "Gov", "1.1": "A"}

	d := NewDeriver()
	cfg := d.Register("chart", nil, Overlay{}, names)

	assert.NotContains(t, cfg.Data.Colors, schema.OverallCode)
	assert.Equal(t, "Overall", cfg.Data.Names[schema.OverallCode])
	lengths, err := d.Lengths("chart")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{schema.OverallCode: 1, "1": 1}, lengths.Counts())
}

func TestRegisterOverlayWins(t *testing.T) {
	height := 400
	rotated := false
	base := Overlay{
		Size: &SizeOverlay{Height: &height},
		Axis: &AxisOverlay{Rotated: &rotated},
		Data: &DataOverlay{Colors: map[string]string{"1": "#000000"}},
	}

	d := NewDeriver()
	cfg := d.Register("chart", nil, base, sampleNames())

	assert.Equal(t, 400, cfg.Size.Height)
	assert.False(t, cfg.Axis.Rotated)
	assert.Equal(t, "category", cfg.Axis.X.Type, "untouched defaults survive")
	assert.Equal(t, 16, cfg.Bar.Width)
	assert.Equal(t, "#000000", cfg.Data.Colors["1"])
	assert.Equal(t, schema.DefaultPalettes()["1"][0], cfg.Data.Colors["1.1"])
}

func TestRegisterCopiesDataset(t *testing.T) {
	dataset := []schema.Record{
		record("Xland", map[string]schema.Score{"1": schema.InsufficientScore()}),
	}

	d := NewDeriver()
	d.Register("chart", dataset, Overlay{}, sampleNames())
	_, err := d.Update("chart", "1")
	require.NoError(t, err)

	assert.True(t, dataset[0].Get("1").Insufficient)
	assert.False(t, dataset[0].Get("1.1").Present)
}

func TestRegisterTwiceOverwrites(t *testing.T) {
	old := new(mockChart)
	old.On("Destroy").Return().Once()
	renderer := new(mockRenderer)
	renderer.On("Generate", "chart", mock.Anything).Return(old, nil).Once()

	d := NewDeriver(WithRenderer(renderer))
	d.Register("chart", nil, Overlay{}, sampleNames())
	_, err := d.Update("chart", "index")
	require.NoError(t, err)

	d.Register("chart", nil, Overlay{}, schema.NameMap{"3.1": "only"})
	lengths, err := d.Lengths("chart")
	require.NoError(t, err)
	assert.Equal(t, 1, lengths.Count("3"))
	assert.Equal(t, 0, lengths.Count("1"))
	assert.Equal(t, Registered, d.State("chart"))
	old.AssertExpectations(t)
}

func TestSharedLengths(t *testing.T) {
	t.Run("per key by default", func(t *testing.T) {
		d := NewDeriver()
		d.Register("a", nil, Overlay{}, sampleNames())
		d.Register("b", nil, Overlay{}, schema.NameMap{"1.3": "C"})

		a, err := d.Lengths("a")
		require.NoError(t, err)
		b, err := d.Lengths("b")
		require.NoError(t, err)
		assert.Equal(t, 2, a.Count("1"))
		assert.Equal(t, 1, b.Count("1"))
	})

	t.Run("explicit sharing accumulates", func(t *testing.T) {
		shared := NewCategoryLengths()
		d := NewDeriver()
		d.Register("a", nil, Overlay{}, sampleNames(), WithSharedLengths(shared))
		d.Register("b", nil, Overlay{}, schema.NameMap{"1.3": "C"}, WithSharedLengths(shared))

		assert.Equal(t, 3, shared.Count("1"))
		assert.Equal(t, 2, shared.Index())
		a, err := d.Lengths("a")
		require.NoError(t, err)
		assert.Same(t, shared, a)
	})
}

func TestUpdateResolvesSeries(t *testing.T) {
	names := schema.NameMap{
		"1": "Gov", "1.2": "B", "1.1": "A", "2": "Avail", "2.1": "C",
		"t1": "Gender", "t2": "Disability",
	}
	tests := []struct {
		name string
		code string
		want []string
	}{
		{"index uses level-1 categories", "index", []string{"1", "2", "3", "4", "5"}},
		{"level-1 uses sorted children", "1", []string{"1.1", "1.2"}},
		{"level-1 without children", "4", []string{}},
		{"theme is single series", "t2", []string{"t2"}},
		{"level-2 is single series", "2.1", []string{"2.1"}},
		{"unrecognized is single series", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeriver()
			d.Register("chart", nil, Overlay{}, names)
			series, err := d.Update("chart", tt.code)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, series)
			assert.IsNonDecreasing(t, series)

			cfg, err := d.Config("chart")
			require.NoError(t, err)
			assert.Equal(t, "name", cfg.Data.Keys.X)
			assert.Equal(t, series, cfg.Data.Keys.Value)
			require.Len(t, cfg.Data.Groups, 1)
			assert.Equal(t, series, cfg.Data.Groups[0])
			assert.Equal(t, Active, d.State("chart"))
		})
	}
}

func TestUpdateIndexIgnoresNameOrder(t *testing.T) {
	d := NewDeriver()
	d.Register("chart", nil, Overlay{}, schema.NameMap{"5": "e", "3": "c", "1": "a"})
	series, err := d.Update("chart", "index")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, series)

	d = NewDeriver(WithIndexSeries("S", "P", "O"))
	d.Register("chart", nil, Overlay{}, nil)
	series, err = d.Update("chart", "index")
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "P", "S"}, series)
}

func TestUpdateInsufficientData(t *testing.T) {
	dataset := []schema.Record{
		record("Xland", map[string]schema.Score{"1": schema.InsufficientScore(), "1.1": schema.Number(40)}),
		record("Yland", map[string]schema.Score{"1": schema.Number(50), "1.1": schema.InsufficientScore(), "1.2": schema.Number(20)}),
		record("Zland", map[string]schema.Score{"2": schema.Number(10), "1.2": schema.Number(30)}),
	}
	indicator := &recordingIndicator{}

	d := NewDeriver(WithNoDataIndicator(indicator))
	d.Register("chart", dataset, Overlay{}, sampleNames())
	_, err := d.Update("chart", "1")
	require.NoError(t, err)

	cfg, err := d.Config("chart")
	require.NoError(t, err)
	got := cfg.Data.JSON

	assert.Equal(t, schema.PlaceholderScore(), got[0].Get("1.1"))
	assert.Equal(t, schema.PlaceholderScore(), got[0].Get("1.2"))
	assert.Equal(t, schema.PlaceholderScore(), got[1].Get("1.1"))
	assert.Equal(t, schema.Number(20), got[1].Get("1.2"))
	assert.Equal(t, schema.Number(50), got[1].Get("1"))
	if diff := cmp.Diff(dataset[2], got[2]); diff != "" {
		t.Errorf("untouched record changed (-want +got):\n%s", diff)
	}
	assert.True(t, cfg.Tooltip.Show)
	assert.False(t, indicator.visible["chart"])
}

func TestUpdateScenarioInsufficientParent(t *testing.T) {
	dataset := []schema.Record{
		record("Xland", map[string]schema.Score{"1": schema.InsufficientScore()}),
	}
	d := NewDeriver()
	d.Register("chart", dataset, Overlay{}, sampleNames())
	series, err := d.Update("chart", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1", "1.2"}, series)

	cfg, err := d.Config("chart")
	require.NoError(t, err)
	assert.Equal(t, schema.Placeholder, cfg.Data.JSON[0].Get("1.1").Value)
	assert.Equal(t, schema.Placeholder, cfg.Data.JSON[0].Get("1.2").Value)
}

func TestUpdateNoDataSignal(t *testing.T) {
	allMissing := []schema.Record{
		record("Xland", map[string]schema.Score{"1": schema.InsufficientScore()}),
		record("Yland", map[string]schema.Score{"1": schema.InsufficientScore()}),
	}
	indicator := &recordingIndicator{}
	d := NewDeriver(WithNoDataIndicator(indicator))
	d.Register("chart", allMissing, Overlay{}, sampleNames())

	_, err := d.Update("chart", "1")
	require.NoError(t, err)
	cfg, err := d.Config("chart")
	require.NoError(t, err)
	assert.False(t, cfg.Tooltip.Show)
	assert.True(t, indicator.visible["chart"])

	// Placeholders left by the first pass still count as missing.
	_, err = d.Update("chart", "1")
	require.NoError(t, err)
	assert.True(t, indicator.visible["chart"])

	_, err = d.Update("chart", "t1")
	require.NoError(t, err)
	cfg, err = d.Config("chart")
	require.NoError(t, err)
	assert.True(t, cfg.Tooltip.Show)
	assert.False(t, indicator.visible["chart"])
}

func TestUpdateEmptyDataset(t *testing.T) {
	indicator := &recordingIndicator{}
	d := NewDeriver(WithNoDataIndicator(indicator))
	d.Register("chart", nil, Overlay{}, sampleNames())

	series, err := d.Update("chart", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1", "1.2"}, series)
	assert.True(t, indicator.visible["chart"])
}

func TestUpdateRendererFailureKeepsState(t *testing.T) {
	first := new(mockChart)
	renderer := new(mockRenderer)
	renderer.On("Generate", "chart", mock.Anything).Return(first, nil).Once()
	renderer.On("Generate", "chart", mock.Anything).Return(nil, errors.New("canvas gone")).Once()

	dataset := []schema.Record{
		record("Xland", map[string]schema.Score{"1": schema.InsufficientScore()}),
	}
	d := NewDeriver(WithRenderer(renderer))
	d.Register("chart", dataset, Overlay{}, sampleNames())

	_, err := d.Update("chart", "t1")
	require.NoError(t, err)
	before, err := d.Config("chart")
	require.NoError(t, err)

	_, err = d.Update("chart", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canvas gone")

	after, err := d.Config("chart")
	require.NoError(t, err)
	if diff := cmp.Diff(before, after, ignoreFormatter); diff != "" {
		t.Errorf("config changed after failed update (-before +after):\n%s", diff)
	}
	series, err := d.Series("chart")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, series)
	chart, err := d.Chart("chart")
	require.NoError(t, err)
	assert.Same(t, first, chart)
	assert.Equal(t, Active, d.State("chart"))
	first.AssertNotCalled(t, "Destroy")
	renderer.AssertExpectations(t)
}

func TestUpdateReplacesPreviousChart(t *testing.T) {
	first := new(mockChart)
	first.On("Destroy").Return().Once()
	second := new(mockChart)
	renderer := new(mockRenderer)
	renderer.On("Generate", "chart", mock.Anything).Return(first, nil).Once()
	renderer.On("Generate", "chart", mock.Anything).Return(second, nil).Once()

	d := NewDeriver(WithRenderer(renderer))
	d.Register("chart", nil, Overlay{}, sampleNames())
	_, err := d.Update("chart", "index")
	require.NoError(t, err)
	_, err = d.Update("chart", "t1")
	require.NoError(t, err)

	chart, err := d.Chart("chart")
	require.NoError(t, err)
	assert.Same(t, second, chart)
	first.AssertExpectations(t)
}

func TestUnknownChartKey(t *testing.T) {
	d := NewDeriver()

	_, err := d.Reconfigure("foo", Overlay{})
	assert.ErrorIs(t, err, ErrUnknownChartKey)

	_, err = d.Update("foo", "index")
	assert.ErrorIs(t, err, ErrUnknownChartKey)

	_, err = d.FormatTooltipValue("foo", "1", 0.5)
	assert.ErrorIs(t, err, ErrUnknownChartKey)

	_, err = d.Config("foo")
	assert.ErrorIs(t, err, ErrUnknownChartKey)

	assert.Equal(t, Unregistered, d.State("foo"))
}

func TestErrorsStayLocalToKey(t *testing.T) {
	d := NewDeriver()
	d.Register("good", nil, Overlay{}, sampleNames())
	_, err := d.Update("good", "1")
	require.NoError(t, err)
	before, err := d.Config("good")
	require.NoError(t, err)

	_, err = d.Update("missing", "1")
	require.ErrorIs(t, err, ErrUnknownChartKey)

	after, err := d.Config("good")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, after, ignoreFormatter))
}

func TestReconfigure(t *testing.T) {
	t.Run("empty overlay is a no-op", func(t *testing.T) {
		d := NewDeriver()
		d.Register("chart", []schema.Record{record("Xland", map[string]schema.Score{"1": schema.Number(3)})}, Overlay{}, sampleNames())
		_, err := d.Update("chart", "1")
		require.NoError(t, err)
		before, err := d.Config("chart")
		require.NoError(t, err)

		after, err := d.Reconfigure("chart", Overlay{})
		require.NoError(t, err)
		if diff := cmp.Diff(before, after, ignoreFormatter); diff != "" {
			t.Errorf("empty overlay changed config (-before +after):\n%s", diff)
		}
	})

	t.Run("overlay merges without repainting", func(t *testing.T) {
		renderer := new(mockRenderer)
		d := NewDeriver(WithRenderer(renderer))
		d.Register("chart", nil, Overlay{}, sampleNames())

		height := 900
		cfg, err := d.Reconfigure("chart", Overlay{
			Size: &SizeOverlay{Height: &height},
			Data: &DataOverlay{Names: map[string]string{"1": "Governance"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 900, cfg.Size.Height)
		assert.Equal(t, "Governance", cfg.Data.Names["1"])
		assert.Equal(t, "A", cfg.Data.Names["1.1"])
		renderer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		assert.Equal(t, Registered, d.State("chart"))
	})
}

func TestFormatTooltipValue(t *testing.T) {
	d := NewDeriver()
	d.Register("chart", nil, Overlay{}, schema.NameMap{
		"1": "a", "2": "b", "3": "c", "4": "d", "5": "e",
		"1.1": "x", "1.2": "y", "1.3": "z",
		"t1": "theme",
	})

	tests := []struct {
		name   string
		series string
		raw    float64
		want   schema.DisplayValue
	}{
		{"placeholder is insufficient", "1.1", 0.01, schema.InsufficientDisplay()},
		{"placeholder on theme is insufficient", "t1", 0.01, schema.InsufficientDisplay()},
		{"theme unchanged", "t1", 42.37, schema.Display(42.37)},
		{"composite rounded", "O", 66.6, schema.Display(67)},
		{"composite P rounded down", "P", 12.4, schema.Display(12)},
		{"level-2 scaled by category length", "1.2", 10.2, schema.Display(31)},
		{"level-1 scaled by index length", "3", 15.5, schema.Display(78)},
		{"near zero stays numeric", "1.2", 0.02, schema.Display(0)},
		{"unknown category scales to zero", "9.1", 50, schema.Display(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.FormatTooltipValue("chart", tt.series, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("config closure matches", func(t *testing.T) {
		cfg, err := d.Config("chart")
		require.NoError(t, err)
		require.NotNil(t, cfg.Tooltip.Format)
		assert.Equal(t, schema.Display(31), cfg.Tooltip.Format("1.2", 10.2))
		assert.True(t, cfg.Tooltip.Format("1.2", schema.Placeholder).Insufficient)
	})
}

func TestKeysAndRemove(t *testing.T) {
	chart := new(mockChart)
	chart.On("Destroy").Return().Once()
	renderer := new(mockRenderer)
	renderer.On("Generate", "b", mock.Anything).Return(chart, nil)

	d := NewDeriver(WithRenderer(renderer))
	d.Register("b", nil, Overlay{}, nil)
	d.Register("a", nil, Overlay{}, nil)
	assert.Equal(t, []string{"a", "b"}, d.Keys())

	_, err := d.Update("b", "t1")
	require.NoError(t, err)
	d.Remove("b")
	d.Remove("never")

	assert.Equal(t, []string{"a"}, d.Keys())
	assert.Equal(t, Unregistered, d.State("b"))
	chart.AssertExpectations(t)
}
