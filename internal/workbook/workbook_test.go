package workbook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		value string
		code  string
		title string
		level int
		ok    bool
	}{
		{"1: Governance", "1", "Governance", 1, true},
		{"C 1.2: Domestic law", "1.2", "Domestic law", 2, true},
		{"3.2.1: Ratio of pupils", "3.2.1", "Ratio of pupils", 3, true},
		{"1.5.6a: Derived", "1.5.6a", "Derived", 4, true},
		{"4.1.2_year reference", "4.1.2_year", "Year", 4, true},
		{"3.1.1a_gp", "3.1.1a_gp", "Primary schools: Gender Parity", 4, true},
		{"3.1.1b_inc_hmp", "3.1.1b_inc_hmp", "Secondary schools: High to Medium Quartile Income Ratio", 4, true},
		{"3.1.1c_inc_mlp ratio", "3.1.1c_inc_mlp", "TVET: Medium to Low Quartile Income Ratio", 4, true},
		{"3.1.1a_inc", "", "", 0, false},
		{"Country", "", "", 0, false},
		{"", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			code, title, level, ok := ParseCell(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestScoreValue(t *testing.T) {
	tests := []struct {
		name string
		code string
		raw  string
		want schema.Score
		ok   bool
	}{
		{"fraction becomes percent", "1.1", "0.51234", schema.Number(51.23), true},
		{"percent kept", "1.1", "75", schema.Number(75), true},
		{"capped code", "2.4", "3", schema.Number(100), true},
		{"level one raw", "1", "0.5", schema.Number(0.5), true},
		{"insufficient", "1.1", schema.InsufficientData, schema.InsufficientScore(), true},
		{"blank", "1.1", " ", schema.Score{}, false},
		{"text", "1.1", "n/a", schema.Score{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scoreValue(tt.code, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func buildWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", CoreSheet))

	cells := map[string]any{
		"B1": "1: Governance",
		"D1": "2: Availability",
		"B3": "C 1.1: International framework",
		"B4": "C 1.1: International framework",
		"C4": "C 1.2: Domestic law",
		"D4": "2.4: Textbooks",
		"E4": "1.2a: Derived ratio",
		"A4": "Country",
		"A5": "Kenya",
		"B5": 0.5,
		"C5": 1,
		"D5": 2.5,
		"E5": 0.9,
		"A6": "Atlantis",
		"B6": 0.1,
		"A7": "Chile",
		"B7": schema.InsufficientData,
		"C7": schema.InsufficientData,
	}
	for ref, v := range cells {
		require.NoError(t, f.SetCellValue(CoreSheet, ref, v))
	}

	_, err := f.NewSheet(CompanionSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(CompanionSheet, "B4", "C 1.1: International framework"))
	require.NoError(t, f.SetCellValue(CompanionSheet, "C4", "5.1: Learning environment"))
	require.NoError(t, f.SetCellValue(CompanionSheet, "C5", 0.25))

	path := filepath.Join(t.TempDir(), "rtei.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestImport(t *testing.T) {
	path := buildWorkbook(t)
	countries := []schema.Country{
		{Name: "Kenya", ISO2: "KE", ISO3: "KEN"},
		{Name: "Republic of Chile", ISO2: "CL", ISO3: "CHL", OtherNames: "Chile"},
	}

	res, err := Import(path, countries)
	require.NoError(t, err)

	wantMeta := map[string]schema.IndicatorMeta{
		"1":    {Title: "Governance", Level: 1, Core: true},
		"2":    {Title: "Availability", Level: 1, Core: true},
		"1.1":  {Title: "International framework", Level: 2, Core: true},
		"1.2":  {Title: "Domestic law", Level: 2, Core: true},
		"2.4":  {Title: "Textbooks", Level: 2, Core: true},
		"1.2a": {Title: "Derived ratio", Level: 2, Core: true},
		"5.1":  {Title: "Learning environment", Level: 2, Core: false},
	}
	if diff := cmp.Diff(wantMeta, res.Indicators); diff != "" {
		t.Errorf("indicators mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"could not get country code for Atlantis"}, res.Warnings)
	require.Len(t, res.Records, 2)

	kenya := res.Records[0]
	assert.Equal(t, "KE", kenya.ISO2)
	assert.Equal(t, schema.Number(50), kenya.Get("1.1"))
	assert.Equal(t, schema.Number(100), kenya.Get("1.2"))
	assert.Equal(t, schema.Number(100), kenya.Get("2.4"))
	assert.Equal(t, schema.Number(25), kenya.Get("5.1"))
	assert.False(t, kenya.Get("1.2a").Present)
	assert.Equal(t, schema.Number(75), kenya.Get("1"))
	assert.True(t, kenya.Get("index").Insufficient)

	chile := res.Records[1]
	assert.Equal(t, "CL", chile.ISO2)
	assert.True(t, chile.Get("1").Insufficient)
}

func TestResultSave(t *testing.T) {
	res := &Result{
		Indicators: map[string]schema.IndicatorMeta{"1": {Title: "Governance", Level: 1, Core: true}},
		Records: []schema.Record{
			{Name: "Kenya", ISO2: "KE", Fields: map[string]schema.Score{"1": schema.Number(75)}},
		},
	}
	dir := filepath.Join(t.TempDir(), "data")

	written, err := res.Save(dir)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	data, err := os.ReadFile(filepath.Join(dir, "scores_per_country.json"))
	require.NoError(t, err)
	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 75.0, got["KE"]["1"])
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	assert.Error(t, err)
}
