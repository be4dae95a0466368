// Package workbook imports the RTEI questionnaire workbook into the JSON data files.
package workbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the questionnaire workbook.
const (
	CoreSheet      = "Core Questionnaire"
	CompanionSheet = "Companion Questionnaire"
)

// Layout of a questionnaire sheet.
const (
	columnHeaderRow = 3 // header row holding one code per data column
	firstCountryRow = 4 // 0-based; countries start on spreadsheet row 5
	cappedCode      = "2.4"
	valuePlaces     = 4
	percentPlaces   = 3
)

// headerRows are scanned for indicator codes. Row 1 repeats row 3.
var headerRows = []int{0, 2, columnHeaderRow}

var validCode = regexp.MustCompile(`^(C )?(\d)(.*?)?:`)

// Modifiers name the parity ratios of derived indicators.
var Modifiers = map[string]string{
	"gp":      "Gender Parity",
	"ad":      "Advantaged Group",
	"resp":    "Residential Parity",
	"disp":    "Disability Parity",
	"inc-hmp": "High to Medium Quartile Income Ratio",
	"inc-mlp": "Medium to Low Quartile Income Ratio",
}

// SchoolTypes name the school type suffix of derived indicators.
var SchoolTypes = map[byte]string{
	'a': "Primary schools",
	'b': "Secondary schools",
	'c': "TVET",
	'd': "Tertiary schools",
}

// Indicator is one parsed header cell.
type Indicator struct {
	Code   string
	Title  string
	Level  int
	Core   bool
	Column int // 0-based, -1 when the code only appears in an upper header row
}

// Result holds everything read from a workbook.
type Result struct {
	Indicators map[string]schema.IndicatorMeta
	Records    []schema.Record
	Warnings   []string
}

// ParseCell extracts the indicator code, title and level from a header cell.
// It returns ok=false when the cell holds no indicator.
func ParseCell(value string) (code, title string, level int, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", 0, false
	}

	if m := validCode.FindStringSubmatch(value); m != nil {
		code = m[2] + m[3]
		title = strings.TrimSpace(strings.ReplaceAll(strings.Replace(value, code+":", "", 1), "C ", ""))
		switch strings.Count(code, ".") {
		case 0:
			level = 1
		case 1:
			level = 2
		case 2:
			if _, err := strconv.Atoi(strings.ReplaceAll(code, ".", "")); err == nil {
				level = 3
			} else {
				level = 4
			}
		default:
			return "", "", 0, false
		}
		return code, title, level, true
	}

	first := strings.Fields(value)[0]
	if strings.Contains(first, "_year") {
		return first, "Year", 4, true
	}

	// Income ratio modifiers carry an underscore of their own
	normalized := strings.ReplaceAll(first, "inc_", "inc-")
	if !lo.SomeBy(lo.Keys(Modifiers), func(m string) bool { return strings.Contains(normalized, m) }) {
		return "", "", 0, false
	}
	parts := strings.Split(normalized, "_")
	var names []string
	for _, p := range parts[1:] {
		if name, known := Modifiers[p]; known {
			names = append(names, name)
		}
	}
	head := parts[0]
	return first, fmt.Sprintf("%s: %s", SchoolTypes[head[len(head)-1]], strings.Join(names, " - ")), 4, true
}

// Import reads the workbook at path and returns indicator metadata and one
// scored record per country. Countries are matched by name or alternate name.
func Import(path string, countries []schema.Country) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	res := &Result{Indicators: make(map[string]schema.IndicatorMeta)}

	coreRows, err := f.GetRows(CoreSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", CoreSheet, err)
	}
	coreIndicators := readIndicators(coreRows, true)

	var companionRows [][]string
	var companionIndicators []Indicator
	if idx, _ := f.GetSheetIndex(CompanionSheet); idx >= 0 {
		companionRows, err = f.GetRows(CompanionSheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", CompanionSheet, err)
		}
		companionIndicators = readIndicators(companionRows, false)
	}

	all := slices.Clone(coreIndicators)
	for _, ind := range companionIndicators {
		if !slices.ContainsFunc(coreIndicators, func(c Indicator) bool { return c.Code == ind.Code }) {
			all = append(all, ind)
		}
	}
	for _, ind := range all {
		res.Indicators[ind.Code] = schema.IndicatorMeta{Title: ind.Title, Level: ind.Level, Core: ind.Core}
	}

	for i := firstCountryRow; i < len(coreRows); i++ {
		name := strings.TrimSpace(cell(coreRows[i], 0))
		if name == "" {
			continue
		}
		iso2 := countryCode(countries, name)
		if iso2 == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not get country code for %s", name))
			continue
		}

		r := schema.Record{Name: name, ISO2: iso2, Fields: make(map[string]schema.Score)}
		for _, ind := range all {
			if ind.Level > contract.NameMapMaxLevel || ind.Column < 0 || schema.ParseCode(ind.Code).IsDerived() {
				continue
			}
			rows := coreRows
			if !ind.Core {
				rows = companionRows
			}
			var raw string
			if i < len(rows) {
				raw = cell(rows[i], ind.Column)
			}
			if s, ok := scoreValue(ind.Code, raw); ok {
				r.Set(ind.Code, s)
			}
		}
		scores.AddMainScores(&r)
		scores.AddFullScore(&r)
		res.Records = append(res.Records, r)
	}

	return res, nil
}

// Save writes scores_per_country.json (keyed by ISO2) and indicators.json into dir.
func (r *Result) Save(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	byCountry := make(map[string]map[string]schema.Score, len(r.Records))
	for _, rec := range r.Records {
		byCountry[rec.ISO2] = rec.Fields
	}

	var written []string
	for name, v := range map[string]any{
		contract.ScoresFileName:     byCountry,
		contract.IndicatorsFileName: r.Indicators,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return written, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	slices.Sort(written)
	return written, nil
}

func readIndicators(rows [][]string, core bool) []Indicator {
	var out []Indicator
	seen := make(map[string]int)
	for _, i := range headerRows {
		if i >= len(rows) {
			continue
		}
		for col, value := range rows[i] {
			code, title, level, ok := ParseCell(value)
			if !ok {
				continue
			}
			if idx, dup := seen[code]; dup {
				if i == columnHeaderRow && out[idx].Column < 0 {
					out[idx].Column = col
				}
				continue
			}
			ind := Indicator{Code: code, Title: title, Level: level, Core: core, Column: -1}
			if i == columnHeaderRow {
				ind.Column = col
			}
			seen[code] = len(out)
			out = append(out, ind)
		}
	}
	return out
}

// scoreValue converts a raw cell into a score. Level-2 values become percentages.
func scoreValue(code, raw string) (schema.Score, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return schema.Score{}, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if raw == schema.InsufficientData {
			return schema.InsufficientScore(), true
		}
		return schema.Score{}, false
	}
	v = scores.Round(v, valuePlaces)
	if code == cappedCode && v >= 1 {
		v = 1
	}
	if strings.Count(code, ".") == 1 {
		v = scores.Round(scores.AsPercent(v), percentPlaces)
	}
	return schema.Number(v), true
}

func countryCode(countries []schema.Country, name string) string {
	for _, c := range countries {
		if name == c.Name || (c.OtherNames != "" && name == c.OtherNames) {
			return c.ISO2
		}
	}
	return ""
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
