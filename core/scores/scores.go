// Package scores computes aggregate RTEI scores and orders country records.
package scores

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rtei-org/rtei/schema"
	"github.com/samber/lo"
)

// Layout constants of the theme chart.
const (
	RowHeight = 22
	MinHeight = 200
)

// NameSortKey sorts records by country name instead of a score.
const NameSortKey = "name"

// Aggregates are stored with this many decimal places.
const roundPlaces = 4

// AsPercent converts a fraction in [0,1] to a percentage; larger values are kept.
func AsPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AddMainScores sets every level-1 score of r to the mean of its non-derived
// level-2 scores. Insufficient children are skipped; a category whose children
// are all insufficient becomes insufficient.
func AddMainScores(r *schema.Record) {
	type acc struct {
		sum          float64
		n            int
		insufficient bool
	}
	byCategory := make(map[string]*acc)
	for code, score := range r.Fields {
		c := schema.ParseCode(code)
		if c.Kind != schema.Level2 || c.IsDerived() || strings.Count(code, ".") != 1 {
			continue
		}
		a, ok := byCategory[c.Category]
		if !ok {
			a = &acc{}
			byCategory[c.Category] = a
		}
		switch {
		case score.IsNumber():
			a.sum += AsPercent(score.Value)
			a.n++
		case score.Insufficient:
			a.insufficient = true
		}
	}
	for category, a := range byCategory {
		switch {
		case a.n > 0:
			r.Set(category, schema.Number(Round(a.sum/float64(a.n), roundPlaces)))
		case a.insufficient:
			r.Set(category, schema.InsufficientScore())
		}
	}
}

// AddFullScore sets the overall index of r to the mean of the five level-1 scores.
// The index is insufficient when any of them is missing or insufficient.
func AddFullScore(r *schema.Record) {
	values := make([]float64, 0, len(schema.Level1Categories))
	for _, category := range schema.Level1Categories {
		s := r.Get(category)
		if !s.IsNumber() {
			r.Set(schema.OverallCode, schema.InsufficientScore())
			return
		}
		values = append(values, s.Value)
	}
	r.Set(schema.OverallCode, schema.Number(Round(lo.Sum(values)/float64(len(values)), roundPlaces)))
}

// Complete runs AddMainScores then AddFullScore on every record.
func Complete(records []schema.Record) {
	for i := range records {
		AddMainScores(&records[i])
		AddFullScore(&records[i])
	}
}

// SortRecords stably sorts records by an indicator code, or by name for NameSortKey.
// Ascending order puts records without a number first; desc reverses the result.
func SortRecords(records []schema.Record, key string, desc bool) {
	if key == NameSortKey {
		slices.SortStableFunc(records, func(a, b schema.Record) int {
			return cmp.Compare(a.Name, b.Name)
		})
	} else {
		slices.SortStableFunc(records, func(a, b schema.Record) int {
			return compareScores(a.Get(key), b.Get(key))
		})
	}
	if desc {
		slices.Reverse(records)
	}
}

func compareScores(a, b schema.Score) int {
	switch {
	case a.IsNumber() && b.IsNumber():
		return cmp.Compare(a.Value, b.Value)
	case a.IsNumber():
		return 1
	case b.IsNumber():
		return -1
	default:
		return 0
	}
}

// ChartHeight returns the pixel height of a chart with n rows.
func ChartHeight(n int) int {
	return max(n*RowHeight, MinHeight)
}

// MapIndicators returns the level-1 indicators selectable on the map, each with
// its level-2 children. Derived indicators and deeper levels are skipped.
func MapIndicators(meta map[string]schema.IndicatorMeta) []schema.MapIndicator {
	codes := lo.Keys(meta)
	slices.SortFunc(codes, compareCodes)

	var out []schema.MapIndicator
	position := make(map[string]int)
	var children []schema.MapIndicator
	for _, code := range codes {
		m := meta[code]
		if m.Level > 2 || schema.ParseCode(code).IsDerived() {
			continue
		}
		ind := schema.MapIndicator{Code: code, Title: m.Title, Level: m.Level, Core: m.Core}
		if m.Level == 1 {
			position[code] = len(out)
			ind.Subindicators = []schema.MapIndicator{}
			out = append(out, ind)
		} else {
			children = append(children, ind)
		}
	}
	for _, child := range children {
		parent := schema.ParseCode(child.Code).Category
		if i, ok := position[parent]; ok {
			out[i].Subindicators = append(out[i].Subindicators, child)
		}
	}
	return out
}

// NameMapFrom builds the chart NameMap from indicator metadata, keeping levels up to maxLevel.
func NameMapFrom(meta map[string]schema.IndicatorMeta, maxLevel int) schema.NameMap {
	names := make(schema.NameMap)
	for code, m := range meta {
		if m.Level > maxLevel || schema.ParseCode(code).IsDerived() {
			continue
		}
		names[code] = m.Title
	}
	return names
}

// SelectableCodes returns every code a chart can be switched to: the index,
// the map indicators with their children, then the themes present in meta.
func SelectableCodes(meta map[string]schema.IndicatorMeta) []string {
	codes := []string{schema.OverallCode}
	for _, ind := range MapIndicators(meta) {
		codes = append(codes, ind.Code)
		for _, sub := range ind.Subindicators {
			codes = append(codes, sub.Code)
		}
	}
	themes := lo.Filter(lo.Keys(meta), func(code string, _ int) bool {
		return schema.ParseCode(code).Kind == schema.Theme
	})
	slices.SortFunc(themes, compareCodes)
	return lo.Uniq(append(codes, themes...))
}

// compareCodes orders codes segment by segment, numerically where possible,
// so that "1.2" sorts before "1.10".
func compareCodes(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		var c int
		if aerr == nil && berr == nil {
			c = cmp.Compare(ai, bi)
		} else {
			c = cmp.Compare(as[i], bs[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}
