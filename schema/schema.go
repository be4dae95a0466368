// Package schema has models, constants and shared lookup tables for all parts of rtei.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
)

// Score is a single indicator value for one country.
// A score is either a number in [0,100], the insufficient-data sentinel, or absent.
type Score struct {
	Value        float64 // Numeric value, meaningful only when Present && !Insufficient
	Insufficient bool    // True when the source marked this indicator as "Insufficient data"
	Present      bool    // False when the field is missing or null
}

// Number returns a present numeric score.
func Number(v float64) Score {
	return Score{Value: v, Present: true}
}

// InsufficientScore returns a present score carrying the insufficient-data sentinel.
func InsufficientScore() Score {
	return Score{Insufficient: true, Present: true}
}

// PlaceholderScore returns the numeric stand-in used for insufficient data in charts.
func PlaceholderScore() Score {
	return Number(Placeholder)
}

// IsNumber reports whether the score holds a usable number.
func (s Score) IsNumber() bool {
	return s.Present && !s.Insufficient
}

// IsPlaceholder reports whether the score holds the chart placeholder value.
func (s Score) IsPlaceholder() bool {
	return s.IsNumber() && s.Value == Placeholder
}

// String renders the score the way the dashboard shows it.
func (s Score) String() string {
	switch {
	case !s.Present:
		return ""
	case s.Insufficient:
		return InsufficientData
	default:
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	}
}

// MarshalJSON encodes numbers as numbers, the sentinel as its string and absent as null.
func (s Score) MarshalJSON() ([]byte, error) {
	switch {
	case !s.Present:
		return []byte("null"), nil
	case s.Insufficient:
		return json.Marshal(InsufficientData)
	default:
		return json.Marshal(s.Value)
	}
}

// UnmarshalJSON decodes numbers, the insufficient-data string and null.
// Any other string decodes as an absent score.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Score{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == InsufficientData {
			*s = InsufficientScore()
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid score %s: %w", data, err)
	}
	*s = Number(v)
	return nil
}

// Record holds the scores of one country.
// Its JSON form is a flat object: name, iso2 and one key per indicator code.
type Record struct {
	Name   string
	ISO2   string
	Fields map[string]Score
}

// Get returns the score stored for an indicator code.
func (r Record) Get(code string) Score {
	return r.Fields[code]
}

// Set stores a score for an indicator code.
func (r *Record) Set(code string, s Score) {
	if r.Fields == nil {
		r.Fields = make(map[string]Score)
	}
	r.Fields[code] = s
}

// Clone returns a copy of the record that shares no field storage.
func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	return out
}

// MarshalJSON flattens the record into a single object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for code, s := range r.Fields {
		out[code] = s
	}
	out["name"] = r.Name
	if r.ISO2 != "" {
		out["iso2"] = r.ISO2
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object. Absent and unknown string fields are dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{Fields: make(map[string]Score, len(raw))}
	for key, val := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(val, &r.Name); err != nil {
				return fmt.Errorf("invalid name: %w", err)
			}
		case "iso2":
			if err := json.Unmarshal(val, &r.ISO2); err != nil {
				return fmt.Errorf("invalid iso2: %w", err)
			}
		default:
			var s Score
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if s.Present {
				r.Fields[key] = s
			}
		}
	}
	return nil
}

// CloneRecords deep-copies a dataset so callers can mutate it freely.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// DisplayValue is a tooltip or popup value: either a number or the insufficient-data sentinel.
type DisplayValue struct {
	Value        float64
	Insufficient bool
}

// Display wraps a number for display.
func Display(v float64) DisplayValue {
	return DisplayValue{Value: v}
}

// InsufficientDisplay returns the sentinel display value.
func InsufficientDisplay() DisplayValue {
	return DisplayValue{Insufficient: true}
}

// Rounded returns the value rounded to the nearest integer.
func Rounded(v float64) DisplayValue {
	return DisplayValue{Value: math.Round(v)}
}

// String renders the display value.
func (d DisplayValue) String() string {
	if d.Insufficient {
		return InsufficientData
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

// MarshalJSON emits a number, or the sentinel string.
func (d DisplayValue) MarshalJSON() ([]byte, error) {
	if d.Insufficient {
		return json.Marshal(InsufficientData)
	}
	return json.Marshal(d.Value)
}

// UnmarshalJSON reads a number or the sentinel string. Anything else is an error.
func (d *DisplayValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("display value is missing")
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str != InsufficientData {
			return fmt.Errorf("invalid display value %q", str)
		}
		*d = InsufficientDisplay()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid display value %s: %w", data, err)
	}
	*d = Display(v)
	return nil
}

// NameMap maps indicator codes to display labels.
type NameMap map[string]string

// IndicatorMeta is one entry of indicators.json.
type IndicatorMeta struct {
	Title string `json:"title"`
	Level int    `json:"level"`
	Core  bool   `json:"core"`
}

// Country is one entry of countries.json.
type Country struct {
	Name       string `json:"name"`
	ISO2       string `json:"iso2"`
	ISO3       string `json:"iso3"`
	OtherNames string `json:"other_names,omitempty"`
}
