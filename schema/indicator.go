package schema

import (
	"strconv"
	"strings"
	"unicode"
)

// CodeKind tags the shape of an IndicatorCode.
type CodeKind int

// All indicator code shapes.
const (
	Unrecognized CodeKind = iota // empty string or empty category; charted like a theme
	Overall                      // "index"
	Theme                        // "t<N>"
	Level1                       // "<L>"
	Level2                       // "<L>.<S>"
)

// String returns a readable name for the kind.
func (k CodeKind) String() string {
	switch k {
	case Overall:
		return "overall"
	case Theme:
		return "theme"
	case Level1:
		return "level1"
	case Level2:
		return "level2"
	default:
		return "unrecognized"
	}
}

// IndicatorCode is an indicator code parsed once at the boundary.
// Only the fields relevant to Kind are set.
type IndicatorCode struct {
	Kind     CodeKind
	Raw      string
	Category string // Level1, Level2: the top-level category
	Sub      int    // Level2: sub-index within Category, 0 when not numeric
	ThemeID  string // Theme: identifier after the "t"
}

// ParseCode classifies a raw indicator code.
// A "t" prefix wins over a ".", so "t1.2" is a theme.
func ParseCode(raw string) IndicatorCode {
	code := IndicatorCode{Raw: raw}
	switch {
	case raw == OverallCode:
		code.Kind = Overall
	case strings.HasPrefix(raw, "t"):
		code.Kind = Theme
		code.ThemeID = raw[1:]
	case strings.Contains(raw, "."):
		category, rest, _ := strings.Cut(raw, ".")
		if category == "" {
			code.Kind = Unrecognized
			return code
		}
		code.Kind = Level2
		code.Category = category
		code.Sub = leadingInt(rest)
	case raw == "":
		code.Kind = Unrecognized
	default:
		code.Kind = Level1
		code.Category = raw
	}
	return code
}

// String returns the raw code.
func (c IndicatorCode) String() string {
	return c.Raw
}

// IsComposite reports whether the code is one of the reserved O/P/S composites.
func (c IndicatorCode) IsComposite() bool {
	if c.Kind != Level1 {
		return false
	}
	_, ok := CompositeCodes[c.Category]
	return ok
}

// IsDerived reports whether the code names a derived indicator such as "1.2a".
func (c IndicatorCode) IsDerived() bool {
	if c.Raw == "" {
		return false
	}
	last := rune(c.Raw[len(c.Raw)-1])
	return unicode.IsLetter(last)
}

// PaletteKey returns the palette category used to color this code.
func (c IndicatorCode) PaletteKey() string {
	switch c.Kind {
	case Level1, Level2:
		return c.Category
	default:
		return OverallCode
	}
}

// leadingInt parses the leading digits of s, mirroring parseInt semantics.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
