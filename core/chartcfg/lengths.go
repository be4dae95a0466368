package chartcfg

import (
	"maps"

	"github.com/rtei-org/rtei/schema"
)

// CategoryLengths counts level-2 sub-indicators per level-1 category, and
// level-1 categories under the "index" key. Counts only ever grow.
type CategoryLengths struct {
	counts map[string]int
}

// NewCategoryLengths returns an empty registry.
func NewCategoryLengths() *CategoryLengths {
	return &CategoryLengths{counts: make(map[string]int)}
}

// Add increments the count for a category.
func (l *CategoryLengths) Add(category string) {
	l.counts[category]++
}

// Count returns the count for a category, zero if never seen.
func (l *CategoryLengths) Count(category string) int {
	return l.counts[category]
}

// Index returns the number of level-1 categories seen.
func (l *CategoryLengths) Index() int {
	return l.counts[schema.OverallCode]
}

// Counts returns a copy of all counts.
func (l *CategoryLengths) Counts() map[string]int {
	return maps.Clone(l.counts)
}

// scan accumulates counts from the keys of a NameMap.
func (l *CategoryLengths) scan(codes []schema.IndicatorCode) {
	for _, code := range codes {
		switch code.Kind {
		case schema.Level2:
			l.Add(code.Category)
		case schema.Level1:
			l.Add(schema.OverallCode)
		}
	}
}
