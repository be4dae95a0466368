package chartcfg

import (
	"testing"

	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
)

func TestCategoryLengths(t *testing.T) {
	l := NewCategoryLengths()
	l.scan([]schema.IndicatorCode{
		schema.ParseCode("1"),
		schema.ParseCode("1.1"),
		schema.ParseCode("1.2"),
		schema.ParseCode("t1"),
		schema.ParseCode("index"),
		schema.ParseCode(".3"),
	})

	assert.Equal(t, 2, l.Count("1"))
	assert.Equal(t, 1, l.Index())
	assert.Equal(t, map[string]int{"1": 2, "index": 1}, l.Counts())

	counts := l.Counts()
	counts["1"] = 99
	assert.Equal(t, 2, l.Count("1"), "Counts returns a copy")

	l.scan([]schema.IndicatorCode{schema.ParseCode("1.3")})
	assert.Equal(t, 3, l.Count("1"), "counts accumulate")
}
