package core

import (
	"github.com/rtei-org/rtei/core/mapstyle"
	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/schema"
)

// MapDocument is the baked map layer of one indicator.
type MapDocument struct {
	Code     string                 `json:"code"`
	Legend   []mapstyle.LegendEntry `json:"legend"`
	Features []schema.MapFeature    `json:"features"`
}

// MapIndex lists the indicators selectable on the map.
type MapIndex struct {
	Indicators []schema.MapIndicator `json:"indicators"`
}

// newStyler creates a map styler labelled from the dataset's NameMap.
func newStyler(code string, data *Dataset) *mapstyle.Styler {
	return mapstyle.NewStyler(code, mapstyle.WithNames(data.Names))
}

// mapDocument styles every record of data for code.
func mapDocument(code string, data *Dataset) (MapDocument, error) {
	styler := newStyler(code, data)
	features, err := styler.Features(data.Records)
	if err != nil {
		return MapDocument{}, err
	}
	return MapDocument{Code: code, Legend: styler.Legend(), Features: features}, nil
}

// mapIndex returns the map switcher entries of data.
func mapIndex(data *Dataset) MapIndex {
	return MapIndex{Indicators: scores.MapIndicators(data.Meta)}
}
