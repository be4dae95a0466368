package core

import (
	"errors"
	"fmt"

	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// Dataset is everything loaded from the data directory for one run.
type Dataset struct {
	Records []schema.Record
	Meta    map[string]schema.IndicatorMeta
	Names   schema.NameMap
}

// LoadDataset reads records and indicator metadata from src.
// Records without an overall index get their aggregates computed.
func LoadDataset(src contract.DataSource) (*Dataset, error) {
	if src == nil {
		return nil, errors.New("no data source configured")
	}
	records, err := src.Records()
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	meta, err := src.Indicators()
	if err != nil {
		return nil, fmt.Errorf("failed to load indicators: %w", err)
	}

	for i := range records {
		if !records[i].Get(schema.OverallCode).Present {
			scores.AddMainScores(&records[i])
			scores.AddFullScore(&records[i])
		}
	}

	return &Dataset{
		Records: records,
		Meta:    meta,
		Names:   scores.NameMapFrom(meta, contract.NameMapMaxLevel),
	}, nil
}

// Country returns the record of one ISO2 code.
func (ds *Dataset) Country(iso2 string) (schema.Record, bool) {
	for _, r := range ds.Records {
		if r.ISO2 == iso2 {
			return r, true
		}
	}
	return schema.Record{}, false
}
