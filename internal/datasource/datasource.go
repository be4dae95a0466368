// Package datasource loads the static RTEI data files with a small in-memory cache.
package datasource

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// ErrNotFound is returned when a country or data file cannot be found.
var ErrNotFound = errors.New("not found")

// FileSource reads scores, indicators and countries from a data directory.
// Decoded files are kept in an LRU cache keyed by path until Invalidate is called.
type FileSource struct {
	dir   string
	cache *lru.Cache[string, any]
}

var _ contract.DataSource = &FileSource{} // Compile-time check

// NewFileSource creates a FileSource over dir holding at most size decoded files.
func NewFileSource(dir string, size int) (*FileSource, error) {
	if size <= 0 {
		size = contract.DefaultCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}
	return &FileSource{dir: dir, cache: cache}, nil
}

// Dir returns the data directory.
func (s *FileSource) Dir() string {
	return s.dir
}

// Records returns one record per country, sorted by country name.
// The scores file may be a list of records or an object keyed by ISO2.
// Returned records are copies and may be mutated.
func (s *FileSource) Records() ([]schema.Record, error) {
	records, err := load(s, contract.ScoresFileName, s.decodeRecords)
	if err != nil {
		return nil, err
	}
	return schema.CloneRecords(records), nil
}

// Record returns the record of one country by ISO2 code.
func (s *FileSource) Record(iso2 string) (schema.Record, error) {
	records, err := s.Records()
	if err != nil {
		return schema.Record{}, err
	}
	for _, r := range records {
		if strings.EqualFold(r.ISO2, iso2) {
			return r, nil
		}
	}
	return schema.Record{}, fmt.Errorf("country %q: %w", iso2, ErrNotFound)
}

// Indicators returns the indicator metadata keyed by code.
func (s *FileSource) Indicators() (map[string]schema.IndicatorMeta, error) {
	return load(s, contract.IndicatorsFileName, func(data []byte) (map[string]schema.IndicatorMeta, error) {
		var meta map[string]schema.IndicatorMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, err
		}
		return meta, nil
	})
}

// Countries returns the country lookup table.
// Both a list and an object keyed by country code are accepted.
func (s *FileSource) Countries() ([]schema.Country, error) {
	return load(s, contract.CountriesFileName, decodeCountries)
}

// CountryName returns the name of a country given its ISO2 or ISO3 code.
func (s *FileSource) CountryName(code string) (string, error) {
	countries, err := s.Countries()
	if err != nil {
		return "", err
	}
	code = strings.ToUpper(code)
	for _, c := range countries {
		if (len(code) == 3 && c.ISO3 == code) || (len(code) != 3 && c.ISO2 == code) {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("country %q: %w", code, ErrNotFound)
}

// Invalidate drops every cached file so the next read hits the disk.
func (s *FileSource) Invalidate() {
	s.cache.Purge()
}

// load reads and decodes a data file once, then serves it from the cache.
func load[T any](s *FileSource, name string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	path := filepath.Join(s.dir, name)
	if v, ok := s.cache.Get(path); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, fmt.Errorf("data file %s: %w", name, ErrNotFound)
		}
		return zero, fmt.Errorf("failed to read %s: %w", name, err)
	}
	out, err := decode(data)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	s.cache.Add(path, out)
	return out, nil
}

func (s *FileSource) decodeRecords(data []byte) ([]schema.Record, error) {
	data = bytes.TrimSpace(data)
	var records []schema.Record
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	} else {
		var keyed map[string]schema.Record
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, err
		}
		names := s.countryNames()
		for iso2, r := range keyed {
			r.ISO2 = iso2
			if name, ok := names[iso2]; ok {
				r.Name = name
			}
			if r.Name == "" {
				r.Name = iso2
			}
			records = append(records, r)
		}
	}
	slices.SortStableFunc(records, func(a, b schema.Record) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ISO2, b.ISO2))
	})
	return records, nil
}

// countryNames maps ISO2 to name. A missing countries file yields an empty map.
func (s *FileSource) countryNames() map[string]string {
	countries, err := s.Countries()
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(countries))
	for _, c := range countries {
		out[c.ISO2] = c.Name
	}
	return out
}

func decodeCountries(data []byte) ([]schema.Country, error) {
	data = bytes.TrimSpace(data)
	var countries []schema.Country
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &countries); err != nil {
			return nil, err
		}
		return countries, nil
	}
	var keyed map[string]schema.Country
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, err
	}
	for code, c := range keyed {
		if c.ISO2 == "" && len(code) == 2 {
			c.ISO2 = code
		}
		countries = append(countries, c)
	}
	slices.SortFunc(countries, func(a, b schema.Country) int {
		return cmp.Compare(a.ISO2, b.ISO2)
	})
	return countries, nil
}
