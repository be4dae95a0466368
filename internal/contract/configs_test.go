package contract

import (
	"testing"
	"time"

	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(dataDir string) *ConfigRawInput {
	return &ConfigRawInput{
		DataDir:         dataDir,
		Output:          "text",
		Precision:       1,
		Color:           "yes",
		CacheSize:       DefaultCacheSize,
		SnapshotBackend: string(schema.SQLiteBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	dataDir := t.TempDir()
	mobile := 320

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.CompareChart, cfg.ChartKey)
				assert.Equal(t, schema.OverallCode, cfg.Code)
				assert.Equal(t, schema.OverallCode, cfg.SortKey)
				assert.Equal(t, schema.Level1Categories, cfg.IndexSeries)
				assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
				assert.Equal(t, DefaultDebounce, cfg.Debounce)
				assert.Positive(t, cfg.Workers)
				assert.True(t, cfg.UseColors)
				assert.Equal(t, dataDir, cfg.DataDir)
			},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "precision too high",
			mutate:      func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 },
			expectError: true,
		},
		{
			name:        "zero cache size",
			mutate:      func(in *ConfigRawInput) { in.CacheSize = 0 },
			expectError: true,
		},
		{
			name:        "negative workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = -1 },
			expectError: true,
		},
		{
			name:   "explicit workers",
			mutate: func(in *ConfigRawInput) { in.Workers = 3 },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.Workers)
			},
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: true,
		},
		{
			name:        "unknown chart",
			mutate:      func(in *ConfigRawInput) { in.Chart = "radar" },
			expectError: true,
		},
		{
			name: "chart from profile",
			mutate: func(in *ConfigRawInput) {
				in.Chart = "Mobile"
				in.Profiles = map[string]chartcfg.Overlay{
					"mobile": {Size: &chartcfg.SizeOverlay{Width: &mobile}},
				}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mobile", cfg.ChartKey)
				assert.Contains(t, cfg.ChartKeys(), "mobile")
				assert.False(t, cfg.Profile("mobile").IsEmpty())
			},
		},
		{
			name:        "country must be iso2",
			mutate:      func(in *ConfigRawInput) { in.Country = "KEN" },
			expectError: true,
		},
		{
			name: "country is upper cased",
			mutate: func(in *ConfigRawInput) {
				in.Chart = schema.CountryChart
				in.Country = "ke"
				in.CodeArg = "1"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "KE", cfg.Country)
				assert.Equal(t, "1", cfg.Code)
			},
		},
		{
			name: "country chart without country",
			mutate: func(in *ConfigRawInput) {
				in.Chart = schema.CountryChart
				in.CodeArg = "1"
			},
			expectError: true,
		},
		{
			name:   "index flag used when no positional code",
			mutate: func(in *ConfigRawInput) { in.Index = "2.1" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "2.1", cfg.Code)
			},
		},
		{
			name:        "invalid backend",
			mutate:      func(in *ConfigRawInput) { in.SnapshotBackend = "redis" },
			expectError: true,
		},
		{
			name:        "mysql without connection",
			mutate:      func(in *ConfigRawInput) { in.SnapshotBackend = string(schema.MySQLBackend) },
			expectError: true,
		},
		{
			name:        "invalid debounce",
			mutate:      func(in *ConfigRawInput) { in.Debounce = "soon" },
			expectError: true,
		},
		{
			name:   "custom debounce",
			mutate: func(in *ConfigRawInput) { in.Debounce = "2s" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2*time.Second, cfg.Debounce)
			},
		},
		{
			name:        "invalid publish target",
			mutate:      func(in *ConfigRawInput) { in.Publish = "ftp" },
			expectError: true,
		},
		{
			name:        "s3 publish without bucket",
			mutate:      func(in *ConfigRawInput) { in.Publish = "s3"; in.S3.Endpoint = "localhost:9000" },
			expectError: true,
		},
		{
			name: "s3 publish",
			mutate: func(in *ConfigRawInput) {
				in.Publish = "S3"
				in.S3 = S3RawInput{Endpoint: "localhost:9000", Bucket: "rtei", Prefix: "/site/", UseSSL: "no"}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.S3Publish, cfg.Publish.Target)
				assert.Equal(t, "site", cfg.Publish.Prefix)
				assert.False(t, cfg.Publish.UseSSL)
			},
		},
		{
			name:        "dir publish without dir",
			mutate:      func(in *ConfigRawInput) { in.Publish = "dir" },
			expectError: true,
		},
		{
			name:        "missing data dir",
			mutate:      func(in *ConfigRawInput) { in.DataDir = dataDir + "/missing" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(dataDir)
			if tt.mutate != nil {
				tt.mutate(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"valid mysql", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/rtei", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/rtei", true},
		{"valid postgres", schema.PostgreSQLBackend, "host=localhost user=u dbname=rtei", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		IndexSeries: []string{"1", "2"},
		Profiles:    map[string]chartcfg.Overlay{"mobile": {}},
	}
	clone := cfg.Clone()
	clone.IndexSeries[0] = "x"
	clone.Profiles["desktop"] = chartcfg.Overlay{}

	assert.Equal(t, "1", cfg.IndexSeries[0])
	assert.NotContains(t, cfg.Profiles, "desktop")
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, "/data/scores_per_country.json", cfg.ScoresPath())
	assert.Equal(t, "/data/indicators.json", cfg.IndicatorsPath())
	assert.Equal(t, "/data/countries.json", cfg.CountriesPath())
}
