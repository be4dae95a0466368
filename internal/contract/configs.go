package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxPrecision     = 4
	DefaultCacheSize = 32
	DefaultDataDir   = "data"
	DefaultOutputDir = "build"
	DefaultDebounce  = 500 * time.Millisecond
	NameMapMaxLevel  = 2
)

// Data file names inside the data directory.
const (
	ScoresFileName     = "scores_per_country.json"
	IndicatorsFileName = "indicators.json"
	CountriesFileName  = "countries.json"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// PublishConfig holds where and how baked output is published.
type PublishConfig struct {
	Target    schema.PublishTarget
	Dir       string
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string // Please use env var as this is plaintext
	SecretKey string // Please use env var as this is plaintext
	UseSSL    bool
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	DataDir    string
	ChartKey   string
	Country    string // ISO2, upper case
	Code       string // Selected indicator code
	SortKey    string
	Desc       bool
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	OutputDir  string
	Width      int // Terminal width override (0 = auto-detect)
	CacheSize  int
	Workers    int // Concurrent chart derivations while baking

	// IndexSeries is the series plotted for the overall index
	IndexSeries []string

	// Profiles is a mapping of [ChartKey] = overlay merged over the default chart config
	Profiles map[string]chartcfg.Overlay

	SnapshotBackend   schema.DatabaseBackend
	SnapshotDBConnect string // Please use env var as this is plaintext

	Publish  PublishConfig
	Watch    bool
	Debounce time.Duration

	UseColors bool // Enable colored labels in table output
}

// S3RawInput holds the object storage settings from the config file or env.
type S3RawInput struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	UseSSL    string `mapstructure:"use-ssl"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	CodeArg string

	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir           string `mapstructure:"data-dir"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	CacheSize         int    `mapstructure:"cache-size"`
	Workers           int    `mapstructure:"workers"`
	SnapshotBackend   string `mapstructure:"snapshot-backend"`
	SnapshotDBConnect string `mapstructure:"snapshot-db-connect"`

	// --- Fields from chartCmd.Flags() ---
	Chart   string `mapstructure:"chart"`
	Country string `mapstructure:"country"`

	// --- Fields from mapCmd.Flags() ---
	Index string `mapstructure:"index"`

	// --- Fields from scoresCmd.Flags() ---
	Sort string `mapstructure:"sort"`
	Desc bool   `mapstructure:"desc"`

	// --- Fields from bakeCmd.Flags() ---
	OutputDir  string `mapstructure:"output-dir"`
	Publish    string `mapstructure:"publish"`
	PublishDir string `mapstructure:"publish-dir"`
	Watch      bool   `mapstructure:"watch"`
	Debounce   string `mapstructure:"debounce"`

	// --- Object storage from config file ---
	S3 S3RawInput `mapstructure:"s3"`

	// --- Chart settings from config file ---
	IndexSeries []string                    `mapstructure:"index-series"`
	Profiles    map[string]chartcfg.Overlay `mapstructure:"profiles"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.IndexSeries = slices.Clone(c.IndexSeries)
	clone.Profiles = maps.Clone(c.Profiles)
	return &clone
}

// ScoresPath returns the path of the per-country scores file.
func (c *Config) ScoresPath() string {
	return filepath.Join(c.DataDir, ScoresFileName)
}

// IndicatorsPath returns the path of the indicator metadata file.
func (c *Config) IndicatorsPath() string {
	return filepath.Join(c.DataDir, IndicatorsFileName)
}

// CountriesPath returns the path of the country lookup file.
func (c *Config) CountriesPath() string {
	return filepath.Join(c.DataDir, CountriesFileName)
}

// Profile returns the overlay configured for a chart key, empty when none.
func (c *Config) Profile(chartKey string) chartcfg.Overlay {
	return c.Profiles[chartKey]
}

// ChartKeys returns the built-in chart keys plus every configured profile, sorted.
func (c *Config) ChartKeys() []string {
	keys := make(map[string]struct{}, len(schema.BuiltinCharts)+len(c.Profiles))
	maps.Copy(keys, schema.BuiltinCharts)
	for k := range c.Profiles {
		keys[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(keys))
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateChartInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processPublishConfig(cfg, input); err != nil {
		return err
	}
	return resolveDataDir(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("snapshot-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("snapshot-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig sets up profiling from the --profile prefix.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix == "" {
		return nil
	}
	profile.Enabled = true
	profile.Prefix = profilePrefix
	return nil
}

// validateSimpleInputs processes and validates output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Desc = input.Desc
	cfg.Watch = input.Watch
	cfg.SortKey = input.Sort
	if cfg.SortKey == "" {
		cfg.SortKey = schema.OverallCode
	}

	useColors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = useColors

	// --- 1. Precision Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	// --- 2. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, html, parquet", input.Output)
	}

	// --- 3. Cache Size Validation ---
	if input.CacheSize <= 0 {
		return fmt.Errorf("cache-size must be greater than 0 (received %d)", input.CacheSize)
	}
	cfg.CacheSize = input.CacheSize

	// --- 4. Workers Validation (0 = one per CPU) ---
	if input.Workers < 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	// --- 5. Output Directory ---
	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	// --- 6. Debounce Parsing ---
	cfg.Debounce = DefaultDebounce
	if input.Debounce != "" {
		d, err := time.ParseDuration(input.Debounce)
		if err != nil {
			return fmt.Errorf("invalid debounce: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("debounce must be positive (received %s)", d)
		}
		cfg.Debounce = d
	}

	return nil
}

// validateChartInputs processes chart key, selection and profiles.
func validateChartInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Profiles = maps.Clone(input.Profiles)
	cfg.IndexSeries = slices.Clone(input.IndexSeries)
	if len(cfg.IndexSeries) == 0 {
		cfg.IndexSeries = slices.Clone(schema.Level1Categories)
	}

	// --- 1. Chart Key Validation ---
	cfg.ChartKey = strings.ToLower(strings.TrimSpace(input.Chart))
	if cfg.ChartKey == "" {
		cfg.ChartKey = schema.CompareChart
	}
	if _, builtin := schema.BuiltinCharts[cfg.ChartKey]; !builtin {
		if _, ok := cfg.Profiles[cfg.ChartKey]; !ok {
			return fmt.Errorf("invalid chart '%s'. must be one of %s", input.Chart, strings.Join(cfg.ChartKeys(), ", "))
		}
	}

	// --- 2. Country Validation ---
	cfg.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	if cfg.Country != "" && len(cfg.Country) != 2 {
		return fmt.Errorf("country must be an ISO2 code (received %q)", input.Country)
	}
	if cfg.ChartKey == schema.CountryChart && cfg.Country == "" && input.CodeArg != "" {
		return fmt.Errorf("--country is required for the %s chart", schema.CountryChart)
	}

	// --- 3. Selected Code ---
	cfg.Code = strings.TrimSpace(input.CodeArg)
	if cfg.Code == "" {
		cfg.Code = strings.TrimSpace(input.Index)
	}
	if cfg.Code == "" {
		cfg.Code = schema.OverallCode
	}

	return nil
}

// validateBackendConfigs validates the snapshot backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.SnapshotBackend = schema.DatabaseBackend(strings.ToLower(input.SnapshotBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.SnapshotBackend]; !ok {
		return fmt.Errorf("invalid snapshot backend '%s'. must be sqlite, mysql, postgresql, none", input.SnapshotBackend)
	}
	cfg.SnapshotDBConnect = input.SnapshotDBConnect
	return ValidateDatabaseConnectionString(cfg.SnapshotBackend, cfg.SnapshotDBConnect)
}

// processPublishConfig validates the publish target and its settings.
func processPublishConfig(cfg *Config, input *ConfigRawInput) error {
	target := schema.PublishTarget(strings.ToLower(input.Publish))
	if _, ok := schema.ValidPublishTargets[target]; !ok {
		return fmt.Errorf("invalid publish target '%s'. must be dir or s3", input.Publish)
	}
	cfg.Publish = PublishConfig{
		Target:    target,
		Dir:       input.PublishDir,
		Endpoint:  input.S3.Endpoint,
		Bucket:    input.S3.Bucket,
		Prefix:    strings.Trim(input.S3.Prefix, "/"),
		Region:    input.S3.Region,
		AccessKey: input.S3.AccessKey,
		SecretKey: input.S3.SecretKey,
		UseSSL:    true,
	}
	if input.S3.UseSSL != "" {
		useSSL, err := ParseBoolString(input.S3.UseSSL)
		if err != nil {
			return fmt.Errorf("invalid s3.use-ssl value: %w", err)
		}
		cfg.Publish.UseSSL = useSSL
	}

	switch target {
	case schema.DirPublish:
		if cfg.Publish.Dir == "" {
			return fmt.Errorf("--publish-dir is required when publishing to %s", target)
		}
	case schema.S3Publish:
		if cfg.Publish.Endpoint == "" || cfg.Publish.Bucket == "" {
			return fmt.Errorf("s3.endpoint and s3.bucket are required when publishing to %s", target)
		}
	}
	return nil
}

// resolveDataDir checks that the data directory exists.
func resolveDataDir(cfg *Config, input *ConfigRawInput) error {
	dir := input.DataDir
	if dir == "" {
		dir = DefaultDataDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve data dir %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("data dir %q is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %q is not a directory", dir)
	}
	cfg.DataDir = abs
	return nil
}
