package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	HTMLOut    OutputMode = "html"
	ParquetOut OutputMode = "parquet"
)

// All snapshot backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Chart keys shipped with the dashboard.
const (
	CompareChart = "compare" // cross-country comparison, default
	CountryChart = "country" // single-country detail
	ThemeChart   = "theme"   // countries ranked for one theme
)

// InsufficientData is the sentinel shown when a score cannot be computed.
const InsufficientData = "Insufficient data"

// Placeholder is the numeric stand-in for InsufficientData inside chart data.
const Placeholder = 0.01

// OverallCode is the indicator code of the composite index.
const OverallCode = "index"

// CountryPermalink is the page showing a single country, keyed by ISO2.
const CountryPermalink = "/explore/rtei-country?id="

// Level1Categories are the five top-level scored dimensions.
var Level1Categories = []string{"1", "2", "3", "4", "5"}

// CompositeCodes are the reserved top-level composite codes, already on the display scale.
var CompositeCodes = map[string]struct{}{"O": {}, "P": {}, "S": {}}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	HTMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid snapshot backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// PublishTarget selects where baked output is published.
type PublishTarget string

// All publish targets supported.
const (
	NoPublish  PublishTarget = ""    // default, write to the output directory only
	DirPublish PublishTarget = "dir" // copy into a second directory
	S3Publish  PublishTarget = "s3"  // upload to an S3-compatible bucket
)

// ValidPublishTargets lists all valid publish targets.
var ValidPublishTargets = map[PublishTarget]struct{}{
	NoPublish:  {},
	DirPublish: {},
	S3Publish:  {},
}

// BuiltinCharts lists the chart keys that need no profile to be registered.
var BuiltinCharts = map[string]struct{}{
	CompareChart: {},
	CountryChart: {},
	ThemeChart:   {},
}
