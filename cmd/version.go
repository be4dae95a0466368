package cmd

import (
	"runtime"
	"slices"
	"strings"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/iocache"
	"github.com/rtei-org/rtei/schema"
	"github.com/spf13/cobra"
)

// versionCmd prints build details and the data formats this binary reads and writes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rtei.",
	Long: `Display the release, commit and build date of rtei, together with the
data files it reads, the built-in chart keys and the snapshot schema version
that 'rtei snapshot migrate' upgrades to.`,
	Run: func(cmd *cobra.Command, _ []string) {
		charts := make([]string, 0, len(schema.BuiltinCharts))
		for key := range schema.BuiltinCharts {
			charts = append(charts, key)
		}
		slices.Sort(charts)

		cmd.Printf("rtei %s (%s, built %s, %s)\n", version, commit, date, runtime.Version())
		cmd.Printf("  Data files: %s\n", strings.Join([]string{contract.ScoresFileName, contract.IndicatorsFileName, contract.CountriesFileName}, ", "))
		cmd.Printf("  Charts:     %s\n", strings.Join(charts, ", "))
		if v, err := iocache.LatestSchemaVersion(schema.SQLiteBackend); err == nil {
			cmd.Printf("  Snapshots:  schema v%d\n", v)
		}
	},
}
