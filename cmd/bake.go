package cmd

import (
	"github.com/rtei-org/rtei/core"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/iocache"
	"github.com/spf13/cobra"
)

// bakeCmd writes the static dashboard.
var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Write every chart and map layer to the output directory.",
	Long: `Derive every chart for every selectable indicator and write the results.

For each chart key and code the bake writes:
- <chart>/<code>.json     the c3 configuration document
- <chart>/<code>.html     a standalone page
- map/<code>.json         the styled map layer
- map/indicators.json     the map switcher entries

The country chart is baked per country, for the index and the categories.
Each file is recorded as a snapshot of the bake run when a snapshot backend is set.

Examples:
  # Bake into ./build
  rtei bake

  # Bake and upload to an S3-compatible bucket configured in .rtei.yaml
  rtei bake --publish s3

  # Keep baking while editing the data files
  rtei bake --watch --debounce 1s`,
	Args:    cobra.NoArgs,
	PreRunE: snapshotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBake(rootCtx, cfg, dataSource, iocache.Manager); err != nil {
			contract.LogFatal("Cannot bake charts", err)
		}
	},
}

// importCmd converts the RTEI workbook.
var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Convert the RTEI workbook into the JSON data files.",
	Long: `Read the core and companion sheets of the RTEI workbook and write
scores_per_country.json and indicators.json into the data directory.

Country names are matched against countries.json. Countries that cannot be
matched are skipped with a warning.

Examples:
  rtei import RTEI_2016.xlsx --data-dir data`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// The positional argument is a path, not an indicator code
		return sharedSetup(rootCtx, cmd, nil)
	},
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteImport(rootCtx, cfg, args[0], dataSource); err != nil {
			contract.LogFatal("Cannot import workbook", err)
		}
	},
}
