package cmd

import (
	"github.com/rtei-org/rtei/core"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/spf13/cobra"
)

// chartCmd derives one chart for one indicator selection.
var chartCmd = &cobra.Command{
	Use:   "chart [code]",
	Short: "Derive the chart configuration for an indicator selection.",
	Long: `Register a chart over the country scores, apply its profile and select an indicator.

The code decides what is plotted:
- index      the five category scores, stacked
- 1 to 5     the subindicators of one category
- 2.1        a single subindicator
- t1         a single theme

Text output lists every plotted value with its tooltip text. JSON output is the
c3 configuration document, HTML output a standalone go-echarts page.

Examples:
  # Compare every country on the overall index
  rtei chart

  # One category, broken into its subindicators
  rtei chart 2

  # The detail chart of a single country
  rtei chart --chart country --country KE index

  # Write the c3 document for the theme chart
  rtei chart --chart theme t1 --output json --output-file theme.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChart(rootCtx, cfg, dataSource); err != nil {
			contract.LogFatal("Cannot derive chart", err)
		}
	},
}

// mapCmd styles the world map for an indicator.
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Show the map fill color and popup of every country.",
	Long: `Color every country by its score bucket for the selected indicator.

Scores above 80, 60, 40 and 20 pick progressively lighter shades of the
indicator palette. Insufficient data uses the hatched pattern and missing
scores the no-data color.

Examples:
  # Map of the overall index
  rtei map

  # Map of one subindicator as CSV
  rtei map --index 3.2 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMap(rootCtx, cfg, dataSource); err != nil {
			contract.LogFatal("Cannot style map", err)
		}
	},
}

// scoresCmd lists the per-country scores.
var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List country scores sorted by an indicator.",
	Long: `List the index and category scores of every country.

Missing category and index scores are computed from the subindicators.

Examples:
  # Best performers first
  rtei scores --desc

  # Alphabetical
  rtei scores --sort name

  # Export for analytics
  rtei scores --output parquet --output-file scores.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScores(rootCtx, cfg, dataSource); err != nil {
			contract.LogFatal("Cannot list scores", err)
		}
	},
}
