package core

import (
	"path/filepath"

	"github.com/rtei-org/rtei/internal/contract"
)

// logChartHeader prints a concise, 2-line header before a chart or map.
func logChartHeader(cfg *contract.Config, subject string) {
	contract.LogInfo("🔎 Data: %s (%s)", dataName(cfg), subject)
	if cfg.Country != "" {
		contract.LogInfo("📍 Country: %s, Indicator: %s", cfg.Country, cfg.Code)
		return
	}
	contract.LogInfo("📍 Indicator: %s", cfg.Code)
}

// logBakeHeader prints a header for a bake run.
func logBakeHeader(cfg *contract.Config, publisher contract.Publisher) {
	contract.LogInfo("🔎 Data: %s (Charts: %d, Workers: %d)", dataName(cfg), len(cfg.ChartKeys()), cfg.Workers)
	if publisher != nil {
		contract.LogInfo("📦 Output: %s → %s", cfg.OutputDir, publisher.Name())
		return
	}
	contract.LogInfo("📦 Output: %s", cfg.OutputDir)
}

func dataName(cfg *contract.Config) string {
	name := filepath.Base(cfg.DataDir)
	if name == "" || name == "." {
		return "current"
	}
	return name
}
