package outwriter

import (
	"os"

	"github.com/rtei-org/rtei/internal/contract"
	"golang.org/x/term"
)

// Width bounds for the label column.
const (
	defaultTermWidth = 80
	minLabelWidth    = 12
	maxLabelWidth    = 48
)

// GetMaxLabelWidth calculates the maximum width for country and series labels in
// table output based on terminal width and the number of fixed columns.
func GetMaxLabelWidth(cfg *contract.Config, fixedColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Each fixed column takes roughly 12 characters with borders and padding
	available := (termWidth - fixedColumns*12 - 10) / 2
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}
