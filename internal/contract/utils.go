package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rtei-org/rtei/schema"
)

// Score label constants.
const (
	StrongValue = "Strong" // above 80
	GoodValue   = "Good"   // above 60
	FairValue   = "Fair"   // above 40
	WeakValue   = "Weak"   // 40 or below
)

// Color variables for console output.
var (
	StrongColor = color.New(color.FgGreen, color.Bold) // StrongColor marks the best bucket.
	GoodColor   = color.New(color.FgCyan)              // GoodColor is a positive, non-bold signal.
	FairColor   = color.New(color.FgYellow)            // FairColor is standard caution.
	WeakColor   = color.New(color.FgRed, color.Bold)   // WeakColor flags the lowest scores.
	MutedColor  = color.New(color.Faint)               // MutedColor is used for missing data.
)

// GetPlainLabel returns a plain text label for a score, using the map bucket thresholds.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score schema.Score) string {
	switch {
	case !score.Present:
		return ""
	case score.Insufficient:
		return schema.InsufficientData
	case score.Value > 80:
		return StrongValue
	case score.Value > 60:
		return GoodValue
	case score.Value > 40:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score schema.Score) string {
	text := GetPlainLabel(score)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default:
		return MutedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a progress message to stderr, keeping stdout for results.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetSnapshotDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetSnapshotDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rtei_snapshots.db"
	}
	return filepath.Join(homeDir, ".rtei_snapshots.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
