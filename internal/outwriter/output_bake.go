package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// PrintBakeSummary outputs the result of a bake run.
// Only JSON and text are supported; other formats fall back to text.
func PrintBakeSummary(summary schema.BakeSummary, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeBakeTable(summary, w)
	}, "Wrote table")
}

// writeBakeTable prints one row per chart directory with its file count.
func writeBakeTable(summary schema.BakeSummary, writer io.Writer) error {
	counts := make(map[string]int)
	var order []string
	for _, f := range summary.Files {
		dir := topDir(f)
		if _, ok := counts[dir]; !ok {
			order = append(order, dir)
		}
		counts[dir]++
	}

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Directory", "Files"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(order))
	for _, dir := range order {
		data = append(data, []string{dir, strconv.Itoa(counts[dir])})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Baked %d charts into %d files (%d snapshots", summary.Charts, len(summary.Files), summary.Snapshots); err != nil {
		return err
	}
	if summary.RunID > 0 {
		if _, err := fmt.Fprintf(writer, ", run %d", summary.RunID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, ") in %v\n", summary.Duration); err != nil {
		return err
	}
	return nil
}

// topDir returns the first segment of a slash-separated relative path.
func topDir(rel string) string {
	dir, _, found := strings.Cut(rel, "/")
	if !found {
		return "."
	}
	return dir
}
