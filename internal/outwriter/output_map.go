package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rtei-org/rtei/core/mapstyle"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// mapDocument is the JSON form of the map output.
type mapDocument struct {
	Legend   []mapstyle.LegendEntry `json:"legend"`
	Features []schema.MapFeature    `json:"features"`
}

// PrintMapFeatures outputs per-country map styling, dispatching based on the output format configured.
func PrintMapFeatures(features []schema.MapFeature, legend []mapstyle.LegendEntry, cfg *contract.Config) error {
	_, fmtScore := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, mapDocument{Legend: legend, Features: features})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMapCSV(w, features, fmtScore)
		}, "Wrote CSV")
	case schema.HTMLOut, schema.ParquetOut:
		return fmt.Errorf("%s output is not supported for map styles", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMapTable(features, legend, cfg, fmtScore, w)
		}, "Wrote table")
	}
}

// writeMapTable generates and writes the human-readable table.
func writeMapTable(features []schema.MapFeature, legend []mapstyle.LegendEntry, cfg *contract.Config, fmtScore func(schema.Score) string, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Country", "ISO2", "Score", "Fill", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxLabelWidth(cfg, 4)
	var data [][]string
	for _, f := range features {
		label := contract.GetPlainLabel(f.Score)
		if cfg.UseColors {
			label = contract.GetColorLabel(f.Score)
		}
		data = append(data, []string{
			contract.TruncateLabel(f.Name, labelWidth),
			f.ISO2,
			fmtScore(f.Score),
			f.FillColor,
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprint(writer, "Legend:"); err != nil {
		return err
	}
	for _, l := range legend {
		if _, err := fmt.Fprintf(writer, " >%g %s", l.Above, l.Color); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(writer)
	return err
}

// writeMapCSV writes one row per country.
func writeMapCSV(w io.Writer, features []schema.MapFeature, fmtScore func(schema.Score) string) error {
	header := []string{"country", "iso2", "score", "fill_color", "link"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, f := range features {
			if err := cw.Write([]string{f.Name, f.ISO2, fmtScore(f.Score), f.FillColor, f.Link}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
