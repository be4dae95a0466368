package outwriter

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rtei-org/rtei/core/scores"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/parquet"
	"github.com/rtei-org/rtei/schema"
)

// PrintScores outputs country scores, dispatching based on the output format configured.
// Columns are the indicator codes shown in table and CSV output, in order.
func PrintScores(records []schema.Record, columns []string, cfg *contract.Config) error {
	_, fmtScore := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresCSV(w, records, columns, fmtScore)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("--output-file is required for parquet output")
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRows(w, parquet.ConvertScoreRecords(records))
		}, "Wrote Parquet")
	case schema.HTMLOut:
		return fmt.Errorf("html output is not supported for scores")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresTable(records, columns, cfg, fmtScore, w)
		}, "Wrote table")
	}
}

// writeScoresTable generates and writes the human-readable table.
// The label column describes the sort key score.
func writeScoresTable(records []schema.Record, columns []string, cfg *contract.Config, fmtScore func(schema.Score) string, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	headers := append([]string{"Rank", "Country", "ISO2"}, columns...)
	headers = append(headers, "Label")
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	sortKey := cmp.Or(cfg.SortKey, schema.OverallCode)
	labelKey := sortKey
	if labelKey == scores.NameSortKey {
		labelKey = schema.OverallCode
	}
	labelWidth := GetMaxLabelWidth(cfg, len(columns)+3)

	var data [][]string
	for i, r := range records {
		row := []string{strconv.Itoa(i + 1), contract.TruncateLabel(r.Name, labelWidth), r.ISO2}
		for _, code := range columns {
			row = append(row, fmtScore(r.Get(code)))
		}
		if cfg.UseColors {
			row = append(row, contract.GetColorLabel(r.Get(labelKey)))
		} else {
			row = append(row, contract.GetPlainLabel(r.Get(labelKey)))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(writer, "Showing %d countries sorted by %s\n", len(records), sortKey)
	return err
}

// writeScoresCSV writes one row per country.
func writeScoresCSV(w io.Writer, records []schema.Record, columns []string, fmtScore func(schema.Score) string) error {
	header := append([]string{"rank", "country", "iso2"}, columns...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range records {
			rec := []string{strconv.Itoa(i + 1), r.Name, r.ISO2}
			for _, code := range columns {
				rec = append(rec, fmtScore(r.Get(code)))
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
