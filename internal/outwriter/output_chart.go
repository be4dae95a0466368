package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rtei-org/rtei/core/chartcfg"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// jsonDocument is a chart that can serialize its renderer document.
type jsonDocument interface {
	WriteJSON(w io.Writer) error
}

// htmlPage is a chart that can render itself as an HTML page.
type htmlPage interface {
	Render(w io.Writer) error
}

// PrintChartResult outputs a derived chart, dispatching based on the output format configured.
// JSON and HTML use the generated chart when it supports that format.
func PrintChartResult(result schema.ChartResult, chart chartcfg.Chart, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if doc, ok := chart.(jsonDocument); ok {
				return doc.WriteJSON(w)
			}
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.HTMLOut:
		page, ok := chart.(htmlPage)
		if !ok {
			return fmt.Errorf("chart %q cannot be rendered as HTML", result.ChartKey)
		}
		return writeWithFile(cfg.OutputFile, page.Render, "Wrote HTML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeChartCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for charts")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeChartTable(result, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
}

// writeChartTable generates and writes the human-readable table.
func writeChartTable(result schema.ChartResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	if result.NoData {
		if _, err := fmt.Fprintf(writer, "No data available for %s on chart %s\n", result.Code, result.ChartKey); err != nil {
			return err
		}
		return nil
	}

	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	table.Header([]string{"Rank", "Country", "Series", "Raw", "Tooltip", "Label"})

	// 2. Configure alignment to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	labelWidth := GetMaxLabelWidth(cfg, 4)
	var data [][]string
	for i, p := range result.Points {
		label := contract.GetPlainLabel(schema.Number(p.Display.Value))
		if cfg.UseColors {
			label = contract.GetColorLabel(schema.Number(p.Display.Value))
		}
		if p.Display.Insufficient {
			label = contract.MutedColor.Sprint(schema.InsufficientData)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(p.Country, labelWidth),
			contract.TruncateLabel(p.Label, labelWidth),
			fmtFloat(p.Raw.Value),
			p.Display.String(),
			label,
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Chart %s for %s (%s) plots %d series over %d points\n",
		result.ChartKey, result.Code, result.Kind, len(result.Series), len(result.Points)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Derived in %v\n", duration); err != nil {
		return err
	}
	return nil
}

// writeChartCSV writes one row per plotted value.
func writeChartCSV(w io.Writer, result schema.ChartResult, fmtFloat func(float64) string) error {
	header := []string{"chart", "code", "country", "iso2", "series", "label", "raw", "display", "color"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.Points {
			rec := []string{
				result.ChartKey,
				result.Code,
				p.Country,
				p.ISO2,
				p.Series,
				p.Label,
				fmtFloat(p.Raw.Value),
				p.Display.String(),
				p.Color,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
