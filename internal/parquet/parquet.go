// Package parquet exports RTEI scores and baked chart snapshots to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// ScoreRow is one indicator value of one country, in long format.
type ScoreRow struct {
	// Country is the display name of the country
	Country string `parquet:"country,snappy"`

	// ISO2 is the two-letter country code
	ISO2 string `parquet:"iso2,snappy"`

	// Code is the indicator code, such as "index", "1" or "1.2"
	Code string `parquet:"code,snappy"`

	// Value is the numeric score (nullable when insufficient)
	Value *float64 `parquet:"value,optional,snappy"`

	// Insufficient is true when the source reported "Insufficient data"
	Insufficient bool `parquet:"insufficient,snappy"`

	// Label is the score band used by table output
	Label string `parquet:"label,snappy"`
}

// SnapshotRow is one baked chart document of a bake run.
type SnapshotRow struct {
	// RunID references the bake run
	RunID int64 `parquet:"run_id,snappy"`

	// ChartKey is the chart the snapshot belongs to
	ChartKey string `parquet:"chart_key,snappy"`

	// Code is the selected indicator code
	Code string `parquet:"code,snappy"`

	// Format is the document format (json or html)
	Format string `parquet:"format,snappy"`

	// Series is the pipe-separated list of plotted series
	Series string `parquet:"series,snappy"`

	// SizeBytes is the document size
	SizeBytes int32 `parquet:"size_bytes,snappy"`

	// CreatedAt is when the snapshot was recorded (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// ConvertScoreRecords flattens records into one row per present score, ordered by
// country then code.
func ConvertScoreRecords(records []schema.Record) []ScoreRow {
	var rows []ScoreRow
	for _, r := range records {
		codes := make([]string, 0, len(r.Fields))
		for code := range r.Fields {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for _, code := range codes {
			s := r.Fields[code]
			if !s.Present {
				continue
			}
			row := ScoreRow{
				Country:      r.Name,
				ISO2:         r.ISO2,
				Code:         code,
				Insufficient: s.Insufficient,
				Label:        contract.GetPlainLabel(s),
			}
			if s.IsNumber() {
				v := s.Value
				row.Value = &v
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ConvertSnapshots maps stored snapshots to Parquet rows.
func ConvertSnapshots(snapshots []schema.Snapshot) []SnapshotRow {
	rows := make([]SnapshotRow, len(snapshots))
	for i, s := range snapshots {
		rows[i] = SnapshotRow{
			RunID:     s.RunID,
			ChartKey:  s.ChartKey,
			Code:      s.Code,
			Format:    s.Format,
			Series:    strings.Join(s.Series, "|"),
			SizeBytes: int32(len(s.Document)),
			CreatedAt: s.CreatedAt,
		}
	}
	return rows
}

// WriteRows writes rows to w using the schema inferred from T's struct tags.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteScoresParquet writes score rows to a Parquet file.
func WriteScoresParquet(data []ScoreRow, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteSnapshotsParquet writes snapshot rows to a Parquet file.
func WriteSnapshotsParquet(data []SnapshotRow, outputPath string) error {
	return writeFile(data, outputPath)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return WriteRows(file, data)
}
