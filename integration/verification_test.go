//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChartVerification derives the compare chart and checks the c3 document.
func TestChartVerification(t *testing.T) {
	dataDir := newDataDir(t)
	outFile := filepath.Join(t.TempDir(), "chart.json")

	_, err := runCommand(t, dataDir, nil, "chart", "2", "--data-dir", dataDir,
		"--snapshot-backend", "none", "--output", "json", "--output-file", outFile)
	require.NoError(t, err)

	body, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc struct {
		Key    string `json:"key"`
		Config struct {
			Data struct {
				Keys struct {
					Value []string `json:"value"`
				} `json:"keys"`
			} `json:"data"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "compare", doc.Key)
	assert.Equal(t, []string{"2.1"}, doc.Config.Data.Keys.Value)
}

// TestScoresVerification checks computed index scores through the scores command.
func TestScoresVerification(t *testing.T) {
	dataDir := newDataDir(t)

	output, err := runCommand(t, dataDir, nil, "scores", "--data-dir", dataDir,
		"--snapshot-backend", "none", "--output", "json", "--desc")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Kenya", records[0]["name"], "Chile has an insufficient category so its index is insufficient")
	assert.Equal(t, "Insufficient data", records[1]["index"])
}

// TestBakeWithSQLite bakes into a temp dir, then inspects and exports the snapshots.
func TestBakeWithSQLite(t *testing.T) {
	dataDir := newDataDir(t)
	work := t.TempDir()
	env := []string{
		"RTEI_SNAPSHOT_BACKEND=sqlite",
		"RTEI_SNAPSHOT_DB_CONNECT=" + filepath.Join(work, "snapshots.db"),
	}

	_, err := runCommand(t, work, env, "bake", "--data-dir", dataDir, "--output-dir", filepath.Join(work, "build"), "--workers", "2")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(work, "build", "compare", "index.json"))
	assert.FileExists(t, filepath.Join(work, "build", "country", "KE", "index.html"))
	assert.FileExists(t, filepath.Join(work, "build", "map", "indicators.json"))

	output, err := runCommand(t, work, env, "snapshot", "status")
	require.NoError(t, err)
	assert.Contains(t, output, "sqlite")

	exportFile := filepath.Join(work, "snapshots.parquet")
	_, err = runCommand(t, work, env, "snapshot", "export", "--output-file", exportFile)
	require.NoError(t, err)
	assert.FileExists(t, exportFile)

	_, err = runCommand(t, work, env, "snapshot", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(work, "snapshots.db"))
}

// TestVersionVerification checks that the version output names the data formats.
func TestVersionVerification(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rtei dev")
	assert.Contains(t, out, "scores_per_country.json, indicators.json, countries.json")
	assert.Contains(t, out, "compare, country, theme")
	assert.Contains(t, out, "schema v2")
}
