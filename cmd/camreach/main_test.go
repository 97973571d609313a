package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/monitoring"
	"github.com/banshee-data/camreach/internal/report"
	"github.com/banshee-data/camreach/internal/store"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestVersionFlag(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "camreach "))
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage: camreach")

	code, out, _ := runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Commands:")

	code, _, errOut = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Unknown command: frobnicate")

	code, _, _ = runCLI(t, "-nosuchflag", "analyze")
	assert.Equal(t, 2, code)
}

func TestAnalyzeJSON(t *testing.T) {
	code, out, errOut := runCLI(t, "analyze", "-zoom", "5", "-gap", "10", "-json")
	require.Equal(t, 0, code, errOut)

	var rec analysis.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 24.0, rec.FocalLengthMM)
	assert.Equal(t, float64(rec.LineCount)*2, rec.DistanceMeters)
	assert.Greater(t, rec.DistanceMeters, 190.0)
}

func TestAnalyzeText(t *testing.T) {
	code, out, _ := runCLI(t, "analyze", "-zoom", "1", "-gap", "10", "-units", "ft")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "focal length 4.8 mm")
	assert.Contains(t, out, " ft (")
	assert.Contains(t, out, "tilt clamped")
}

func TestAnalyzeUserErrorsExitTwo(t *testing.T) {
	for _, args := range [][]string{
		{"analyze", "-zoom", "0.5"},
		{"analyze", "-gap", "-3"},
		{"analyze", "-gap", "2000"},
		{"analyze", "-units", "yd"},
		{"analyze", "-zoom", "abc"},
		{"analyze", "extra-arg"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, _, errOut := runCLI(t, args...)
			assert.Equal(t, 2, code)
			assert.NotEmpty(t, errOut)
		})
	}
}

func TestAnalyzeInternalErrorExitOne(t *testing.T) {
	code, _, errOut := runCLI(t, "analyze", "-zoom", "2", "-gap", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "exhausted")
}

func TestBatchCSV(t *testing.T) {
	code, out, errOut := runCLI(t, "batch", "-zooms", "1-3,10", "-gap", "10", "-format", "csv", "-workers", "2")
	require.Equal(t, 0, code, errOut)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, report.CSVHeader, records[0])
	assert.Equal(t, []string{"1", "2", "3", "10"},
		[]string{records[1][0], records[2][0], records[3][0], records[4][0]})
}

func TestBatchTable(t *testing.T) {
	code, out, _ := runCLI(t, "batch", "-zooms", "1:5:2", "-units", "ft")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "distance (ft)")
}

func TestBatchBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"batch", "-format", "xml"},
		{"batch", "-units", "yd"},
		{"batch", "-zooms", "0-3"},
		{"batch", "-zooms", ""},
	} {
		code, _, _ := runCLI(t, args...)
		assert.Equal(t, 2, code, "%v", args)
	}
}

func TestBatchSavesRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	code, _, errOut := runCLI(t, "batch", "-zooms", "2,4", "-gap", "12", "-db", dbPath)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "saved run ")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 12.0, runs[0].MinPixelGap)
}

func TestStripWritesSVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "strip.svg")
	code, stdout, errOut := runCLI(t, "strip", "-zoom", "5", "-gap", "10", "-o", out)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, stdout, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestStripRejectsOversizedExtra(t *testing.T) {
	out := filepath.Join(t.TempDir(), "strip.svg")
	code, _, errOut := runCLI(t, "strip", "-zoom", "5", "-gap", "10", "-extra", "100000000", "-o", out)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "extra must be between")
	assert.NoFileExists(t, out)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "camera.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("marker_gap_meters: 5\n"), 0o644))

	code, out, errOut := runCLI(t, "-config", cfgPath, "analyze", "-zoom", "5", "-json")
	require.Equal(t, 0, code, errOut)
	var rec analysis.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, float64(rec.LineCount)*5, rec.DistanceMeters)

	code, _, _ = runCLI(t, "-config", filepath.Join(dir, "missing.yaml"), "analyze")
	assert.Equal(t, 2, code)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("height_meters: -1\n"), 0o644))
	code, _, _ = runCLI(t, "-config", badPath, "analyze")
	assert.Equal(t, 2, code)
}

func TestServeRejectsBadUnits(t *testing.T) {
	code, _, _ := runCLI(t, "serve", "-units", "yd")
	assert.Equal(t, 2, code)
}
