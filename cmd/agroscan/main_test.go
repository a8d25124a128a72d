package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroscan/agroscan/internal/export"
	"github.com/agroscan/agroscan/pkg/models"
)

func init() {
	fcolor.NoColor = true
}

func intPtr(n int) *int { return &n }

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{G: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// isolate points the CLI at an empty config and a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"DATABASE_URL", "AGROSCAN_ANALYZER_URL", "AGROSCAN_HISTORY_SOURCE"} {
		t.Setenv(k, "")
	}
	configPath = filepath.Join(dir, "missing.yaml")
	return dir
}

func TestPrintResult(t *testing.T) {
	var stderr, stdout bytes.Buffer
	a := &models.Analysis{
		ImageID:            "WR042",
		PredictedClass:     models.ClassMR,
		InfectedPercentage: 12.5,
		Result:             "Moderately resistant line",
		InfectedPixels:     intPtr(125),
		GreenPixels:        intPtr(1000),
	}

	printResult(&stderr, &stdout, a)

	assert.Contains(t, stderr.String(), "━")
	assert.Contains(t, stderr.String(), "Infection: 12.5%")
	assert.NotContains(t, stderr.String(), "Tip:")
	assert.Contains(t, stdout.String(), "WR042")
	assert.Contains(t, stdout.String(), "MR (Moderately resistant)")
	assert.Contains(t, stdout.String(), "12.50%")
	assert.Contains(t, stdout.String(), "125 infected / 1000 green pixels")
	assert.Contains(t, stdout.String(), "Moderately resistant line")
}

func TestPrintResult_SusceptibleTip(t *testing.T) {
	var stderr, stdout bytes.Buffer
	printResult(&stderr, &stdout, &models.Analysis{
		ImageID:            "WR043",
		PredictedClass:     models.ClassS,
		InfectedPercentage: 64,
		Result:             "Susceptible",
	})

	assert.Contains(t, stderr.String(), "Tip:")
	assert.NotContains(t, stdout.String(), "pixels")
}

func TestPrintInfectionBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 12},
		{100, 24},
		{150, 24},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printInfectionBar(&buf, tt.percent)
		assert.Equal(t, tt.filled, strings.Count(buf.String(), "█"), "percent %v", tt.percent)
		assert.Equal(t, 24-tt.filled, strings.Count(buf.String(), "░"), "percent %v", tt.percent)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "agroscan dev")
	assert.Contains(t, out.String(), "commit: none")
	assert.Contains(t, out.String(), "built:  unknown")
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leaf_07.png")
	require.NoError(t, os.WriteFile(path, testPNG(t), 0o644))

	u, err := readImage(path, "")
	require.NoError(t, err)
	assert.Equal(t, "leaf_07", u.ImageID)
	assert.Equal(t, "leaf_07.png", u.Filename)
	assert.Equal(t, "image/png", u.ContentType)

	u, err = readImage(path, "WR100")
	require.NoError(t, err)
	assert.Equal(t, "WR100", u.ImageID)

	_, err = readImage(filepath.Join(dir, "missing.png"), "")
	assert.Error(t, err)
}

func TestWriteImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a := &models.Analysis{
		ImageID:           "WR001",
		Original:          models.Image{Data: []byte("jpeg"), ContentType: "image/jpeg"},
		GreenMask:         models.Image{Data: []byte("mask"), ContentType: "image/png"},
		InfectedHighlight: models.Image{Data: []byte("hl"), ContentType: "image/png"},
	}

	require.NoError(t, writeImages(dir, a))

	data, err := os.ReadFile(filepath.Join(dir, "WR001_original.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.FileExists(t, filepath.Join(dir, "WR001_green_mask.png"))
	assert.FileExists(t, filepath.Join(dir, "WR001_infected_highlight.png"))
}

func TestWriteImages_StaysInDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	a := &models.Analysis{
		ImageID:           "../../escape",
		Original:          models.Image{Data: []byte("png"), ContentType: "image/png"},
		GreenMask:         models.Image{Data: []byte("mask"), ContentType: "image/png"},
		InfectedHighlight: models.Image{Data: []byte("hl"), ContentType: "image/png"},
	}

	require.NoError(t, writeImages(dir, a))

	assert.FileExists(t, filepath.Join(dir, "escape_original.png"))
	assert.NoFileExists(t, filepath.Join(root, "escape_original.png"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escape_original.png"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	a := &models.Analysis{
		ImageID:            "WR042",
		PredictedClass:     models.ClassMS,
		InfectedPercentage: 33.3,
		Result:             "Moderately susceptible",
		GreenMask:          models.Image{Data: []byte("mask")},
		InfectedHighlight:  models.Image{Data: []byte("hl")},
	}

	require.NoError(t, printJSON(&buf, a))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "WR042", out["image_id"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mask")), out["green_mask"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hl")), out["infected_highlight"])
	assert.Equal(t, models.ClassMS.Description(), out["description"])
}

func TestAnalyzeCommand(t *testing.T) {
	dir := isolate(t)
	mask := base64.StdEncoding.EncodeToString(testPNG(t))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"predicted_class":     "MS",
			"infected_percentage": 33.3,
			"result":              "Moderately susceptible",
			"green_mask":          mask,
			"infected_highlight":  mask,
		})
	}))
	defer srv.Close()

	img := filepath.Join(dir, "leaf.png")
	require.NoError(t, os.WriteFile(img, testPNG(t), 0o644))
	outDir := filepath.Join(dir, "masks")

	analyzeEndpoint, analyzeOutDir, analyzeImageID, jsonOutput = srv.URL, outDir, "WR777", true
	defer func() { analyzeEndpoint, analyzeOutDir, analyzeImageID, jsonOutput = "", "", "", false }()

	require.NoError(t, runAnalyze(analyzeCmd, []string{img}))
	assert.FileExists(t, filepath.Join(outDir, "WR777_green_mask.png"))
	assert.FileExists(t, filepath.Join(outDir, "WR777_original.png"))
}

func TestAnalyzeCommand_RejectsUnsupportedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	err := runAnalyze(analyzeCmd, []string{path})
	assert.Error(t, err)
}

func TestExporter(t *testing.T) {
	_, name, err := exporter("csv")
	require.NoError(t, err)
	assert.Equal(t, export.CSVFilename, name)

	_, name, err = exporter("xlsx")
	require.NoError(t, err)
	assert.Equal(t, export.XLSXFilename, name)

	_, _, err = exporter("pdf")
	assert.Error(t, err)
}

func TestExportCommand_CSV(t *testing.T) {
	dir := isolate(t)
	exportFormat, exportOutput, exportSource = "csv", "", ""
	defer func() { exportFormat, exportOutput, exportSource = "csv", "", "" }()

	var stderr bytes.Buffer
	exportCmd.SetErr(&stderr)
	defer exportCmd.SetErr(nil)

	require.NoError(t, runExport(exportCmd, nil))

	data, err := os.ReadFile(filepath.Join(dir, export.CSVFilename))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 9)
	assert.Contains(t, lines[0], "Image ID")
	assert.Contains(t, lines[1], "WR001")
	assert.Contains(t, stderr.String(), "Wrote 8 rows")
}

func TestExportCommand_Stdout(t *testing.T) {
	isolate(t)
	exportFormat, exportOutput, exportSource = "csv", "-", "mock"
	defer func() { exportFormat, exportOutput, exportSource = "csv", "", "" }()

	var out bytes.Buffer
	exportCmd.SetOut(&out)
	defer exportCmd.SetOut(nil)

	require.NoError(t, runExport(exportCmd, nil))
	assert.True(t, strings.HasPrefix(out.String(), `"Image ID",`))
}

func TestExportCommand_LogRequiresDatabase(t *testing.T) {
	isolate(t)
	exportFormat, exportOutput, exportSource = "xlsx", "", "log"
	defer func() { exportFormat, exportOutput, exportSource = "csv", "", "" }()

	err := runExport(exportCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	isolate(t)
	err := runMigrate(migrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestPruneRequiresDatabase(t *testing.T) {
	isolate(t)
	err := runPrune(pruneCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestPruneRequiresAge(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:1/agroscan")
	t.Setenv("AGROSCAN_HISTORY_RETENTION", "")

	err := runPrune(pruneCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--older-than")
}
