package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 60, B: 30, A: 255})
		}
	}
	path := filepath.Join(dir, "tile.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COLORVAR_OUTPUT_DIR", "")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, input, "-o", outDir, "-u", "2", "-s", "2", "--no-thumbnails")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Completed")

	runDir := filepath.Join(outDir, "tile_variation")
	files, err := filepath.Glob(filepath.Join(runDir, "tile_*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.NoDirExists(t, filepath.Join(runDir, "thumbnails"))
	assert.FileExists(t, filepath.Join(runDir, "processing_details.json"))
}

func TestGenerateTwiceMakesUniqueFolder(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)

	for i := 0; i < 2; i++ {
		_, err := execute(t, input, "-u", "1", "-s", "1", "-p", "P")
		require.NoError(t, err)
	}
	assert.DirExists(t, filepath.Join(dir, "tile_P"))
	assert.DirExists(t, filepath.Join(dir, "tile_P_1"))
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)

	stdout, err := execute(t, input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dry run")
	assert.NoDirExists(t, filepath.Join(dir, "tile_variation"))
}

func TestMissingInputFails(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestInvalidStrengthFails(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)

	stdout, err := execute(t, input, "--r-scale", "2.5")
	assert.Error(t, err)
	assert.Contains(t, stdout, "Failed")
	assert.NoDirExists(t, filepath.Join(dir, "tile_variation"))
}

func TestConfigOverridesFlags(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("hue_count: 3\nsaturation_count: 1\nprefix: fromfile\nthumbnails: false\n"), 0o644))

	_, err := execute(t, input, "-u", "7", "-c", cfgPath)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "tile_fromfile", "tile_*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestBadConfigFails(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir)
	_, err := execute(t, input, "-c", filepath.Join(dir, "absent.toml"))
	assert.Error(t, err)
}
