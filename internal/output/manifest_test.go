package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readManifest(t *testing.T, path string) *Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return &m
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		RunID:           "run-1",
		Timestamp:       "2026-01-02T03:04:05Z",
		InputImage:      "/in/logo.png",
		OutputDirectory: dir,
		Parameters:      map[string]interface{}{"hue_count": 2, "prefix": "variation"},
		TotalVariations: 2,
		Written:         2,
		Status:          "completed",
		Variations: []ManifestEntry{
			{Index: 0, File: "logo_000.png", Thumbnail: "thumbnails/thumb_000.png", Hue: "0°", Saturation: "100%", Dominant: "#ff0000"},
			{Index: 1, File: "logo_001.png", Hue: "180°", Saturation: "100%"},
		},
	}

	path, err := WriteManifest(dir, m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), path)

	got := readManifest(t, path)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, m.Status, got.Status)
	assert.Equal(t, m.Variations, got.Variations)
	assert.Empty(t, got.Adjusted)

	params, ok := got.Parameters.(map[string]interface{})
	require.True(t, ok, "parameters decode as a map")
	assert.Equal(t, float64(2), params["hue_count"])

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dominant_color": "#ff0000"`)
	assert.NotContains(t, string(raw), `"adjusted"`)
}

func TestWriteManifest_MissingDir(t *testing.T) {
	_, err := WriteManifest(filepath.Join(t.TempDir(), "absent"), &Manifest{})
	assert.Error(t, err)
}
