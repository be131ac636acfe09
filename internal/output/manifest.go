package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file name of the run sidecar.
const ManifestName = "processing_details.json"

// Manifest is the JSON sidecar recording one run.
type Manifest struct {
	RunID           string          `json:"run_id"`
	Timestamp       string          `json:"timestamp"`
	InputImage      string          `json:"input_image"`
	OutputDirectory string          `json:"output_directory"`
	Parameters      interface{}     `json:"parameters"`
	TotalVariations int             `json:"total_variations"`
	Written         int             `json:"written"`
	Status          string          `json:"status"`
	Adjusted        string          `json:"adjusted,omitempty"`
	Variations      []ManifestEntry `json:"variations"`
}

// ManifestEntry records one written variation.
type ManifestEntry struct {
	Index      int    `json:"index"`
	File       string `json:"file"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	Hue        string `json:"hue"`
	Saturation string `json:"saturation"`
	Dominant   string `json:"dominant_color,omitempty"`
}

// WriteManifest writes m as indented JSON to dir/processing_details.json and
// returns the file path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
