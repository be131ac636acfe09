package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ThumbnailDir is the name of the thumbnail subdirectory of a run folder.
const ThumbnailDir = "thumbnails"

// UniqueFolder returns base if nothing exists at that path, otherwise the
// first of base_1, base_2, ... that does not exist.
//
// Only existence is checked; nothing is created. Returns an error if a path
// cannot be stat'd for a reason other than not existing.
func UniqueFolder(base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check output path %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

// BaseName returns the file name of path without directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// RunFolder returns the run folder path <parent>/<base>_<prefix>.
func RunFolder(parent, base, prefix string) string {
	return filepath.Join(parent, base+"_"+prefix)
}

// FileName returns the variation file name {base}_{index:03d}.png.
func FileName(base string, index int) string {
	return fmt.Sprintf("%s_%03d.png", base, index)
}

// LabeledFileName returns {base}_{index:03d}_{hue}_{sat}.png with both labels
// passed through SanitizeLabel.
func LabeledFileName(base string, index int, hueLabel, satLabel string) string {
	return fmt.Sprintf("%s_%03d_%s_%s.png", base, index, SanitizeLabel(hueLabel), SanitizeLabel(satLabel))
}

// ThumbnailName returns the thumbnail file name thumb_{index:03d}.png.
func ThumbnailName(index int) string {
	return fmt.Sprintf("thumb_%03d.png", index)
}

var labelReplacer = strings.NewReplacer(
	"°", "deg",
	"%", "pct",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

// SanitizeLabel makes a human-readable label safe to embed in a file name.
//
// Degree and percent signs become "deg" and "pct"; path separators, characters
// reserved on Windows, and spaces become underscores.
func SanitizeLabel(label string) string {
	return labelReplacer.Replace(label)
}
