package output

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/ironsheep/color-variations/internal/imaging"
)

// Options controls what a Writer produces besides the variation files.
type Options struct {
	// Thumbnails writes thumb_NNN.png files into the thumbnails/ subdirectory.
	Thumbnails bool

	// ThumbnailSize is the edge of the square thumbnail box.
	ThumbnailSize int

	// ThumbnailBackground is the color transparent variations are composited over.
	ThumbnailBackground color.RGBA

	// LabelFilenames appends sanitized labels to variation file names.
	LabelFilenames bool

	// DominantColors records each variation's dominant color in its entry.
	DominantColors bool
}

// Variation is one image to persist with its position and labels.
type Variation struct {
	Index    int
	HueLabel string
	SatLabel string
	Buffer   *imaging.PixelBuffer
}

// Written describes the files produced for one variation.
type Written struct {
	Path          string
	ThumbnailPath string
	Entry         ManifestEntry
}

// Writer persists the variations of one run into a single run folder.
//
// A Writer is used by one goroutine at a time.
type Writer struct {
	dir     string
	base    string
	opts    Options
	entries []ManifestEntry
}

// NewWriter returns a writer for run folder dir. base is the source image's
// base name used in file names.
func NewWriter(dir, base string, opts Options) *Writer {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = imaging.DefaultThumbnailSize
	}
	return &Writer{dir: dir, base: base, opts: opts}
}

// ThumbnailDir returns the thumbnail subdirectory of the run folder.
func (w *Writer) ThumbnailDir() string {
	return filepath.Join(w.dir, ThumbnailDir)
}

// Prepare creates the run folder and, if enabled, the thumbnail directory.
// Existing directories are not an error.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if w.opts.Thumbnails {
		if err := os.MkdirAll(w.ThumbnailDir(), 0o755); err != nil {
			return fmt.Errorf("failed to create thumbnail directory: %w", err)
		}
	}
	return nil
}

// FileName returns the variation file name used for index and labels.
func (w *Writer) FileName(index int, hueLabel, satLabel string) string {
	if w.opts.LabelFilenames {
		return LabeledFileName(w.base, index, hueLabel, satLabel)
	}
	return FileName(w.base, index)
}

// WriteVariation writes the variation PNG and, if enabled, its thumbnail.
func (w *Writer) WriteVariation(v Variation) (*Written, error) {
	name := w.FileName(v.Index, v.HueLabel, v.SatLabel)
	path := filepath.Join(w.dir, name)
	if err := imaging.SavePNG(v.Buffer.Image(), path); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	entry := ManifestEntry{
		Index:      v.Index,
		File:       name,
		Hue:        v.HueLabel,
		Saturation: v.SatLabel,
	}
	out := &Written{Path: path}

	if w.opts.Thumbnails || w.opts.DominantColors {
		thumb := imaging.Thumbnail(v.Buffer, imaging.ThumbnailOptions{
			Width:      w.opts.ThumbnailSize,
			Height:     w.opts.ThumbnailSize,
			Background: w.opts.ThumbnailBackground,
		})
		if w.opts.DominantColors {
			entry.Dominant = imaging.DominantColor(thumb)
		}
		if w.opts.Thumbnails {
			thumbName := ThumbnailName(v.Index)
			out.ThumbnailPath = filepath.Join(w.ThumbnailDir(), thumbName)
			if err := imaging.SavePNG(thumb, out.ThumbnailPath); err != nil {
				return nil, fmt.Errorf("failed to write thumbnail %s: %w", thumbName, err)
			}
			entry.Thumbnail = filepath.ToSlash(filepath.Join(ThumbnailDir, thumbName))
		}
	}

	out.Entry = entry
	w.entries = append(w.entries, entry)
	return out, nil
}

// WriteImage writes buf as <base><suffix>.png into the run folder, e.g. the
// adjusted copy of the source.
func (w *Writer) WriteImage(suffix string, buf *imaging.PixelBuffer) (string, error) {
	path := filepath.Join(w.dir, w.base+suffix+".png")
	if err := imaging.SavePNG(buf.Image(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Entries returns the manifest entries of all variations written so far, in
// write order.
func (w *Writer) Entries() []ManifestEntry {
	out := make([]ManifestEntry, len(w.entries))
	copy(out, w.entries)
	return out
}
