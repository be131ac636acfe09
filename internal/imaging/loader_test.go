package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid opaque PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeImage(t, "solid.png", img)
}

// writeImage encodes img as PNG or JPEG depending on the name's extension.
func writeImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if filepath.Ext(name) == ".jpg" {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoad_Opaque(t *testing.T) {
	path := createTestImage(t, 12, 7, color.RGBA{255, 0, 0, 255})

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.Width != 12 || buf.Height != 7 {
		t.Errorf("dimensions: got %dx%d, want 12x7", buf.Width, buf.Height)
	}
	if buf.Channels != 3 {
		t.Errorf("channels: got %d, want 3", buf.Channels)
	}
	if got := buf.At(5, 3); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel: got %v", got)
	}
}

func TestLoad_Alpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{10, 200, 30, 128})
	path := writeImage(t, "alpha.png", img)

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.Channels != 4 {
		t.Fatalf("channels: got %d, want 4", buf.Channels)
	}
	if got := buf.At(1, 1); got != (color.NRGBA{10, 200, 30, 128}) {
		t.Errorf("straight alpha pixel: got %v", got)
	}
	if got := buf.At(0, 0); got.A != 0 {
		t.Errorf("transparent pixel alpha: got %d", got.A)
	}
}

func TestLoad_NotImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("Load error: got %v, want ErrNotImage", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.buffers == nil {
		t.Fatal("NewImageCache did not initialize buffers map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	buf1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Second load should return cached buffer
	buf2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if buf1 != buf2 {
		t.Error("second Load did not return cached buffer")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}

	cache.mu.RLock()
	count := len(cache.buffers)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("failed load was cached: %d entries", count)
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 5, 5, color.RGBA{0, 255, 0, 255})
	b := createTestImage(t, 5, 5, color.RGBA{0, 0, 255, 255})

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path") // no-op

	cache.mu.RLock()
	_, hasA := cache.buffers[a]
	_, hasB := cache.buffers[b]
	cache.mu.RUnlock()
	if hasA || !hasB {
		t.Errorf("after Evict: hasA=%v hasB=%v", hasA, hasB)
	}

	cache.Clear()
	cache.mu.RLock()
	count := len(cache.buffers)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d buffers remain", count)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		img      image.Image
		format   string
		channels int
	}{
		{"png transparent", "a.png", image.NewRGBA(image.Rect(0, 0, 20, 10)), "png", 4},
		{"png gray", "g.png", image.NewGray(image.Rect(0, 0, 20, 10)), "png", 3},
		{"jpeg", "c.jpg", image.NewGray(image.Rect(0, 0, 20, 10)), "jpg", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImage(t, tt.file, tt.img)
			info, err := Describe(NewImageCache(), path)
			if err != nil {
				t.Fatalf("Describe failed: %v", err)
			}
			if info.Width != 20 || info.Height != 10 {
				t.Errorf("dimensions: got %dx%d", info.Width, info.Height)
			}
			if info.Format != tt.format {
				t.Errorf("format: got %s, want %s", info.Format, tt.format)
			}
			if info.Channels != tt.channels {
				t.Errorf("channels: got %d, want %d", info.Channels, tt.channels)
			}
			if info.HasAlpha != (tt.channels == 4) {
				t.Errorf("has_alpha: got %v", info.HasAlpha)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}
}

// withOrientation inserts an EXIF APP1 segment carrying the given orientation
// right after the JPEG SOI marker.
func withOrientation(jpg []byte, orientation byte) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // big-endian header, IFD at 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, orientation, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	size := len(payload) + 2

	out := append([]byte{}, jpg[:2]...)
	out = append(out, 0xff, 0xe1, byte(size>>8), byte(size))
	out = append(out, payload...)
	return append(out, jpg[2:]...)
}

func TestLoad_RotatedJPEGStaysOpaque(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{220, 40, 40, 255})
		}
	}
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		data          []byte
		width, height int
	}{
		{"plain", enc.Bytes(), 8, 4},
		{"orientation 6", withOrientation(enc.Bytes(), 6), 4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photo.jpg")
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}

			buf, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if buf.Width != tt.width || buf.Height != tt.height {
				t.Errorf("dimensions: got %dx%d, want %dx%d", buf.Width, buf.Height, tt.width, tt.height)
			}
			if buf.Channels != 3 {
				t.Errorf("channels: got %d, want 3", buf.Channels)
			}
			// Without alpha the transparency gate must not exclude anything
			p := buf.At(1, 1)
			mask := MaskPolicy{Transparency: TransparencyTransparentOnly}
			if !mask.Selects(p.R, p.G, p.B, p.A, buf.HasAlpha()) {
				t.Error("transparent-only mask excluded a pixel of an opaque JPEG")
			}
		})
	}
}

func TestImageCache_ReloadsChangedFile(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 4, 4, color.RGBA{255, 0, 0, 255})

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	replacement := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			replacement.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, replacement); err != nil {
		t.Fatal(err)
	}
	f.Close()

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	if second == first {
		t.Fatal("cache returned the stale buffer after the file changed")
	}
	if second.Width != 6 || second.At(2, 2) != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("reloaded buffer: %dx%d pixel %v", second.Width, second.Height, second.At(2, 2))
	}
}

func TestImageCache_EvictsRemovedFile(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 3, 3, color.RGBA{0, 255, 0, 255})

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail once the file is removed")
	}

	cache.mu.RLock()
	_, cached := cache.buffers[path]
	cache.mu.RUnlock()
	if cached {
		t.Error("removed file is still cached")
	}
}
