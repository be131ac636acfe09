package imaging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// sniffLen is the number of leading bytes inspected to detect the file type.
const sniffLen = 261

// ErrNotImage is returned when a file's content is not a recognized image format.
var ErrNotImage = errors.New("file is not a supported image")

// Load reads and decodes an image file into a PixelBuffer.
//
// The file header is sniffed before decoding so that non-image files fail fast
// with ErrNotImage. Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
// EXIF orientation of JPEG files is applied.
//
// # Errors
//
//   - the file does not exist or cannot be read
//   - the content is not a recognized image (wraps ErrNotImage)
//   - the image cannot be decoded
func Load(path string) (*PixelBuffer, error) {
	format, err := sniff(path)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Orientation correction returns NRGBA even for opaque JPEGs.
	channels := channelsOf(img)
	if format == "jpg" {
		channels = 3
	}
	return fromImage(img, channels), nil
}

// sniff returns the detected image format name ("png", "jpg", ...).
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read image header: %w", err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		return "", fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	kind, err := filetype.Match(head)
	if err != nil {
		return "", fmt.Errorf("failed to detect image type: %w", err)
	}
	return kind.Extension, nil
}

// ImageCache provides thread-safe caching of loaded source buffers to avoid
// redundant disk reads.
//
// Buffers are keyed by the exact path string passed to Load and remembered
// together with the file's size and modification time. A file that changed on
// disk since it was cached is loaded again. Cached buffers are shared and must
// be treated as read-only by callers.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu      sync.RWMutex
	buffers map[string]cachedBuffer
}

type cachedBuffer struct {
	buf     *PixelBuffer
	size    int64
	modTime time.Time
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		buffers: make(map[string]cachedBuffer),
	}
}

// Load retrieves a buffer from the cache or loads it from disk if it is not
// cached or the file changed since.
//
// Different paths to the same file (e.g., relative vs absolute) result in
// separate cache entries. A path that can no longer be stat'd is evicted.
func (c *ImageCache) Load(path string) (*PixelBuffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.buffers[path]
	c.mu.RUnlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return entry.buf, nil
	}

	buf, err := Load(path)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.buffers[path] = cachedBuffer{buf: buf, size: info.Size(), modTime: info.ModTime()}
	c.mu.Unlock()

	return buf, nil
}

// Clear removes all buffers from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.buffers = make(map[string]cachedBuffer)
	c.mu.Unlock()
}

// Evict removes a specific buffer from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.buffers, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format from the file content, e.g. "png",
	// "jpg", "gif", "bmp", "tif" or "webp".
	Format string `json:"format"`

	// Channels is 3 for RGB sources and 4 for sources with alpha.
	Channels int `json:"channels"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Describe loads an image through the cache and returns metadata about it.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
func Describe(cache *ImageCache, path string) (*ImageInfo, error) {
	buf, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format, err := sniff(path)
	if err != nil {
		return nil, err
	}

	return &ImageInfo{
		Width:         buf.Width,
		Height:        buf.Height,
		Format:        format,
		Channels:      buf.Channels,
		HasAlpha:      buf.HasAlpha(),
		FileSizeBytes: stat.Size(),
	}, nil
}
