package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// PixelBuffer is the normalized in-memory form of an image used by the
// variation engine.
//
// Samples are stored row-major, non-premultiplied, 8 bits per channel. A buffer
// has either 3 channels (RGB) or 4 channels (RGBA). For 4-channel buffers the
// alpha sample of each pixel is the last of its four bytes.
//
// # Ownership
//
// The source buffer of a run is treated as read-only by the engine and may be
// shared by reference between goroutines. Every variation gets its own buffer.
type PixelBuffer struct {
	// Width is the image width in pixels.
	Width int

	// Height is the image height in pixels.
	Height int

	// Channels is 3 for RGB and 4 for RGBA.
	Channels int

	// Pix holds Width*Height*Channels samples.
	Pix []uint8
}

// NewPixelBuffer allocates a zeroed buffer.
//
// Returns an error if the dimensions are not positive or the channel count is
// not 3 or 4.
func NewPixelBuffer(width, height, channels int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", width, height)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("unsupported channel count %d (want 3 or 4)", channels)
	}
	return &PixelBuffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// FromImage converts a decoded image into a PixelBuffer.
//
// The channel count is chosen from the image's color model:
//   - *image.NRGBA, *image.NRGBA64 -> 4 channels
//   - *image.Paletted with any non-opaque palette entry -> 4 channels
//   - any other image that reports Opaque() == false -> 4 channels
//   - everything else -> 3 channels
//
// Samples are taken from a non-premultiplied NRGBA copy, so partially
// transparent pixels keep their straight (unassociated) RGB values.
func FromImage(img image.Image) *PixelBuffer {
	return fromImage(img, channelsOf(img))
}

// channelsOf returns 4 if img should be treated as carrying alpha, else 3.
func channelsOf(img image.Image) int {
	if hasAlpha(img) {
		return 4
	}
	return 3
}

// fromImage converts img into a buffer with the given channel count.
func fromImage(img image.Image, channels int) *PixelBuffer {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	buf := &PixelBuffer{
		Width:    w,
		Height:   h,
		Channels: channels,
		Pix:      make([]uint8, w*h*channels),
	}

	if channels == 4 {
		for y := 0; y < h; y++ {
			copy(buf.Pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
		}
		return buf
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, nrgba.NRGBAAt(x, y))
		}
	}
	return buf
}

// hasAlpha reports whether an image should be treated as carrying an alpha channel.
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// HasAlpha reports whether the buffer has an alpha channel.
func (b *PixelBuffer) HasAlpha() bool {
	return b.Channels == 4
}

// Stride returns the number of bytes per row.
func (b *PixelBuffer) Stride() int {
	return b.Width * b.Channels
}

// Offset returns the index of the first sample of pixel (x, y).
func (b *PixelBuffer) Offset(x, y int) int {
	return y*b.Width*b.Channels + x*b.Channels
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: pix}
}

// At returns the pixel at (x, y). Alpha is 255 for 3-channel buffers.
func (b *PixelBuffer) At(x, y int) color.NRGBA {
	i := b.Offset(x, y)
	c := color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: 255}
	if b.Channels == 4 {
		c.A = b.Pix[i+3]
	}
	return c
}

// Set writes the pixel at (x, y). Alpha is ignored for 3-channel buffers.
func (b *PixelBuffer) Set(x, y int, c color.NRGBA) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = c.R, c.G, c.B
	if b.Channels == 4 {
		b.Pix[i+3] = c.A
	}
}

// Image converts the buffer to an *image.NRGBA suitable for encoding.
//
// 3-channel buffers become fully opaque images, which the PNG encoder writes
// without an alpha channel.
func (b *PixelBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	if b.Channels == 4 {
		copy(img.Pix, b.Pix)
		return img
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetNRGBA(x, y, b.At(x, y))
		}
	}
	return img
}
