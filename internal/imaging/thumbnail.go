package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the default edge of the thumbnail bounding box.
const DefaultThumbnailSize = 100

// ThumbnailOptions controls thumbnail generation.
type ThumbnailOptions struct {
	// Width and Height of the bounding box. Zero means DefaultThumbnailSize.
	Width  int
	Height int

	// Background is the opaque color transparent sources are composited over.
	// The zero value is treated as white.
	Background color.RGBA
}

// Thumbnail resizes buf to fit within the bounding box, preserving aspect ratio.
//
// The source is scaled by the largest factor that fits the box. For
// buffers with alpha, the resized image is centered on an opaque box filled
// with the background color and blended per channel as
//
//	out = fg*alpha + bg*(1-alpha)
//
// with alpha normalized to [0,1]. The result is then fully opaque and has the
// size of the bounding box. RGB buffers are returned at their resized size.
func Thumbnail(buf *PixelBuffer, opts ThumbnailOptions) *image.NRGBA {
	boxW, boxH := opts.Width, opts.Height
	if boxW <= 0 {
		boxW = DefaultThumbnailSize
	}
	if boxH <= 0 {
		boxH = DefaultThumbnailSize
	}
	bg := opts.Background
	if bg == (color.RGBA{}) {
		bg = color.RGBA{255, 255, 255, 255}
	}

	w, h := fitSize(buf.Width, buf.Height, boxW, boxH)
	resized := imaging.Resize(buf.Image(), w, h, imaging.Box)

	if !buf.HasAlpha() {
		return resized
	}

	out := imaging.New(boxW, boxH, color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255})
	offX := (boxW - w) / 2
	offY := (boxH - h) / 2
	for y := 0; y < h; y++ {
		src := resized.Pix[y*resized.Stride:]
		dst := out.Pix[(y+offY)*out.Stride+offX*4:]
		for x := 0; x < w; x++ {
			a := float64(src[x*4+3]) / 255.0
			dst[x*4] = blend(src[x*4], dst[x*4], a)
			dst[x*4+1] = blend(src[x*4+1], dst[x*4+1], a)
			dst[x*4+2] = blend(src[x*4+2], dst[x*4+2], a)
			dst[x*4+3] = 255
		}
	}
	return out
}

// fitSize scales (w, h) by the largest factor that fits the box, preserving
// aspect ratio and never returning a zero dimension.
func fitSize(w, h, boxW, boxH int) (int, int) {
	scale := math.Min(float64(boxW)/float64(w), float64(boxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw > boxW {
		nw = boxW
	}
	if nh > boxH {
		nh = boxH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func blend(fg, bg uint8, alpha float64) uint8 {
	v := float64(fg)*alpha + float64(bg)*(1-alpha)
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}
