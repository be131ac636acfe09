package imaging

import "fmt"

// GrayMode selects how achromatic pixels are excluded from color changes.
type GrayMode int

const (
	// GrayNone never excludes pixels on grayscale grounds.
	GrayNone GrayMode = iota
	// GrayExact excludes pixels where R == G == B.
	GrayExact
	// GrayNear excludes pixels where max(R,G,B) - min(R,G,B) < Threshold.
	GrayNear
)

func (m GrayMode) String() string {
	switch m {
	case GrayNone:
		return "none"
	case GrayExact:
		return "exact"
	case GrayNear:
		return "near"
	default:
		return fmt.Sprintf("GrayMode(%d)", int(m))
	}
}

// TransparencyMode selects pixels by alpha. It is only evaluated for buffers
// with an alpha channel.
type TransparencyMode int

const (
	// TransparencyAll includes every pixel regardless of alpha.
	TransparencyAll TransparencyMode = iota
	// TransparencyTransparentOnly includes pixels with alpha < 255.
	TransparencyTransparentOnly
	// TransparencyOpaqueOnly includes pixels with alpha == 255.
	TransparencyOpaqueOnly
)

func (m TransparencyMode) String() string {
	switch m {
	case TransparencyAll:
		return "all"
	case TransparencyTransparentOnly:
		return "transparent_only"
	case TransparencyOpaqueOnly:
		return "opaque_only"
	default:
		return fmt.Sprintf("TransparencyMode(%d)", int(m))
	}
}

// MaskPolicy decides per pixel whether the color transform applies.
//
// A pixel is transformed only if it passes both the grayscale gate and the
// transparency gate. Excluded pixels keep their RGB values unchanged; alpha is
// never changed for any pixel.
type MaskPolicy struct {
	Gray GrayMode `json:"gray"`

	// Threshold is the channel spread below which a pixel counts as near-gray.
	// Only used with GrayNear; 0 disables the gate.
	Threshold uint8 `json:"threshold"`

	Transparency TransparencyMode `json:"transparency"`
}

// Selects reports whether the pixel (r, g, b, a) should be color-transformed.
//
// hasAlpha tells whether a is a real alpha sample; when false the transparency
// gate always passes.
func (p MaskPolicy) Selects(r, g, b, a uint8, hasAlpha bool) bool {
	switch p.Gray {
	case GrayExact:
		if r == g && g == b {
			return false
		}
	case GrayNear:
		if spread(r, g, b) < int(p.Threshold) {
			return false
		}
	}

	if !hasAlpha {
		return true
	}
	switch p.Transparency {
	case TransparencyTransparentOnly:
		return a < 255
	case TransparencyOpaqueOnly:
		return a == 255
	}
	return true
}

// IsZero reports whether the policy selects every pixel.
func (p MaskPolicy) IsZero() bool {
	return (p.Gray == GrayNone || (p.Gray == GrayNear && p.Threshold == 0)) &&
		p.Transparency == TransparencyAll
}

// spread returns max(r,g,b) - min(r,g,b).
func spread(r, g, b uint8) int {
	hi, lo := r, r
	if g > hi {
		hi = g
	}
	if b > hi {
		hi = b
	}
	if g < lo {
		lo = g
	}
	if b < lo {
		lo = b
	}
	return int(hi) - int(lo)
}
