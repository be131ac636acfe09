package imaging

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSVColor represents a color in HSV (Hue, Saturation, Value) color space.
//
//   - H: hue in degrees, 0 <= H < 360 (0=red, 120=green, 240=blue)
//   - S: saturation, 0 (gray) to 1 (vivid)
//   - V: value, 0 (black) to 1 (full brightness)
type HSVColor struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ToHSV converts 8-bit RGB components to HSV.
//
// The conversion follows the standard hexcone model:
//  1. Normalize RGB to the 0-1 range
//  2. V = max(R, G, B)
//  3. S = (max - min) / max, or 0 when max is 0
//  4. H from the sector of the largest component, in degrees
//
// Achromatic input (R == G == B) yields H = 0 and S = 0.
func ToHSV(r, g, b uint8) HSVColor {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	h, s, v := c.Hsv()
	if h >= 360 {
		h = 0
	}
	return HSVColor{H: h, S: s, V: v}
}

// ToRGB converts an HSV color back to 8-bit RGB components.
//
// Components are clamped to 0-1 before scaling and rounded half-up, so the
// conversion is exact for any HSV value produced by ToHSV.
func ToRGB(c HSVColor) (r, g, b uint8) {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	return colorful.Hsv(h, clampUnit(c.S), clampUnit(c.V)).Clamped().RGB255()
}

// RotateHue returns hue rotated by degrees, wrapped into [0, 360).
func RotateHue(hue, degrees float64) float64 {
	h := math.Mod(hue+degrees, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// ShiftColor rotates the hue of an 8-bit RGB color and scales its saturation.
//
// The scaled saturation is clamped to [0, 1]. Value is unchanged.
func ShiftColor(r, g, b uint8, hueDegrees, saturationFactor float64) (uint8, uint8, uint8) {
	hsv := ToHSV(r, g, b)
	hsv.H = RotateHue(hsv.H, hueDegrees)
	hsv.S = clampUnit(hsv.S * saturationFactor)
	return ToRGB(hsv)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
