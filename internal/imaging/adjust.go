package imaging

import (
	"fmt"
	"strings"

	"github.com/anthonynsimon/bild/parallel"
)

// Channel strength bounds accepted by ChannelAdjustment.Validate.
const (
	MinStrength = 0.0
	MaxStrength = 2.0
)

// AdjustMode selects how a channel strength is applied.
type AdjustMode int

const (
	// Multiplicative scales the channel: c' = c * s.
	Multiplicative AdjustMode = iota
	// Additive offsets the channel: c' = c + (s - 1) * 255.
	Additive
)

func (m AdjustMode) String() string {
	switch m {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	default:
		return fmt.Sprintf("AdjustMode(%d)", int(m))
	}
}

// ParseAdjustMode parses "additive" or "multiplicative" (case-insensitive).
// The empty string means multiplicative.
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multiplicative", "multiply":
		return Multiplicative, nil
	case "additive", "add":
		return Additive, nil
	default:
		return 0, fmt.Errorf("unsupported adjustment mode %q (want additive or multiplicative)", s)
	}
}

// Activation selects which variations receive the channel adjustment.
type Activation int

const (
	// Always adjusts every variation.
	Always Activation = iota
	// WhenSaturationBelow adjusts only variations whose saturation factor is
	// strictly below ChannelAdjustment.Threshold.
	WhenSaturationBelow
)

func (a Activation) String() string {
	switch a {
	case Always:
		return "always"
	case WhenSaturationBelow:
		return "when_saturation_below"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// ChannelAdjustment is a per-channel strength adjustment applied after the
// hue/saturation transform.
//
// A strength of 1.0 leaves its channel unchanged in both modes. Alpha is never
// touched.
type ChannelAdjustment struct {
	R          float64    `json:"r"`
	G          float64    `json:"g"`
	B          float64    `json:"b"`
	Mode       AdjustMode `json:"mode"`
	Activation Activation `json:"activation"`

	// Threshold is the saturation factor bound used by WhenSaturationBelow.
	Threshold float64 `json:"threshold,omitempty"`
}

// IdentityAdjustment returns an adjustment that changes nothing.
func IdentityAdjustment() ChannelAdjustment {
	return ChannelAdjustment{R: 1, G: 1, B: 1, Mode: Multiplicative, Activation: Always}
}

// Validate checks strengths and mode.
//
// # Errors
//
//   - a strength outside [0.0, 2.0] (NaN included)
//   - an unknown mode or activation
func (a ChannelAdjustment) Validate() error {
	for _, ch := range []struct {
		name string
		v    float64
	}{{"red", a.R}, {"green", a.G}, {"blue", a.B}} {
		if !(ch.v >= MinStrength && ch.v <= MaxStrength) {
			return fmt.Errorf("%s strength %v must be between %.1f and %.1f", ch.name, ch.v, MinStrength, MaxStrength)
		}
	}
	if a.Mode != Additive && a.Mode != Multiplicative {
		return fmt.Errorf("unsupported adjustment mode %v", a.Mode)
	}
	if a.Activation != Always && a.Activation != WhenSaturationBelow {
		return fmt.Errorf("unsupported adjustment activation %v", a.Activation)
	}
	return nil
}

// IsIdentity reports whether applying the adjustment can never change a pixel.
func (a ChannelAdjustment) IsIdentity() bool {
	return a.R == 1 && a.G == 1 && a.B == 1
}

// ActiveFor reports whether the adjustment applies to a variation with the
// given saturation factor.
func (a ChannelAdjustment) ActiveFor(saturationFactor float64) bool {
	if a.Activation == WhenSaturationBelow {
		return saturationFactor < a.Threshold
	}
	return true
}

// Apply adjusts one RGB triple.
func (a ChannelAdjustment) Apply(r, g, b uint8) (uint8, uint8, uint8) {
	return a.channel(r, a.R), a.channel(g, a.G), a.channel(b, a.B)
}

// channel applies a strength to one sample, clamping to 0-255 and truncating
// the fractional part.
func (a ChannelAdjustment) channel(c uint8, strength float64) uint8 {
	var v float64
	if a.Mode == Additive {
		v = float64(c) + (strength-1.0)*255.0
	} else {
		v = float64(c) * strength
	}
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// ApplyBuffer returns a copy of buf with the adjustment applied to every pixel,
// ignoring Activation. Alpha samples are copied unchanged.
func (a ChannelAdjustment) ApplyBuffer(buf *PixelBuffer) *PixelBuffer {
	out := buf.Clone()
	if a.IsIdentity() {
		return out
	}
	stride := buf.Stride()
	ch := buf.Channels
	parallel.Line(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*stride : (y+1)*stride]
			for i := 0; i < len(row); i += ch {
				row[i], row[i+1], row[i+2] = a.Apply(row[i], row[i+1], row[i+2])
			}
		}
	})
	return out
}
