package variation

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/color-variations/internal/imaging"
)

func fillBuffer(t *testing.T, w, h, channels int, fn func(x, y int) color.NRGBA) *imaging.PixelBuffer {
	t.Helper()
	buf, err := imaging.NewPixelBuffer(w, h, channels)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, fn(x, y))
		}
	}
	return buf
}

// mixedBuffer has colored, gray and partially transparent pixels.
func mixedBuffer(t *testing.T) *imaging.PixelBuffer {
	return fillBuffer(t, 8, 8, 4, func(x, y int) color.NRGBA {
		switch (x + y) % 4 {
		case 0:
			return color.NRGBA{128, 128, 128, 255}
		case 1:
			return color.NRGBA{200, 40, 90, uint8(30 * y)}
		case 2:
			return color.NRGBA{uint8(20 * x), 180, 60, 255}
		default:
			return color.NRGBA{70, 70, 70, uint8(10 * x)}
		}
	})
}

func collect(t *testing.T, src *imaging.PixelBuffer, cfg Config) []Result {
	t.Helper()
	var out []Result
	_, err := Sweep(context.Background(), src, cfg, nil, func(r Result) error {
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	return out
}

func sweepConfig(hues, sats int) Config {
	cfg := DefaultConfig()
	cfg.HueCount = hues
	cfg.SatCount = sats
	return cfg
}

func TestSweepWhiteIsInvariant(t *testing.T) {
	src := fillBuffer(t, 2, 2, 4, func(x, y int) color.NRGBA { return color.NRGBA{255, 255, 255, 255} })

	results := collect(t, src, sweepConfig(4, 1))
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, src.Pix, r.Buffer.Pix, "variation %d", r.Param.Index)
	}
}

func TestSweepRedHalfTurn(t *testing.T) {
	src := fillBuffer(t, 1, 1, 3, func(x, y int) color.NRGBA { return color.NRGBA{255, 0, 0, 255} })

	results := collect(t, src, sweepConfig(2, 1))
	require.Len(t, results, 2)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, results[0].Buffer.At(0, 0))
	assert.Equal(t, 180.0, results[1].Param.HueDegrees)
	assert.Equal(t, color.NRGBA{0, 255, 255, 255}, results[1].Buffer.At(0, 0))
}

func TestSweepRejectsUnnormalizedCounts(t *testing.T) {
	src := fillBuffer(t, 1, 1, 3, func(x, y int) color.NRGBA { return color.NRGBA{A: 255} })

	_, err := Sweep(context.Background(), src, sweepConfig(0, 3), nil, func(Result) error { return nil })
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = Sweep(context.Background(), nil, sweepConfig(1, 1), nil, func(Result) error { return nil })
	assert.Equal(t, KindLoad, KindOf(err))
}

func TestSweepCancelAfterTwo(t *testing.T) {
	src := mixedBuffer(t)
	ctrl := NewController()

	emitted := 0
	n, err := Sweep(context.Background(), src, sweepConfig(4, 3), ctrl, func(Result) error {
		emitted++
		if emitted == 2 {
			ctrl.Cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, emitted)
	assert.InDelta(t, 2.0/12.0, ctrl.Progress(), 1e-9)
}

func TestSweepContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n, err := Sweep(ctx, mixedBuffer(t), sweepConfig(3, 3), nil, func(Result) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, n)
}

func TestSweepEmitErrorStops(t *testing.T) {
	boom := errors.New("disk full")
	calls := 0
	n, err := Sweep(context.Background(), mixedBuffer(t), sweepConfig(2, 2), nil, func(Result) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)
}

func TestSweepProgressStopsShortOfOne(t *testing.T) {
	ctrl := NewController()
	_, err := Sweep(context.Background(), mixedBuffer(t), sweepConfig(2, 2), ctrl, func(Result) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0.75, ctrl.Progress())
	assert.True(t, ctrl.complete())
}

func TestApplyPreservesAlpha(t *testing.T) {
	src := mixedBuffer(t)
	for _, r := range collect(t, src, sweepConfig(5, 3)) {
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				require.Equal(t, src.At(x, y).A, r.Buffer.At(x, y).A, "variation %d pixel (%d,%d)", r.Param.Index, x, y)
			}
		}
	}
}

func TestApplyExactGrayUnchanged(t *testing.T) {
	src := mixedBuffer(t)
	cfg := sweepConfig(4, 2)
	cfg.Mask = imaging.MaskPolicy{Gray: imaging.GrayExact}
	cfg.Adjust = imaging.ChannelAdjustment{R: 0.2, G: 1.8, B: 1, Mode: imaging.Multiplicative}

	for _, r := range collect(t, src, cfg) {
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				s := src.At(x, y)
				if s.R == s.G && s.G == s.B {
					require.Equal(t, s, r.Buffer.At(x, y), "gray pixel (%d,%d) changed", x, y)
				}
			}
		}
	}
}

func TestApplyTransparencyMask(t *testing.T) {
	src := fillBuffer(t, 2, 1, 4, func(x, y int) color.NRGBA {
		if x == 0 {
			return color.NRGBA{255, 0, 0, 255}
		}
		return color.NRGBA{255, 0, 0, 100}
	})
	p := NewParam(1, 0, 2, 1)

	out := Apply(src, p, imaging.MaskPolicy{Transparency: imaging.TransparencyTransparentOnly}, imaging.IdentityAdjustment())
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.At(0, 0), "opaque pixel excluded")
	assert.Equal(t, color.NRGBA{0, 255, 255, 100}, out.At(1, 0))

	out = Apply(src, p, imaging.MaskPolicy{Transparency: imaging.TransparencyOpaqueOnly}, imaging.IdentityAdjustment())
	assert.Equal(t, color.NRGBA{0, 255, 255, 255}, out.At(0, 0))
	assert.Equal(t, color.NRGBA{255, 0, 0, 100}, out.At(1, 0), "translucent pixel excluded")
}

func TestApplyAdjustmentActivation(t *testing.T) {
	src := fillBuffer(t, 3, 3, 3, func(x, y int) color.NRGBA { return color.NRGBA{200, 100, 50, 255} })
	cfg := sweepConfig(1, 2)
	cfg.Adjust = imaging.ChannelAdjustment{R: 0, G: 1, B: 1, Mode: imaging.Multiplicative, Activation: imaging.WhenSaturationBelow, Threshold: 0.75}

	results := collect(t, src, cfg)
	require.Len(t, results, 2)
	assert.Equal(t, 0.5, results[0].Param.SaturationFactor)
	assert.Equal(t, uint8(0), results[0].Buffer.At(1, 1).R, "adjusted below threshold")
	assert.Equal(t, src.Pix, results[1].Buffer.Pix, "factor 1.0 at hue 0 is the identity")
}

func TestApplyDeterministic(t *testing.T) {
	src := mixedBuffer(t)
	p := NewParam(3, 1, 7, 3)
	mask := imaging.MaskPolicy{Gray: imaging.GrayNear, Threshold: 20}
	adj := imaging.ChannelAdjustment{R: 1.3, G: 0.7, B: 1, Mode: imaging.Additive}

	a := Apply(src, p, mask, adj)
	b := Apply(src, p, mask, adj)
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotSame(t, src, a)
}
