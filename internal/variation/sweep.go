package variation

import (
	"context"
	"fmt"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/color-variations/internal/imaging"
)

// Result is one generated variation.
type Result struct {
	Param  Param
	Buffer *imaging.PixelBuffer
}

// EmitFunc consumes a result as soon as it is produced. Returning an error
// stops the sweep.
type EmitFunc func(Result) error

// Apply produces the variation of src for one grid cell.
//
// Every pixel selected by mask has its hue rotated by p.HueDegrees and its
// saturation scaled by p.SaturationFactor; then adj is applied to it when adj
// is active for p.SaturationFactor. Pixels not selected are copied unchanged.
// Alpha is always copied unchanged. src is not modified.
//
// Rows are processed in parallel; each output sample depends only on the
// matching source sample, so the result is deterministic.
func Apply(src *imaging.PixelBuffer, p Param, mask imaging.MaskPolicy, adj imaging.ChannelAdjustment) *imaging.PixelBuffer {
	out := src.Clone()

	shift := p.HueDegrees != 0 || p.SaturationFactor != 1
	adjust := adj.ActiveFor(p.SaturationFactor) && !adj.IsIdentity()
	if !shift && !adjust {
		return out
	}

	ch := src.Channels
	stride := src.Stride()
	hasAlpha := src.HasAlpha()
	selectAll := mask.IsZero()

	parallel.Line(src.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*stride : (y+1)*stride]
			for i := 0; i < len(row); i += ch {
				r, g, b := row[i], row[i+1], row[i+2]
				a := uint8(255)
				if hasAlpha {
					a = row[i+3]
				}
				if !selectAll && !mask.Selects(r, g, b, a, hasAlpha) {
					continue
				}
				if shift {
					r, g, b = imaging.ShiftColor(r, g, b, p.HueDegrees, p.SaturationFactor)
				}
				if adjust {
					r, g, b = adj.Apply(r, g, b)
				}
				row[i], row[i+1], row[i+2] = r, g, b
			}
		}
	})
	return out
}

// Sweep generates all HueCount x SatCount variations of src in hue-major,
// saturation-minor order and passes each one to emit.
//
// cfg must already be normalized. Cancellation is checked through ctrl and ctx
// at the start of every hue step and every saturation step; a variation that
// has started always completes. After each emitted variation except the last,
// ctrl's progress is advanced to done/total; reaching 1.0 is left to the
// caller once all of its own work is finished.
//
// Returns the number of variations emitted and ErrCancelled on cancellation,
// or the first error returned by emit.
func Sweep(ctx context.Context, src *imaging.PixelBuffer, cfg Config, ctrl *Controller, emit EmitFunc) (int, error) {
	if cfg.HueCount < 1 || cfg.SatCount < 1 {
		return 0, newError(KindConfig, nil, "hue and saturation counts must be at least 1 (got %d, %d)", cfg.HueCount, cfg.SatCount)
	}
	if src == nil {
		return 0, newError(KindLoad, nil, "no source image")
	}
	if ctrl == nil {
		ctrl = NewController()
	}

	total := cfg.Total()
	done := 0
	for i := 0; i < cfg.HueCount; i++ {
		if stopRequested(ctx, ctrl) {
			return done, ErrCancelled
		}
		for j := 0; j < cfg.SatCount; j++ {
			if stopRequested(ctx, ctrl) {
				return done, ErrCancelled
			}

			p := NewParam(i, j, cfg.HueCount, cfg.SatCount)
			res := Result{Param: p, Buffer: Apply(src, p, cfg.Mask, cfg.Adjust)}
			if err := emit(res); err != nil {
				return done, fmt.Errorf("variation %d: %w", p.Index, err)
			}

			done++
			if done < total {
				ctrl.report(float64(done) / float64(total))
			}
		}
	}
	return done, nil
}

func stopRequested(ctx context.Context, ctrl *Controller) bool {
	if ctrl.Cancelled() {
		return true
	}
	return ctx != nil && ctx.Err() != nil
}
