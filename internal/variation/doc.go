// Package variation generates the hue/saturation variation grid of an image.
//
// A run sweeps HueCount x SatCount parameter cells in hue-major order. Cell
// (i, j) rotates hue by i*(360/HueCount) degrees and scales saturation by
// (j+1)/SatCount, then applies the configured channel adjustment. Only pixels
// selected by the mask are changed, and alpha is never changed.
//
// Sweep is the synchronous core. Runner executes one run at a time on a
// background goroutine and reports log, progress and variation events on a
// channel that ends with exactly one EventDone or EventFailed.
//
// Cancellation is cooperative: it is observed before each hue step and each
// saturation step, so a variation that has started is always written.
package variation
