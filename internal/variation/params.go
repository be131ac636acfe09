package variation

import (
	"fmt"
	"math"
)

// Param identifies one cell of the hue/saturation grid.
type Param struct {
	// Index is the 0-based position in sweep order.
	Index int `json:"index"`

	HueIndex int `json:"hue_index"`
	SatIndex int `json:"sat_index"`

	// HueDegrees is the rotation added to every selected pixel's hue.
	HueDegrees float64 `json:"hue_degrees"`

	// SaturationFactor scales every selected pixel's saturation.
	SaturationFactor float64 `json:"saturation_factor"`

	// HueLabel and SatLabel are human-readable, e.g. "36°" and "33%".
	HueLabel string `json:"hue_label"`
	SatLabel string `json:"sat_label"`
}

// HueDegrees returns the rotation of hue step i out of n: i * (360 / n).
func HueDegrees(i, n int) float64 {
	return float64(i) * (360.0 / float64(n))
}

// SaturationFactor returns the factor of saturation level j out of n:
// (j+1) / n. The last level is exactly 1.0.
func SaturationFactor(j, n int) float64 {
	if j+1 == n {
		return 1.0
	}
	return float64(j+1) / float64(n)
}

// NewParam builds the grid cell (i, j) for hueCount x satCount.
func NewParam(i, j, hueCount, satCount int) Param {
	deg := HueDegrees(i, hueCount)
	factor := SaturationFactor(j, satCount)
	return Param{
		Index:            i*satCount + j,
		HueIndex:         i,
		SatIndex:         j,
		HueDegrees:       deg,
		SaturationFactor: factor,
		HueLabel:         fmt.Sprintf("%d°", int(math.Round(deg))),
		SatLabel:         fmt.Sprintf("%d%%", int(math.Round(factor*100))),
	}
}

// Plan returns every grid cell in hue-major, saturation-minor order.
//
// Counts below 1 yield an empty plan; normalize the config first.
func Plan(hueCount, satCount int) []Param {
	if hueCount < 1 || satCount < 1 {
		return nil
	}
	params := make([]Param, 0, hueCount*satCount)
	for i := 0; i < hueCount; i++ {
		for j := 0; j < satCount; j++ {
			params = append(params, NewParam(i, j, hueCount, satCount))
		}
	}
	return params
}
