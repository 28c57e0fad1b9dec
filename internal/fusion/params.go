package fusion

import "math"

// Weight-sum tolerance beyond which renormalization kicks in.
const weightTolerance = 0.001

// Params is the tunable fusion configuration for a session. It is
// constructed once at session start and passed by value into every
// computation call; there is no ambient global state.
type Params struct {
	PriorNH      float64 `json:"prior_nh"`
	CalibrationK float64 `json:"calibration_k"`
	WeightC      float64 `json:"weight_c"`
	WeightE      float64 `json:"weight_e"`
	WeightP      float64 `json:"weight_p"`
}

// DefaultParams returns the calibrated session defaults.
func DefaultParams() Params {
	return Params{
		PriorNH:      0.20,
		CalibrationK: 0.20,
		WeightC:      0.4,
		WeightE:      0.3,
		WeightP:      0.3,
	}
}

// Normalized returns params with the evidence weights renormalized to sum
// to 1.0 when they deviate beyond tolerance. Each weight is divided by the
// sum, preserving the entered proportions.
func (p Params) Normalized() Params {
	total := p.WeightC + p.WeightE + p.WeightP
	if total == 0 || math.Abs(total-1.0) <= weightTolerance {
		return p
	}
	p.WeightC /= total
	p.WeightE /= total
	p.WeightP /= total
	return p
}
