// Package probmath provides probability math utilities for case scoring.
package probmath

import "github.com/shopspring/decimal"

// Round2 rounds a score to two decimal places.
// Decimal-backed so that values entered as two-digit floats survive the
// float64 round trip (0.145 stays 0.15, not 0.14999...).
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Clamp forces a value into the valid probability range [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WeightedSum combines factor scores with their weights.
// Plain additive accumulation; the result is order-invariant.
func WeightedSum(scores []float64, weights []float64) float64 {
	if len(scores) != len(weights) {
		return 0
	}

	var sum float64
	for i, s := range scores {
		sum += s * weights[i]
	}
	return sum
}

// MinCeiling returns the lowest of a value and a set of ceilings.
// An empty ceiling set leaves the value untouched.
func MinCeiling(v float64, ceilings []float64) float64 {
	for _, c := range ceilings {
		if c < v {
			v = c
		}
	}
	return v
}

// Posterior applies Bayes' rule to the two evidence likelihoods.
// Returns 0 when the denominator is exactly zero (both likelihoods zero).
func Posterior(pEGivenNH, pEGivenH, prior float64) float64 {
	numerator := pEGivenNH * prior
	denominator := numerator + pEGivenH*(1-prior)
	if denominator == 0 {
		return 0
	}
	return Round2(numerator / denominator)
}

// Named probability anchors used across the rubric.
const (
	// CameraOnlyCredibility is the conventional witness score for
	// sensor-only cases: the camera/system counts as a minimal weak witness.
	CameraOnlyCredibility = 0.30

	// PhysicalCeiling is the absolute cap on the flight-adjusted physical
	// score. Physical evidence alone, even maximally anomalous, cannot
	// fully certify non-human origin.
	PhysicalCeiling = 0.95
)
