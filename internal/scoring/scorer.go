// Package scoring computes clamped factor scores from rubric selections.
package scoring

import (
	"aerial-triage/internal/rubric"
	"aerial-triage/pkg/probmath"
)

// ScoreFactor computes one factor score from an operator-chosen base value,
// the set of applied modifier identifiers, and the set of applied hard-cap
// identifiers.
//
// Modifiers are independent signed deltas accumulated by plain addition, so
// the result is invariant under reordering of the applied set. Hard caps
// compose as successive min-clamps: the final value never exceeds the lowest
// applied ceiling. The base value itself is not re-validated here; the input
// collaborator owns range checks, and out-of-range results are possible when
// the operator enters an out-of-range base.
func ScoreFactor(table rubric.FactorTable, base float64, modifierIDs, capIDs []string) (float64, error) {
	score := base

	for _, id := range modifierIDs {
		mod, err := table.Modifier(id)
		if err != nil {
			return 0, err
		}
		score += mod.Delta
	}

	for _, id := range capIDs {
		cap, err := table.HardCap(id)
		if err != nil {
			return 0, err
		}
		if cap.Ceiling < score {
			score = cap.Ceiling
		}
	}

	return probmath.Round2(score), nil
}

// ApplyFlightAdjustment derives the final physical-evidence score from the
// raw score and a flight-behavior tier. The result is clamped to the
// absolute physical ceiling regardless of any rubric-declared cap.
func ApplyFlightAdjustment(pRaw float64, tier rubric.FlightTier) float64 {
	adjusted := pRaw + tier.Delta
	if adjusted > probmath.PhysicalCeiling {
		adjusted = probmath.PhysicalCeiling
	}
	return probmath.Round2(adjusted)
}
