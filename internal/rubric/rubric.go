// Package rubric defines the structured scoring tables for case factors.
// Numeric logic operates on identifiers and numeric effects only; the
// human-readable descriptions are display text and never parsed.
package rubric

import (
	"fmt"
	"strings"

	"aerial-triage/pkg/errors"
)

// Factor identifies one of the three scored evidence factors.
type Factor string

const (
	FactorWitness     Factor = "C"
	FactorEnvironment Factor = "E"
	FactorPhysical    Factor = "P"
)

// Category is a named base-score band.
type Category struct {
	ID          string  `json:"id"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// Modifier is a named signed delta applied on top of the base value.
type Modifier struct {
	ID          string  `json:"id"`
	Delta       float64 `json:"delta"`
	Description string  `json:"description,omitempty"`
}

// HardCap forces a factor score down to a fixed ceiling regardless of
// its computed value.
type HardCap struct {
	ID          string  `json:"id"`
	Ceiling     float64 `json:"ceiling"`
	Description string  `json:"description,omitempty"`
}

// FlightTier is a qualitative flight-behavior anomaly level with a
// fixed additive bonus to the physical-evidence score.
type FlightTier struct {
	ID          string  `json:"id"`
	Delta       float64 `json:"delta"`
	Description string  `json:"description"`
}

// FactorTable holds the full rubric for one factor.
type FactorTable struct {
	Factor     Factor     `json:"factor"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Modifiers  []Modifier `json:"modifiers"`
	HardCaps   []HardCap  `json:"hard_caps"`
}

// Modifier looks up a modifier by identifier.
func (t FactorTable) Modifier(id string) (Modifier, error) {
	for _, m := range t.Modifiers {
		if m.ID == id {
			return m, nil
		}
	}
	return Modifier{}, errors.NewUnknownModifierError(t.Name, id)
}

// HardCap looks up a hard cap by identifier.
func (t FactorTable) HardCap(id string) (HardCap, error) {
	for _, c := range t.HardCaps {
		if c.ID == id {
			return c, nil
		}
	}
	return HardCap{}, errors.NewUnknownCapError(t.Name, id)
}

// Category looks up a base category by identifier.
func (t FactorTable) Category(id string) (Category, bool) {
	for _, c := range t.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Validate checks the table's declared numeric ranges lie in [0, 1].
// Modifier deltas are signed and exempt; category bands and cap
// ceilings are probabilities.
func (t FactorTable) Validate() error {
	for _, c := range t.Categories {
		if c.Min < 0 || c.Max > 1 || c.Min > c.Max {
			return &errors.TriageError{
				Code:     errors.ErrCodeRubricInvalid,
				Message:  fmt.Sprintf("%s category %q band [%.2f, %.2f] outside [0, 1]", t.Name, c.ID, c.Min, c.Max),
				Severity: errors.SeverityFatal,
			}
		}
	}
	for _, c := range t.HardCaps {
		if c.Ceiling < 0 || c.Ceiling > 1 {
			return &errors.TriageError{
				Code:     errors.ErrCodeRubricInvalid,
				Message:  fmt.Sprintf("%s hard cap %q ceiling %.2f outside [0, 1]", t.Name, c.ID, c.Ceiling),
				Severity: errors.SeverityFatal,
			}
		}
	}
	return nil
}

// Tier looks up a flight tier by identifier. A case-insensitive prefix
// is accepted so "Moderate" resolves to "Moderate Anomaly".
func Tier(id string) (FlightTier, error) {
	tiers := FlightTiers()
	for _, t := range tiers {
		if t.ID == id {
			return t, nil
		}
	}
	if id != "" {
		for _, t := range tiers {
			if strings.HasPrefix(strings.ToLower(t.ID), strings.ToLower(id)) {
				return t, nil
			}
		}
	}
	return FlightTier{}, errors.NewUnknownTierError(id)
}

// Tables returns the three factor tables in scoring order (C, E, P).
func Tables() []FactorTable {
	return []FactorTable{Witness(), Environment(), Physical()}
}
