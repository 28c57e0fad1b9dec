// Package caselog persists scored case assessments.
package caselog

import (
	"context"

	"aerial-triage/internal/fusion"
)

// Row is one logged case in the fixed tabular schema. Column order is
// load-bearing for downstream consumers and must not be reordered.
type Row struct {
	Case        string
	C           float64
	E           float64
	P           float64
	FlightMod   float64
	PFinal      float64
	SOP         float64
	NHP         float64
	PosteriorNH float64
}

// Header is the schema of the tabular log, written once when a log is
// newly created.
var Header = []string{"Case", "C", "E", "P", "Flight_Mod", "P_final", "SOP", "NHP", "Posterior_NH"}

// RowFromAssessment flattens an assessment into the log schema.
func RowFromAssessment(a fusion.Assessment) Row {
	return Row{
		Case:        a.Case,
		C:           a.C,
		E:           a.E,
		P:           a.PRaw,
		FlightMod:   a.FlightDelta,
		PFinal:      a.PFinal,
		SOP:         a.SOP,
		NHP:         a.NHP,
		PosteriorNH: a.Posterior,
	}
}

// Store appends scored cases to a durable log.
type Store interface {
	Append(ctx context.Context, row Row) error
	Close() error
}
