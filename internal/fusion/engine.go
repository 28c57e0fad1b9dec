// Package fusion combines factor scores into the two aggregate evidence
// statistics and the Bayesian posterior for the non-human hypothesis.
package fusion

import (
	"time"

	"aerial-triage/pkg/probmath"
)

// Assessment is the complete scoring output for one case. Created fresh
// per scoring round; no mutation after computation.
type Assessment struct {
	Case string `json:"case"`

	// Raw factor scores
	C           float64 `json:"c"`
	E           float64 `json:"e"`
	PRaw        float64 `json:"p_raw"`
	FlightDelta float64 `json:"flight_delta"`
	PFinal      float64 `json:"p_final"`

	// Aggregate statistics
	SOP float64 `json:"sop"`
	NHP float64 `json:"nhp"`

	// Posterior outputs
	PEGivenNH float64 `json:"p_e_given_nh"`
	PEGivenH  float64 `json:"p_e_given_h"`
	Posterior float64 `json:"posterior_nh"`

	// Provenance
	PriorNH  float64   `json:"prior_nh"`
	Manual   bool      `json:"manual"` // SOP/NHP entered directly
	ScoredAt time.Time `json:"scored_at"`
}

// Fuse combines the factor scores into SOP and NHP and runs the Bayesian
// update. SOP uses the unadjusted physical score; NHP uses the
// flight-adjusted one. This dual computation is what lets flight-anomaly
// evidence inflate the anomalous-hypothesis score without inflating the
// baseline.
func Fuse(params Params, caseName string, c, e, pRaw, pFinal float64) Assessment {
	sop := probmath.Round2(params.WeightC*c + params.WeightE*e + params.WeightP*pRaw)
	nhp := probmath.Round2(params.WeightC*c + params.WeightE*e + params.WeightP*pFinal)

	a := fuseStatistics(params, caseName, sop, nhp)
	a.C = c
	a.E = e
	a.PRaw = pRaw
	a.PFinal = pFinal
	return a
}

// FuseDirect runs the Bayesian update for an operator-supplied SOP/NHP
// pair, bypassing factor scoring.
func FuseDirect(params Params, caseName string, sop, nhp float64) Assessment {
	a := fuseStatistics(params, caseName, sop, nhp)
	a.Manual = true
	return a
}

func fuseStatistics(params Params, caseName string, sop, nhp float64) Assessment {
	nhp = probmath.Round2(nhp)
	pEGivenNH := nhp
	pEGivenH := probmath.Round2(probmath.Clamp(1 - nhp + params.CalibrationK*sop))

	return Assessment{
		Case:      caseName,
		SOP:       sop,
		NHP:       nhp,
		PEGivenNH: pEGivenNH,
		PEGivenH:  pEGivenH,
		Posterior: probmath.Posterior(pEGivenNH, pEGivenH, params.PriorNH),
		PriorNH:   params.PriorNH,
		ScoredAt:  time.Now(),
	}
}
