// Package session drives repeated case assessment: scoring, fusion,
// logging, charting, and triage evaluation for each entered case.
package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"aerial-triage/db/caselog"
	"aerial-triage/internal/chart"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/policy"
	"aerial-triage/internal/rubric"
	"aerial-triage/internal/scoring"
	"aerial-triage/pkg/probmath"
)

// FactorEntry is one factor's resolved rubric selection: the chosen base
// value plus the identifiers of applied modifiers and hard caps. The
// selection mechanism (menus, API payload) lives outside the core.
type FactorEntry struct {
	Base        float64  `json:"base"`
	ModifierIDs []string `json:"modifier_ids,omitempty"`
	CapIDs      []string `json:"cap_ids,omitempty"`
}

// DirectEntry is an operator-supplied SOP/NHP pair, skipping factor scoring.
type DirectEntry struct {
	SOP float64 `json:"sop"`
	NHP float64 `json:"nhp"`
}

// RubricEntry is the full scoring path for one case.
type RubricEntry struct {
	// HasWitness selects rubric scoring for C. Camera/system-only cases
	// score C at the conventional weak-witness default instead.
	HasWitness  bool        `json:"has_witness"`
	Witness     FactorEntry `json:"witness"`
	Environment FactorEntry `json:"environment"`
	Physical    FactorEntry `json:"physical"`
	FlightTier  string      `json:"flight_tier"`
}

// CaseRequest is one case to score: exactly one of Direct or Rubric set.
type CaseRequest struct {
	Name   string       `json:"name"`
	Direct *DirectEntry `json:"direct,omitempty"`
	Rubric *RubricEntry `json:"rubric,omitempty"`
}

// Assess scores one case with the given fusion parameters.
func Assess(params fusion.Params, req CaseRequest) (fusion.Assessment, error) {
	if req.Direct != nil {
		return fusion.FuseDirect(params, req.Name, req.Direct.SOP, req.Direct.NHP), nil
	}
	if req.Rubric == nil {
		return fusion.Assessment{}, fmt.Errorf("case %q: neither direct nor rubric entry supplied", req.Name)
	}

	entry := req.Rubric

	c := probmath.CameraOnlyCredibility
	if entry.HasWitness {
		var err error
		c, err = scoring.ScoreFactor(rubric.Witness(), entry.Witness.Base, entry.Witness.ModifierIDs, entry.Witness.CapIDs)
		if err != nil {
			return fusion.Assessment{}, err
		}
	}

	e, err := scoring.ScoreFactor(rubric.Environment(), entry.Environment.Base, entry.Environment.ModifierIDs, entry.Environment.CapIDs)
	if err != nil {
		return fusion.Assessment{}, err
	}

	pRaw, err := scoring.ScoreFactor(rubric.Physical(), entry.Physical.Base, entry.Physical.ModifierIDs, entry.Physical.CapIDs)
	if err != nil {
		return fusion.Assessment{}, err
	}

	tier, err := rubric.Tier(entry.FlightTier)
	if err != nil {
		return fusion.Assessment{}, err
	}
	pFinal := scoring.ApplyFlightAdjustment(pRaw, tier)

	a := fusion.Fuse(params, req.Name, c, e, pRaw, pFinal)
	a.FlightDelta = tier.Delta
	return a, nil
}

// CaseSource supplies cases for a scoring session. TweakParams is called
// exactly once, before any case is scored; Next returns nil when the
// session is over.
type CaseSource interface {
	TweakParams(defaults fusion.Params) (fusion.Params, error)
	Next() (*CaseRequest, error)
}

// Runner orchestrates a scoring session: each assessment is computed
// start-to-finish, logged, charted, and triaged before the next begins.
type Runner struct {
	Store    caselog.Store
	Charts   *chart.Renderer
	Policies *policy.Engine
	OnResult func(a fusion.Assessment, eval *policy.Evaluation)
	Log      zerolog.Logger
}

// Run drives the session until the source is exhausted. Parameters are
// fixed after the one-time tweak step and threaded into every call.
func (r *Runner) Run(ctx context.Context, source CaseSource) error {
	params, err := source.TweakParams(fusion.DefaultParams())
	if err != nil {
		return fmt.Errorf("parameter tweak failed: %w", err)
	}
	params = params.Normalized()

	for {
		req, err := source.Next()
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}

		a, err := Assess(params, *req)
		if err != nil {
			return err
		}

		if err := r.Store.Append(ctx, caselog.RowFromAssessment(a)); err != nil {
			return fmt.Errorf("failed to log case %q: %w", a.Case, err)
		}

		if r.Charts != nil {
			if path, err := r.Charts.Render(a); err != nil {
				r.Log.Warn().Err(err).Str("case", a.Case).Msg("Chart rendering failed")
			} else {
				r.Log.Debug().Str("chart", path).Msg("Chart saved")
			}
		}

		var eval *policy.Evaluation
		if r.Policies != nil {
			eval, err = r.Policies.Evaluate(ctx, a)
			if err != nil {
				r.Log.Warn().Err(err).Str("case", a.Case).Msg("Triage evaluation failed")
			}
		}

		r.Log.Info().
			Str("case", a.Case).
			Float64("sop", a.SOP).
			Float64("nhp", a.NHP).
			Float64("posterior_nh", a.Posterior).
			Msg("Case scored")

		if r.OnResult != nil {
			r.OnResult(a, eval)
		}
	}
}
