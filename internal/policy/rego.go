package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/rego"

	"aerial-triage/internal/fusion"
)

// RegoEvaluator runs OPA policies from a directory of *.rego files
// against assessment results. Policies contribute to the `triage`
// package: `data.triage.deny` escalates, `data.triage.warn` flags.
type RegoEvaluator struct {
	policiesDir string
}

func NewRegoEvaluator(policiesDir string) *RegoEvaluator {
	return &RegoEvaluator{policiesDir: policiesDir}
}

// Evaluate runs every policy file against the assessment.
func (e *RegoEvaluator) Evaluate(ctx context.Context, a fusion.Assessment) (*Evaluation, error) {
	result := &Evaluation{
		Decision: DecisionPass,
		Findings: []Finding{},
		Warnings: []Finding{},
	}

	input := map[string]any{
		"case":         a.Case,
		"c":            a.C,
		"e":            a.E,
		"p_raw":        a.PRaw,
		"p_final":      a.PFinal,
		"sop":          a.SOP,
		"nhp":          a.NHP,
		"posterior_nh": a.Posterior,
		"prior_nh":     a.PriorNH,
		"manual":       a.Manual,
	}

	files, err := filepath.Glob(filepath.Join(e.policiesDir, "*.rego"))
	if err != nil || len(files) == 0 {
		return result, nil
	}

	for _, file := range files {
		policy, err := os.ReadFile(file)
		if err != nil {
			continue
		}

		denials, err := e.evalQuery(ctx, string(policy), "data.triage.deny", input)
		if err == nil {
			for _, msg := range denials {
				result.Findings = append(result.Findings, Finding{
					RuleID:   "rego:" + filepath.Base(file),
					RuleName: "OPA policy",
					Message:  msg,
					Severity: string(SeverityError),
				})
			}
		}

		warnings, err := e.evalQuery(ctx, string(policy), "data.triage.warn", input)
		if err == nil {
			for _, msg := range warnings {
				result.Warnings = append(result.Warnings, Finding{
					RuleID:  "rego:" + filepath.Base(file),
					Message: msg,
				})
			}
		}
	}

	if len(result.Findings) > 0 {
		result.Decision = DecisionEscalate
	} else if len(result.Warnings) > 0 {
		result.Decision = DecisionReview
	}
	return result, nil
}

func (e *RegoEvaluator) evalQuery(ctx context.Context, policy, query string, input map[string]any) ([]string, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("policy.rego", policy),
		rego.Input(input),
	)

	rs, err := r.Eval(ctx)
	if err != nil {
		return nil, err
	}

	var messages []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if set, ok := expr.Value.([]interface{}); ok {
				for _, v := range set {
					if msg, ok := v.(string); ok {
						messages = append(messages, msg)
					}
				}
			}
		}
	}
	return messages, nil
}

// ValidatePolicies compiles every policy file, returning the first error.
func (e *RegoEvaluator) ValidatePolicies() error {
	files, err := filepath.Glob(filepath.Join(e.policiesDir, "*.rego"))
	if err != nil {
		return fmt.Errorf("failed to list policies: %w", err)
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		_, err = rego.New(
			rego.Query("data.triage"),
			rego.Module(file, string(content)),
		).PrepareForEval(context.Background())
		if err != nil {
			return fmt.Errorf("invalid policy %s: %w", file, err)
		}
	}
	return nil
}
