// Package policy provides triage governance over scored case assessments.
// Built-in threshold rules decide whether a case passes, needs analyst
// review, or escalates; rego.go adds an optional OPA policies directory.
package policy

import (
	"context"
	"fmt"
	"time"

	"aerial-triage/internal/fusion"
)

// RuleType defines the type of triage rule.
type RuleType string

const (
	RuleTypePosteriorEscalation RuleType = "posterior_escalation"
	RuleTypeEvidenceFloor       RuleType = "evidence_floor"
	RuleTypeManualEntry         RuleType = "manual_entry"
	RuleTypeCustom              RuleType = "custom"
)

// Severity defines rule violation severity.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Decision is the triage outcome for a case.
type Decision string

const (
	DecisionPass     Decision = "pass"
	DecisionReview   Decision = "review"
	DecisionEscalate Decision = "escalate"
)

// Rule defines a governance rule over assessments.
type Rule struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        RuleType `json:"type"`
	Severity    Severity `json:"severity"`
	Threshold   float64  `json:"threshold"`
	Enabled     bool     `json:"enabled"`
}

// Finding represents a triggered rule.
type Finding struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Evaluation contains the triage outcome for one assessment.
type Evaluation struct {
	Decision    Decision  `json:"decision"`
	Findings    []Finding `json:"findings"`
	Warnings    []Finding `json:"warnings"`
	RulesRan    int       `json:"rules_ran"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Engine evaluates triage rules against assessments.
type Engine struct {
	rules []Rule
	rego  *RegoEvaluator
}

// NewEngine creates an engine with the default rule set.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// WithRegoDir configures an OPA policies directory.
func (e *Engine) WithRegoDir(dir string) *Engine {
	e.rego = NewRegoEvaluator(dir)
	return e
}

// AddRule adds a custom rule.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

// Evaluate runs all enabled rules against the assessment.
func (e *Engine) Evaluate(ctx context.Context, a fusion.Assessment) (*Evaluation, error) {
	result := &Evaluation{
		Decision:    DecisionPass,
		Findings:    make([]Finding, 0),
		Warnings:    make([]Finding, 0),
		EvaluatedAt: time.Now(),
	}

	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}

		result.RulesRan++
		finding, warning := e.evaluateRule(rule, a)

		if finding != nil {
			result.Findings = append(result.Findings, *finding)
			if rule.Severity == SeverityError {
				result.Decision = DecisionEscalate
			} else if result.Decision != DecisionEscalate {
				result.Decision = DecisionReview
			}
		}

		if warning != nil {
			result.Warnings = append(result.Warnings, *warning)
			if result.Decision == DecisionPass {
				result.Decision = DecisionReview
			}
		}
	}

	if e.rego != nil {
		regoResult, err := e.rego.Evaluate(ctx, a)
		if err == nil && regoResult != nil {
			result.Findings = append(result.Findings, regoResult.Findings...)
			result.Warnings = append(result.Warnings, regoResult.Warnings...)
			if len(regoResult.Findings) > 0 {
				result.Decision = DecisionEscalate
			}
		}
	}

	return result, nil
}

func (e *Engine) evaluateRule(r Rule, a fusion.Assessment) (*Finding, *Finding) {
	switch r.Type {
	case RuleTypePosteriorEscalation:
		if a.Posterior >= r.Threshold {
			return &Finding{
				RuleID:   r.ID,
				RuleName: r.Name,
				Message:  fmt.Sprintf("Posterior NH (%.2f) at or above escalation threshold (%.2f)", a.Posterior, r.Threshold),
				Severity: string(r.Severity),
			}, nil
		}

	case RuleTypeEvidenceFloor:
		if !a.Manual && a.NHP < r.Threshold {
			return nil, &Finding{
				RuleID:  r.ID,
				Message: fmt.Sprintf("NHP evidence score (%.2f) below floor (%.2f); case unlikely to justify follow-up", a.NHP, r.Threshold),
			}
		}

	case RuleTypeManualEntry:
		if a.Manual {
			return nil, &Finding{
				RuleID:  r.ID,
				Message: "SOP/NHP entered directly; factor scores unavailable for audit",
			}
		}
	}

	return nil, nil
}

func defaultRules() []Rule {
	return []Rule{
		{
			ID:          "default-escalation",
			Name:        "Posterior Escalation",
			Description: "Escalate cases whose posterior NH probability reaches 0.50",
			Type:        RuleTypePosteriorEscalation,
			Severity:    SeverityError,
			Threshold:   0.50,
			Enabled:     true,
		},
		{
			ID:          "default-evidence-floor",
			Name:        "Evidence Floor",
			Description: "Flag cases with an NHP score below 0.20",
			Type:        RuleTypeEvidenceFloor,
			Severity:    SeverityWarning,
			Threshold:   0.20,
			Enabled:     true,
		},
		{
			ID:          "manual-entry-audit",
			Name:        "Manual Entry Audit",
			Description: "Flag direct SOP/NHP entry for audit",
			Type:        RuleTypeManualEntry,
			Severity:    SeverityInfo,
			Threshold:   0,
			Enabled:     true,
		},
	}
}
