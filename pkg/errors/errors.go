// Package errors provides severity-aware error types.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// TriageError is a structured error with context.
type TriageError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	CaseName    string   `json:"case_name,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *TriageError) Error() string {
	if e.CaseName != "" {
		return fmt.Sprintf("[%s] %s: %s (case: %s)", e.Severity, e.Code, e.Message, e.CaseName)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeUnknownModifier = "UNKNOWN_MODIFIER"
	ErrCodeUnknownCap      = "UNKNOWN_CAP"
	ErrCodeUnknownTier     = "UNKNOWN_FLIGHT_TIER"
	ErrCodeRubricInvalid   = "RUBRIC_INVALID"
	ErrCodeStoreFailed     = "STORE_FAILED"
	ErrCodeBadInput        = "BAD_INPUT"
)

// NewUnknownModifierError reports a modifier identifier missing from a rubric table.
func NewUnknownModifierError(factor, modifierID string) *TriageError {
	return &TriageError{
		Code:        ErrCodeUnknownModifier,
		Message:     fmt.Sprintf("No %s modifier with identifier: %s", factor, modifierID),
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// NewUnknownCapError reports a hard-cap identifier missing from a rubric table.
func NewUnknownCapError(factor, capID string) *TriageError {
	return &TriageError{
		Code:        ErrCodeUnknownCap,
		Message:     fmt.Sprintf("No %s hard cap with identifier: %s", factor, capID),
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// NewUnknownTierError reports an unrecognized flight-behavior tier.
func NewUnknownTierError(tierID string) *TriageError {
	return &TriageError{
		Code:        ErrCodeUnknownTier,
		Message:     fmt.Sprintf("No flight tier with identifier: %s", tierID),
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// NewStoreError wraps a persistence failure for a specific case.
func NewStoreError(caseName string, err error) *TriageError {
	return &TriageError{
		Code:        ErrCodeStoreFailed,
		Message:     err.Error(),
		Severity:    SeverityError,
		CaseName:    caseName,
		Recoverable: true,
	}
}
