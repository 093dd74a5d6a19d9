package validation

import (
	"fmt"
	"strings"
)

// RuleError describes a single content rule violation in creator-readable form.
type RuleError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e RuleError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error aggregates every rule violation from a single validation pass.
// The submit boundary returns it whole so the creator sees the complete
// picture instead of the first failure.
type Error struct {
	Violations []RuleError
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "content validation failed"
	}
	messages := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		messages = append(messages, violation.Error())
	}
	return "content validation failed: " + strings.Join(messages, "; ")
}

// Messages returns the violation texts in order.
func (e *Error) Messages() []string {
	messages := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		messages = append(messages, violation.Error())
	}
	return messages
}

// Report is the outcome of one full validation pass over a submission.
// Scores are computed even when structural checks fail.
type Report struct {
	LanguageAppropriatenessScore float64
	ContentSafetyScore           float64
	AgeAppropriatenessScore      float64
	ReadabilityScore             float64
	GrammarScore                 float64
	EducationalValueScore        float64
	OverallScore                 float64

	FlaggedWords []string
	Violations   []RuleError
	Suggestions  []string

	PassedAutomatedChecks bool
	RequiresHumanReview   bool
}

// Err returns the aggregated violation error, or nil when the pass succeeded.
func (r Report) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	return &Error{Violations: r.Violations}
}
