package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ValidatorVersion tags scorecards with the rule-engine revision that produced them.
const ValidatorVersion = "1.0"

// ValidationScorecard records the automated validator's output for one submit attempt.
// It is written once at the submit boundary and never mutated afterwards.
type ValidationScorecard struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`

	ValidatorVersion string    `gorm:"size:16;not null" json:"validator_version"`
	ValidatedAt      time.Time `gorm:"not null" json:"validated_at"`

	LanguageAppropriatenessScore Score `json:"language_appropriateness_score"`
	ContentSafetyScore           Score `json:"content_safety_score"`
	AgeAppropriatenessScore      Score `json:"age_appropriateness_score"`
	ReadabilityScore             Score `json:"readability_score"`
	GrammarScore                 Score `json:"grammar_score"`
	EducationalValueScore        Score `json:"educational_value_score"`
	OverallScore                 Score `json:"overall_score"`

	FlaggedWordsRaw     string         `gorm:"column:flagged_words;type:text" json:"-"`
	SafetyIssues        datatypes.JSON `gorm:"type:json" json:"safety_issues"`
	QualityIssues       datatypes.JSON `gorm:"type:json" json:"quality_issues"`
	Suggestions         datatypes.JSON `gorm:"type:json" json:"suggestions"`
	ValidationErrorsRaw string         `gorm:"column:validation_errors;type:text" json:"-"`

	PassedAutomatedChecks bool `gorm:"not null" json:"passed_automated_checks"`
	RequiresHumanReview   bool `gorm:"not null" json:"requires_human_review"`

	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`

	FlaggedWords     []string `gorm:"-" json:"flagged_words"`
	ValidationErrors []string `gorm:"-" json:"validation_errors"`
}

// BeforeCreate assigns an identifier and serialises list fields.
func (v *ValidationScorecard) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.FlaggedWordsRaw = encodeList(v.FlaggedWords)
	v.ValidationErrorsRaw = encodeList(v.ValidationErrors)
	return nil
}

// AfterFind hydrates list fields after loading from the database.
func (v *ValidationScorecard) AfterFind(tx *gorm.DB) error {
	v.FlaggedWords = decodeList(v.FlaggedWordsRaw)
	v.ValidationErrors = decodeList(v.ValidationErrorsRaw)
	return nil
}
