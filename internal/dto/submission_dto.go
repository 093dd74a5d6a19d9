package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// SubmissionCreateRequest describes the payload for creating a draft submission.
type SubmissionCreateRequest struct {
	Title                    string                 `json:"title" validate:"required,min=5,max=200"`
	Description              string                 `json:"description" validate:"max=1000"`
	ContentType              string                 `json:"content_type" validate:"required,oneof=story interactive_story educational_activity learning_game"`
	ContentData              map[string]interface{} `json:"content_data"`
	AgeRangeMin              *int                   `json:"age_range_min" validate:"omitempty,gte=24,lte=144"`
	AgeRangeMax              *int                   `json:"age_range_max" validate:"omitempty,gte=24,lte=144"`
	DifficultyLevel          string                 `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	EducationalGoals         []string               `json:"educational_goals" validate:"max=10,dive,min=1,max=100"`
	VocabularyWords          []string               `json:"vocabulary_words" validate:"max=50"`
	LearningObjectives       []string               `json:"learning_objectives" validate:"max=10,dive,min=1,max=200"`
	SearchKeywords           []string               `json:"search_keywords" validate:"max=20"`
	EstimatedDurationMinutes int                    `json:"estimated_duration_minutes" validate:"omitempty,gte=1,lte=300"`
}

// SubmissionUpdateRequest carries a partial edit of a draft submission.
// Nil fields are left untouched.
type SubmissionUpdateRequest struct {
	Title                    *string                `json:"title" validate:"omitempty,min=5,max=200"`
	Description              *string                `json:"description" validate:"omitempty,max=1000"`
	ContentData              map[string]interface{} `json:"content_data"`
	AgeRangeMin              *int                   `json:"age_range_min" validate:"omitempty,gte=24,lte=144"`
	AgeRangeMax              *int                   `json:"age_range_max" validate:"omitempty,gte=24,lte=144"`
	DifficultyLevel          *string                `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	EducationalGoals         []string               `json:"educational_goals" validate:"omitempty,max=10,dive,min=1,max=100"`
	VocabularyWords          []string               `json:"vocabulary_words" validate:"omitempty,max=50"`
	LearningObjectives       []string               `json:"learning_objectives" validate:"omitempty,max=10,dive,min=1,max=200"`
	SearchKeywords           []string               `json:"search_keywords" validate:"omitempty,max=20"`
	EstimatedDurationMinutes *int                   `json:"estimated_duration_minutes" validate:"omitempty,gte=1,lte=300"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	Status      *string `query:"status" validate:"omitempty,oneof=draft submitted_for_review under_review pending_changes approved rejected withdrawn"`
	ContentType *string `query:"content_type" validate:"omitempty,oneof=story interactive_story educational_activity learning_game"`
	Page        int     `query:"page" validate:"omitempty,gte=1"`
	PageSize    int     `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// SubmissionResponse is returned to creators when viewing a submission.
type SubmissionResponse struct {
	ID                       uuid.UUID              `json:"id"`
	CreatorID                uuid.UUID              `json:"creator_id"`
	Title                    string                 `json:"title"`
	Description              string                 `json:"description"`
	ContentType              string                 `json:"content_type"`
	ContentData              map[string]interface{} `json:"content_data,omitempty"`
	AgeRangeMin              int                    `json:"age_range_min"`
	AgeRangeMax              int                    `json:"age_range_max"`
	DifficultyLevel          string                 `json:"difficulty_level"`
	EducationalGoals         []string               `json:"educational_goals"`
	VocabularyWords          []string               `json:"vocabulary_words"`
	LearningObjectives       []string               `json:"learning_objectives"`
	SearchKeywords           []string               `json:"search_keywords"`
	Status                   string                 `json:"status"`
	SubmissionDate           *time.Time             `json:"submission_date"`
	QualityScore             float64                `json:"quality_score"`
	SafetyScore              float64                `json:"safety_score"`
	ReadabilityScore         float64                `json:"readability_score"`
	EducationalValueScore    float64                `json:"educational_value_score"`
	EstimatedDurationMinutes int                    `json:"estimated_duration_minutes"`
	Version                  int                    `json:"version"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
	LastSavedAt              *time.Time             `json:"last_saved_at"`
}

// ScorecardResponse serializes an automated validation scorecard.
type ScorecardResponse struct {
	ID                           uuid.UUID `json:"id"`
	SubmissionID                 uuid.UUID `json:"submission_id"`
	ValidatorVersion             string    `json:"validator_version"`
	ValidatedAt                  time.Time `json:"validated_at"`
	LanguageAppropriatenessScore float64   `json:"language_appropriateness_score"`
	ContentSafetyScore           float64   `json:"content_safety_score"`
	AgeAppropriatenessScore      float64   `json:"age_appropriateness_score"`
	ReadabilityScore             float64   `json:"readability_score"`
	GrammarScore                 float64   `json:"grammar_score"`
	EducationalValueScore        float64   `json:"educational_value_score"`
	OverallScore                 float64   `json:"overall_score"`
	FlaggedWords                 []string  `json:"flagged_words"`
	ValidationErrors             []string  `json:"validation_errors"`
	Suggestions                  []string  `json:"suggestions"`
	PassedAutomatedChecks        bool      `json:"passed_automated_checks"`
	RequiresHumanReview          bool      `json:"requires_human_review"`
	ProcessingTimeMs             int64     `json:"processing_time_ms"`
}

// SubmissionListResponse wraps a paginated submission listing.
type SubmissionListResponse struct {
	Items    []SubmissionResponse `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// CreatorDashboardResponse summarizes a creator's pipeline.
type CreatorDashboardResponse struct {
	StatusCounts   map[string]int64     `json:"status_counts"`
	RecentActivity []SubmissionResponse `json:"recent_activity"`
}

// NewSubmissionResponse converts a ContentSubmission model into a DTO.
func NewSubmissionResponse(model models.ContentSubmission) SubmissionResponse {
	response := SubmissionResponse{
		ID:                       model.ID,
		CreatorID:                model.CreatorID,
		Title:                    model.Title,
		Description:              model.Description,
		ContentType:              string(model.ContentType),
		AgeRangeMin:              model.AgeRangeMin,
		AgeRangeMax:              model.AgeRangeMax,
		DifficultyLevel:          model.DifficultyLevel,
		EducationalGoals:         model.EducationalGoals,
		VocabularyWords:          model.VocabularyWords,
		LearningObjectives:       model.LearningObjectives,
		SearchKeywords:           model.SearchKeywords,
		Status:                   string(model.Status),
		SubmissionDate:           model.SubmissionDate,
		QualityScore:             model.QualityScore.Float64(),
		SafetyScore:              model.SafetyScore.Float64(),
		ReadabilityScore:         model.ReadabilityScore.Float64(),
		EducationalValueScore:    model.EducationalValueScore.Float64(),
		EstimatedDurationMinutes: model.EstimatedDurationMinutes,
		Version:                  model.Version,
		CreatedAt:                model.CreatedAt,
		UpdatedAt:                model.UpdatedAt,
		LastSavedAt:              model.LastSavedAt,
	}

	if len(model.ContentData) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(model.ContentData, &data); err == nil {
			response.ContentData = data
		}
	}

	return response
}

// NewSubmissionResponseSlice converts a slice of models.
func NewSubmissionResponseSlice(items []models.ContentSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionResponse(item))
	}
	return responses
}

// NewScorecardResponse converts a ValidationScorecard model into a DTO.
func NewScorecardResponse(model models.ValidationScorecard) ScorecardResponse {
	response := ScorecardResponse{
		ID:                           model.ID,
		SubmissionID:                 model.SubmissionID,
		ValidatorVersion:             model.ValidatorVersion,
		ValidatedAt:                  model.ValidatedAt,
		LanguageAppropriatenessScore: model.LanguageAppropriatenessScore.Float64(),
		ContentSafetyScore:           model.ContentSafetyScore.Float64(),
		AgeAppropriatenessScore:      model.AgeAppropriatenessScore.Float64(),
		ReadabilityScore:             model.ReadabilityScore.Float64(),
		GrammarScore:                 model.GrammarScore.Float64(),
		EducationalValueScore:        model.EducationalValueScore.Float64(),
		OverallScore:                 model.OverallScore.Float64(),
		FlaggedWords:                 model.FlaggedWords,
		ValidationErrors:             model.ValidationErrors,
		PassedAutomatedChecks:        model.PassedAutomatedChecks,
		RequiresHumanReview:          model.RequiresHumanReview,
		ProcessingTimeMs:             model.ProcessingTimeMs,
	}

	if len(model.Suggestions) > 0 {
		var suggestions []string
		if err := json.Unmarshal(model.Suggestions, &suggestions); err == nil {
			response.Suggestions = suggestions
		}
	}

	return response
}
