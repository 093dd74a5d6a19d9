package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// QueueFilter describes query string filters for the moderation queue.
type QueueFilter struct {
	Status     *string `query:"status" validate:"omitempty,oneof=pending_assignment assigned in_review escalated completed"`
	Priority   *string `query:"priority" validate:"omitempty,oneof=normal high urgent"`
	AssignedMe bool    `query:"assigned_me"`
	Unassigned bool    `query:"unassigned"`
	Page       int     `query:"page" validate:"omitempty,gte=1"`
	PageSize   int     `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// DecisionRequest carries a moderator's verdict for a ticket.
type DecisionRequest struct {
	Decision                 string   `json:"decision" validate:"required,oneof=approved rejected request_changes escalate"`
	OverallRating            *float64 `json:"overall_rating" validate:"omitempty,gte=0,lte=5"`
	ContentQualityRating     *float64 `json:"content_quality_rating" validate:"omitempty,gte=0,lte=5"`
	EducationalValueRating   *float64 `json:"educational_value_rating" validate:"omitempty,gte=0,lte=5"`
	SafetyRating             *float64 `json:"safety_rating" validate:"omitempty,gte=0,lte=5"`
	AgeAppropriatenessRating *float64 `json:"age_appropriateness_rating" validate:"omitempty,gte=0,lte=5"`
	PublicFeedback           string   `json:"public_feedback" validate:"max=2000"`
	PrivateNotes             string   `json:"private_notes" validate:"max=2000"`
	SuggestedChanges         string   `json:"suggested_changes" validate:"max=2000"`
	FlaggedIssues            []string `json:"flagged_issues" validate:"max=20"`
	GuidelineViolations      []string `json:"guideline_violations" validate:"max=20"`
	SafetyConcerns           []string `json:"safety_concerns" validate:"max=20"`
	RequiresCreatorAction    bool     `json:"requires_creator_action"`
	AutoResubmit             bool     `json:"auto_resubmit"`
}

// EscalateRequest explains why a ticket needs senior attention.
type EscalateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// TicketResponse serializes a moderation queue ticket.
type TicketResponse struct {
	ID                    uuid.UUID  `json:"id"`
	SubmissionID          uuid.UUID  `json:"submission_id"`
	AssignedModeratorID   *uuid.UUID `json:"assigned_moderator_id"`
	Status                string     `json:"status"`
	PriorityLevel         string     `json:"priority_level"`
	ReviewStartedAt       *time.Time `json:"review_started_at"`
	EstimatedCompletionAt *time.Time `json:"estimated_completion_at"`
	ActualCompletionAt    *time.Time `json:"actual_completion_at"`
	Escalated             bool       `json:"escalated"`
	EscalationReason      string     `json:"escalation_reason,omitempty"`
	ReviewDurationMinutes *int       `json:"review_duration_minutes"`
	TimeInQueueMinutes    int64      `json:"time_in_queue_minutes"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TicketListResponse wraps a paginated queue listing.
type TicketListResponse struct {
	Items    []TicketResponse `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// DecisionResponse serializes a recorded moderation decision.
type DecisionResponse struct {
	ID                       uuid.UUID  `json:"id"`
	SubmissionID             uuid.UUID  `json:"submission_id"`
	TicketID                 *uuid.UUID `json:"ticket_id"`
	ModeratorID              uuid.UUID  `json:"moderator_id"`
	ModeratorLevel           string     `json:"moderator_level"`
	Decision                 string     `json:"decision"`
	OverallRating            *float64   `json:"overall_rating"`
	ContentQualityRating     *float64   `json:"content_quality_rating"`
	EducationalValueRating   *float64   `json:"educational_value_rating"`
	SafetyRating             *float64   `json:"safety_rating"`
	AgeAppropriatenessRating *float64   `json:"age_appropriateness_rating"`
	PublicFeedback           string     `json:"public_feedback"`
	PrivateNotes             string     `json:"private_notes,omitempty"`
	SuggestedChanges         string     `json:"suggested_changes"`
	FlaggedIssues            []string   `json:"flagged_issues"`
	GuidelineViolations      []string   `json:"guideline_violations"`
	SafetyConcerns           []string   `json:"safety_concerns"`
	RequiresCreatorAction    bool       `json:"requires_creator_action"`
	AutoResubmit             bool       `json:"auto_resubmit"`
	CreatedAt                time.Time  `json:"created_at"`
}

// QueueSummaryResponse aggregates the moderation queue state.
type QueueSummaryResponse struct {
	TotalOpen          int64            `json:"total_open"`
	CountsByStatus     map[string]int64 `json:"counts_by_status"`
	CountsByPriority   map[string]int64 `json:"counts_by_priority"`
	AverageWaitMinutes float64          `json:"average_wait_minutes"`
	OldestWaitMinutes  int64            `json:"oldest_wait_minutes"`
}

// WorkloadResponse reports a moderator's current load and recent throughput.
type WorkloadResponse struct {
	AssignedCount        int64   `json:"assigned_count"`
	InReviewCount        int64   `json:"in_review_count"`
	CompletedToday       int64   `json:"completed_today"`
	AverageReviewMinutes float64 `json:"average_review_minutes"`
}

// NewTicketResponse converts a ticket model into a DTO, deriving time in
// queue at the supplied instant.
func NewTicketResponse(model models.ModerationQueueTicket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:                    model.ID,
		SubmissionID:          model.SubmissionID,
		AssignedModeratorID:   model.AssignedModeratorID,
		Status:                string(model.Status),
		PriorityLevel:         string(model.PriorityLevel),
		ReviewStartedAt:       model.ReviewStartedAt,
		EstimatedCompletionAt: model.EstimatedCompletionAt,
		ActualCompletionAt:    model.ActualCompletionAt,
		Escalated:             model.Escalated,
		EscalationReason:      model.EscalationReason,
		ReviewDurationMinutes: model.ReviewDurationMinutes,
		TimeInQueueMinutes:    int64(model.TimeInQueue(now).Minutes()),
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// NewTicketResponseSlice converts a slice of ticket models.
func NewTicketResponseSlice(items []models.ModerationQueueTicket, now time.Time) []TicketResponse {
	responses := make([]TicketResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewTicketResponse(item, now))
	}
	return responses
}

// NewDecisionResponse converts a decision model into a DTO.
func NewDecisionResponse(model models.ModerationDecision) DecisionResponse {
	response := DecisionResponse{
		ID:                       model.ID,
		SubmissionID:             model.SubmissionID,
		TicketID:                 model.TicketID,
		ModeratorID:              model.ModeratorID,
		ModeratorLevel:           model.ModeratorLevel,
		Decision:                 string(model.Decision),
		OverallRating:            ratingValue(model.OverallRating),
		ContentQualityRating:     ratingValue(model.ContentQualityRating),
		EducationalValueRating:   ratingValue(model.EducationalValueRating),
		SafetyRating:             ratingValue(model.SafetyRating),
		AgeAppropriatenessRating: ratingValue(model.AgeAppropriatenessRating),
		PublicFeedback:           model.PublicFeedback,
		PrivateNotes:             model.PrivateNotes,
		SuggestedChanges:         model.SuggestedChanges,
		FlaggedIssues:            model.FlaggedIssues,
		SafetyConcerns:           model.SafetyConcerns,
		RequiresCreatorAction:    model.RequiresCreatorAction,
		AutoResubmit:             model.AutoResubmit,
		CreatedAt:                model.CreatedAt,
	}

	if len(model.GuidelineViolations) > 0 {
		var violations []string
		if err := json.Unmarshal(model.GuidelineViolations, &violations); err == nil {
			response.GuidelineViolations = violations
		}
	}

	return response
}

func ratingValue(r *models.Rating) *float64 {
	if r == nil {
		return nil
	}
	v := r.Float64()
	return &v
}
