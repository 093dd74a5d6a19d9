package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ModerationQueueTicket is a moderation work item, opened 1:1 with a submission
// once it leaves draft state. At most one open ticket exists per submission.
type ModerationQueueTicket struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`

	AssignedModeratorID *uuid.UUID  `gorm:"type:uuid;index" json:"assigned_moderator_id"`
	Status              QueueStatus `gorm:"size:32;not null;index" json:"status"`
	PriorityLevel       Priority    `gorm:"size:16;not null;default:'normal'" json:"priority_level"`

	ReviewStartedAt       *time.Time `json:"review_started_at"`
	EstimatedCompletionAt *time.Time `json:"estimated_completion_at"`
	ActualCompletionAt    *time.Time `json:"actual_completion_at"`

	Escalated        bool   `gorm:"not null;default:false" json:"escalated"`
	EscalationReason string `gorm:"type:text" json:"escalation_reason"`

	ReviewDurationMinutes *int `json:"review_duration_minutes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none is set.
func (t *ModerationQueueTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TimeInQueue returns the duration the ticket has been in the queue,
// measured from creation until completion or the supplied instant.
func (t ModerationQueueTicket) TimeInQueue(now time.Time) time.Duration {
	end := now
	if t.ActualCompletionAt != nil {
		end = *t.ActualCompletionAt
	}
	if end.Before(t.CreatedAt) {
		return 0
	}
	return end.Sub(t.CreatedAt)
}

// ModerationDecision is a moderator's verdict for a submission, recorded once
// per ticket completion. Immutable once created.
type ModerationDecision struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"submission_id"`
	TicketID     *uuid.UUID `gorm:"type:uuid" json:"ticket_id"`

	ModeratorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"moderator_id"`
	ModeratorLevel string    `gorm:"size:32;not null;default:'standard'" json:"moderator_level"`

	Decision Decision `gorm:"size:32;not null" json:"decision"`

	OverallRating            *Rating `json:"overall_rating"`
	ContentQualityRating     *Rating `json:"content_quality_rating"`
	EducationalValueRating   *Rating `json:"educational_value_rating"`
	SafetyRating             *Rating `json:"safety_rating"`
	AgeAppropriatenessRating *Rating `json:"age_appropriateness_rating"`

	PublicFeedback   string `gorm:"type:text" json:"public_feedback"`
	PrivateNotes     string `gorm:"type:text" json:"private_notes"`
	SuggestedChanges string `gorm:"type:text" json:"suggested_changes"`

	FlaggedIssuesRaw    string         `gorm:"column:flagged_issues;type:text" json:"-"`
	GuidelineViolations datatypes.JSON `gorm:"type:json" json:"guideline_violations"`
	SafetyConcernsRaw   string         `gorm:"column:safety_concerns;type:text" json:"-"`

	RequiresCreatorAction bool `gorm:"not null;default:false" json:"requires_creator_action"`
	AutoResubmit          bool `gorm:"not null;default:false" json:"auto_resubmit"`

	CreatedAt time.Time `json:"created_at"`

	FlaggedIssues  []string `gorm:"-" json:"flagged_issues"`
	SafetyConcerns []string `gorm:"-" json:"safety_concerns"`
}

// BeforeCreate assigns an identifier and serialises list fields.
func (d *ModerationDecision) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.FlaggedIssuesRaw = encodeList(d.FlaggedIssues)
	d.SafetyConcernsRaw = encodeList(d.SafetyConcerns)
	return nil
}

// AfterFind hydrates list fields after loading from the database.
func (d *ModerationDecision) AfterFind(tx *gorm.DB) error {
	d.FlaggedIssues = decodeList(d.FlaggedIssuesRaw)
	d.SafetyConcerns = decodeList(d.SafetyConcernsRaw)
	return nil
}
