package models

// SubmissionStatus is the lifecycle state of a content submission.
type SubmissionStatus string

const (
	StatusDraft              SubmissionStatus = "draft"
	StatusSubmittedForReview SubmissionStatus = "submitted_for_review"
	StatusUnderReview        SubmissionStatus = "under_review"
	StatusPendingChanges     SubmissionStatus = "pending_changes"
	StatusApproved           SubmissionStatus = "approved"
	StatusRejected           SubmissionStatus = "rejected"
	StatusWithdrawn          SubmissionStatus = "withdrawn"
)

// Valid reports whether the status is a known lifecycle state.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmittedForReview, StatusUnderReview,
		StatusPendingChanges, StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Editable reports whether the creator may modify content in this state.
func (s SubmissionStatus) Editable() bool {
	return s == StatusDraft || s == StatusPendingChanges
}

// Deletable reports whether the creator may delete the submission in this state.
func (s SubmissionStatus) Deletable() bool {
	return s == StatusDraft || s == StatusRejected || s == StatusWithdrawn
}

// Terminal reports whether the state admits no further transitions.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusWithdrawn
}

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	StatusDraft:              {StatusSubmittedForReview, StatusWithdrawn},
	StatusSubmittedForReview: {StatusUnderReview, StatusApproved, StatusRejected, StatusPendingChanges, StatusWithdrawn},
	StatusUnderReview:        {StatusApproved, StatusRejected, StatusPendingChanges, StatusWithdrawn},
	StatusPendingChanges:     {StatusSubmittedForReview, StatusWithdrawn},
	StatusRejected:           {StatusSubmittedForReview},
	StatusApproved:           {},
	StatusWithdrawn:          {},
}

// CanTransitionSubmission reports whether a submission may move between the
// two states directly.
func CanTransitionSubmission(from, to SubmissionStatus) bool {
	for _, next := range submissionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// QueueStatus is the workflow state of a moderation queue ticket.
type QueueStatus string

const (
	QueuePendingAssignment QueueStatus = "pending_assignment"
	QueueAssigned          QueueStatus = "assigned"
	QueueInReview          QueueStatus = "in_review"
	QueueEscalated         QueueStatus = "escalated"
	QueueCompleted         QueueStatus = "completed"
)

// Valid reports whether the status is a known queue state.
func (s QueueStatus) Valid() bool {
	switch s {
	case QueuePendingAssignment, QueueAssigned, QueueInReview, QueueEscalated, QueueCompleted:
		return true
	}
	return false
}

// Open reports whether the ticket still needs moderator work.
func (s QueueStatus) Open() bool {
	return s != QueueCompleted
}

var queueTransitions = map[QueueStatus][]QueueStatus{
	QueuePendingAssignment: {QueueAssigned, QueueEscalated, QueueCompleted},
	QueueAssigned:          {QueueInReview, QueueEscalated, QueueCompleted},
	QueueInReview:          {QueueEscalated, QueueCompleted},
	QueueEscalated:         {QueueAssigned, QueueInReview, QueueCompleted},
	QueueCompleted:         {},
}

// CanTransitionQueue reports whether a ticket may move between the two states
// directly.
func CanTransitionQueue(from, to QueueStatus) bool {
	for _, next := range queueTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority orders tickets in the moderation queue.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is a known level.
func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

// Rank maps priorities to their queue sort order; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 3
	default:
		return 4
	}
}

// Decision is a moderator's verdict on a submission.
type Decision string

const (
	DecisionApproved       Decision = "approved"
	DecisionRejected       Decision = "rejected"
	DecisionRequestChanges Decision = "request_changes"
	DecisionEscalate       Decision = "escalate"
)

// Valid reports whether the decision is a known verdict.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionRequestChanges, DecisionEscalate:
		return true
	}
	return false
}

// DecisionOutcome maps a moderation decision to the submission status it
// produces.
func DecisionOutcome(d Decision) (SubmissionStatus, bool) {
	switch d {
	case DecisionApproved:
		return StatusApproved, true
	case DecisionRejected:
		return StatusRejected, true
	case DecisionRequestChanges:
		return StatusPendingChanges, true
	case DecisionEscalate:
		return StatusUnderReview, true
	default:
		return "", false
	}
}

// ContentType classifies a submission's payload.
type ContentType string

const (
	ContentTypeStory               ContentType = "story"
	ContentTypeInteractiveStory    ContentType = "interactive_story"
	ContentTypeEducationalActivity ContentType = "educational_activity"
	ContentTypeLearningGame        ContentType = "learning_game"
)

// Valid reports whether the content type is supported.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeStory, ContentTypeInteractiveStory, ContentTypeEducationalActivity, ContentTypeLearningGame:
		return true
	}
	return false
}

// ParseContentType validates a raw string into a ContentType.
func ParseContentType(raw string) (ContentType, bool) {
	c := ContentType(raw)
	return c, c.Valid()
}
