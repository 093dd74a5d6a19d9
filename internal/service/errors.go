package service

import "errors"

// Sentinel errors surfaced by the pipeline services. Handlers map these onto
// HTTP status codes.
var (
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrScorecardNotFound       = errors.New("no validation scorecard recorded for submission")
	ErrTicketNotFound          = errors.New("moderation ticket not found")
	ErrNotSubmissionOwner      = errors.New("submission belongs to another creator")
	ErrNotAssignedModerator    = errors.New("ticket is assigned to another moderator")
	ErrSubmissionNotEditable   = errors.New("submission cannot be edited in its current state")
	ErrSubmissionNotDeletable  = errors.New("submission cannot be deleted in its current state")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidAgeRange         = errors.New("age range minimum must be below maximum")
	ErrMissingContentData      = errors.New("submission has no content to review")
	ErrMissingEducationalGoals = errors.New("at least one educational goal is required")
	ErrTicketAlreadyAssigned   = errors.New("ticket is already assigned")
	ErrReviewNotStartable      = errors.New("review cannot be started for this ticket")
	ErrTicketClosed            = errors.New("ticket is already completed")
	ErrInvalidDecision         = errors.New("unknown moderation decision")
	ErrPublicFeedbackRequired  = errors.New("public feedback is required when rejecting")
	ErrPrivateNotesRequired    = errors.New("private notes are required when escalating")
)
