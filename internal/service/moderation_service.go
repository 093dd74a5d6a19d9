package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/patrykpoborca/wondernest-go-api/internal/dto"
	"github.com/patrykpoborca/wondernest-go-api/internal/events"
	"github.com/patrykpoborca/wondernest-go-api/internal/models"
	"github.com/patrykpoborca/wondernest-go-api/internal/observability"
	"github.com/patrykpoborca/wondernest-go-api/internal/repository"
	"github.com/patrykpoborca/wondernest-go-api/internal/validation"
)

const queueSummaryCacheKey = "moderation:queue:summary"

// ModerationService orchestrates the reviewer side of the pipeline: the
// queue, assignment, escalation and decision recording.
type ModerationService interface {
	TicketOpener

	Queue(ctx context.Context, moderatorID uuid.UUID, filter dto.QueueFilter) (dto.TicketListResponse, error)
	Ticket(ctx context.Context, ticketID uuid.UUID) (dto.TicketResponse, error)
	Assign(ctx context.Context, ticketID, moderatorID uuid.UUID) (dto.TicketResponse, error)
	StartReview(ctx context.Context, ticketID, moderatorID uuid.UUID) (dto.TicketResponse, error)
	SubmitDecision(ctx context.Context, ticketID, moderatorID uuid.UUID, moderatorLevel string, payload dto.DecisionRequest) (dto.DecisionResponse, error)
	Escalate(ctx context.Context, ticketID, moderatorID uuid.UUID, payload dto.EscalateRequest) (dto.TicketResponse, error)
	Decisions(ctx context.Context, submissionID uuid.UUID) ([]dto.DecisionResponse, error)
	Summary(ctx context.Context) (dto.QueueSummaryResponse, error)
	Workload(ctx context.Context, moderatorID uuid.UUID) (dto.WorkloadResponse, error)
}

type moderationService struct {
	queue       repository.QueueRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	publisher   *events.Publisher
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time

	safetyThreshold float64
	reviewEstimate  time.Duration
}

// ModerationConfig tunes queue behaviour.
type ModerationConfig struct {
	// SafetyThreshold is the content safety score below which tickets get
	// elevated priority. Scores below half of it become urgent.
	SafetyThreshold float64
	// ReviewEstimate is the expected review turnaround used for the
	// estimated completion timestamp at assignment.
	ReviewEstimate time.Duration
	// SummaryCacheTTL bounds staleness of the cached queue summary.
	SummaryCacheTTL time.Duration
}

// NewModerationService constructs a ModerationService instance.
func NewModerationService(queue repository.QueueRepository, submissions repository.SubmissionRepository, cache *redis.Client, cfg ModerationConfig, validate *validator.Validate, publisher *events.Publisher, logger zerolog.Logger) ModerationService {
	if cfg.SafetyThreshold <= 0 {
		cfg.SafetyThreshold = 70
	}
	if cfg.ReviewEstimate <= 0 {
		cfg.ReviewEstimate = 2 * time.Hour
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = time.Minute
	}

	return &moderationService{
		queue:           queue,
		submissions:     submissions,
		cache:           cache,
		cacheTTL:        cfg.SummaryCacheTTL,
		validator:       validate,
		publisher:       publisher,
		tracer:          otel.Tracer("github.com/patrykpoborca/wondernest-go-api/internal/service/moderation"),
		logger:          logger.With().Str("component", "moderation_service").Logger(),
		now:             time.Now,
		safetyThreshold: cfg.SafetyThreshold,
		reviewEstimate:  cfg.ReviewEstimate,
	}
}

// OpenTicket places a freshly submitted piece of content in the queue. Low
// safety scores and flagged words elevate priority so the riskiest content
// is reviewed first. Resubmissions reuse the completed ticket row.
func (s *moderationService) OpenTicket(ctx context.Context, submission models.ContentSubmission, report validation.Report) (models.ModerationQueueTicket, error) {
	priority := models.PriorityNormal
	switch {
	case report.ContentSafetyScore < s.safetyThreshold/2:
		priority = models.PriorityUrgent
	case report.ContentSafetyScore < s.safetyThreshold || len(report.FlaggedWords) > 0:
		priority = models.PriorityHigh
	}

	existing, err := s.queue.GetBySubmissionID(ctx, submission.ID)
	switch {
	case err == nil && existing.Status.Open():
		return existing, nil
	case err == nil:
		existing.Status = models.QueuePendingAssignment
		existing.PriorityLevel = priority
		existing.AssignedModeratorID = nil
		existing.ReviewStartedAt = nil
		existing.EstimatedCompletionAt = nil
		existing.ActualCompletionAt = nil
		existing.Escalated = false
		existing.EscalationReason = ""
		existing.ReviewDurationMinutes = nil
		if err := s.queue.UpdateTicket(ctx, &existing); err != nil {
			return models.ModerationQueueTicket{}, err
		}
		s.invalidateSummary(ctx)
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.ModerationQueueTicket{}, err
	}

	ticket := models.ModerationQueueTicket{
		SubmissionID:  submission.ID,
		Status:        models.QueuePendingAssignment,
		PriorityLevel: priority,
	}
	if err := s.queue.CreateTicket(ctx, &ticket); err != nil {
		return models.ModerationQueueTicket{}, err
	}

	s.invalidateSummary(ctx)
	return ticket, nil
}

// CloseForSubmission completes the open ticket for a withdrawn submission.
func (s *moderationService) CloseForSubmission(ctx context.Context, submissionID uuid.UUID) error {
	ticket, err := s.queue.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if !ticket.Status.Open() {
		return nil
	}

	if _, err := s.queue.Complete(ctx, ticket.ID, s.now().UTC(), nil); err != nil {
		return err
	}

	s.invalidateSummary(ctx)
	return nil
}

func (s *moderationService) Queue(ctx context.Context, moderatorID uuid.UUID, filter dto.QueueFilter) (dto.TicketListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.TicketListResponse{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	repoFilter := repository.QueueFilter{
		Unassigned: filter.Unassigned,
		Page:       page,
		PageSize:   pageSize,
	}
	if filter.Status != nil {
		status := models.QueueStatus(*filter.Status)
		repoFilter.Status = &status
	}
	if filter.Priority != nil {
		priority := models.Priority(*filter.Priority)
		repoFilter.Priority = &priority
	}
	if filter.AssignedMe {
		repoFilter.AssignedModeratorID = &moderatorID
	}

	tickets, total, err := s.queue.List(ctx, repoFilter)
	if err != nil {
		return dto.TicketListResponse{}, err
	}

	return dto.TicketListResponse{
		Items:    dto.NewTicketResponseSlice(tickets, s.now()),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *moderationService) Ticket(ctx context.Context, ticketID uuid.UUID) (dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	return dto.NewTicketResponse(ticket, s.now()), nil
}

// Assign claims a ticket for a moderator. The conditional update in the
// repository decides races: exactly one concurrent claim succeeds.
func (s *moderationService) Assign(ctx context.Context, ticketID, moderatorID uuid.UUID) (dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return dto.TicketResponse{}, err
	}
	if !ticket.Status.Open() {
		return dto.TicketResponse{}, ErrTicketClosed
	}

	claimed, err := s.queue.Assign(ctx, ticketID, moderatorID, s.now().Add(s.reviewEstimate).UTC())
	if err != nil {
		return dto.TicketResponse{}, err
	}
	if !claimed {
		return dto.TicketResponse{}, ErrTicketAlreadyAssigned
	}

	ticket, err = s.getTicket(ctx, ticketID)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	s.invalidateSummary(ctx)
	s.logger.Info().
		Str("ticket_id", ticketID.String()).
		Str("moderator_id", moderatorID.String()).
		Msg("ticket assigned")

	return dto.NewTicketResponse(ticket, s.now()), nil
}

func (s *moderationService) StartReview(ctx context.Context, ticketID, moderatorID uuid.UUID) (dto.TicketResponse, error) {
	started, err := s.queue.StartReview(ctx, ticketID, moderatorID, s.now().UTC())
	if err != nil {
		return dto.TicketResponse{}, err
	}

	ticket, terr := s.getTicket(ctx, ticketID)
	if terr != nil {
		return dto.TicketResponse{}, terr
	}

	if !started {
		switch {
		case !ticket.Status.Open():
			return dto.TicketResponse{}, ErrTicketClosed
		case ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID:
			return dto.TicketResponse{}, ErrNotAssignedModerator
		default:
			return dto.TicketResponse{}, ErrReviewNotStartable
		}
	}

	// The submission follows the ticket into active review.
	if submission, err := s.submissions.GetByID(ctx, ticket.SubmissionID); err == nil {
		if models.CanTransitionSubmission(submission.Status, models.StatusUnderReview) {
			if _, err := s.submissions.UpdateStatus(ctx, submission.ID, submission.Status, models.StatusUnderReview); err != nil {
				s.logger.Warn().Err(err).Str("submission_id", submission.ID.String()).Msg("failed to mark submission under review")
			}
		}
	}

	s.invalidateSummary(ctx)
	return dto.NewTicketResponse(ticket, s.now()), nil
}

// SubmitDecision records the verdict, completes the ticket and moves the
// submission to the resulting state. Every precondition is checked before
// anything is written so a rejected request leaves no partial state behind.
func (s *moderationService) SubmitDecision(ctx context.Context, ticketID, moderatorID uuid.UUID, moderatorLevel string, payload dto.DecisionRequest) (dto.DecisionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "moderation.submit_decision")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticket.id", ticketID.String()),
		attribute.String("decision", payload.Decision),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.DecisionResponse{}, err
	}

	decision := models.Decision(payload.Decision)
	outcome, ok := models.DecisionOutcome(decision)
	if !ok {
		return dto.DecisionResponse{}, ErrInvalidDecision
	}
	if decision == models.DecisionRejected && payload.PublicFeedback == "" {
		return dto.DecisionResponse{}, ErrPublicFeedbackRequired
	}
	if decision == models.DecisionEscalate && payload.PrivateNotes == "" {
		return dto.DecisionResponse{}, ErrPrivateNotesRequired
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}
	if !ticket.Status.Open() {
		return dto.DecisionResponse{}, ErrTicketClosed
	}
	if ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID {
		return dto.DecisionResponse{}, ErrNotAssignedModerator
	}

	submission, err := s.submissions.GetByID(ctx, ticket.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DecisionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}

	if moderatorLevel == "" {
		moderatorLevel = "standard"
	}

	record := models.ModerationDecision{
		SubmissionID:             submission.ID,
		TicketID:                 &ticket.ID,
		ModeratorID:              moderatorID,
		ModeratorLevel:           moderatorLevel,
		Decision:                 decision,
		OverallRating:            toRating(payload.OverallRating),
		ContentQualityRating:     toRating(payload.ContentQualityRating),
		EducationalValueRating:   toRating(payload.EducationalValueRating),
		SafetyRating:             toRating(payload.SafetyRating),
		AgeAppropriatenessRating: toRating(payload.AgeAppropriatenessRating),
		PublicFeedback:           payload.PublicFeedback,
		PrivateNotes:             payload.PrivateNotes,
		SuggestedChanges:         payload.SuggestedChanges,
		FlaggedIssues:            payload.FlaggedIssues,
		SafetyConcerns:           payload.SafetyConcerns,
		RequiresCreatorAction:    payload.RequiresCreatorAction,
		AutoResubmit:             payload.AutoResubmit,
	}
	if len(payload.GuidelineViolations) > 0 {
		if data, err := json.Marshal(payload.GuidelineViolations); err == nil {
			record.GuidelineViolations = datatypes.JSON(data)
		}
	}

	// Complete closes the ticket with a conditional update; of two racing
	// decisions only the one that closes it gets to record a verdict.
	now := s.now().UTC()
	duration := reviewDuration(ticket, now)
	completed, err := s.queue.Complete(ctx, ticket.ID, now, duration)
	if err != nil {
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}
	if !completed {
		return dto.DecisionResponse{}, ErrTicketClosed
	}

	if err := s.queue.SaveDecision(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}

	if submission.Status != outcome {
		if models.CanTransitionSubmission(submission.Status, outcome) {
			if _, err := s.submissions.UpdateStatus(ctx, submission.ID, submission.Status, outcome); err != nil {
				span.RecordError(err)
				return dto.DecisionResponse{}, err
			}
			observability.Submissions().WithLabelValues(string(outcome)).Inc()
		} else {
			s.logger.Warn().
				Str("submission_id", submission.ID.String()).
				Str("from", string(submission.Status)).
				Str("to", string(outcome)).
				Msg("decision outcome skipped: transition not allowed")
		}
	}

	observability.Decisions().WithLabelValues(string(decision)).Inc()
	s.publisher.Publish(events.SubjectDecisionRecorded, events.ModerationEvent{
		SubmissionID: submission.ID,
		TicketID:     ticket.ID,
		ModeratorID:  moderatorID,
		Decision:     string(decision),
		OccurredAt:   now,
	})
	s.invalidateSummary(ctx)

	span.SetStatus(codes.Ok, "decision recorded")
	s.logger.Info().
		Str("ticket_id", ticket.ID.String()).
		Str("submission_id", submission.ID.String()).
		Str("decision", string(decision)).
		Msg("moderation decision recorded")

	record.CreatedAt = now
	return dto.NewDecisionResponse(record), nil
}

// Escalate sends the ticket back to the pool at high priority for a senior
// moderator to pick up.
func (s *moderationService) Escalate(ctx context.Context, ticketID, moderatorID uuid.UUID, payload dto.EscalateRequest) (dto.TicketResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TicketResponse{}, err
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return dto.TicketResponse{}, err
	}
	if !ticket.Status.Open() {
		return dto.TicketResponse{}, ErrTicketClosed
	}
	if ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID {
		return dto.TicketResponse{}, ErrNotAssignedModerator
	}

	escalated, err := s.queue.Escalate(ctx, ticketID, moderatorID, payload.Reason)
	if err != nil {
		return dto.TicketResponse{}, err
	}
	if !escalated {
		return dto.TicketResponse{}, ErrTicketClosed
	}

	ticket, err = s.getTicket(ctx, ticketID)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	s.publisher.Publish(events.SubjectTicketEscalated, events.ModerationEvent{
		SubmissionID: ticket.SubmissionID,
		TicketID:     ticket.ID,
		ModeratorID:  moderatorID,
		Reason:       payload.Reason,
		OccurredAt:   s.now().UTC(),
	})
	s.invalidateSummary(ctx)

	s.logger.Info().
		Str("ticket_id", ticketID.String()).
		Str("moderator_id", moderatorID.String()).
		Msg("ticket escalated")

	return dto.NewTicketResponse(ticket, s.now()), nil
}

func (s *moderationService) Decisions(ctx context.Context, submissionID uuid.UUID) ([]dto.DecisionResponse, error) {
	decisions, err := s.queue.DecisionsBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DecisionResponse, 0, len(decisions))
	for _, decision := range decisions {
		responses = append(responses, dto.NewDecisionResponse(decision))
	}

	return responses, nil
}

// Summary aggregates queue state, cached briefly since dashboards poll it.
func (s *moderationService) Summary(ctx context.Context) (dto.QueueSummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "moderation.queue_summary")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, queueSummaryCacheKey).Result()
		if err == nil {
			var response dto.QueueSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				span.SetAttributes(attribute.Bool("summary.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read queue summary cache")
		}
	}

	summary, err := s.queue.Summary(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.QueueSummaryResponse{}, err
	}

	now := s.now()
	response := dto.QueueSummaryResponse{
		TotalOpen:        summary.TotalOpen,
		CountsByStatus:   make(map[string]int64, len(summary.CountsByStatus)),
		CountsByPriority: make(map[string]int64, len(summary.CountsByPriority)),
	}
	for status, count := range summary.CountsByStatus {
		response.CountsByStatus[string(status)] = count
	}
	for priority, count := range summary.CountsByPriority {
		response.CountsByPriority[string(priority)] = count
		observability.QueueDepth().WithLabelValues(string(priority)).Set(float64(count))
	}

	if len(summary.OpenedAt) > 0 {
		var totalWait time.Duration
		oldest := time.Duration(0)
		for _, openedAt := range summary.OpenedAt {
			wait := now.Sub(openedAt)
			if wait < 0 {
				wait = 0
			}
			totalWait += wait
			if wait > oldest {
				oldest = wait
			}
		}
		response.AverageWaitMinutes = totalWait.Minutes() / float64(len(summary.OpenedAt))
		response.OldestWaitMinutes = int64(oldest.Minutes())
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, queueSummaryCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store queue summary cache")
			}
		}
	}

	return response, nil
}

// Workload reports the moderator's active tickets and recent throughput.
func (s *moderationService) Workload(ctx context.Context, moderatorID uuid.UUID) (dto.WorkloadResponse, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	workload, err := s.queue.Workload(ctx, moderatorID, dayStart)
	if err != nil {
		return dto.WorkloadResponse{}, err
	}

	response := dto.WorkloadResponse{
		AssignedCount:  workload.AssignedCount,
		InReviewCount:  workload.InReviewCount,
		CompletedToday: workload.CompletedToday,
	}
	if len(workload.ReviewDurations) > 0 {
		total := 0
		for _, minutes := range workload.ReviewDurations {
			total += minutes
		}
		response.AverageReviewMinutes = float64(total) / float64(len(workload.ReviewDurations))
	}

	return response, nil
}

func (s *moderationService) getTicket(ctx context.Context, ticketID uuid.UUID) (models.ModerationQueueTicket, error) {
	ticket, err := s.queue.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ModerationQueueTicket{}, ErrTicketNotFound
		}
		return models.ModerationQueueTicket{}, err
	}

	return ticket, nil
}

func (s *moderationService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, queueSummaryCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate queue summary cache")
	}
}

func reviewDuration(ticket models.ModerationQueueTicket, completedAt time.Time) *int {
	if ticket.ReviewStartedAt == nil {
		return nil
	}
	minutes := int(completedAt.Sub(*ticket.ReviewStartedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}

func toRating(v *float64) *models.Rating {
	if v == nil {
		return nil
	}
	rating := models.Rating(*v)
	return &rating
}
