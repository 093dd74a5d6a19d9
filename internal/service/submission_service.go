package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
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

// TicketOpener lets the submission workflow open and close moderation tickets
// without depending on the moderation service directly.
type TicketOpener interface {
	OpenTicket(ctx context.Context, submission models.ContentSubmission, report validation.Report) (models.ModerationQueueTicket, error)
	CloseForSubmission(ctx context.Context, submissionID uuid.UUID) error
}

// SubmissionService orchestrates the creator side of the pipeline: drafting,
// automated validation and handoff to moderation.
type SubmissionService interface {
	Create(ctx context.Context, creatorID uuid.UUID, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Update(ctx context.Context, creatorID, id uuid.UUID, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, error)
	List(ctx context.Context, creatorID uuid.UUID, filter dto.SubmissionFilter) (dto.SubmissionListResponse, error)
	Delete(ctx context.Context, creatorID, id uuid.UUID) error
	SubmitForReview(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, dto.ScorecardResponse, error)
	Withdraw(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, error)
	Scorecard(ctx context.Context, creatorID, id uuid.UUID) (dto.ScorecardResponse, error)
	Dashboard(ctx context.Context, creatorID uuid.UUID) (dto.CreatorDashboardResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	engine      *validation.Validator
	tickets     TicketOpener
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	publisher   *events.Publisher
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(repo repository.SubmissionRepository, engine *validation.Validator, tickets TicketOpener, validate *validator.Validate, publisher *events.Publisher, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: repo,
		engine:      engine,
		tickets:     tickets,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		publisher:   publisher,
		tracer:      otel.Tracer("github.com/patrykpoborca/wondernest-go-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, creatorID uuid.UUID, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	contentType, ok := models.ParseContentType(payload.ContentType)
	if !ok {
		return dto.SubmissionResponse{}, fmt.Errorf("unsupported content type %q", payload.ContentType)
	}

	ageMin := models.DefaultAgeMinMonths
	ageMax := models.DefaultAgeMaxMonths
	if payload.AgeRangeMin != nil {
		ageMin = *payload.AgeRangeMin
	}
	if payload.AgeRangeMax != nil {
		ageMax = *payload.AgeRangeMax
	}
	if ageMin >= ageMax {
		return dto.SubmissionResponse{}, ErrInvalidAgeRange
	}

	contentData, err := marshalContentData(payload.ContentData)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	difficulty := payload.DifficultyLevel
	if difficulty == "" {
		difficulty = "beginner"
	}
	duration := payload.EstimatedDurationMinutes
	if duration == 0 {
		duration = 10
	}

	title := s.sanitizer.Sanitize(payload.Title)
	description := s.sanitizer.Sanitize(payload.Description)
	if err := s.checkDraftText(title, description); err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now().UTC()
	submission := models.ContentSubmission{
		CreatorID:                creatorID,
		Title:                    title,
		Description:              description,
		ContentType:              contentType,
		ContentData:              contentData,
		AgeRangeMin:              ageMin,
		AgeRangeMax:              ageMax,
		DifficultyLevel:          difficulty,
		EducationalGoals:         payload.EducationalGoals,
		VocabularyWords:          payload.VocabularyWords,
		LearningObjectives:       payload.LearningObjectives,
		SearchKeywords:           payload.SearchKeywords,
		Status:                   models.StatusDraft,
		EstimatedDurationMinutes: duration,
		Version:                  1,
		LastSavedAt:              &now,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submission.ID.String()).
		Str("content_type", string(contentType)).
		Msg("draft submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Update(ctx context.Context, creatorID, id uuid.UUID, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.ownedSubmission(ctx, creatorID, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !submission.Status.Editable() {
		return dto.SubmissionResponse{}, ErrSubmissionNotEditable
	}

	if payload.Title != nil {
		submission.Title = s.sanitizer.Sanitize(*payload.Title)
	}
	if payload.Description != nil {
		submission.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.Title != nil || payload.Description != nil {
		if err := s.checkDraftText(submission.Title, submission.Description); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}
	if payload.ContentData != nil {
		contentData, err := marshalContentData(payload.ContentData)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.ContentData = contentData
	}
	if payload.AgeRangeMin != nil {
		submission.AgeRangeMin = *payload.AgeRangeMin
	}
	if payload.AgeRangeMax != nil {
		submission.AgeRangeMax = *payload.AgeRangeMax
	}
	if submission.AgeRangeMin >= submission.AgeRangeMax {
		return dto.SubmissionResponse{}, ErrInvalidAgeRange
	}
	if payload.DifficultyLevel != nil {
		submission.DifficultyLevel = *payload.DifficultyLevel
	}
	if payload.EducationalGoals != nil {
		submission.EducationalGoals = payload.EducationalGoals
	}
	if payload.VocabularyWords != nil {
		submission.VocabularyWords = payload.VocabularyWords
	}
	if payload.LearningObjectives != nil {
		submission.LearningObjectives = payload.LearningObjectives
	}
	if payload.SearchKeywords != nil {
		submission.SearchKeywords = payload.SearchKeywords
	}
	if payload.EstimatedDurationMinutes != nil {
		submission.EstimatedDurationMinutes = *payload.EstimatedDurationMinutes
	}

	now := s.now().UTC()
	submission.LastSavedAt = &now

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, error) {
	submission, err := s.ownedSubmission(ctx, creatorID, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, creatorID uuid.UUID, filter dto.SubmissionFilter) (dto.SubmissionListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	repoFilter := repository.SubmissionFilter{
		CreatorID: &creatorID,
		Page:      page,
		PageSize:  pageSize,
	}
	if filter.Status != nil {
		status := models.SubmissionStatus(*filter.Status)
		repoFilter.Status = &status
	}
	if filter.ContentType != nil {
		contentType := models.ContentType(*filter.ContentType)
		repoFilter.ContentType = &contentType
	}

	submissions, total, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.SubmissionListResponse{
		Items:    dto.NewSubmissionResponseSlice(submissions),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *submissionService) Delete(ctx context.Context, creatorID, id uuid.UUID) error {
	submission, err := s.ownedSubmission(ctx, creatorID, id)
	if err != nil {
		return err
	}

	if !submission.Status.Deletable() {
		return ErrSubmissionNotDeletable
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		return err
	}

	s.logger.Info().Str("submission_id", id.String()).Msg("submission deleted")
	return nil
}

// SubmitForReview runs the automated validation pass and, when it succeeds,
// moves the submission into the moderation queue. A scorecard is persisted
// for every attempt, failed ones included, so creators can see what to fix.
func (s *submissionService) SubmitForReview(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, dto.ScorecardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit_for_review")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id.String()))

	submission, err := s.ownedSubmission(ctx, creatorID, id)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}

	from := submission.Status
	if !models.CanTransitionSubmission(from, models.StatusSubmittedForReview) {
		err := fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, models.StatusSubmittedForReview)
		span.SetStatus(codes.Error, "transition rejected")
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}

	if !submission.HasContentData() {
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, ErrMissingContentData
	}

	if len(submission.EducationalGoals) == 0 {
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, ErrMissingEducationalGoals
	}

	var contentData map[string]interface{}
	if err := json.Unmarshal(submission.ContentData, &contentData); err != nil {
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, fmt.Errorf("malformed content data: %w", err)
	}

	started := s.now()
	report := s.engine.Evaluate(validation.Input{
		ContentType:        submission.ContentType,
		Title:              submission.Title,
		Description:        submission.Description,
		ContentData:        contentData,
		AgeRangeMinMonths:  submission.AgeRangeMin,
		AgeRangeMaxMonths:  submission.AgeRangeMax,
		EducationalGoals:   submission.EducationalGoals,
		VocabularyWords:    submission.VocabularyWords,
		LearningObjectives: submission.LearningObjectives,
	})
	elapsed := s.now().Sub(started)
	observability.ValidationLatency().Observe(elapsed.Seconds())

	scorecard := buildScorecard(submission.ID, report, s.now().UTC(), elapsed)
	if err := s.submissions.SaveScorecard(ctx, scorecard); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}

	if verr := report.Err(); verr != nil {
		observability.ValidationRuns().WithLabelValues(string(submission.ContentType), "failed").Inc()
		span.SetStatus(codes.Error, "validation failed")
		s.logger.Info().
			Str("submission_id", id.String()).
			Int("violations", len(report.Violations)).
			Msg("submission failed automated validation")
		return dto.SubmissionResponse{}, dto.NewScorecardResponse(*scorecard), verr
	}
	observability.ValidationRuns().WithLabelValues(string(submission.ContentType), "passed").Inc()

	changed, err := s.submissions.UpdateStatus(ctx, submission.ID, from, models.StatusSubmittedForReview)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}
	if !changed {
		// Someone else moved the submission between our read and write.
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, models.StatusSubmittedForReview)
	}

	now := s.now().UTC()
	submission.Status = models.StatusSubmittedForReview
	submission.SubmissionDate = &now
	submission.QualityScore = models.ClampScore(report.OverallScore)
	submission.SafetyScore = models.ClampScore(report.ContentSafetyScore)
	submission.ReadabilityScore = models.ClampScore(report.ReadabilityScore)
	submission.EducationalValueScore = models.ClampScore(report.EducationalValueScore)
	if from == models.StatusPendingChanges || from == models.StatusRejected {
		submission.Version++
	}
	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}

	ticket, err := s.tickets.OpenTicket(ctx, submission, report)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, dto.ScorecardResponse{}, err
	}

	observability.Submissions().WithLabelValues(string(models.StatusSubmittedForReview)).Inc()
	s.publisher.Publish(events.SubjectSubmissionSubmitted, events.SubmissionEvent{
		SubmissionID: submission.ID,
		CreatorID:    submission.CreatorID,
		ContentType:  string(submission.ContentType),
		Status:       string(submission.Status),
		OccurredAt:   now,
	})

	span.SetAttributes(
		attribute.String("ticket.id", ticket.ID.String()),
		attribute.String("ticket.priority", string(ticket.PriorityLevel)),
		attribute.Float64("validation.overall_score", report.OverallScore),
	)
	span.SetStatus(codes.Ok, "queued for moderation")

	s.logger.Info().
		Str("submission_id", submission.ID.String()).
		Str("ticket_id", ticket.ID.String()).
		Str("priority", string(ticket.PriorityLevel)).
		Msg("submission queued for moderation")

	return dto.NewSubmissionResponse(submission), dto.NewScorecardResponse(*scorecard), nil
}

func (s *submissionService) Withdraw(ctx context.Context, creatorID, id uuid.UUID) (dto.SubmissionResponse, error) {
	submission, err := s.ownedSubmission(ctx, creatorID, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	from := submission.Status
	if !models.CanTransitionSubmission(from, models.StatusWithdrawn) {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, models.StatusWithdrawn)
	}

	changed, err := s.submissions.UpdateStatus(ctx, submission.ID, from, models.StatusWithdrawn)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !changed {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, models.StatusWithdrawn)
	}
	submission.Status = models.StatusWithdrawn

	if err := s.tickets.CloseForSubmission(ctx, submission.ID); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", id.String()).Msg("failed to close moderation ticket on withdrawal")
	}

	observability.Submissions().WithLabelValues(string(models.StatusWithdrawn)).Inc()
	s.publisher.Publish(events.SubjectSubmissionWithdrawn, events.SubmissionEvent{
		SubmissionID: submission.ID,
		CreatorID:    submission.CreatorID,
		ContentType:  string(submission.ContentType),
		Status:       string(submission.Status),
		OccurredAt:   s.now().UTC(),
	})

	s.logger.Info().Str("submission_id", id.String()).Msg("submission withdrawn")
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Scorecard(ctx context.Context, creatorID, id uuid.UUID) (dto.ScorecardResponse, error) {
	if _, err := s.ownedSubmission(ctx, creatorID, id); err != nil {
		return dto.ScorecardResponse{}, err
	}

	scorecard, err := s.submissions.LatestScorecard(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScorecardResponse{}, ErrScorecardNotFound
		}
		return dto.ScorecardResponse{}, err
	}

	return dto.NewScorecardResponse(scorecard), nil
}

func (s *submissionService) Dashboard(ctx context.Context, creatorID uuid.UUID) (dto.CreatorDashboardResponse, error) {
	counts, err := s.submissions.StatusCounts(ctx, creatorID)
	if err != nil {
		return dto.CreatorDashboardResponse{}, err
	}

	recent, err := s.submissions.RecentActivity(ctx, creatorID, 5)
	if err != nil {
		return dto.CreatorDashboardResponse{}, err
	}

	statusCounts := make(map[string]int64, len(counts))
	for status, count := range counts {
		statusCounts[string(status)] = count
	}

	return dto.CreatorDashboardResponse{
		StatusCounts:   statusCounts,
		RecentActivity: dto.NewSubmissionResponseSlice(recent),
	}, nil
}

// checkDraftText runs the rule engine over the title and description so drafts
// never carry text the submit pass would reject anyway.
func (s *submissionService) checkDraftText(title, description string) error {
	violations := s.engine.ValidateTitle(title)
	violations = append(violations, s.engine.ValidateDescription(description)...)
	if len(violations) > 0 {
		return &validation.Error{Violations: violations}
	}
	return nil
}

func (s *submissionService) ownedSubmission(ctx context.Context, creatorID, id uuid.UUID) (models.ContentSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ContentSubmission{}, ErrSubmissionNotFound
		}
		return models.ContentSubmission{}, err
	}

	if submission.CreatorID != creatorID {
		return models.ContentSubmission{}, ErrNotSubmissionOwner
	}

	return submission, nil
}

func buildScorecard(submissionID uuid.UUID, report validation.Report, at time.Time, elapsed time.Duration) *models.ValidationScorecard {
	scorecard := &models.ValidationScorecard{
		SubmissionID:                 submissionID,
		ValidatorVersion:             models.ValidatorVersion,
		ValidatedAt:                  at,
		LanguageAppropriatenessScore: models.ClampScore(report.LanguageAppropriatenessScore),
		ContentSafetyScore:           models.ClampScore(report.ContentSafetyScore),
		AgeAppropriatenessScore:      models.ClampScore(report.AgeAppropriatenessScore),
		ReadabilityScore:             models.ClampScore(report.ReadabilityScore),
		GrammarScore:                 models.ClampScore(report.GrammarScore),
		EducationalValueScore:        models.ClampScore(report.EducationalValueScore),
		OverallScore:                 models.ClampScore(report.OverallScore),
		FlaggedWords:                 report.FlaggedWords,
		PassedAutomatedChecks:        report.PassedAutomatedChecks,
		RequiresHumanReview:          report.RequiresHumanReview,
		ProcessingTimeMs:             elapsed.Milliseconds(),
	}

	if len(report.Violations) > 0 {
		messages := make([]string, 0, len(report.Violations))
		for _, violation := range report.Violations {
			messages = append(messages, violation.Error())
		}
		scorecard.ValidationErrors = messages
	}

	if len(report.Suggestions) > 0 {
		if data, err := json.Marshal(report.Suggestions); err == nil {
			scorecard.Suggestions = data
		}
	}

	return scorecard
}

func marshalContentData(data map[string]interface{}) (datatypes.JSON, error) {
	if data == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid content data: %w", err)
	}
	return datatypes.JSON(encoded), nil
}
