package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
	"github.com/patrykpoborca/wondernest-go-api/internal/repository"
	"github.com/patrykpoborca/wondernest-go-api/internal/validation"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidate() *validator.Validate {
	return validator.New()
}

func testEngine() *validation.Validator {
	return validation.New(validation.Config{})
}

// submissionRepoStub is an in-memory SubmissionRepository.
type submissionRepoStub struct {
	mu         sync.Mutex
	items      map[uuid.UUID]models.ContentSubmission
	scorecards []models.ValidationScorecard
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{items: make(map[uuid.UUID]models.ContentSubmission)}
}

func (s *submissionRepoStub) Create(ctx context.Context, submission *models.ContentSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	now := time.Now()
	submission.CreatedAt = now
	submission.UpdatedAt = now
	s.items[submission.ID] = *submission
	return nil
}

func (s *submissionRepoStub) Update(ctx context.Context, submission *models.ContentSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission.UpdatedAt = time.Now()
	s.items[submission.ID] = *submission
	return nil
}

func (s *submissionRepoStub) GetByID(ctx context.Context, id uuid.UUID) (models.ContentSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.items[id]
	if !ok {
		return models.ContentSubmission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (s *submissionRepoStub) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.ContentSubmission, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.ContentSubmission
	for _, submission := range s.items {
		if filter.CreatorID != nil && submission.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		if filter.ContentType != nil && submission.ContentType != *filter.ContentType {
			continue
		}
		matched = append(matched, submission)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })
	total := int64(len(matched))
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *submissionRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *submissionRepoStub) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.items[id]
	if !ok || submission.Status != from {
		return false, nil
	}
	submission.Status = to
	submission.UpdatedAt = time.Now()
	s.items[id] = submission
	return true, nil
}

func (s *submissionRepoStub) SaveScorecard(ctx context.Context, scorecard *models.ValidationScorecard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scorecard.ID == uuid.Nil {
		scorecard.ID = uuid.New()
	}
	s.scorecards = append(s.scorecards, *scorecard)
	return nil
}

func (s *submissionRepoStub) LatestScorecard(ctx context.Context, submissionID uuid.UUID) (models.ValidationScorecard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.ValidationScorecard
	for i := range s.scorecards {
		card := &s.scorecards[i]
		if card.SubmissionID != submissionID {
			continue
		}
		if latest == nil || card.ValidatedAt.After(latest.ValidatedAt) {
			latest = card
		}
	}
	if latest == nil {
		return models.ValidationScorecard{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

func (s *submissionRepoStub) StatusCounts(ctx context.Context, creatorID uuid.UUID) (map[models.SubmissionStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.SubmissionStatus]int64)
	for _, submission := range s.items {
		if submission.CreatorID == creatorID {
			counts[submission.Status]++
		}
	}
	return counts, nil
}

func (s *submissionRepoStub) RecentActivity(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.ContentSubmission, error) {
	matched, _, err := s.List(ctx, repository.SubmissionFilter{CreatorID: &creatorID})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *submissionRepoStub) scorecardsFor(submissionID uuid.UUID) []models.ValidationScorecard {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.ValidationScorecard
	for _, card := range s.scorecards {
		if card.SubmissionID == submissionID {
			matched = append(matched, card)
		}
	}
	return matched
}

// queueRepoStub is an in-memory QueueRepository.
type queueRepoStub struct {
	mu        sync.Mutex
	tickets   map[uuid.UUID]models.ModerationQueueTicket
	decisions []models.ModerationDecision
}

func newQueueRepoStub() *queueRepoStub {
	return &queueRepoStub{tickets: make(map[uuid.UUID]models.ModerationQueueTicket)}
}

func (q *queueRepoStub) CreateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = time.Now()
	q.tickets[ticket.ID] = *ticket
	return nil
}

func (q *queueRepoStub) UpdateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket.UpdatedAt = time.Now()
	q.tickets[ticket.ID] = *ticket
	return nil
}

func (q *queueRepoStub) GetByID(ctx context.Context, id uuid.UUID) (models.ModerationQueueTicket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[id]
	if !ok {
		return models.ModerationQueueTicket{}, gorm.ErrRecordNotFound
	}
	return ticket, nil
}

func (q *queueRepoStub) GetBySubmissionID(ctx context.Context, submissionID uuid.UUID) (models.ModerationQueueTicket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ticket := range q.tickets {
		if ticket.SubmissionID == submissionID {
			return ticket, nil
		}
	}
	return models.ModerationQueueTicket{}, gorm.ErrRecordNotFound
}

func (q *queueRepoStub) List(ctx context.Context, filter repository.QueueFilter) ([]models.ModerationQueueTicket, int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var matched []models.ModerationQueueTicket
	for _, ticket := range q.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.PriorityLevel != *filter.Priority {
			continue
		}
		if filter.AssignedModeratorID != nil && (ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != *filter.AssignedModeratorID) {
			continue
		}
		if filter.Unassigned && ticket.AssignedModeratorID != nil {
			continue
		}
		matched = append(matched, ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PriorityLevel.Rank() != matched[j].PriorityLevel.Rank() {
			return matched[i].PriorityLevel.Rank() < matched[j].PriorityLevel.Rank()
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, int64(len(matched)), nil
}

func (q *queueRepoStub) Assign(ctx context.Context, ticketID, moderatorID uuid.UUID, estimatedCompletionAt time.Time) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[ticketID]
	if !ok || ticket.AssignedModeratorID != nil {
		return false, nil
	}
	if ticket.Status != models.QueuePendingAssignment && ticket.Status != models.QueueEscalated {
		return false, nil
	}
	ticket.AssignedModeratorID = &moderatorID
	ticket.Status = models.QueueAssigned
	ticket.EstimatedCompletionAt = &estimatedCompletionAt
	q.tickets[ticketID] = ticket
	return true, nil
}

func (q *queueRepoStub) StartReview(ctx context.Context, ticketID, moderatorID uuid.UUID, at time.Time) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[ticketID]
	if !ok || ticket.Status != models.QueueAssigned || ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID {
		return false, nil
	}
	ticket.Status = models.QueueInReview
	ticket.ReviewStartedAt = &at
	q.tickets[ticketID] = ticket
	return true, nil
}

func (q *queueRepoStub) Escalate(ctx context.Context, ticketID, moderatorID uuid.UUID, reason string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[ticketID]
	if !ok || ticket.Status == models.QueueCompleted {
		return false, nil
	}
	if ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID {
		return false, nil
	}
	ticket.Status = models.QueueEscalated
	ticket.AssignedModeratorID = nil
	ticket.PriorityLevel = models.PriorityHigh
	ticket.Escalated = true
	ticket.EscalationReason = reason
	q.tickets[ticketID] = ticket
	return true, nil
}

func (q *queueRepoStub) Complete(ctx context.Context, ticketID uuid.UUID, at time.Time, durationMinutes *int) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[ticketID]
	if !ok || ticket.Status == models.QueueCompleted {
		return false, nil
	}
	ticket.Status = models.QueueCompleted
	ticket.ActualCompletionAt = &at
	ticket.ReviewDurationMinutes = durationMinutes
	q.tickets[ticketID] = ticket
	return true, nil
}

func (q *queueRepoStub) SaveDecision(ctx context.Context, decision *models.ModerationDecision) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now()
	}
	q.decisions = append(q.decisions, *decision)
	return nil
}

func (q *queueRepoStub) DecisionsBySubmission(ctx context.Context, submissionID uuid.UUID) ([]models.ModerationDecision, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var matched []models.ModerationDecision
	for _, decision := range q.decisions {
		if decision.SubmissionID == submissionID {
			matched = append(matched, decision)
		}
	}
	return matched, nil
}

func (q *queueRepoStub) Summary(ctx context.Context) (repository.QueueSummary, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	summary := repository.QueueSummary{
		CountsByStatus:   make(map[models.QueueStatus]int64),
		CountsByPriority: make(map[models.Priority]int64),
	}
	for _, ticket := range q.tickets {
		summary.CountsByStatus[ticket.Status]++
		if ticket.Status.Open() {
			summary.TotalOpen++
			summary.CountsByPriority[ticket.PriorityLevel]++
			summary.OpenedAt = append(summary.OpenedAt, ticket.CreatedAt)
		}
	}
	return summary, nil
}

func (q *queueRepoStub) Workload(ctx context.Context, moderatorID uuid.UUID, dayStart time.Time) (repository.ModeratorWorkload, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var workload repository.ModeratorWorkload
	for _, ticket := range q.tickets {
		if ticket.AssignedModeratorID == nil || *ticket.AssignedModeratorID != moderatorID {
			continue
		}
		switch ticket.Status {
		case models.QueueAssigned:
			workload.AssignedCount++
		case models.QueueInReview:
			workload.InReviewCount++
		case models.QueueCompleted:
			if ticket.ActualCompletionAt != nil && !ticket.ActualCompletionAt.Before(dayStart) {
				workload.CompletedToday++
			}
			if ticket.ReviewDurationMinutes != nil {
				workload.ReviewDurations = append(workload.ReviewDurations, *ticket.ReviewDurationMinutes)
			}
		}
	}
	return workload, nil
}

// ticketOpenerStub records calls from the submission workflow.
type ticketOpenerStub struct {
	opened []models.ModerationQueueTicket
	closed []uuid.UUID
}

func (t *ticketOpenerStub) OpenTicket(ctx context.Context, submission models.ContentSubmission, report validation.Report) (models.ModerationQueueTicket, error) {
	ticket := models.ModerationQueueTicket{
		ID:            uuid.New(),
		SubmissionID:  submission.ID,
		Status:        models.QueuePendingAssignment,
		PriorityLevel: models.PriorityNormal,
		CreatedAt:     time.Now(),
	}
	t.opened = append(t.opened, ticket)
	return ticket, nil
}

func (t *ticketOpenerStub) CloseForSubmission(ctx context.Context, submissionID uuid.UUID) error {
	t.closed = append(t.closed, submissionID)
	return nil
}

func storyContentData() map[string]interface{} {
	page := strings.TrimSpace(strings.Repeat("The little fox shared berries with every friend in the forest. ", 8))
	return map[string]interface{}{
		"pages": []interface{}{
			map[string]interface{}{"page_number": float64(1), "content": page},
		},
	}
}
