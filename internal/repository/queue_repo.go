package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// Tickets are served urgent first, then high, then normal, oldest first
// within the same priority.
const queuePriorityOrder = "CASE priority_level WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'normal' THEN 3 ELSE 4 END, created_at ASC"

// QueueFilter narrows moderation queue listings.
type QueueFilter struct {
	Status              *models.QueueStatus
	Priority            *models.Priority
	AssignedModeratorID *uuid.UUID
	Unassigned          bool
	Page                int
	PageSize            int
}

// QueueSummary aggregates the state of the moderation queue.
type QueueSummary struct {
	TotalOpen        int64
	CountsByStatus   map[models.QueueStatus]int64
	CountsByPriority map[models.Priority]int64
	OpenedAt         []time.Time
}

// ModeratorWorkload aggregates one moderator's current load and throughput.
type ModeratorWorkload struct {
	AssignedCount   int64
	InReviewCount   int64
	CompletedToday  int64
	ReviewDurations []int
}

// QueueRepository defines data operations for moderation tickets and decisions.
type QueueRepository interface {
	CreateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error
	UpdateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error
	GetByID(ctx context.Context, id uuid.UUID) (models.ModerationQueueTicket, error)
	GetBySubmissionID(ctx context.Context, submissionID uuid.UUID) (models.ModerationQueueTicket, error)
	List(ctx context.Context, filter QueueFilter) ([]models.ModerationQueueTicket, int64, error)

	Assign(ctx context.Context, ticketID, moderatorID uuid.UUID, estimatedCompletionAt time.Time) (bool, error)
	StartReview(ctx context.Context, ticketID, moderatorID uuid.UUID, at time.Time) (bool, error)
	Escalate(ctx context.Context, ticketID, moderatorID uuid.UUID, reason string) (bool, error)
	Complete(ctx context.Context, ticketID uuid.UUID, at time.Time, durationMinutes *int) (bool, error)

	SaveDecision(ctx context.Context, decision *models.ModerationDecision) error
	DecisionsBySubmission(ctx context.Context, submissionID uuid.UUID) ([]models.ModerationDecision, error)

	Summary(ctx context.Context) (QueueSummary, error)
	Workload(ctx context.Context, moderatorID uuid.UUID, dayStart time.Time) (ModeratorWorkload, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository instantiates the repository.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ModerationQueueTicket{})
}

func (r *queueRepository) CreateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *queueRepository) UpdateTicket(ctx context.Context, ticket *models.ModerationQueueTicket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *queueRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ModerationQueueTicket, error) {
	var ticket models.ModerationQueueTicket
	if err := r.baseQuery(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return models.ModerationQueueTicket{}, err
	}

	return ticket, nil
}

func (r *queueRepository) GetBySubmissionID(ctx context.Context, submissionID uuid.UUID) (models.ModerationQueueTicket, error) {
	var ticket models.ModerationQueueTicket
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		First(&ticket).Error; err != nil {
		return models.ModerationQueueTicket{}, err
	}

	return ticket, nil
}

func (r *queueRepository) List(ctx context.Context, filter QueueFilter) ([]models.ModerationQueueTicket, int64, error) {
	query := r.baseQuery(ctx)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Priority != nil {
		query = query.Where("priority_level = ?", *filter.Priority)
	}

	if filter.AssignedModeratorID != nil {
		query = query.Where("assigned_moderator_id = ?", *filter.AssignedModeratorID)
	}

	if filter.Unassigned {
		query = query.Where("assigned_moderator_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(queuePriorityOrder)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var tickets []models.ModerationQueueTicket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// Assign claims the ticket for a moderator with a single conditional update.
// The WHERE clause guarantees exactly one of two racing moderators wins; the
// loser sees a false return and no error. Escalated tickets sit unassigned in
// the pool, so they are claimable the same way fresh ones are.
func (r *queueRepository) Assign(ctx context.Context, ticketID, moderatorID uuid.UUID, estimatedCompletionAt time.Time) (bool, error) {
	result := r.baseQuery(ctx).
		Where("id = ? AND assigned_moderator_id IS NULL AND status IN ?", ticketID, []models.QueueStatus{models.QueuePendingAssignment, models.QueueEscalated}).
		Updates(map[string]interface{}{
			"assigned_moderator_id":   moderatorID,
			"status":                  models.QueueAssigned,
			"estimated_completion_at": estimatedCompletionAt,
			"updated_at":              time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *queueRepository) StartReview(ctx context.Context, ticketID, moderatorID uuid.UUID, at time.Time) (bool, error) {
	result := r.baseQuery(ctx).
		Where("id = ? AND assigned_moderator_id = ? AND status = ?", ticketID, moderatorID, models.QueueAssigned).
		Updates(map[string]interface{}{
			"status":            models.QueueInReview,
			"review_started_at": at,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Escalate clears the assignment so the ticket returns to the pool at high
// priority. Only the currently assigned moderator may escalate, and completed
// tickets cannot be escalated.
func (r *queueRepository) Escalate(ctx context.Context, ticketID, moderatorID uuid.UUID, reason string) (bool, error) {
	result := r.baseQuery(ctx).
		Where("id = ? AND assigned_moderator_id = ? AND status <> ?", ticketID, moderatorID, models.QueueCompleted).
		Updates(map[string]interface{}{
			"status":                models.QueueEscalated,
			"assigned_moderator_id": nil,
			"priority_level":        models.PriorityHigh,
			"escalated":             true,
			"escalation_reason":     reason,
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *queueRepository) Complete(ctx context.Context, ticketID uuid.UUID, at time.Time, durationMinutes *int) (bool, error) {
	result := r.baseQuery(ctx).
		Where("id = ? AND status <> ?", ticketID, models.QueueCompleted).
		Updates(map[string]interface{}{
			"status":                  models.QueueCompleted,
			"actual_completion_at":    at,
			"review_duration_minutes": durationMinutes,
			"updated_at":              time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *queueRepository) SaveDecision(ctx context.Context, decision *models.ModerationDecision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *queueRepository) DecisionsBySubmission(ctx context.Context, submissionID uuid.UUID) ([]models.ModerationDecision, error) {
	var decisions []models.ModerationDecision
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}

	return decisions, nil
}

func (r *queueRepository) Summary(ctx context.Context) (QueueSummary, error) {
	summary := QueueSummary{
		CountsByStatus:   make(map[models.QueueStatus]int64),
		CountsByPriority: make(map[models.Priority]int64),
	}

	type statusRow struct {
		Status models.QueueStatus
		Total  int64
	}
	var statusRows []statusRow
	if err := r.baseQuery(ctx).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return QueueSummary{}, err
	}
	for _, row := range statusRows {
		summary.CountsByStatus[row.Status] = row.Total
		if row.Status.Open() {
			summary.TotalOpen += row.Total
		}
	}

	type priorityRow struct {
		PriorityLevel models.Priority
		Total         int64
	}
	var priorityRows []priorityRow
	if err := r.baseQuery(ctx).
		Select("priority_level, COUNT(*) AS total").
		Where("status <> ?", models.QueueCompleted).
		Group("priority_level").
		Scan(&priorityRows).Error; err != nil {
		return QueueSummary{}, err
	}
	for _, row := range priorityRows {
		summary.CountsByPriority[row.PriorityLevel] = row.Total
	}

	// Wait times are derived in the service so the query stays portable
	// across sqlite and postgres.
	if err := r.baseQuery(ctx).
		Where("status <> ?", models.QueueCompleted).
		Order("created_at ASC").
		Pluck("created_at", &summary.OpenedAt).Error; err != nil {
		return QueueSummary{}, err
	}

	return summary, nil
}

func (r *queueRepository) Workload(ctx context.Context, moderatorID uuid.UUID, dayStart time.Time) (ModeratorWorkload, error) {
	var workload ModeratorWorkload

	if err := r.baseQuery(ctx).
		Where("assigned_moderator_id = ? AND status = ?", moderatorID, models.QueueAssigned).
		Count(&workload.AssignedCount).Error; err != nil {
		return ModeratorWorkload{}, err
	}

	if err := r.baseQuery(ctx).
		Where("assigned_moderator_id = ? AND status = ?", moderatorID, models.QueueInReview).
		Count(&workload.InReviewCount).Error; err != nil {
		return ModeratorWorkload{}, err
	}

	if err := r.baseQuery(ctx).
		Where("assigned_moderator_id = ? AND status = ? AND actual_completion_at >= ?", moderatorID, models.QueueCompleted, dayStart).
		Count(&workload.CompletedToday).Error; err != nil {
		return ModeratorWorkload{}, err
	}

	if err := r.baseQuery(ctx).
		Where("assigned_moderator_id = ? AND status = ? AND review_duration_minutes IS NOT NULL", moderatorID, models.QueueCompleted).
		Pluck("review_duration_minutes", &workload.ReviewDurations).Error; err != nil {
		return ModeratorWorkload{}, err
	}

	return workload, nil
}
