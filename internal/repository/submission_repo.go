package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	CreatorID   *uuid.UUID
	Status      *models.SubmissionStatus
	ContentType *models.ContentType
	Page        int
	PageSize    int
}

// SubmissionRepository defines data operations for content submissions and
// their validation scorecards.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.ContentSubmission) error
	Update(ctx context.Context, submission *models.ContentSubmission) error
	GetByID(ctx context.Context, id uuid.UUID) (models.ContentSubmission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.ContentSubmission, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus) (bool, error)

	SaveScorecard(ctx context.Context, scorecard *models.ValidationScorecard) error
	LatestScorecard(ctx context.Context, submissionID uuid.UUID) (models.ValidationScorecard, error)

	StatusCounts(ctx context.Context, creatorID uuid.UUID) (map[models.SubmissionStatus]int64, error)
	RecentActivity(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.ContentSubmission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ContentSubmission{})
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.ContentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.ContentSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ContentSubmission, error) {
	var submission models.ContentSubmission
	if err := r.baseQuery(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.ContentSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.ContentSubmission, int64, error) {
	query := r.baseQuery(ctx)

	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.ContentType != nil {
		query = query.Where("content_type = ?", *filter.ContentType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var submissions []models.ContentSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ContentSubmission{}, "id = ?", id).Error
}

// UpdateStatus moves the submission between the two states only if it is
// still in the expected one, reporting whether the row changed.
func (r *submissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus) (bool, error) {
	result := r.baseQuery(ctx).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) SaveScorecard(ctx context.Context, scorecard *models.ValidationScorecard) error {
	return r.db.WithContext(ctx).Create(scorecard).Error
}

func (r *submissionRepository) LatestScorecard(ctx context.Context, submissionID uuid.UUID) (models.ValidationScorecard, error) {
	var scorecard models.ValidationScorecard
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("validated_at DESC").
		First(&scorecard).Error; err != nil {
		return models.ValidationScorecard{}, err
	}

	return scorecard, nil
}

func (r *submissionRepository) StatusCounts(ctx context.Context, creatorID uuid.UUID) (map[models.SubmissionStatus]int64, error) {
	type row struct {
		Status models.SubmissionStatus
		Total  int64
	}

	var rows []row
	if err := r.baseQuery(ctx).
		Select("status, COUNT(*) AS total").
		Where("creator_id = ?", creatorID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.SubmissionStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}

	return counts, nil
}

func (r *submissionRepository) RecentActivity(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.ContentSubmission, error) {
	if limit <= 0 {
		limit = 10
	}

	var submissions []models.ContentSubmission
	if err := r.baseQuery(ctx).
		Where("creator_id = ?", creatorID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
