package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Age range bounds, expressed in months.
const (
	AgeRangeFloorMonths   = 24
	AgeRangeCeilingMonths = 144
	DefaultAgeMinMonths   = 48
	DefaultAgeMaxMonths   = 72
)

// ContentSubmission is one piece of creator content moving through the pipeline.
type ContentSubmission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"creator_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	ContentType ContentType    `gorm:"size:32;not null" json:"content_type"`
	ContentData datatypes.JSON `gorm:"type:json" json:"content_data"`

	AgeRangeMin     int    `gorm:"not null" json:"age_range_min"`
	AgeRangeMax     int    `gorm:"not null" json:"age_range_max"`
	DifficultyLevel string `gorm:"size:32;default:'beginner'" json:"difficulty_level"`

	EducationalGoalsRaw   string `gorm:"column:educational_goals;type:text" json:"-"`
	VocabularyWordsRaw    string `gorm:"column:vocabulary_words;type:text" json:"-"`
	LearningObjectivesRaw string `gorm:"column:learning_objectives;type:text" json:"-"`
	SearchKeywordsRaw     string `gorm:"column:search_keywords;type:text" json:"-"`

	Status         SubmissionStatus `gorm:"size:32;not null;index" json:"status"`
	SubmissionDate *time.Time       `gorm:"index" json:"submission_date"`

	QualityScore          Score `gorm:"default:0" json:"quality_score"`
	SafetyScore           Score `gorm:"default:0" json:"safety_score"`
	ReadabilityScore      Score `gorm:"default:0" json:"readability_score"`
	EducationalValueScore Score `gorm:"default:0" json:"educational_value_score"`

	EstimatedDurationMinutes int `gorm:"default:10" json:"estimated_duration_minutes"`

	// Resubmission edits the same row in place and bumps the version, so
	// there is no chain of submission rows to link together.
	Version int `gorm:"default:1" json:"version"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastSavedAt *time.Time `json:"last_saved_at"`

	EducationalGoals   []string `gorm:"-" json:"educational_goals"`
	VocabularyWords    []string `gorm:"-" json:"vocabulary_words"`
	LearningObjectives []string `gorm:"-" json:"learning_objectives"`
	SearchKeywords     []string `gorm:"-" json:"search_keywords"`
}

// BeforeCreate assigns an identifier when none is set.
func (s *ContentSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// BeforeSave serialises list fields into their storage columns.
func (s *ContentSubmission) BeforeSave(tx *gorm.DB) error {
	s.EducationalGoalsRaw = encodeList(s.EducationalGoals)
	s.VocabularyWordsRaw = encodeList(s.VocabularyWords)
	s.LearningObjectivesRaw = encodeList(s.LearningObjectives)
	s.SearchKeywordsRaw = encodeList(s.SearchKeywords)
	return nil
}

// AfterFind hydrates list fields after loading from the database.
func (s *ContentSubmission) AfterFind(tx *gorm.DB) error {
	s.EducationalGoals = decodeList(s.EducationalGoalsRaw)
	s.VocabularyWords = decodeList(s.VocabularyWordsRaw)
	s.LearningObjectives = decodeList(s.LearningObjectivesRaw)
	s.SearchKeywords = decodeList(s.SearchKeywordsRaw)
	return nil
}

// HasContentData reports whether the submission carries a non-empty payload.
func (s ContentSubmission) HasContentData() bool {
	trimmed := strings.TrimSpace(string(s.ContentData))
	return trimmed != "" && trimmed != "{}" && trimmed != "null"
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeList(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}
