package progression

import (
	"time"

	"github.com/google/uuid"
)

type ReviewState string

const (
	ReviewStateLearning   ReviewState = "learning"
	ReviewStateReview     ReviewState = "review"
	ReviewStateRelearning ReviewState = "relearning"
)

// MasteryRecord is the per (user, item) progress row. MasteryLevel and
// StabilityDays come from the scheduler; ConsecutiveCorrect and the archival
// columns are owned by the progression engine.
type MasteryRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progression_mastery_user_item,priority:1;index:idx_progression_mastery_user_archived,priority:1" json:"user_id"`
	ItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progression_mastery_user_item,priority:2" json:"item_id"`

	MasteryLevel       int     `gorm:"column:mastery_level;not null;default:0" json:"mastery_level"`
	StabilityDays      float64 `gorm:"column:stability_days;not null;default:0" json:"stability_days"`
	ConsecutiveCorrect int     `gorm:"column:consecutive_correct;not null;default:0" json:"consecutive_correct"`

	Archived   bool       `gorm:"column:archived;not null;default:false;index:idx_progression_mastery_user_archived,priority:2" json:"archived"`
	ArchivedAt *time.Time `gorm:"column:archived_at" json:"archived_at,omitempty"`

	ReviewState    ReviewState `gorm:"column:review_state;not null;default:'learning'" json:"review_state"`
	LastReviewedAt *time.Time  `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MasteryRecord) TableName() string { return "progression_mastery_record" }
