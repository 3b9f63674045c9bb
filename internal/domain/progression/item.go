package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Item is one question/answer pair inside a content set. Its difficulty tier is
// fixed when the item is created.
type Item struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContentSetID uuid.UUID `gorm:"type:uuid;not null;index:idx_progression_item_set_tier,priority:1" json:"content_set_id"`

	Question string `gorm:"column:question;type:text;not null" json:"question"`
	Answer   string `gorm:"column:answer;type:text;not null" json:"answer"`
	Category string `gorm:"column:category;not null;default:''" json:"category"`

	DifficultyTier int        `gorm:"column:difficulty_tier;not null;default:1;index:idx_progression_item_set_tier,priority:2" json:"difficulty_tier"`
	ParentItemID   *uuid.UUID `gorm:"column:parent_item_id;type:uuid;index" json:"parent_item_id,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "progression_item" }
