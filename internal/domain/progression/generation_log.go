package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ContentTypeFlashcard = "flashcard"

// GenerationLog is an append-only audit row, one per generation batch.
type GenerationLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContentSetID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"content_set_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ContentType    string         `gorm:"column:content_type;not null" json:"content_type"`
	Tier           int            `gorm:"column:tier;not null" json:"tier"`
	GeneratedCount int            `gorm:"column:generated_count;not null;default:0" json:"generated_count"`
	SourceItemIDs  datatypes.JSON `gorm:"column:source_item_ids" json:"source_item_ids"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (GenerationLog) TableName() string { return "progression_generation_log" }
