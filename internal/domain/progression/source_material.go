package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceMaterial is raw study text attached to a content set. Text is either
// inline or stored as an object under StorageKey.
type SourceMaterial struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContentSetID uuid.UUID `gorm:"type:uuid;not null;index" json:"content_set_id"`
	Name         string    `gorm:"column:name;not null;default:''" json:"name"`
	Text         string    `gorm:"column:text;type:text" json:"text,omitempty"`
	StorageKey   string    `gorm:"column:storage_key" json:"storage_key,omitempty"`
	Position     int       `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SourceMaterial) TableName() string { return "progression_source_material" }
