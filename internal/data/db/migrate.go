package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate progression tables: %w", err)
	}
	return nil
}
