package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/data/repos/progression"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type ItemRepo = progression.ItemRepo
type MasteryRecordRepo = progression.MasteryRecordRepo
type GenerationLogRepo = progression.GenerationLogRepo
type SourceMaterialRepo = progression.SourceMaterialRepo

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return progression.NewItemRepo(db, baseLog)
}
func NewMasteryRecordRepo(db *gorm.DB, baseLog *logger.Logger) MasteryRecordRepo {
	return progression.NewMasteryRecordRepo(db, baseLog)
}
func NewGenerationLogRepo(db *gorm.DB, baseLog *logger.Logger) GenerationLogRepo {
	return progression.NewGenerationLogRepo(db, baseLog)
}
func NewSourceMaterialRepo(db *gorm.DB, baseLog *logger.Logger) SourceMaterialRepo {
	return progression.NewSourceMaterialRepo(db, baseLog)
}
