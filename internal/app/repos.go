package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/data/aggregates"
	"github.com/yungbote/studyladder/internal/data/repos"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type Repos struct {
	Tx             aggregates.TxRunner
	Item           repos.ItemRepo
	MasteryRecord  repos.MasteryRecordRepo
	GenerationLog  repos.GenerationLogRepo
	SourceMaterial repos.SourceMaterialRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx:             aggregates.NewGormTxRunner(db),
		Item:           repos.NewItemRepo(db, log),
		MasteryRecord:  repos.NewMasteryRecordRepo(db, log),
		GenerationLog:  repos.NewGenerationLogRepo(db, log),
		SourceMaterial: repos.NewSourceMaterialRepo(db, log),
	}
}
