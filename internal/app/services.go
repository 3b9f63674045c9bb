package app

import (
	"fmt"

	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/observability"
	"github.com/yungbote/studyladder/internal/platform/logger"
	"github.com/yungbote/studyladder/internal/platform/redislock"
	"github.com/yungbote/studyladder/internal/services"
)

type Services struct {
	Store       progression.Store
	Materials   progression.SourceMaterials
	Generator   progression.ContentGenerator
	Progression progression.Usecases
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	tiers, err := progression.LoadTierTable(cfg.TiersFile)
	if err != nil {
		return Services{}, fmt.Errorf("load tier table: %w", err)
	}

	store := services.NewProgressionStore(log, repos.Tx, repos.Item, repos.MasteryRecord, repos.GenerationLog)
	materials := services.NewSourceMaterialService(log, repos.SourceMaterial, repos.Item, clients.MaterialBucket, services.DefaultSourceMaterialConfig())

	var generator progression.ContentGenerator
	if clients.OpenAI != nil {
		generator = services.NewContentGenerator(log, clients.OpenAI)
	}

	var locker progression.Locker
	if clients.Redis != nil {
		locker = redislock.New(log, clients.Redis, cfg.LockTTL)
		log.Info("Using redis lock for progression", "ttl", cfg.LockTTL)
	}

	var recorder progression.Recorder
	if metrics != nil {
		recorder = metrics
	}

	engine := progression.New(progression.UsecasesDeps{
		Log:       log,
		Store:     store,
		Materials: materials,
		Generator: generator,
		Tiers:     &tiers,
		Locker:    locker,
		Recorder:  recorder,
		Config:    cfg.Progression,
	})

	return Services{
		Store:       store,
		Materials:   materials,
		Generator:   generator,
		Progression: engine,
	}, nil
}
