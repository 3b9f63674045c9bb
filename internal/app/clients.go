package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studyladder/internal/observability"
	"github.com/yungbote/studyladder/internal/platform/gcp"
	"github.com/yungbote/studyladder/internal/platform/logger"
	"github.com/yungbote/studyladder/internal/platform/openai"
	"github.com/yungbote/studyladder/internal/platform/redislock"
)

type Clients struct {
	Redis          *goredis.Client
	MaterialBucket gcp.MaterialBucket
	OpenAI         openai.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.RedisAddr != "" {
		rdb, err := redislock.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}

	// Gcs
	bucket, err := resolveMaterialBucket(ctx, log, cfg)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.MaterialBucket = bucket

	// Openai
	var observer openai.RequestObserver
	if metrics != nil {
		observer = metrics
	}
	ai, err := openai.NewClient(log, openai.ConfigFromEnv(), observer)
	if err != nil {
		log.Warn("OpenAI client unavailable; content generation disabled", "error", err)
	} else {
		out.OpenAI = ai
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
