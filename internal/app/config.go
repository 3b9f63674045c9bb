package app

import (
	"strings"
	"time"

	"github.com/yungbote/studyladder/internal/data/db"
	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/envutil"
)

type Config struct {
	LogMode         string
	Environment     string
	Version         string
	ServiceName     string
	HTTPAddr        string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	Postgres        db.PostgresConfig
	SkipAutoMigrate bool

	RedisAddr string
	LockTTL   time.Duration

	// MaterialBucket is empty when every material is stored inline.
	MaterialBucket string

	TiersFile   string
	Progression progression.Config
}

func LoadConfig() Config {
	genTimeout := envutil.Seconds("PROGRESSION_GENERATION_TIMEOUT_SECONDS", progression.GenerationTimeout)
	cfg := Config{
		LogMode:         envutil.String("LOG_MODE", "development"),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		ServiceName:     envutil.String("OTEL_SERVICE_NAME", "studyladder"),
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080"),
		MetricsAddr:     envutil.String("METRICS_ADDR", ""),
		ShutdownTimeout: envutil.Seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		CORSOrigins:     splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "studyladder"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		SkipAutoMigrate: envutil.Bool("POSTGRES_SKIP_AUTOMIGRATE", false),

		RedisAddr: envutil.String("REDIS_ADDR", ""),

		MaterialBucket: envutil.String("MATERIAL_GCS_BUCKET_NAME", ""),

		TiersFile: envutil.String("PROGRESSION_TIERS_FILE", ""),
		Progression: progression.Config{
			GenerationTimeout:      genTimeout,
			MaxSourceTextChars:     envutil.Int("PROGRESSION_MAX_SOURCE_CHARS", progression.MaxSourceTextChars),
			MaxExclusionTextChars:  envutil.Int("PROGRESSION_MAX_EXCLUSION_CHARS", progression.MaxExclusionTextChars),
			ExistingItemSampleSize: envutil.Int("PROGRESSION_EXISTING_ITEM_SAMPLE", progression.ExistingItemSampleSize),
		},
	}
	cfg.LockTTL = lockTTL(envutil.Seconds("PROGRESSION_LOCK_TTL_SECONDS", 0), genTimeout)
	return cfg
}

// lockTTL keeps the distributed lock alive past the longest generation call.
func lockTTL(configured, genTimeout time.Duration) time.Duration {
	floor := genTimeout + 30*time.Second
	if configured < floor {
		return floor
	}
	return configured
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
