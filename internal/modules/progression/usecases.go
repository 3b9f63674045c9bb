package progression

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/yungbote/studyladder/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/studyladder/internal/modules/progression")

// Config holds the tunable budgets. Zero fields fall back to the package
// constants.
type Config struct {
	GenerationTimeout      time.Duration
	MaxSourceTextChars     int
	MaxExclusionTextChars  int
	ExistingItemSampleSize int
}

func DefaultConfig() Config {
	return Config{
		GenerationTimeout:      GenerationTimeout,
		MaxSourceTextChars:     MaxSourceTextChars,
		MaxExclusionTextChars:  MaxExclusionTextChars,
		ExistingItemSampleSize: ExistingItemSampleSize,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = def.GenerationTimeout
	}
	if c.MaxSourceTextChars <= 0 {
		c.MaxSourceTextChars = def.MaxSourceTextChars
	}
	if c.MaxExclusionTextChars <= 0 {
		c.MaxExclusionTextChars = def.MaxExclusionTextChars
	}
	if c.ExistingItemSampleSize <= 0 {
		c.ExistingItemSampleSize = def.ExistingItemSampleSize
	}
	return c
}

type UsecasesDeps struct {
	Log *logger.Logger

	Store     Store
	Materials SourceMaterials
	Generator ContentGenerator

	Tiers    *TierTable
	Locker   Locker
	Recorder Recorder
	Config   Config
}

type Usecases struct {
	deps  UsecasesDeps
	tiers TierTable
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("service", "ProgressionUsecases")
	if deps.Locker == nil {
		deps.Locker = NewKeyedMutex()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	deps.Config = deps.Config.withDefaults()
	tiers := DefaultTierTable()
	if deps.Tiers != nil {
		tiers = *deps.Tiers
	}
	return Usecases{deps: deps, tiers: tiers}
}

func (u Usecases) Tiers() TierTable { return u.tiers }

// LockKey names the serialization scope for one learner on one content set.
func LockKey(userID, contentSetID uuid.UUID) string {
	return "progression:" + userID.String() + ":" + contentSetID.String()
}

func (u Usecases) lock(ctx context.Context, userID, contentSetID uuid.UUID) (func(), error) {
	return u.deps.Locker.Acquire(ctx, LockKey(userID, contentSetID))
}
