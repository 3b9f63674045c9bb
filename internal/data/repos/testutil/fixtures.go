package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
)

func SeedItem(tb testing.TB, ctx context.Context, tx *gorm.DB, setID uuid.UUID, tier int) *types.Item {
	tb.Helper()
	now := time.Now().UTC()
	it := &types.Item{
		ID:             uuid.New(),
		ContentSetID:   setID,
		Question:       "question " + uuid.NewString()[:8],
		Answer:         "answer",
		Category:       "general",
		DifficultyTier: tier,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	return it
}

// MasteryOpt tweaks a seeded mastery record.
type MasteryOpt func(*types.MasteryRecord)

func Mastered() MasteryOpt {
	return func(r *types.MasteryRecord) {
		r.MasteryLevel = 4
		r.StabilityDays = 31
		r.ConsecutiveCorrect = 3
		r.ReviewState = types.ReviewStateReview
	}
}

func ArchivedAt(at time.Time) MasteryOpt {
	return func(r *types.MasteryRecord) {
		r.Archived = true
		r.ArchivedAt = &at
	}
}

func Level(level int, stability float64, streak int) MasteryOpt {
	return func(r *types.MasteryRecord) {
		r.MasteryLevel = level
		r.StabilityDays = stability
		r.ConsecutiveCorrect = streak
	}
}

func SeedMastery(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID, opts ...MasteryOpt) *types.MasteryRecord {
	tb.Helper()
	now := time.Now().UTC()
	r := &types.MasteryRecord{
		ID:          uuid.New(),
		UserID:      userID,
		ItemID:      itemID,
		ReviewState: types.ReviewStateLearning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed mastery record: %v", err)
	}
	return r
}

func LoadMastery(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) *types.MasteryRecord {
	tb.Helper()
	var r types.MasteryRecord
	if err := tx.WithContext(ctx).Where("user_id = ? AND item_id = ?", userID, itemID).Take(&r).Error; err != nil {
		tb.Fatalf("load mastery record: %v", err)
	}
	return &r
}
