package progression

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/studyladder/internal/domain"
)

// IsArchivable applies the fixed archival bar to an active record.
func IsArchivable(rec *types.MasteryRecord) bool {
	if rec == nil || rec.Archived {
		return false
	}
	return rec.MasteryLevel >= ArchiveMinMasteryLevel &&
		rec.StabilityDays >= ArchiveMinStabilityDays &&
		rec.ConsecutiveCorrect >= ArchiveMinConsecutiveHits
}

// Evaluate reports which active items the learner has mastered and the tier
// ceiling derived from them. It never writes.
func (u Usecases) Evaluate(ctx context.Context, userID, contentSetID uuid.UUID) Evaluation {
	ctx, span := tracer.Start(ctx, "progression.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("content_set_id", contentSetID.String()))

	out := u.evaluate(ctx, userID, contentSetID)
	span.SetAttributes(
		attribute.Int("mastered_count", len(out.MasteredItemIDs)),
		attribute.Int("current_tier", out.CurrentTier),
	)
	return out
}

func (u Usecases) evaluate(ctx context.Context, userID, contentSetID uuid.UUID) Evaluation {
	log := u.deps.Log.With("user_id", userID, "content_set_id", contentSetID)

	items, err := u.deps.Store.ListItems(ctx, contentSetID)
	if err != nil {
		log.Warn("evaluate: list items failed", "error", err)
		return safeEvaluation()
	}
	if len(items) == 0 {
		return safeEvaluation()
	}
	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it != nil {
			itemIDs = append(itemIDs, it.ID)
		}
	}

	records, err := u.deps.Store.ListRecords(ctx, userID, itemIDs, false)
	if err != nil {
		log.Warn("evaluate: list records failed", "error", err)
		return safeEvaluation()
	}
	byItem := make(map[uuid.UUID]*types.MasteryRecord, len(records))
	for _, rec := range records {
		if rec != nil {
			byItem[rec.ItemID] = rec
		}
	}

	out := safeEvaluation()
	current := MinTier
	for _, it := range items {
		if it == nil || !IsArchivable(byItem[it.ID]) {
			continue
		}
		out.MasteredItemIDs = append(out.MasteredItemIDs, it.ID)
		if it.DifficultyTier > current {
			current = it.DifficultyTier
		}
	}
	out.CurrentTier = ClampTier(current)
	out.NextTier = ClampTier(out.CurrentTier + 1)
	out.ShouldGenerateNew = len(out.MasteredItemIDs) > 0 && out.CurrentTier < MaxTier
	return out
}
