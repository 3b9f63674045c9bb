package progression

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// IsStruggling reports whether a session should trigger regression.
func IsStruggling(stats SessionStats, currentTier int) bool {
	return stats.CorrectRate < StrugglingMaxCorrectRate &&
		stats.ItemsStudied >= StrugglingMinItemsStudied &&
		currentTier > MinTier
}

// HandleStruggling runs the regress path after a poor session: it brings back
// up to ReinforcementCount archived items from the tier below and demotes the
// explicitly failed items. It never returns an error.
func (u Usecases) HandleStruggling(ctx context.Context, in HandleStrugglingInput) RegressResult {
	ctx, span := tracer.Start(ctx, "progression.HandleStruggling")
	defer span.End()
	span.SetAttributes(
		attribute.String("content_set_id", in.ContentSetID.String()),
		attribute.Float64("correct_rate", in.Stats.CorrectRate),
		attribute.Int("items_studied", in.Stats.ItemsStudied),
	)

	log := u.deps.Log.With("user_id", in.UserID, "content_set_id", in.ContentSetID)

	release, err := u.lock(ctx, in.UserID, in.ContentSetID)
	if err != nil {
		log.Warn("handle struggling: lock failed", "error", err)
		u.deps.Recorder.ObserveRegress(OutcomeLockFailed, 0, 0)
		return RegressResult{}
	}
	defer release()

	current := u.activeTierCeiling(ctx, in.UserID, in.ContentSetID)
	if !IsStruggling(in.Stats, current) {
		u.deps.Recorder.ObserveRegress(OutcomeNotStruggled, 0, 0)
		return RegressResult{}
	}
	previous := current - 1
	if previous < MinTier {
		previous = MinTier
	}

	unarchived := []uuid.UUID{}
	candidates, err := u.deps.Store.ListArchivedAtTier(ctx, in.UserID, in.ContentSetID, previous, ReinforcementCount)
	if err != nil {
		log.Warn("handle struggling: list archived failed", "error", err, "tier", previous)
		candidates = nil
	}
	if len(candidates) > ReinforcementCount {
		candidates = candidates[:ReinforcementCount]
	}
	if len(candidates) > 0 {
		unarchived, err = u.deps.Store.Unarchive(ctx, in.UserID, candidates, ReinforcementMasteryLevel, ReinforcementConsecutive)
		if err != nil {
			log.Warn("handle struggling: unarchive failed", "error", err)
			u.deps.Recorder.ObserveRegress(OutcomeMutateError, 0, 0)
			return RegressResult{}
		}
	}

	reduced := 0
	if failed := dedupeIDs(in.FailedItemIDs); len(failed) > 0 {
		reduced, err = u.deps.Store.ReduceMastery(ctx, in.UserID, failed)
		if err != nil {
			log.Warn("handle struggling: reduce mastery failed", "error", err)
			u.deps.Recorder.ObserveRegress(OutcomeMutateError, 0, 0)
			return RegressResult{}
		}
	}

	out := RegressResult{
		UnarchivedCount:     len(unarchived),
		ReducedMasteryCount: reduced,
		PreviousTier:        previous,
		Message:             regressMessage(len(unarchived), reduced),
	}
	u.deps.Recorder.ObserveRegress(OutcomeRegressed, out.UnarchivedCount, out.ReducedMasteryCount)
	log.Info("handle struggling: regressed",
		"unarchived", out.UnarchivedCount,
		"reduced", out.ReducedMasteryCount,
		"previous_tier", out.PreviousTier,
	)
	return out
}

// activeTierCeiling is the highest tier among items the learner has not
// archived. Items without a mastery record count as active.
func (u Usecases) activeTierCeiling(ctx context.Context, userID, contentSetID uuid.UUID) int {
	items, err := u.deps.Store.ListItems(ctx, contentSetID)
	if err != nil {
		u.deps.Log.Warn("tier ceiling: list items failed", "error", err, "content_set_id", contentSetID)
		return MinTier
	}
	if len(items) == 0 {
		return MinTier
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	archived, err := u.deps.Store.ListRecords(ctx, userID, ids, true)
	if err != nil {
		u.deps.Log.Warn("tier ceiling: list records failed", "error", err, "content_set_id", contentSetID)
		return MinTier
	}
	gone := make(map[uuid.UUID]bool, len(archived))
	for _, rec := range archived {
		if rec != nil {
			gone[rec.ItemID] = true
		}
	}
	current := MinTier
	for _, it := range items {
		if it == nil || gone[it.ID] {
			continue
		}
		if it.DifficultyTier > current {
			current = it.DifficultyTier
		}
	}
	return ClampTier(current)
}

func regressMessage(unarchived, reduced int) string {
	switch {
	case unarchived > 0:
		return fmt.Sprintf("Brought back %d easier %s to reinforce the basics.", unarchived, plural(unarchived, "card", "cards"))
	case reduced > 0:
		return fmt.Sprintf("Marked %d %s for extra practice.", reduced, plural(reduced, "card", "cards"))
	default:
		return ""
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
