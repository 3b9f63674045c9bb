package progression

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// CompleteSession runs the advance path after a study session. It never
// returns an error; a zero AdvanceResult means nothing happened.
func (u Usecases) CompleteSession(ctx context.Context, in CompleteSessionInput) AdvanceResult {
	ctx, span := tracer.Start(ctx, "progression.CompleteSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("content_set_id", in.ContentSetID.String()),
		attribute.Float64("correct_rate", in.Stats.CorrectRate),
	)

	log := u.deps.Log.With("user_id", in.UserID, "content_set_id", in.ContentSetID)

	if in.Stats.CorrectRate < AdvanceMinCorrectRate {
		u.deps.Recorder.ObserveAdvance(OutcomeBelowGate, 0, 0)
		return AdvanceResult{}
	}

	release, err := u.lock(ctx, in.UserID, in.ContentSetID)
	if err != nil {
		log.Warn("complete session: lock failed", "error", err)
		u.deps.Recorder.ObserveAdvance(OutcomeLockFailed, 0, 0)
		return AdvanceResult{}
	}
	defer release()

	eval := u.evaluate(ctx, in.UserID, in.ContentSetID)
	if !eval.ShouldGenerateNew {
		u.deps.Recorder.ObserveAdvance(OutcomeNothingToDo, 0, 0)
		return AdvanceResult{}
	}

	archived, err := u.deps.Store.Archive(ctx, in.UserID, eval.MasteredItemIDs)
	if err != nil {
		log.Warn("complete session: archive failed", "error", err, "mastered", len(eval.MasteredItemIDs))
		u.deps.Recorder.ObserveAdvance(OutcomeArchiveError, 0, 0)
		return AdvanceResult{}
	}
	if len(archived) == 0 {
		// Another writer archived the same rows first.
		u.deps.Recorder.ObserveAdvance(OutcomeNothingToDo, 0, 0)
		return AdvanceResult{}
	}

	generated := u.requestContent(ctx, RequestContentInput{
		ContentSetID:  in.ContentSetID,
		UserID:        in.UserID,
		TargetTier:    eval.NextTier,
		DesiredCount:  len(archived),
		ParentItemIDs: archived,
	})

	out := AdvanceResult{
		ArchivedCount:     len(archived),
		NewItemsGenerated: len(generated),
		NewTier:           eval.NextTier,
	}
	u.deps.Recorder.ObserveAdvance(OutcomeAdvanced, out.ArchivedCount, out.NewItemsGenerated)
	span.SetAttributes(
		attribute.Int("archived_count", out.ArchivedCount),
		attribute.Int("generated_count", out.NewItemsGenerated),
		attribute.Int("new_tier", out.NewTier),
	)
	log.Info("complete session: advanced",
		"archived", out.ArchivedCount,
		"generated", out.NewItemsGenerated,
		"new_tier", out.NewTier,
	)
	return out
}
