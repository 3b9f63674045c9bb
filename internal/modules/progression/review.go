package progression

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/studyladder/internal/domain/aggregates"
	"github.com/yungbote/studyladder/internal/platform/apierr"
)

// RecordReview applies one review outcome to the learner's consecutive-correct
// counter and returns the new value.
func (u Usecases) RecordReview(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (int, error) {
	if userID == uuid.Nil {
		return 0, apierr.New(http.StatusBadRequest, "missing_user_id", nil)
	}
	if itemID == uuid.Nil {
		return 0, apierr.New(http.StatusBadRequest, "missing_item_id", nil)
	}
	n, err := u.deps.Store.UpdateConsecutiveCorrect(ctx, userID, itemID, wasCorrect)
	if err != nil {
		if aggregates.IsCode(err, aggregates.CodeNotFound) {
			return 0, apierr.New(http.StatusNotFound, "mastery_record_not_found", err)
		}
		return 0, apierr.New(http.StatusInternalServerError, "record_review_failed", fmt.Errorf("update consecutive correct: %w", err))
	}
	return n, nil
}

// FinishSession evaluates regression first and then advancement for the same
// session. The two gates never both pass for one correct rate.
func (u Usecases) FinishSession(ctx context.Context, in HandleStrugglingInput) FinishResult {
	regress := u.HandleStruggling(ctx, in)
	advance := u.CompleteSession(ctx, CompleteSessionInput{
		UserID:       in.UserID,
		ContentSetID: in.ContentSetID,
		Stats:        in.Stats,
	})
	return FinishResult{Regress: regress, Advance: advance}
}
