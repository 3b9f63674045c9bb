package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/apierr"
)

func seedArchived(h *harness, tier, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		it := h.store.addItem(h.setID, tier)
		h.store.addArchived(h.userID, it.ID)
		ids = append(ids, it.ID)
	}
	return ids
}

func seedActive(h *harness, tier, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		it := h.store.addItem(h.setID, tier)
		h.store.addRecord(h.userID, it.ID, 2, 5, 0)
		ids = append(ids, it.ID)
	}
	return ids
}

func TestIsStruggling(t *testing.T) {
	cases := []struct {
		name  string
		stats SessionStats
		tier  int
		want  bool
	}{
		{"exactly half", SessionStats{CorrectRate: 0.5, ItemsStudied: 10}, 2, false},
		{"just under half", SessionStats{CorrectRate: 0.49, ItemsStudied: 3}, 2, true},
		{"too few items", SessionStats{CorrectRate: 0.1, ItemsStudied: 2}, 3, false},
		{"bottom tier", SessionStats{CorrectRate: 0.1, ItemsStudied: 10}, 1, false},
	}
	for _, tc := range cases {
		if got := IsStruggling(tc.stats, tc.tier); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestHandleStrugglingBoundary(t *testing.T) {
	h := newHarness()
	seedArchived(h, 1, 2)
	seedActive(h, 2, 3)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.5, ItemsStudied: 3},
	})
	if got != (RegressResult{}) {
		t.Fatalf("0.5: want no-op got=%+v", got)
	}
	if h.store.unarchiveCalls != 0 {
		t.Fatalf("0.5: unexpected unarchive")
	}

	got = h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.49, ItemsStudied: 3},
	})
	if got.PreviousTier != 1 || got.UnarchivedCount != 2 {
		t.Fatalf("0.49: want previous=1 unarchived=2 got=%+v", got)
	}
	if got.Message == "" {
		t.Fatalf("0.49: expected a message")
	}
}

func TestHandleStrugglingCapsReinforcement(t *testing.T) {
	h := newHarness()
	archived := seedArchived(h, 1, 5)
	seedActive(h, 2, 4)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.2, ItemsStudied: 4},
	})
	if got.UnarchivedCount != ReinforcementCount {
		t.Fatalf("unarchived: want=%d got=%d", ReinforcementCount, got.UnarchivedCount)
	}
	// Most recently archived come back first.
	for _, id := range archived[2:] {
		rec := h.store.record(h.userID, id)
		if rec.Archived {
			t.Fatalf("item %s should be back in rotation", id)
		}
		if rec.MasteryLevel != ReinforcementMasteryLevel || rec.ConsecutiveCorrect != 0 || rec.ReviewState != types.ReviewStateReview {
			t.Fatalf("item %s reset: got level=%d streak=%d state=%q", id, rec.MasteryLevel, rec.ConsecutiveCorrect, rec.ReviewState)
		}
	}
	for _, id := range archived[:2] {
		if !h.store.record(h.userID, id).Archived {
			t.Fatalf("item %s should stay archived", id)
		}
	}
}

func TestHandleStrugglingNeverFabricates(t *testing.T) {
	h := newHarness()
	seedArchived(h, 1, 1)
	seedActive(h, 2, 3)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.1, ItemsStudied: 5},
	})
	if got.UnarchivedCount != 1 {
		t.Fatalf("unarchived: want=1 got=%d", got.UnarchivedCount)
	}
	if got.Message != "Brought back 1 easier card to reinforce the basics." {
		t.Fatalf("message: got=%q", got.Message)
	}
	if h.gen.callCount() != 0 {
		t.Fatalf("regression must never generate content")
	}
}

func TestHandleStrugglingOnlyReducesMastery(t *testing.T) {
	h := newHarness()
	failed := seedActive(h, 2, 3)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.3, ItemsStudied: 3},
		FailedItemIDs: []uuid.UUID{failed[0], failed[1], failed[0], uuid.Nil},
	})
	want := RegressResult{
		UnarchivedCount:     0,
		ReducedMasteryCount: 2,
		PreviousTier:        1,
		Message:             "Marked 2 cards for extra practice.",
	}
	if got != want {
		t.Fatalf("result: want=%+v got=%+v", want, got)
	}
	if h.store.unarchiveCalls != 0 {
		t.Fatalf("nothing archived at tier 1, unarchive should be skipped")
	}
}

func TestHandleStrugglingEmptyMessageWhenNothingChanged(t *testing.T) {
	h := newHarness()
	seedActive(h, 3, 3)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.3, ItemsStudied: 3},
	})
	if got.PreviousTier != 2 || got.Message != "" || got.UnarchivedCount != 0 || got.ReducedMasteryCount != 0 {
		t.Fatalf("got=%+v", got)
	}
}

func TestHandleStrugglingTierCeilingIgnoresArchivedItems(t *testing.T) {
	h := newHarness()
	seedArchived(h, 3, 2)
	seedActive(h, 1, 4)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.1, ItemsStudied: 4},
	})
	if got != (RegressResult{}) {
		t.Fatalf("active ceiling is tier 1, want no-op got=%+v", got)
	}
}

func TestHandleStrugglingItemsWithoutRecordsCountAsActive(t *testing.T) {
	h := newHarness()
	seedArchived(h, 1, 1)
	h.store.addItem(h.setID, 2)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0, ItemsStudied: 3},
	})
	if got.PreviousTier != 1 || got.UnarchivedCount != 1 {
		t.Fatalf("got=%+v", got)
	}
}

func TestHandleStrugglingMutationFailuresAbort(t *testing.T) {
	cases := map[string]func(*fakeStore){
		"unarchive": func(s *fakeStore) { s.errUnarchive = errBoom },
		"reduce":    func(s *fakeStore) { s.errReduce = errBoom },
	}
	for name, setup := range cases {
		h := newHarness()
		seedArchived(h, 1, 2)
		failed := seedActive(h, 2, 3)
		setup(h.store)

		got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
			UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.2, ItemsStudied: 3},
			FailedItemIDs: failed[:1],
		})
		if got != (RegressResult{}) {
			t.Fatalf("%s: want zero-effect result got=%+v", name, got)
		}
		if h.rec.lastRegress() != OutcomeMutateError {
			t.Fatalf("%s: outcome=%q", name, h.rec.lastRegress())
		}
		if name == "unarchive" && h.store.reduceCalls != 0 {
			t.Fatalf("reduce must not run after unarchive failure")
		}
	}
}

func TestHandleStrugglingReadFailureIsNoop(t *testing.T) {
	h := newHarness()
	seedArchived(h, 1, 2)
	seedActive(h, 2, 3)
	h.store.errListItems = errBoom

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.1, ItemsStudied: 3},
	})
	if got != (RegressResult{}) {
		t.Fatalf("want no-op got=%+v", got)
	}
}

func TestHandleStrugglingLockFailureIsNoop(t *testing.T) {
	h := newHarness().with(func(d *UsecasesDeps) { d.Locker = failingLocker{} })
	seedArchived(h, 1, 2)
	seedActive(h, 2, 3)

	got := h.uc.HandleStruggling(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.1, ItemsStudied: 3},
	})
	if got != (RegressResult{}) || h.store.unarchiveCalls != 0 {
		t.Fatalf("want zero-effect got=%+v", got)
	}
}

func TestRecordReviewTracksStreak(t *testing.T) {
	h := newHarness()
	it := h.store.addItem(h.setID, 1)
	h.store.addRecord(h.userID, it.ID, 1, 1, 0)

	steps := []struct {
		correct bool
		want    int
	}{
		{true, 1}, {true, 2}, {false, 0}, {true, 1},
	}
	for i, s := range steps {
		got, err := h.uc.RecordReview(context.Background(), h.userID, it.ID, s.correct)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.want {
			t.Fatalf("step %d: want=%d got=%d", i, s.want, got)
		}
	}

	_, err := h.uc.RecordReview(context.Background(), h.userID, uuid.New(), true)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("missing record: want 404 got=%v", err)
	}
	_, err = h.uc.RecordReview(context.Background(), uuid.Nil, it.ID, true)
	if !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("missing user: want 400 got=%v", err)
	}
}

func TestProgressionEndToEnd(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var tier1 []uuid.UUID
	for i := 0; i < 5; i++ {
		it := h.store.addItem(h.setID, 1)
		tier1 = append(tier1, it.ID)
		if i < 3 {
			h.store.addMastered(h.userID, it.ID)
		} else {
			h.store.addRecord(h.userID, it.ID, 2, 4, 1)
		}
	}

	adv := h.uc.CompleteSession(ctx, CompleteSessionInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.9, ItemsStudied: 5},
	})
	if adv != (AdvanceResult{ArchivedCount: 3, NewItemsGenerated: 3, NewTier: 2}) {
		t.Fatalf("advance: got=%+v", adv)
	}

	// The scheduler creates records as the new tier-2 items are studied.
	tier2 := h.store.itemsAtTier(h.setID, 2)
	for len(tier2) < 5 {
		h.store.addItem(h.setID, 2)
		tier2 = h.store.itemsAtTier(h.setID, 2)
	}
	for _, it := range tier2 {
		h.store.addRecord(h.userID, it.ID, 3, 6, 2)
	}
	failed := []uuid.UUID{tier2[0].ID, tier2[1].ID}

	reg := h.uc.HandleStruggling(ctx, HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.4, ItemsStudied: 5},
		FailedItemIDs: failed,
	})
	if reg.PreviousTier != 1 || reg.UnarchivedCount != 3 || reg.ReducedMasteryCount != 2 {
		t.Fatalf("regress: got=%+v", reg)
	}
	for _, id := range tier1[:3] {
		rec := h.store.record(h.userID, id)
		if rec.Archived || rec.MasteryLevel != 2 || rec.ConsecutiveCorrect != 0 {
			t.Fatalf("tier-1 item %s: got archived=%v level=%d streak=%d", id, rec.Archived, rec.MasteryLevel, rec.ConsecutiveCorrect)
		}
	}
	for _, id := range failed {
		rec := h.store.record(h.userID, id)
		if rec.MasteryLevel != 1 || rec.ConsecutiveCorrect != 0 || rec.ReviewState != types.ReviewStateRelearning {
			t.Fatalf("failed item %s: got level=%d streak=%d state=%q", id, rec.MasteryLevel, rec.ConsecutiveCorrect, rec.ReviewState)
		}
	}
}

func TestFinishSessionRunsOneSide(t *testing.T) {
	h := newHarness()
	seedMastered(h, 1, 2)

	got := h.uc.FinishSession(context.Background(), HandleStrugglingInput{
		UserID: h.userID, ContentSetID: h.setID, Stats: SessionStats{CorrectRate: 0.9, ItemsStudied: 4},
	})
	if got.Regress != (RegressResult{}) {
		t.Fatalf("regress should be a no-op, got=%+v", got.Regress)
	}
	if got.Advance.ArchivedCount != 2 || got.Advance.NewTier != 2 {
		t.Fatalf("advance: got=%+v", got.Advance)
	}
}
