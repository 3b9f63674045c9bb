package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/data/aggregates"
	"github.com/yungbote/studyladder/internal/data/repos"
	"github.com/yungbote/studyladder/internal/data/repos/testutil"
	types "github.com/yungbote/studyladder/internal/domain"
	domainagg "github.com/yungbote/studyladder/internal/domain/aggregates"
	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
)

func newStore(t *testing.T, db *gorm.DB) progression.Store {
	t.Helper()
	log := testutil.Logger(t)
	return NewProgressionStore(log, aggregates.NewGormTxRunner(db),
		repos.NewItemRepo(db, log), repos.NewMasteryRecordRepo(db, log), repos.NewGenerationLogRepo(db, log))
}

func TestProgressionStoreArchiveReturnsOnlyFlippedIDs(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := newStore(t, db)

	userID, setID := uuid.New(), uuid.New()
	a := testutil.SeedItem(t, ctx, db, setID, 2)
	b := testutil.SeedItem(t, ctx, db, setID, 2)
	noRecord := testutil.SeedItem(t, ctx, db, setID, 2)
	testutil.SeedMastery(t, ctx, db, userID, a.ID, testutil.Mastered())
	testutil.SeedMastery(t, ctx, db, userID, b.ID, testutil.Mastered())

	first, err := store.Archive(ctx, userID, []uuid.UUID{a.ID, b.ID, noRecord.ID})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(first) != 2 || first[0] != a.ID || first[1] != b.ID {
		t.Fatalf("first archive flipped: want=[%s %s] got=%v", a.ID, b.ID, first)
	}

	second, err := store.Archive(ctx, userID, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("Archive again: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second archive flipped: want=0 got=%d", len(second))
	}

	ids, err := store.ListArchivedAtTier(ctx, userID, setID, 2, 10)
	if err != nil {
		t.Fatalf("ListArchivedAtTier: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("archived at tier 2: want=2 got=%d", len(ids))
	}

	back, err := store.Unarchive(ctx, userID, []uuid.UUID{a.ID}, 2, 0)
	if err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	if len(back) != 1 || back[0] != a.ID {
		t.Fatalf("unarchived: want=[%s] got=%v", a.ID, back)
	}
	rec := testutil.LoadMastery(t, ctx, db, userID, a.ID)
	if rec.Archived || rec.MasteryLevel != 2 || rec.ConsecutiveCorrect != 0 {
		t.Fatalf("unarchived record: archived=%v level=%d streak=%d", rec.Archived, rec.MasteryLevel, rec.ConsecutiveCorrect)
	}
}

func TestProgressionStoreMapsMissingRecordToNotFound(t *testing.T) {
	store := newStore(t, testutil.DB(t))

	_, err := store.UpdateConsecutiveCorrect(context.Background(), uuid.New(), uuid.New(), true)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing record: want CodeNotFound got=%v", err)
	}
}

func TestProgressionStoreCreateItemsAndLog(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	genLogs := repos.NewGenerationLogRepo(db, log)
	store := NewProgressionStore(log, aggregates.NewGormTxRunner(db),
		repos.NewItemRepo(db, log), repos.NewMasteryRecordRepo(db, log), genLogs)

	setID, userID := uuid.New(), uuid.New()
	created, err := store.CreateItems(ctx, []*types.Item{
		{ContentSetID: setID, Question: "q1", Answer: "a1", DifficultyTier: 3},
		{ContentSetID: setID, Question: "q2", Answer: "a2", DifficultyTier: 3},
	})
	if err != nil {
		t.Fatalf("CreateItems: %v", err)
	}
	if len(created) != 2 || created[0].ID == uuid.Nil {
		t.Fatalf("created: want 2 items with ids got=%v", created)
	}
	listed, err := store.ListItems(ctx, setID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListItems: err=%v len=%d", err, len(listed))
	}

	if err := store.AppendGenerationLog(ctx, &types.GenerationLog{
		ContentSetID:   setID,
		UserID:         userID,
		ContentType:    types.ContentTypeFlashcard,
		Tier:           3,
		GeneratedCount: 2,
	}); err != nil {
		t.Fatalf("AppendGenerationLog: %v", err)
	}
	entries, err := genLogs.ListByContentSetID(dbctx.Context{Ctx: ctx}, setID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("generation log: err=%v len=%d", err, len(entries))
	}
}
