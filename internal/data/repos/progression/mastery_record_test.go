package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/data/repos/testutil"
	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
)

func TestMasteryRecordRepoArchiveIsConditional(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	item := testutil.SeedItem(t, ctx, tx, uuid.New(), 1)
	testutil.SeedMastery(t, ctx, tx, userID, item.ID, testutil.Mastered())

	now := time.Now().UTC()
	ok, err := repo.Archive(dbc, userID, item.ID, now)
	if err != nil || !ok {
		t.Fatalf("Archive first: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Archive(dbc, userID, item.ID, now)
	if err != nil {
		t.Fatalf("Archive second: %v", err)
	}
	if ok {
		t.Fatalf("Archive second: want no-op on already archived row")
	}

	active, err := repo.ListByUserAndItemIDs(dbc, userID, []uuid.UUID{item.ID}, false)
	if err != nil || len(active) != 0 {
		t.Fatalf("active after archive: err=%v len=%d", err, len(active))
	}
	archived, err := repo.ListByUserAndItemIDs(dbc, userID, []uuid.UUID{item.ID}, true)
	if err != nil || len(archived) != 1 {
		t.Fatalf("archived after archive: err=%v len=%d", err, len(archived))
	}
	if archived[0].ArchivedAt == nil {
		t.Fatalf("archived_at not stamped")
	}
}

func TestMasteryRecordRepoUnarchiveResetsSignals(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	item := testutil.SeedItem(t, ctx, tx, uuid.New(), 1)
	testutil.SeedMastery(t, ctx, tx, userID, item.ID, testutil.Mastered(), testutil.ArchivedAt(time.Now().UTC()))

	ok, err := repo.Unarchive(dbc, userID, item.ID, 2, 0)
	if err != nil || !ok {
		t.Fatalf("Unarchive: ok=%v err=%v", ok, err)
	}
	row := testutil.LoadMastery(t, ctx, tx, userID, item.ID)
	if row.Archived || row.ArchivedAt != nil {
		t.Fatalf("row still archived: archived=%v at=%v", row.Archived, row.ArchivedAt)
	}
	if row.MasteryLevel != 2 || row.ConsecutiveCorrect != 0 {
		t.Fatalf("reset: want level=2 streak=0 got level=%d streak=%d", row.MasteryLevel, row.ConsecutiveCorrect)
	}
	if row.ReviewState != types.ReviewStateReview {
		t.Fatalf("review state: want=%q got=%q", types.ReviewStateReview, row.ReviewState)
	}

	ok, err = repo.Unarchive(dbc, userID, item.ID, 2, 0)
	if err != nil || ok {
		t.Fatalf("Unarchive active row: want no-op, ok=%v err=%v", ok, err)
	}
}

func TestMasteryRecordRepoListArchivedItemIDsAtTier(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	setID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	var tier1 []uuid.UUID
	for i := 0; i < 4; i++ {
		it := testutil.SeedItem(t, ctx, tx, setID, 1)
		testutil.SeedMastery(t, ctx, tx, userID, it.ID, testutil.Mastered(), testutil.ArchivedAt(base.Add(time.Duration(i)*time.Minute)))
		tier1 = append(tier1, it.ID)
	}
	// Noise: other tier, other set, other user, active row.
	t2 := testutil.SeedItem(t, ctx, tx, setID, 2)
	testutil.SeedMastery(t, ctx, tx, userID, t2.ID, testutil.ArchivedAt(base))
	otherSet := testutil.SeedItem(t, ctx, tx, uuid.New(), 1)
	testutil.SeedMastery(t, ctx, tx, userID, otherSet.ID, testutil.ArchivedAt(base))
	testutil.SeedMastery(t, ctx, tx, uuid.New(), tier1[0], testutil.ArchivedAt(base))
	active := testutil.SeedItem(t, ctx, tx, setID, 1)
	testutil.SeedMastery(t, ctx, tx, userID, active.ID)

	ids, err := repo.ListArchivedItemIDsAtTier(dbc, userID, setID, 1, 3)
	if err != nil {
		t.Fatalf("ListArchivedItemIDsAtTier: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len: want=3 got=%d", len(ids))
	}
	want := []uuid.UUID{tier1[3], tier1[2], tier1[1]}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order[%d]: want=%s got=%s", i, want[i], ids[i])
		}
	}

	ids, err = repo.ListArchivedItemIDsAtTier(dbc, userID, setID, 3, 3)
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty tier: err=%v len=%d", err, len(ids))
	}
}

func TestMasteryRecordRepoConsecutiveCorrect(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	item := testutil.SeedItem(t, ctx, tx, uuid.New(), 1)
	testutil.SeedMastery(t, ctx, tx, userID, item.ID)

	now := time.Now().UTC()
	outcomes := []struct {
		correct bool
		want    int
	}{
		{true, 1}, {true, 2}, {true, 3}, {false, 0}, {true, 1},
	}
	for i, o := range outcomes {
		got, err := repo.UpdateConsecutiveCorrect(dbc, userID, item.ID, o.correct, now)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != o.want {
			t.Fatalf("step %d: want=%d got=%d", i, o.want, got)
		}
	}

	_, err := repo.UpdateConsecutiveCorrect(dbc, userID, uuid.New(), true, now)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing record: want ErrRecordNotFound got=%v", err)
	}
}

func TestMasteryRecordRepoReduceMastery(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMasteryRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	setID := uuid.New()
	a := testutil.SeedItem(t, ctx, tx, setID, 2)
	b := testutil.SeedItem(t, ctx, tx, setID, 2)
	testutil.SeedMastery(t, ctx, tx, userID, a.ID, testutil.Level(3, 12, 2))
	testutil.SeedMastery(t, ctx, tx, userID, b.ID, testutil.Level(4, 20, 5))

	n, err := repo.ReduceMastery(dbc, userID, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("ReduceMastery: %v", err)
	}
	if n != 2 {
		t.Fatalf("affected: want=2 got=%d", n)
	}
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		row := testutil.LoadMastery(t, ctx, tx, userID, id)
		if row.MasteryLevel != 1 || row.ConsecutiveCorrect != 0 || row.ReviewState != types.ReviewStateRelearning {
			t.Fatalf("row %s: level=%d streak=%d state=%q", id, row.MasteryLevel, row.ConsecutiveCorrect, row.ReviewState)
		}
		if row.StabilityDays == 0 {
			t.Fatalf("row %s: stability must be left to the scheduler", id)
		}
	}
	if n, err := repo.ReduceMastery(dbc, userID, nil); err != nil || n != 0 {
		t.Fatalf("ReduceMastery(nil): n=%d err=%v", n, err)
	}
}
