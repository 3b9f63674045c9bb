package progression

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/domain/aggregates"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

var errBoom = errors.New("boom")

type recordKey struct {
	user uuid.UUID
	item uuid.UUID
}

// fakeStore is an in-memory Store with the same conditional archive semantics
// as the gorm adapter.
type fakeStore struct {
	mu      sync.Mutex
	base    time.Time
	tick    int
	items   []*types.Item
	records map[recordKey]*types.MasteryRecord
	logs    []*types.GenerationLog

	archiveCalls   int
	unarchiveCalls int
	reduceCalls    int

	errListItems    error
	errListRecords  error
	errListArchived error
	errArchive      error
	errUnarchive    error
	errReduce       error
	errCreate       error
	errLog          error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		base:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		records: map[recordKey]*types.MasteryRecord{},
	}
}

func (s *fakeStore) now() time.Time {
	s.tick++
	return s.base.Add(time.Duration(s.tick) * time.Minute)
}

func (s *fakeStore) addItem(setID uuid.UUID, tier int) *types.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &types.Item{
		ID:             uuid.New(),
		ContentSetID:   setID,
		Question:       fmt.Sprintf("q%d", len(s.items)),
		Answer:         "a",
		DifficultyTier: tier,
		CreatedAt:      s.now(),
	}
	s.items = append(s.items, it)
	return it
}

func (s *fakeStore) addRecord(userID, itemID uuid.UUID, level int, stability float64, streak int) *types.MasteryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &types.MasteryRecord{
		ID:                 uuid.New(),
		UserID:             userID,
		ItemID:             itemID,
		MasteryLevel:       level,
		StabilityDays:      stability,
		ConsecutiveCorrect: streak,
		ReviewState:        types.ReviewStateReview,
	}
	s.records[recordKey{userID, itemID}] = rec
	return rec
}

func (s *fakeStore) addMastered(userID, itemID uuid.UUID) *types.MasteryRecord {
	return s.addRecord(userID, itemID, 4, 31, 3)
}

func (s *fakeStore) addArchived(userID, itemID uuid.UUID) *types.MasteryRecord {
	rec := s.addMastered(userID, itemID)
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	rec.Archived = true
	rec.ArchivedAt = &at
	return rec
}

func (s *fakeStore) record(userID, itemID uuid.UUID) types.MasteryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.records[recordKey{userID, itemID}]
	if rec == nil {
		return types.MasteryRecord{}
	}
	return *rec
}

func (s *fakeStore) itemsAtTier(setID uuid.UUID, tier int) []*types.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.Item
	for _, it := range s.items {
		if it.ContentSetID == setID && it.DifficultyTier == tier {
			out = append(out, it)
		}
	}
	return out
}

func (s *fakeStore) ListItems(ctx context.Context, contentSetID uuid.UUID) ([]*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errListItems != nil {
		return nil, s.errListItems
	}
	out := []*types.Item{}
	for _, it := range s.items {
		if it.ContentSetID == contentSetID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) ListRecords(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, archived bool) ([]*types.MasteryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errListRecords != nil {
		return nil, s.errListRecords
	}
	out := []*types.MasteryRecord{}
	for _, id := range itemIDs {
		rec := s.records[recordKey{userID, id}]
		if rec != nil && rec.Archived == archived {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) ListArchivedAtTier(ctx context.Context, userID, contentSetID uuid.UUID, tier, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errListArchived != nil {
		return nil, s.errListArchived
	}
	var recs []*types.MasteryRecord
	for _, it := range s.items {
		if it.ContentSetID != contentSetID || it.DifficultyTier != tier {
			continue
		}
		if rec := s.records[recordKey{userID, it.ID}]; rec != nil && rec.Archived {
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ArchivedAt.After(*recs[j].ArchivedAt) })
	out := []uuid.UUID{}
	for _, rec := range recs {
		if len(out) == limit {
			break
		}
		out = append(out, rec.ItemID)
	}
	return out, nil
}

func (s *fakeStore) Archive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveCalls++
	if s.errArchive != nil {
		return nil, s.errArchive
	}
	out := []uuid.UUID{}
	for _, id := range itemIDs {
		rec := s.records[recordKey{userID, id}]
		if rec == nil || rec.Archived {
			continue
		}
		at := s.now()
		rec.Archived = true
		rec.ArchivedAt = &at
		out = append(out, id)
	}
	return out, nil
}

func (s *fakeStore) Unarchive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, resetMasteryLevel, resetConsecutive int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unarchiveCalls++
	if s.errUnarchive != nil {
		return nil, s.errUnarchive
	}
	out := []uuid.UUID{}
	for _, id := range itemIDs {
		rec := s.records[recordKey{userID, id}]
		if rec == nil || !rec.Archived {
			continue
		}
		rec.Archived = false
		rec.ArchivedAt = nil
		rec.MasteryLevel = resetMasteryLevel
		rec.ConsecutiveCorrect = resetConsecutive
		rec.ReviewState = types.ReviewStateReview
		out = append(out, id)
	}
	return out, nil
}

func (s *fakeStore) UpdateConsecutiveCorrect(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.records[recordKey{userID, itemID}]
	if rec == nil {
		return 0, aggregates.NewError(aggregates.CodeNotFound, "UpdateConsecutiveCorrect", "mastery record not found", nil)
	}
	if wasCorrect {
		rec.ConsecutiveCorrect++
	} else {
		rec.ConsecutiveCorrect = 0
	}
	return rec.ConsecutiveCorrect, nil
}

func (s *fakeStore) ReduceMastery(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reduceCalls++
	if s.errReduce != nil {
		return 0, s.errReduce
	}
	n := 0
	for _, id := range itemIDs {
		rec := s.records[recordKey{userID, id}]
		if rec == nil {
			continue
		}
		rec.MasteryLevel = 1
		rec.ConsecutiveCorrect = 0
		rec.ReviewState = types.ReviewStateRelearning
		n++
	}
	return n, nil
}

func (s *fakeStore) CreateItems(ctx context.Context, items []*types.Item) ([]*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errCreate != nil {
		return nil, s.errCreate
	}
	for _, it := range items {
		it.ID = uuid.New()
		it.CreatedAt = s.now()
		s.items = append(s.items, it)
	}
	return items, nil
}

func (s *fakeStore) AppendGenerationLog(ctx context.Context, entry *types.GenerationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errLog != nil {
		return s.errLog
	}
	s.logs = append(s.logs, entry)
	return nil
}

// fakeGenerator returns out when set, otherwise req.Count numbered candidates.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []GenerationRequest
	out   []Candidate
	err   error
	wait  chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, req GenerationRequest) ([]Candidate, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	wait := g.wait
	g.mu.Unlock()
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.out != nil {
		return g.out, nil
	}
	out := make([]Candidate, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		out = append(out, Candidate{
			Question: fmt.Sprintf("tier %d question %d", req.Tier, i),
			Answer:   fmt.Sprintf("answer %d", i),
			Category: "generated",
		})
	}
	return out, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) lastCall() GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return GenerationRequest{}
	}
	return g.calls[len(g.calls)-1]
}

type fakeMaterials struct {
	source       string
	existing     string
	errSource    error
	errExisting  error
	lastLimit    int
	existingHits int
	mu           sync.Mutex
}

func (m *fakeMaterials) SourceText(ctx context.Context, contentSetID uuid.UUID) (string, error) {
	return m.source, m.errSource
}

func (m *fakeMaterials) ExistingItemText(ctx context.Context, contentSetID uuid.UUID, limit int) (string, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.existingHits++
	m.mu.Unlock()
	return m.existing, m.errExisting
}

type observed struct {
	outcome string
	a, b    int
}

type fakeRecorder struct {
	mu         sync.Mutex
	advance    []observed
	regress    []observed
	generation []string
}

func (r *fakeRecorder) ObserveAdvance(outcome string, archived, generated int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance = append(r.advance, observed{outcome, archived, generated})
}

func (r *fakeRecorder) ObserveRegress(outcome string, unarchived, reduced int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regress = append(r.regress, observed{outcome, unarchived, reduced})
}

func (r *fakeRecorder) ObserveGeneration(status string, dur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation = append(r.generation, status)
}

func (r *fakeRecorder) lastAdvance() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.advance) == 0 {
		return ""
	}
	return r.advance[len(r.advance)-1].outcome
}

func (r *fakeRecorder) lastRegress() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.regress) == 0 {
		return ""
	}
	return r.regress[len(r.regress)-1].outcome
}

type failingLocker struct{}

func (failingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, errBoom
}

type harness struct {
	store *fakeStore
	gen   *fakeGenerator
	mat   *fakeMaterials
	rec   *fakeRecorder
	uc    Usecases

	userID uuid.UUID
	setID  uuid.UUID
}

func newHarness() *harness {
	h := &harness{
		store:  newFakeStore(),
		gen:    &fakeGenerator{},
		mat:    &fakeMaterials{source: "## notes\nphotosynthesis converts light to chemical energy"},
		rec:    &fakeRecorder{},
		userID: uuid.New(),
		setID:  uuid.New(),
	}
	h.uc = New(UsecasesDeps{
		Log:       logger.Nop(),
		Store:     h.store,
		Materials: h.mat,
		Generator: h.gen,
		Recorder:  h.rec,
	})
	return h
}

func (h *harness) with(mod func(*UsecasesDeps)) *harness {
	deps := UsecasesDeps{
		Log:       logger.Nop(),
		Store:     h.store,
		Materials: h.mat,
		Generator: h.gen,
		Recorder:  h.rec,
	}
	mod(&deps)
	h.uc = New(deps)
	return h
}
