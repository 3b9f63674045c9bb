package progression

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/studyladder/internal/domain"
)

// Store is the persistence collaborator. Archive and Unarchive flip only rows
// whose archived flag still has the expected prior value and return the ids
// they actually changed.
type Store interface {
	ListItems(ctx context.Context, contentSetID uuid.UUID) ([]*types.Item, error)
	ListRecords(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, archived bool) ([]*types.MasteryRecord, error)
	ListArchivedAtTier(ctx context.Context, userID, contentSetID uuid.UUID, tier, limit int) ([]uuid.UUID, error)

	Archive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, error)
	Unarchive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, resetMasteryLevel, resetConsecutive int) ([]uuid.UUID, error)
	UpdateConsecutiveCorrect(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (int, error)
	ReduceMastery(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int, error)

	CreateItems(ctx context.Context, items []*types.Item) ([]*types.Item, error)
	AppendGenerationLog(ctx context.Context, entry *types.GenerationLog) error
}

// SourceMaterials returns raw study text for a content set and a text
// rendering of a sample of its existing items.
type SourceMaterials interface {
	SourceText(ctx context.Context, contentSetID uuid.UUID) (string, error)
	ExistingItemText(ctx context.Context, contentSetID uuid.UUID, limit int) (string, error)
}

type GenerationRequest struct {
	ContentSetID  uuid.UUID
	Tier          int
	Directive     string
	ExclusionText string
	SourceText    string
	Count         int
}

type Candidate struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) ([]Candidate, error)
}

// Locker serializes work on one (user, content set) pair.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Recorder receives outcome counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveAdvance(outcome string, archived, generated int)
	ObserveRegress(outcome string, unarchived, reduced int)
	ObserveGeneration(status string, dur time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAdvance(string, int, int)         {}
func (nopRecorder) ObserveRegress(string, int, int)         {}
func (nopRecorder) ObserveGeneration(string, time.Duration) {}
