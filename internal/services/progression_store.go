package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studyladder/internal/data/aggregates"
	"github.com/yungbote/studyladder/internal/data/repos"
	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type progressionStore struct {
	log     *logger.Logger
	tx      aggregates.TxRunner
	items   repos.ItemRepo
	records repos.MasteryRecordRepo
	genLogs repos.GenerationLogRepo
	now     func() time.Time
}

// NewProgressionStore backs the progression engine with the relational repos.
// Batch archive state changes run in one transaction, one conditional update
// per row.
func NewProgressionStore(
	log *logger.Logger,
	tx aggregates.TxRunner,
	items repos.ItemRepo,
	records repos.MasteryRecordRepo,
	genLogs repos.GenerationLogRepo,
) progression.Store {
	return &progressionStore{
		log:     log.With("service", "ProgressionStore"),
		tx:      tx,
		items:   items,
		records: records,
		genLogs: genLogs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressionStore) ListItems(ctx context.Context, contentSetID uuid.UUID) ([]*types.Item, error) {
	out, err := s.items.ListByContentSetID(dbctx.Context{Ctx: ctx}, contentSetID, 0)
	if err != nil {
		return nil, aggregates.MapError("progression.list_items", err)
	}
	return out, nil
}

func (s *progressionStore) ListRecords(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, archived bool) ([]*types.MasteryRecord, error) {
	out, err := s.records.ListByUserAndItemIDs(dbctx.Context{Ctx: ctx}, userID, itemIDs, archived)
	if err != nil {
		return nil, aggregates.MapError("progression.list_records", err)
	}
	return out, nil
}

func (s *progressionStore) ListArchivedAtTier(ctx context.Context, userID, contentSetID uuid.UUID, tier, limit int) ([]uuid.UUID, error) {
	out, err := s.records.ListArchivedItemIDsAtTier(dbctx.Context{Ctx: ctx}, userID, contentSetID, tier, limit)
	if err != nil {
		return nil, aggregates.MapError("progression.list_archived", err)
	}
	return out, nil
}

func (s *progressionStore) Archive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, error) {
	flipped := []uuid.UUID{}
	if len(itemIDs) == 0 {
		return flipped, nil
	}
	at := s.now()
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		flipped = flipped[:0]
		for _, id := range itemIDs {
			ok, err := s.records.Archive(dbc, userID, id, at)
			if err != nil {
				return err
			}
			if ok {
				flipped = append(flipped, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError("progression.archive", err)
	}
	if skipped := len(itemIDs) - len(flipped); skipped > 0 {
		s.log.Debug("archive skipped rows already archived", "user_id", userID, "skipped", skipped)
	}
	return flipped, nil
}

func (s *progressionStore) Unarchive(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID, resetMasteryLevel, resetConsecutive int) ([]uuid.UUID, error) {
	flipped := []uuid.UUID{}
	if len(itemIDs) == 0 {
		return flipped, nil
	}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		flipped = flipped[:0]
		for _, id := range itemIDs {
			ok, err := s.records.Unarchive(dbc, userID, id, resetMasteryLevel, resetConsecutive)
			if err != nil {
				return err
			}
			if ok {
				flipped = append(flipped, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError("progression.unarchive", err)
	}
	return flipped, nil
}

func (s *progressionStore) UpdateConsecutiveCorrect(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (int, error) {
	n, err := s.records.UpdateConsecutiveCorrect(dbctx.Context{Ctx: ctx}, userID, itemID, wasCorrect, s.now())
	if err != nil {
		return 0, aggregates.MapError("progression.update_streak", err)
	}
	return n, nil
}

func (s *progressionStore) ReduceMastery(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int, error) {
	n, err := s.records.ReduceMastery(dbctx.Context{Ctx: ctx}, userID, itemIDs)
	if err != nil {
		return 0, aggregates.MapError("progression.reduce_mastery", err)
	}
	return int(n), nil
}

func (s *progressionStore) CreateItems(ctx context.Context, items []*types.Item) ([]*types.Item, error) {
	out, err := s.items.Create(dbctx.Context{Ctx: ctx}, items)
	if err != nil {
		return nil, aggregates.MapError("progression.create_items", err)
	}
	return out, nil
}

func (s *progressionStore) AppendGenerationLog(ctx context.Context, entry *types.GenerationLog) error {
	if err := s.genLogs.Create(dbctx.Context{Ctx: ctx}, entry); err != nil {
		return aggregates.MapError("progression.append_generation_log", err)
	}
	return nil
}
