package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

// MasteryRecordRepo owns the engine-side columns of mastery records. Archive and
// Unarchive are conditional on the prior archived value so a repeated call on
// the same row reports false instead of writing twice.
type MasteryRecordRepo interface {
	Create(dbc dbctx.Context, rows []*types.MasteryRecord) ([]*types.MasteryRecord, error)
	ListByUserAndItemIDs(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID, archived bool) ([]*types.MasteryRecord, error)
	ListArchivedItemIDsAtTier(dbc dbctx.Context, userID, contentSetID uuid.UUID, tier int, limit int) ([]uuid.UUID, error)
	Archive(dbc dbctx.Context, userID, itemID uuid.UUID, at time.Time) (bool, error)
	Unarchive(dbc dbctx.Context, userID, itemID uuid.UUID, resetMasteryLevel, resetConsecutive int) (bool, error)
	UpdateConsecutiveCorrect(dbc dbctx.Context, userID, itemID uuid.UUID, wasCorrect bool, at time.Time) (int, error)
	ReduceMastery(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}

type masteryRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryRecordRepo(db *gorm.DB, baseLog *logger.Logger) MasteryRecordRepo {
	return &masteryRecordRepo{db: db, log: baseLog.With("repo", "MasteryRecordRepo")}
}

func (r *masteryRecordRepo) Create(dbc dbctx.Context, rows []*types.MasteryRecord) ([]*types.MasteryRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MasteryRecord{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.ReviewState == "" {
			row.ReviewState = types.ReviewStateLearning
		}
		row.UpdatedAt = now
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *masteryRecordRepo) ListByUserAndItemIDs(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID, archived bool) ([]*types.MasteryRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.MasteryRecord{}
	if userID == uuid.Nil || len(itemIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND item_id IN ? AND archived = ?", userID, itemIDs, archived).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListArchivedItemIDsAtTier returns the most recently archived items first.
func (r *masteryRecordRepo) ListArchivedItemIDsAtTier(dbc dbctx.Context, userID, contentSetID uuid.UUID, tier int, limit int) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []uuid.UUID{}
	if userID == uuid.Nil || contentSetID == uuid.Nil || limit <= 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.MasteryRecord{}).
		Joins("JOIN progression_item ON progression_item.id = progression_mastery_record.item_id").
		Where("progression_mastery_record.user_id = ?", userID).
		Where("progression_mastery_record.archived = ?", true).
		Where("progression_item.content_set_id = ? AND progression_item.difficulty_tier = ?", contentSetID, tier).
		Where("progression_item.deleted_at IS NULL").
		Order("progression_mastery_record.archived_at DESC").
		Order("progression_mastery_record.item_id ASC").
		Limit(limit).
		Pluck("progression_mastery_record.item_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *masteryRecordRepo) Archive(dbc dbctx.Context, userID, itemID uuid.UUID, at time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.MasteryRecord{}).
		Where("user_id = ? AND item_id = ? AND archived = ?", userID, itemID, false).
		Updates(map[string]interface{}{
			"archived":    true,
			"archived_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *masteryRecordRepo) Unarchive(dbc dbctx.Context, userID, itemID uuid.UUID, resetMasteryLevel, resetConsecutive int) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.MasteryRecord{}).
		Where("user_id = ? AND item_id = ? AND archived = ?", userID, itemID, true).
		Updates(map[string]interface{}{
			"archived":            false,
			"archived_at":         nil,
			"mastery_level":       resetMasteryLevel,
			"consecutive_correct": resetConsecutive,
			"review_state":        string(types.ReviewStateReview),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateConsecutiveCorrect increments the streak on a correct answer and
// resets it to zero otherwise, returning the stored value.
func (r *masteryRecordRepo) UpdateConsecutiveCorrect(dbc dbctx.Context, userID, itemID uuid.UUID, wasCorrect bool, at time.Time) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var streak interface{} = 0
	if wasCorrect {
		streak = gorm.Expr("consecutive_correct + ?", 1)
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.MasteryRecord{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Updates(map[string]interface{}{
			"consecutive_correct": streak,
			"last_reviewed_at":    at,
			"updated_at":          at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var row types.MasteryRecord
	if err := t.WithContext(dbc.Ctx).
		Select("consecutive_correct").
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Take(&row).Error; err != nil {
		return 0, err
	}
	return row.ConsecutiveCorrect, nil
}

func (r *masteryRecordRepo) ReduceMastery(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || len(itemIDs) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.MasteryRecord{}).
		Where("user_id = ? AND item_id IN ?", userID, itemIDs).
		Updates(map[string]interface{}{
			"mastery_level":       1,
			"consecutive_correct": 0,
			"review_state":        string(types.ReviewStateRelearning),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
