package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type ItemRepo interface {
	Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Item, error)
	// ListByContentSetID returns items oldest first; limit <= 0 means no limit.
	ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID, limit int) ([]*types.Item, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Item{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *itemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Item{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID, limit int) ([]*types.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Item{}
	if contentSetID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("content_set_id = ?", contentSetID).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
