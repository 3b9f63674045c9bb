package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type SourceMaterialRepo interface {
	Create(dbc dbctx.Context, rows []*types.SourceMaterial) ([]*types.SourceMaterial, error)
	ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID) ([]*types.SourceMaterial, error)
}

type sourceMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceMaterialRepo(db *gorm.DB, baseLog *logger.Logger) SourceMaterialRepo {
	return &sourceMaterialRepo{db: db, log: baseLog.With("repo", "SourceMaterialRepo")}
}

func (r *sourceMaterialRepo) Create(dbc dbctx.Context, rows []*types.SourceMaterial) ([]*types.SourceMaterial, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.SourceMaterial{}, nil
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

func (r *sourceMaterialRepo) ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID) ([]*types.SourceMaterial, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.SourceMaterial{}
	if contentSetID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("content_set_id = ?", contentSetID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
