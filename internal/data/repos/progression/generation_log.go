package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyladder/internal/domain"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type GenerationLogRepo interface {
	Create(dbc dbctx.Context, row *types.GenerationLog) error
	ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID) ([]*types.GenerationLog, error)
}

type generationLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationLogRepo(db *gorm.DB, baseLog *logger.Logger) GenerationLogRepo {
	return &generationLogRepo{db: db, log: baseLog.With("repo", "GenerationLogRepo")}
}

func (r *generationLogRepo) Create(dbc dbctx.Context, row *types.GenerationLog) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *generationLogRepo) ListByContentSetID(dbc dbctx.Context, contentSetID uuid.UUID) ([]*types.GenerationLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.GenerationLog{}
	if contentSetID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("content_set_id = ?", contentSetID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
