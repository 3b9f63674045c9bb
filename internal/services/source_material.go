package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yungbote/studyladder/internal/data/aggregates"
	"github.com/yungbote/studyladder/internal/data/repos"
	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/dbctx"
	"github.com/yungbote/studyladder/internal/platform/gcp"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type SourceMaterialConfig struct {
	// MaxObjectBytes caps a single stored object read.
	MaxObjectBytes int64
	CacheSize      int
	CacheTTL       time.Duration
}

func DefaultSourceMaterialConfig() SourceMaterialConfig {
	return SourceMaterialConfig{
		MaxObjectBytes: 1 << 20,
		CacheSize:      256,
		CacheTTL:       10 * time.Minute,
	}
}

type sourceMaterialService struct {
	log       *logger.Logger
	materials repos.SourceMaterialRepo
	items     repos.ItemRepo
	bucket    gcp.MaterialBucket
	objects   *expirable.LRU[string, string]
	cfg       SourceMaterialConfig
}

// NewSourceMaterialService renders a content set's study text and existing
// items for the generator. bucket may be nil when every material is stored
// inline.
func NewSourceMaterialService(
	log *logger.Logger,
	materials repos.SourceMaterialRepo,
	items repos.ItemRepo,
	bucket gcp.MaterialBucket,
	cfg SourceMaterialConfig,
) progression.SourceMaterials {
	def := DefaultSourceMaterialConfig()
	if cfg.MaxObjectBytes <= 0 {
		cfg.MaxObjectBytes = def.MaxObjectBytes
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &sourceMaterialService{
		log:       log.With("service", "SourceMaterialService"),
		materials: materials,
		items:     items,
		bucket:    bucket,
		objects:   expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
		cfg:       cfg,
	}
}

// SourceText joins the set's materials in position order, each under a
// "## name" heading when named. Missing objects are skipped; any other storage
// failure is returned.
func (s *sourceMaterialService) SourceText(ctx context.Context, contentSetID uuid.UUID) (string, error) {
	rows, err := s.materials.ListByContentSetID(dbctx.Context{Ctx: ctx}, contentSetID)
	if err != nil {
		return "", aggregates.MapError("progression.source_materials", err)
	}
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		text := strings.TrimSpace(row.Text)
		if text == "" && row.StorageKey != "" {
			text, err = s.objectText(ctx, row.StorageKey)
			if errors.Is(err, gcp.ErrObjectNotFound) {
				s.log.Warn("source material object missing", "material_id", row.ID, "storage_key", row.StorageKey)
				continue
			}
			if err != nil {
				return "", fmt.Errorf("read material %s: %w", row.ID, err)
			}
		}
		if text == "" {
			continue
		}
		if name := strings.TrimSpace(row.Name); name != "" {
			text = "## " + name + "\n\n" + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *sourceMaterialService) objectText(ctx context.Context, key string) (string, error) {
	if v, ok := s.objects.Get(key); ok {
		return v, nil
	}
	if s.bucket == nil {
		return "", fmt.Errorf("material bucket not configured for key %s", key)
	}
	raw, err := s.bucket.ReadText(ctx, key, s.cfg.MaxObjectBytes)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	s.objects.Add(key, text)
	return text, nil
}

// ExistingItemText renders up to limit items as Q/A pairs so the generator can
// avoid duplicating them.
func (s *sourceMaterialService) ExistingItemText(ctx context.Context, contentSetID uuid.UUID, limit int) (string, error) {
	rows, err := s.items.ListByContentSetID(dbctx.Context{Ctx: ctx}, contentSetID, limit)
	if err != nil {
		return "", aggregates.MapError("progression.existing_items", err)
	}
	var b strings.Builder
	for _, it := range rows {
		q := strings.TrimSpace(it.Question)
		if q == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Q: ")
		b.WriteString(q)
		b.WriteString("\nA: ")
		b.WriteString(strings.TrimSpace(it.Answer))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
