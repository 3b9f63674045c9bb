package progression

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	types "github.com/yungbote/studyladder/internal/domain"
)

// Generation status labels reported to the Recorder.
const (
	GenerationOK    = "ok"
	GenerationEmpty = "empty"
	GenerationError = "error"
)

// RequestContent asks the generator for up to DesiredCount items at
// TargetTier, persists the accepted ones and returns their ids. Every failure
// yields an empty slice.
func (u Usecases) RequestContent(ctx context.Context, in RequestContentInput) []uuid.UUID {
	ctx, span := tracer.Start(ctx, "progression.RequestContent")
	defer span.End()
	span.SetAttributes(
		attribute.String("content_set_id", in.ContentSetID.String()),
		attribute.Int("target_tier", in.TargetTier),
		attribute.Int("desired_count", in.DesiredCount),
	)

	ids := u.requestContent(ctx, in)
	span.SetAttributes(attribute.Int("generated_count", len(ids)))
	return ids
}

func (u Usecases) requestContent(ctx context.Context, in RequestContentInput) []uuid.UUID {
	out := []uuid.UUID{}
	if in.DesiredCount <= 0 || in.ContentSetID == uuid.Nil {
		return out
	}
	log := u.deps.Log.With("user_id", in.UserID, "content_set_id", in.ContentSetID, "target_tier", in.TargetTier)
	if u.deps.Generator == nil {
		log.Warn("request content: no generator configured")
		return out
	}
	cfg := u.deps.Config
	tier := ClampTier(in.TargetTier)

	var sourceText, exclusionText string
	var g errgroup.Group
	g.Go(func() error {
		if u.deps.Materials == nil {
			return nil
		}
		txt, err := u.deps.Materials.SourceText(ctx, in.ContentSetID)
		if err != nil {
			return err
		}
		sourceText = txt
		return nil
	})
	g.Go(func() error {
		if u.deps.Materials == nil {
			return nil
		}
		txt, err := u.deps.Materials.ExistingItemText(ctx, in.ContentSetID, cfg.ExistingItemSampleSize)
		if err != nil {
			// Generation can proceed without a dedupe hint.
			log.Warn("request content: existing item text failed", "error", err)
			return nil
		}
		exclusionText = txt
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn("request content: source text failed", "error", err)
		return out
	}

	req := GenerationRequest{
		ContentSetID:  in.ContentSetID,
		Tier:          tier,
		Directive:     u.tiers.DirectiveFor(tier),
		ExclusionText: TruncateChars(exclusionText, cfg.MaxExclusionTextChars),
		SourceText:    TruncateChars(sourceText, cfg.MaxSourceTextChars),
		Count:         in.DesiredCount,
	}

	candidates, err := u.generate(ctx, req)
	if err != nil {
		log.Warn("request content: generation failed", "error", err)
		return out
	}
	if len(candidates) == 0 {
		log.Info("request content: generator returned nothing")
		return out
	}
	if len(candidates) > in.DesiredCount {
		candidates = candidates[:in.DesiredCount]
	}

	items := BuildItems(in.ContentSetID, tier, candidates, in.ParentItemIDs)
	if len(items) == 0 {
		log.Info("request content: no usable candidates", "returned", len(candidates))
		return out
	}
	created, err := u.deps.Store.CreateItems(ctx, items)
	if err != nil {
		log.Warn("request content: persist items failed", "error", err)
		return out
	}
	for _, it := range created {
		out = append(out, it.ID)
	}

	sources, _ := json.Marshal(nonNilIDs(in.ParentItemIDs))
	entry := &types.GenerationLog{
		ContentSetID:   in.ContentSetID,
		UserID:         in.UserID,
		ContentType:    types.ContentTypeFlashcard,
		Tier:           tier,
		GeneratedCount: len(out),
		SourceItemIDs:  datatypes.JSON(sources),
	}
	if err := u.deps.Store.AppendGenerationLog(ctx, entry); err != nil {
		log.Warn("request content: generation log failed", "error", err)
	}
	log.Info("request content: items created", "count", len(out))
	return out
}

func (u Usecases) generate(ctx context.Context, req GenerationRequest) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "progression.Generate")
	defer span.End()

	genCtx, cancel := context.WithTimeout(ctx, u.deps.Config.GenerationTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := u.deps.Generator.Generate(genCtx, req)
	dur := time.Since(start)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		u.deps.Recorder.ObserveGeneration(GenerationError, dur)
	case len(candidates) == 0:
		u.deps.Recorder.ObserveGeneration(GenerationEmpty, dur)
	default:
		u.deps.Recorder.ObserveGeneration(GenerationOK, dur)
	}
	return candidates, err
}

// BuildItems stamps candidates with the target tier and pairs candidate i with
// parents[i]. Candidates without a question or answer are dropped; their
// parent slot is not reused.
func BuildItems(contentSetID uuid.UUID, tier int, candidates []Candidate, parents []uuid.UUID) []*types.Item {
	out := make([]*types.Item, 0, len(candidates))
	meta := datatypes.JSON([]byte(`{"origin":"generated"}`))
	for i, c := range candidates {
		q := strings.TrimSpace(c.Question)
		a := strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			continue
		}
		it := &types.Item{
			ContentSetID:   contentSetID,
			Question:       q,
			Answer:         a,
			Category:       strings.TrimSpace(c.Category),
			DifficultyTier: ClampTier(tier),
			Metadata:       meta,
		}
		if i < len(parents) && parents[i] != uuid.Nil {
			p := parents[i]
			it.ParentItemID = &p
		}
		out = append(out, it)
	}
	return out
}

// TruncateChars keeps the first limit characters of s. It never splits a
// multi-byte character.
func TruncateChars(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			out = append(out, id)
		}
	}
	return out
}
