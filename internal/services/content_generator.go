package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/logger"
	"github.com/yungbote/studyladder/internal/platform/openai"
	"github.com/yungbote/studyladder/internal/platform/promptstyle"
)

const flashcardSchemaName = "flashcard_batch"

type contentGenerator struct {
	log *logger.Logger
	ai  openai.Client
}

// NewContentGenerator turns generation requests into strict-schema flashcard
// batches from the Responses API.
func NewContentGenerator(log *logger.Logger, ai openai.Client) progression.ContentGenerator {
	return &contentGenerator{log: log.With("service", "ContentGenerator"), ai: ai}
}

func flashcardSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"items"},
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"question", "answer", "category"},
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"answer":   map[string]any{"type": "string"},
						"category": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

func (g *contentGenerator) Generate(ctx context.Context, req progression.GenerationRequest) ([]progression.Candidate, error) {
	if req.Count <= 0 {
		return []progression.Candidate{}, nil
	}
	system := promptstyle.ApplySystem(systemPrompt(req), promptstyle.ModeJSON)
	out, err := g.ai.GenerateJSON(ctx, system, userPrompt(req), flashcardSchemaName, flashcardSchema())
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}
	cands, err := decodeCandidates(out)
	if err != nil {
		return nil, err
	}
	g.log.Debug("flashcards generated", "content_set_id", req.ContentSetID, "tier", req.Tier, "requested", req.Count, "returned", len(cands))
	return cands, nil
}

func systemPrompt(req progression.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d new flashcards at difficulty tier %d.\n", req.Count, req.Tier)
	if d := strings.TrimSpace(req.Directive); d != "" {
		b.WriteString("Difficulty directive: ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("Each card has a question, a concise answer, and a short category label.\n")
	b.WriteString("Do not repeat or trivially rephrase any existing card.")
	return b.String()
}

func userPrompt(req progression.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("SOURCE MATERIAL:\n")
	if s := strings.TrimSpace(req.SourceText); s != "" {
		b.WriteString(s)
	} else {
		b.WriteString("(none provided)")
	}
	if ex := strings.TrimSpace(req.ExclusionText); ex != "" {
		b.WriteString("\n\nEXISTING CARDS (do not duplicate):\n")
		b.WriteString(ex)
	}
	return b.String()
}

func decodeCandidates(out map[string]any) ([]progression.Candidate, error) {
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("re-encode generator output: %w", err)
	}
	var batch struct {
		Items []progression.Candidate `json:"items"`
	}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("decode generator output: %w", err)
	}
	if batch.Items == nil {
		return []progression.Candidate{}, nil
	}
	return batch.Items, nil
}
