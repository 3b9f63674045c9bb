package progression

import (
	"time"

	"github.com/google/uuid"
)

// Archival predicate. It is the same bar for every item regardless of the
// item's own tier.
const (
	ArchiveMinMasteryLevel    = 4
	ArchiveMinStabilityDays   = 30.0
	ArchiveMinConsecutiveHits = 3
)

const (
	// AdvanceMinCorrectRate is inclusive: a rate of exactly 0.8 advances.
	AdvanceMinCorrectRate = 0.8

	// StrugglingMaxCorrectRate is exclusive: a rate of exactly 0.5 is not struggling.
	StrugglingMaxCorrectRate  = 0.5
	StrugglingMinItemsStudied = 3

	ReinforcementCount        = 3
	ReinforcementMasteryLevel = 2
	ReinforcementConsecutive  = 0
)

// Context budgets for generation requests, in characters.
const (
	MaxSourceTextChars     = 12000
	MaxExclusionTextChars  = 4000
	ExistingItemSampleSize = 50
	GenerationTimeout      = 60 * time.Second
)

// Outcome labels reported to the Recorder.
const (
	OutcomeBelowGate    = "below_gate"
	OutcomeNothingToDo  = "nothing_to_do"
	OutcomeLockFailed   = "lock_failed"
	OutcomeArchiveError = "archive_failed"
	OutcomeAdvanced     = "advanced"
	OutcomeNotStruggled = "not_struggling"
	OutcomeMutateError  = "mutation_failed"
	OutcomeRegressed    = "regressed"
)

type SessionStats struct {
	CorrectRate  float64 `json:"correct_rate"`
	ItemsStudied int     `json:"items_studied"`
}

type Evaluation struct {
	MasteredItemIDs   []uuid.UUID `json:"mastered_item_ids"`
	CurrentTier       int         `json:"current_tier"`
	NextTier          int         `json:"next_tier"`
	ShouldGenerateNew bool        `json:"should_generate_new"`
}

type AdvanceResult struct {
	ArchivedCount     int `json:"archived_count"`
	NewItemsGenerated int `json:"new_items_generated"`
	NewTier           int `json:"new_tier"`
}

type RegressResult struct {
	UnarchivedCount     int    `json:"unarchived_count"`
	ReducedMasteryCount int    `json:"reduced_mastery_count"`
	PreviousTier        int    `json:"previous_tier"`
	Message             string `json:"message"`
}

type FinishResult struct {
	Regress RegressResult `json:"regress"`
	Advance AdvanceResult `json:"advance"`
}

type CompleteSessionInput struct {
	UserID       uuid.UUID
	ContentSetID uuid.UUID
	Stats        SessionStats
}

type HandleStrugglingInput struct {
	UserID        uuid.UUID
	ContentSetID  uuid.UUID
	Stats         SessionStats
	FailedItemIDs []uuid.UUID
}

type RequestContentInput struct {
	ContentSetID  uuid.UUID
	UserID        uuid.UUID
	TargetTier    int
	DesiredCount  int
	ParentItemIDs []uuid.UUID
}

func safeEvaluation() Evaluation {
	return Evaluation{MasteredItemIDs: []uuid.UUID{}, CurrentTier: MinTier, NextTier: MinTier + 1}
}
