package domain

import (
	"github.com/yungbote/studyladder/internal/domain/progression"
)

type Item = progression.Item
type MasteryRecord = progression.MasteryRecord
type GenerationLog = progression.GenerationLog
type SourceMaterial = progression.SourceMaterial
type ReviewState = progression.ReviewState

const (
	ReviewStateLearning   = progression.ReviewStateLearning
	ReviewStateReview     = progression.ReviewStateReview
	ReviewStateRelearning = progression.ReviewStateRelearning

	ContentTypeFlashcard = progression.ContentTypeFlashcard
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&Item{},
		&MasteryRecord{},
		&GenerationLog{},
		&SourceMaterial{},
	}
}
