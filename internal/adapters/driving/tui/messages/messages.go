// Package messages defines Bubbletea message types for the TUI.
// Messages carry results of background calls back into the Elm loop.
package messages

import (
	"github.com/custodia-labs/medivault/internal/core/domain"
)

// AnswerReceived carries the answer to a question.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// RecommendationsReceived carries recommendations for a question.
type RecommendationsReceived struct {
	Question        string
	Recommendations *domain.Recommendations
	Err             error
}

// SummaryReceived carries the corpus summary.
type SummaryReceived struct {
	Summary *domain.Summary
	Err     error
}

// StatusLoaded carries the index status shown in the status bar.
type StatusLoaded struct {
	Status *domain.IndexStatus
	Err    error
}

// Quit is sent to exit the application.
type Quit struct{}
