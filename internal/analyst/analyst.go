// Package analyst wraps the external language-model services: the Analyst
// that deep-scores single events and the Summarizer that condenses the event
// stream. All failures are non-fatal; heuristic scores stand when the model
// is unreachable.
package analyst

import (
	"context"

	"github.com/peepingotter/director/internal/types"
)

// Request is one event submitted for deep analysis.
type Request struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
	Context  string `json:"context,omitempty"` // current summary, for grounding
}

// Analysis is the model's verdict on one event.
type Analysis struct {
	Scores    types.EventScore `json:"scores"`
	Sentiment string           `json:"sentiment"`
	Summary   string           `json:"summary"`
	UserFacts []string         `json:"user_facts,omitempty"`
}

// StreamSummary is the Summarizer's digest of the recent stream.
type StreamSummary struct {
	Summary           string   `json:"summary"`
	Prediction        string   `json:"prediction"`
	ConversationState string   `json:"conversation_state"`
	Topics            []string `json:"topics,omitempty"`
	Entities          []string `json:"entities,omitempty"`
}

// Analyst deep-scores events.
type Analyst interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

// Summarizer condenses the stream and compresses event batches.
type Summarizer interface {
	Summarize(ctx context.Context, layered string) (*StreamSummary, error)
	SummarizeBatch(ctx context.Context, texts []string) (string, error)
}
