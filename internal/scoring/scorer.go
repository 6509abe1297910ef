// Package scoring implements the cheap heuristic "sieve" that every incoming
// event passes through synchronously, before any deep analysis is considered.
package scoring

import (
	"github.com/peepingotter/director/internal/types"
)

// DefaultSourceWeights is the base interestingness per source. Direct address
// ranks highest; the agent's own replies score zero so it never reacts to
// itself.
var DefaultSourceWeights = map[types.Source]float64{
	types.SourceDirectMic:       0.8,
	types.SourceChatMention:     0.7,
	types.SourceMic:             0.5,
	types.SourceVisualChange:    0.4,
	types.SourceAmbientAudio:    0.3,
	types.SourceChat:            0.2,
	types.SourceBotReply:        0.0,
	types.SourceSystemPattern:   0.6,
	types.SourceInternalThought: 0.6,
}

// Scorer computes sieve scores from the source and declared metadata alone.
// It is stateless and safe for concurrent use.
type Scorer struct {
	weights map[types.Source]float64
}

// New creates a Scorer. A nil weights map selects DefaultSourceWeights.
func New(weights map[types.Source]float64) *Scorer {
	if weights == nil {
		weights = DefaultSourceWeights
	}
	return &Scorer{weights: weights}
}

// Score produces the heuristic EventScore for an event. Emotional intensity
// and topic relevance start neutral; the analyst overwrites them later if the
// event earns deep analysis.
func (s *Scorer) Score(source types.Source, text string, meta types.EventMeta) types.EventScore {
	base, ok := s.weights[source]
	if !ok {
		base = 0.1
	}

	// Declared hints from the producer sweeten the base weight.
	if meta.Relevance != nil {
		base += *meta.Relevance * 0.3
	}
	if meta.IsSummary {
		base += 0.1
	}
	if meta.Confidence != nil {
		base += *meta.Confidence * 0.1
	}

	urgency := 0.1
	switch source {
	case types.SourceDirectMic, types.SourceChatMention:
		urgency = 0.9
	case types.SourceMic:
		urgency = 0.6
	}
	if meta.Urgency != nil && *meta.Urgency > urgency {
		urgency = *meta.Urgency
	}

	convValue := 0.2
	switch source {
	case types.SourceDirectMic, types.SourceMic, types.SourceChat:
		convValue = 0.7
	}
	if len(text) > 10 {
		convValue += 0.1
	}

	score := types.EventScore{
		Interestingness:     base,
		Urgency:             urgency,
		ConversationalValue: convValue,
		EmotionalIntensity:  0.1,
		TopicRelevance:      0.5,
	}
	score.Clamp()
	return score
}

// BoostDirectAddress raises a score to the direct-address floor: the operator
// spoke to the agent by name, so the event must win attention regardless of
// what else is happening.
func BoostDirectAddress(score *types.EventScore) {
	if score.Interestingness < 0.95 {
		score.Interestingness = 0.95
	}
	if score.Urgency < 0.95 {
		score.Urgency = 0.95
	}
	if score.ConversationalValue < 0.95 {
		score.ConversationalValue = 0.95
	}
}

// BundleScore is the score assigned to a synthesized speech+reaction bundle.
// Bundles are maximally interesting by construction.
func BundleScore() types.EventScore {
	return types.EventScore{
		Interestingness:     1.0,
		Urgency:             0.9,
		ConversationalValue: 1.0,
		EmotionalIntensity:  0.0,
		TopicRelevance:      1.0,
	}
}
