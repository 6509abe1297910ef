package analyst

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/semaphore"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// noiseThreshold is the minimum weighted-average delta before an analysis
// result overwrites the heuristic score. Near-identical rescoring would only
// make downstream decisions flap.
const noiseThreshold = 0.1

// EnricherConfig bounds the async analysis pipeline.
type EnricherConfig struct {
	MaxConcurrent int64
}

// DefaultEnricherConfig allows three in-flight analyses.
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{MaxConcurrent: 3}
}

// Enricher dispatches deep analysis in the background, bounded by a
// semaphore, and applies results through the store's locked mutators.
// Ingestion never blocks on it.
type Enricher struct {
	analyst Analyst
	sem     *semaphore.Weighted

	// OnResult, if set, runs after a result has been applied. The engine
	// uses it for memory promotion and profile updates.
	OnResult func(event *types.EventItem, a *Analysis)
}

// NewEnricher creates an enricher over the given analyst.
func NewEnricher(cfg EnricherConfig, a Analyst) *Enricher {
	return &Enricher{
		analyst: a,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Enrich schedules one event for deep analysis. If all analysis slots are
// busy the event is skipped rather than queued; the heuristic score stands.
func (e *Enricher) Enrich(ctx context.Context, s *store.ContextStore, event *types.EventItem, streamContext string) {
	if e.analyst == nil {
		return
	}
	if !e.sem.TryAcquire(1) {
		return
	}

	go func() {
		defer e.sem.Release(1)

		analysis, err := e.analyst.Analyze(ctx, Request{
			Text:     event.Text,
			Username: event.Meta.Username,
			Context:  streamContext,
		})
		if err != nil {
			fmt.Printf("[analyst] enrichment skipped for %.30s: %v\n", event.Text, err)
			return
		}
		e.apply(s, event, analysis)
	}()
}

func (e *Enricher) apply(s *store.ContextStore, event *types.EventItem, a *Analysis) {
	delta := math.Abs(a.Scores.WeightedAverage() - event.Score.WeightedAverage())
	if delta > noiseThreshold {
		s.UpdateEventScore(event.ID, a.Scores)
	}
	if a.Sentiment != "" {
		s.SetEventSentiment(event.ID, a.Sentiment)
		s.UpdateMood(a.Sentiment)
	}
	if e.OnResult != nil {
		e.OnResult(event, a)
	}
}
