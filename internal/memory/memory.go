// Package memory maintains the long-term side of the working memory: decay,
// hybrid retrieval, promotion, narrative compression, and the durable sqlite
// archive.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// BatchSummarizer collapses a batch of event texts into one sentence. The
// analyst provides the production implementation; compression degrades to a
// mechanical join without one.
type BatchSummarizer interface {
	SummarizeBatch(ctx context.Context, texts []string) (string, error)
}

// Config holds the memory subsystem's tuning.
type Config struct {
	DecayRate        float64       // interestingness lost per minute
	DecayInterval    time.Duration // min gap between decay passes
	PromoteThreshold float64       // interestingness that earns promotion
	RAMCap           int           // max in-RAM memories; archive keeps all
	RecencyHorizon   time.Duration // recency falls off linearly over this
	CollapseChunk    int           // narrative entries folded per collapse
}

// DefaultConfig returns the production memory parameters.
func DefaultConfig() Config {
	return Config{
		DecayRate:        0.02,
		DecayInterval:    time.Minute,
		PromoteThreshold: 0.8,
		RAMCap:           500,
		RecencyHorizon:   24 * time.Hour,
		CollapseChunk:    4,
	}
}

// Store runs the memory maintenance operations against the context store.
// Not safe for concurrent use; the reflection loop is its only caller.
type Store struct {
	cfg        Config
	comparator Comparator
	archive    *Archive // optional; nil disables durability

	lastDecay time.Time
	now       func() time.Time
}

// New creates a memory store. A nil comparator selects the lexical default;
// a nil archive disables the durable layer.
func New(cfg Config, comparator Comparator, archive *Archive) *Store {
	if comparator == nil {
		comparator = NewLexicalComparator()
	}
	m := &Store{
		cfg:        cfg,
		comparator: comparator,
		archive:    archive,
		now:        time.Now,
	}
	m.lastDecay = m.now()
	return m
}

// Decay applies time-based decay if at least the decay interval has passed.
func (m *Store) Decay(s *store.ContextStore) {
	now := m.now()
	elapsed := now.Sub(m.lastDecay)
	if elapsed < m.cfg.DecayInterval {
		return
	}
	m.lastDecay = now
	s.DecayMemories(elapsed.Minutes() * m.cfg.DecayRate)
}

// MaybePromote archives an event whose scores cross the promotion bar.
// Returns true if the event became a memory.
func (m *Store) MaybePromote(s *store.ContextStore, e *types.EventItem, summary string) bool {
	sc := e.Score
	if sc.Interestingness < m.cfg.PromoteThreshold &&
		sc.ConversationalValue < m.cfg.PromoteThreshold &&
		sc.EmotionalIntensity < m.cfg.PromoteThreshold {
		return false
	}
	if !s.PromoteToMemory(e, summary) {
		return false
	}
	if m.archive != nil {
		if err := m.archive.SaveMemory(e); err != nil {
			fmt.Printf("[memory] archive write failed: %v\n", err)
		}
	}
	// The RAM list stays bounded; the archive keeps everything.
	s.CapMemories(m.cfg.RAMCap)
	return true
}

// Retrieve ranks memories against the query with the hybrid score:
// 0.6 semantic + 0.3 importance + 0.1 recency, a +0.2 bonus above 0.8
// similarity, and a keyword-overlap bonus capped at +0.15. Trivial queries
// fall back to importance ordering.
func (m *Store) Retrieve(s *store.ContextStore, query string, limit int) []*types.EventItem {
	memories := s.Memories()
	if len(memories) == 0 || limit <= 0 {
		return nil
	}

	if len(strings.TrimSpace(query)) < 3 {
		sort.Slice(memories, func(i, j int) bool {
			return memories[i].Score.Interestingness > memories[j].Score.Interestingness
		})
		if limit > len(memories) {
			limit = len(memories)
		}
		return memories[:limit]
	}

	now := m.now()
	type ranked struct {
		item  *types.EventItem
		score float64
	}
	rankedList := make([]ranked, 0, len(memories))
	for _, mem := range memories {
		sim := m.comparator.Similarity(query, mem.MemoryContent())
		importance := mem.Score.Interestingness
		recency := 1.0 - now.Sub(mem.Timestamp).Seconds()/m.cfg.RecencyHorizon.Seconds()
		if recency < 0 {
			recency = 0
		}

		score := 0.6*sim + 0.3*importance + 0.1*recency
		if sim > 0.8 {
			score += 0.2
		}
		score += keywordBonus(query, mem.MemoryContent())
		rankedList = append(rankedList, ranked{mem, score})
	}

	sort.Slice(rankedList, func(i, j int) bool {
		return rankedList[i].score > rankedList[j].score
	})
	if limit > len(rankedList) {
		limit = len(rankedList)
	}
	out := make([]*types.EventItem, limit)
	for i := 0; i < limit; i++ {
		out[i] = rankedList[i].item
	}
	return out
}

// keywordBonus rewards shared words longer than four characters, 0.05 each,
// capped at 0.15.
func keywordBonus(query, text string) float64 {
	qwords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 4 {
			qwords[w] = true
		}
	}
	bonus := 0.0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if qwords[w] && !seen[w] {
			seen[w] = true
			bonus += 0.05
			if bonus >= 0.15 {
				return 0.15
			}
		}
	}
	return bonus
}

// BuildSmartQuery assembles a retrieval query from the current scene, intent,
// conversation state, and the most recent speech and visual snippets.
// Capped at 500 characters.
func BuildSmartQuery(s *store.ContextStore) string {
	var parts []string

	switch s.Scene() {
	case types.SceneCombatHigh:
		parts = append(parts, "combat fight boss battle")
	case types.SceneHorrorTension:
		parts = append(parts, "scary horror tension jumpscare")
	case types.SceneExploration:
		parts = append(parts, "exploring discovery new area")
	case types.SceneComedyMoment:
		parts = append(parts, "funny joke meme laugh")
	}
	switch s.UserIntent() {
	case types.IntentHelpSeeking:
		parts = append(parts, "advice help strategy")
	case types.IntentValidation:
		parts = append(parts, "praise achievement win")
	}
	if s.ConversationState() == types.ConversationFrustrated {
		parts = append(parts, "frustration struggle difficulty")
	}

	layers := s.Snapshot()
	live := append(append([]*types.EventItem(nil), layers.Recent...), layers.Immediate...)
	var speech, visual string
	for _, e := range live {
		switch {
		case e.Source.IsSpeech():
			speech = e.Text
		case e.Source == types.SourceVisualChange:
			visual = e.Text
		}
	}
	if speech != "" {
		parts = append(parts, speech)
	}
	if visual != "" {
		parts = append(parts, visual)
	}

	q := strings.Join(parts, " ")
	if len(q) > 500 {
		q = q[:500]
	}
	return q
}

// Compress folds the current Background tier into one narrative sentence via
// the summarizer. A summarizer failure degrades to a mechanical join. Old
// narrative entries past the store's cap are collapsed into ancient history.
func (m *Store) Compress(ctx context.Context, s *store.ContextStore, summarizer BatchSummarizer) {
	layers := s.Snapshot()
	batch := layers.Background
	if len(batch) == 0 {
		batch = layers.Recent
	}
	if len(batch) == 0 {
		return
	}

	texts := make([]string, 0, len(batch))
	for _, e := range batch {
		texts = append(texts, e.Text)
	}

	sentence := ""
	if summarizer != nil {
		var err error
		sentence, err = summarizer.SummarizeBatch(ctx, texts)
		if err != nil {
			fmt.Printf("[memory] compression summarize failed: %v\n", err)
			sentence = ""
		}
	}
	if sentence == "" {
		sentence = fallbackSentence(texts)
	}

	s.AddNarrativeSegment(sentence)
	if m.archive != nil {
		if err := m.archive.SaveNarrative(sentence, "narrative"); err != nil {
			fmt.Printf("[memory] narrative write failed: %v\n", err)
		}
	}

	// Collapse the oldest chunk once the narrative log runs long.
	if old := s.NarrativeOverflow(m.cfg.CollapseChunk); len(old) > 0 {
		collapsed := ""
		if summarizer != nil {
			var err error
			collapsed, err = summarizer.SummarizeBatch(ctx, old)
			if err != nil {
				collapsed = ""
			}
		}
		if collapsed == "" {
			collapsed = fallbackSentence(old)
		}
		s.ArchiveAncientHistory(collapsed)
		if m.archive != nil {
			if err := m.archive.SaveNarrative(collapsed, "ancient"); err != nil {
				fmt.Printf("[memory] ancient write failed: %v\n", err)
			}
		}
	}
}

// fallbackSentence is the degraded compression used when the summarizer is
// unavailable: first and last texts joined.
func fallbackSentence(texts []string) string {
	if len(texts) == 1 {
		return texts[0]
	}
	return fmt.Sprintf("%s ... %s", texts[0], texts[len(texts)-1])
}
