// Package store implements the tiered working memory shared by every engine
// component. Events age through three windows (Immediate, Recent, Background)
// and are evicted past the background window; anything worth keeping longer
// must be promoted to the long-term memory list first.
//
// Locking: one mutex guards the tier lists and all mood/scene/flow state so
// cross-tier operations stay atomic. A second, independent mutex guards the
// single pending-speech slot, which is written from the ingestion path.
// Never acquire both locks at once.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/peepingotter/director/internal/types"
)

// Config holds the store's tier windows and caps.
type Config struct {
	WindowImmediate  time.Duration // events younger than this stay Immediate
	WindowRecent     time.Duration // ... then Recent until this age
	WindowBackground time.Duration // ... then Background until evicted
	MoodWindow       int           // sentiment samples kept for mood
	MaxBotActions    int           // bot action log cap
	MaxNarrative     int           // narrative log length that triggers collapse
	PendingSpeechAge time.Duration // max age of the pending-speech slot
}

// DefaultConfig returns the store configuration used in production.
func DefaultConfig() Config {
	return Config{
		WindowImmediate:  10 * time.Second,
		WindowRecent:     30 * time.Second,
		WindowBackground: 300 * time.Second,
		MoodWindow:       5,
		MaxBotActions:    20,
		MaxNarrative:     12,
		PendingSpeechAge: 3 * time.Second,
	}
}

// ContextStore owns all events, the narrative logs, the long-term memory
// list, and the mood/scene/flow state fields. Other components hold a
// reference and mutate only through its methods.
type ContextStore struct {
	cfg Config

	mu         sync.Mutex
	immediate  []*types.EventItem
	recent     []*types.EventItem
	background []*types.EventItem

	narrativeLog []string
	ancientLog   []string
	memories     []*types.EventItem

	focus            types.FocusState
	debts            []types.DebtItem
	sentimentHistory []string
	momentum         types.Momentum
	mood             types.Mood

	botActions    []types.BotAction
	actionWeights map[types.ActionCategory]float64

	conversationState types.ConversationState
	flow              types.FlowState
	intent            types.UserIntent
	scene             types.SceneType

	summary    string
	rawContext string
	topics     []string
	entities   []string
	prediction string
	directive  *types.Directive
	activeUser *types.UserProfile

	pendingMu     sync.Mutex
	pendingSpeech *types.EventItem
}

// New creates an empty store with the given configuration.
func New(cfg Config) *ContextStore {
	return &ContextStore{
		cfg:      cfg,
		momentum: types.MomentumStable,
		mood:     types.MoodNeutral,
		actionWeights: map[types.ActionCategory]float64{
			types.ActionJoke:     1.0,
			types.ActionQuestion: 1.0,
			types.ActionRoast:    1.0,
			types.ActionSupport:  1.0,
		},
		conversationState: types.ConversationIdle,
		flow:              types.FlowNatural,
		intent:            types.IntentCasual,
		scene:             types.SceneChillChatting,
		summary:           "Just starting up.",
		rawContext:        "Waiting for events...",
		prediction:        "Observing flow...",
	}
}

// AddEvent appends a freshly scored event to the Immediate tier and re-runs
// tier migration.
func (c *ContextStore) AddEvent(source types.Source, text string, meta types.EventMeta, score types.EventScore) *types.EventItem {
	item := types.NewEventItem(source, text, meta, score)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.immediate = append(c.immediate, item)
	c.migrateLocked(time.Now())
	return item
}

// migrateLocked moves events down the tiers by age. Migration is strictly
// monotonic: Immediate -> Recent -> Background -> evicted.
func (c *ContextStore) migrateLocked(now time.Time) {
	keepImmediate := c.immediate[:0]
	for _, e := range c.immediate {
		if e.Age(now) > c.cfg.WindowImmediate {
			c.recent = append(c.recent, e)
		} else {
			keepImmediate = append(keepImmediate, e)
		}
	}
	c.immediate = keepImmediate

	keepRecent := c.recent[:0]
	for _, e := range c.recent {
		if e.Age(now) > c.cfg.WindowRecent {
			c.background = append(c.background, e)
		} else {
			keepRecent = append(keepRecent, e)
		}
	}
	c.recent = keepRecent

	keepBackground := c.background[:0]
	for _, e := range c.background {
		if e.Age(now) <= c.cfg.WindowBackground {
			keepBackground = append(keepBackground, e)
		}
	}
	c.background = keepBackground
}

// Layers returns copies of the three tier slices after migration.
type Layers struct {
	Immediate  []*types.EventItem
	Recent     []*types.EventItem
	Background []*types.EventItem
}

// Snapshot migrates and returns a copy of all three tiers.
func (c *ContextStore) Snapshot() Layers {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.migrateLocked(time.Now())
	return Layers{
		Immediate:  append([]*types.EventItem(nil), c.immediate...),
		Recent:     append([]*types.EventItem(nil), c.recent...),
		Background: append([]*types.EventItem(nil), c.background...),
	}
}

// UpdateEventScore replaces the score of a live event (any tier). The score
// is clamped. Returns false if the event has already been evicted.
func (c *ContextStore) UpdateEventScore(eventID string, score types.EventScore) bool {
	score.Clamp()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.findLocked(eventID); e != nil {
		e.Score = score
		return true
	}
	return false
}

// SetEventSentiment records the analyst's sentiment on a live event.
func (c *ContextStore) SetEventSentiment(eventID, sentiment string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.findLocked(eventID); e != nil {
		e.Meta.Sentiment = sentiment
		return true
	}
	return false
}

// SetEventThread links a live event to a conversation thread.
func (c *ContextStore) SetEventThread(eventID, threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.findLocked(eventID); e != nil {
		e.ThreadID = threadID
		return true
	}
	return false
}

func (c *ContextStore) findLocked(eventID string) *types.EventItem {
	for _, tier := range [][]*types.EventItem{c.immediate, c.recent, c.background} {
		for _, e := range tier {
			if e.ID == eventID {
				return e
			}
		}
	}
	return nil
}

// PromoteToMemory copies an event into the long-term memory list. Idempotent
// per event ID. An optional summary becomes the memory text.
func (c *ContextStore) PromoteToMemory(event *types.EventItem, summary string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.memories {
		if m.ID == event.ID {
			return false
		}
	}
	if summary != "" {
		event.MemoryText = summary
	} else if event.MemoryText == "" {
		event.MemoryText = event.Text
	}
	fmt.Printf("[memory] archiving: %.50s\n", event.MemoryText)
	c.memories = append(c.memories, event)
	return true
}

// Memories returns a copy of the long-term memory list.
func (c *ContextStore) Memories() []*types.EventItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.EventItem(nil), c.memories...)
}

// MemoryCount returns the number of archived memories.
func (c *ContextStore) MemoryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.memories)
}

// DecayMemories applies the given decay to every memory's interestingness.
// Memories above 0.9 decay at half rate; nothing drops below the 0.1 floor.
func (c *ContextStore) DecayMemories(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.memories {
		factor := 1.0
		if m.Score.Interestingness > 0.9 {
			factor = 0.5
		}
		v := m.Score.Interestingness - amount*factor
		if v < 0.1 {
			v = 0.1
		}
		m.Score.Interestingness = v
	}
}

// CapMemories evicts the least important memories when the list exceeds max.
// Returns the evicted items so they can stay in the durable archive.
func (c *ContextStore) CapMemories(max int) []*types.EventItem {
	if max <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.memories) <= max {
		return nil
	}
	sorted := append([]*types.EventItem(nil), c.memories...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score.Interestingness > sorted[j].Score.Interestingness
	})
	c.memories = sorted[:max]
	return sorted[max:]
}
