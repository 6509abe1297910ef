package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/peepingotter/director/internal/types"
)

var positiveSentiments = map[string]bool{
	"positive": true, "excited": true, "happy": true, "ecstatic": true,
}

var negativeSentiments = map[string]bool{
	"negative": true, "frustrated": true, "annoyed": true, "angry": true,
}

// UpdateMood folds a new sentiment sample into the rolling mood window.
// Any scared/tense sample in the window dominates; otherwise three positives
// or three negatives tip the mood.
func (c *ContextStore) UpdateMood(sentiment string) {
	if sentiment == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sentimentHistory = append(c.sentimentHistory, sentiment)
	if len(c.sentimentHistory) > c.cfg.MoodWindow {
		c.sentimentHistory = c.sentimentHistory[1:]
	}

	for _, s := range c.sentimentHistory {
		if s == "scared" || s == "tense" {
			c.mood = types.MoodScared
			return
		}
	}

	pos, neg := 0, 0
	for _, s := range c.sentimentHistory {
		if positiveSentiments[s] {
			pos++
		}
		if negativeSentiments[s] {
			neg++
		}
	}
	switch {
	case pos >= 3:
		c.mood = types.MoodHappy
	case neg >= 3:
		c.mood = types.MoodAnnoyed
	default:
		c.mood = types.MoodNeutral
	}
}

// Mood returns the current mood.
func (c *ContextStore) Mood() types.Mood {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mood
}

// SentimentHistory returns a copy of the rolling sentiment window.
func (c *ContextStore) SentimentHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sentimentHistory...)
}

// SetMomentum records the correlation engine's emotional-trend verdict.
func (c *ContextStore) SetMomentum(m types.Momentum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.momentum = m
}

// Momentum returns the current emotional momentum.
func (c *ContextStore) Momentum() types.Momentum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.momentum
}

// SetConversationState updates the conversation register.
func (c *ContextStore) SetConversationState(s types.ConversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationState = s
}

// ConversationState returns the current conversation register.
func (c *ContextStore) ConversationState() types.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationState
}

// SetFlowState updates who owns the conversational floor.
func (c *ContextStore) SetFlowState(f types.FlowState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flow = f
}

// FlowState returns the current flow state.
func (c *ContextStore) FlowState() types.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow
}

// SetUserIntent updates the inferred operator intent.
func (c *ContextStore) SetUserIntent(i types.UserIntent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intent = i
}

// UserIntent returns the inferred operator intent.
func (c *ContextStore) UserIntent() types.UserIntent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intent
}

// SetScene records a scene transition.
func (c *ContextStore) SetScene(s types.SceneType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scene != s {
		fmt.Printf("[scene] %s -> %s\n", c.scene, s)
		c.scene = s
	}
}

// Scene returns the current scene.
func (c *ContextStore) Scene() types.SceneType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

// Focus returns the current attention lock.
func (c *ContextStore) Focus() types.FocusState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// SetFocus installs a new attention lock.
func (c *ContextStore) SetFocus(f types.FocusState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = f
}

// SetActiveUser records whose profile the conversation currently revolves
// around.
func (c *ContextStore) SetActiveUser(p *types.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeUser = p
}

// ActiveUser returns the active user profile, or nil.
func (c *ContextStore) ActiveUser() *types.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeUser
}

// AddDebt registers an unanswered question the agent asked.
func (c *ContextStore) AddDebt(text, topic string) {
	if topic == "" {
		topic = "general"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debts = append(c.debts, types.DebtItem{
		Text:      text,
		CreatedAt: time.Now(),
		Topic:     topic,
		Status:    types.DebtUnresolved,
	})
}

// ResolveDebt pops the oldest unresolved debt, if any.
func (c *ContextStore) ResolveDebt() (types.DebtItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.debts) == 0 {
		return types.DebtItem{}, false
	}
	d := c.debts[0]
	c.debts = c.debts[1:]
	d.Status = types.DebtResolved
	return d, true
}

// PopExpiredDebt removes and returns the first debt older than maxAge,
// marking it expired so the caller can circle back on it.
func (c *ContextStore) PopExpiredDebt(maxAge time.Duration) (types.DebtItem, bool) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.debts {
		if now.Sub(d.CreatedAt) > maxAge {
			c.debts = append(c.debts[:i], c.debts[i+1:]...)
			d.Status = types.DebtExpired
			return d, true
		}
	}
	return types.DebtItem{}, false
}

// DebtCount returns the number of outstanding debts.
func (c *ContextStore) DebtCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.debts)
}

// LogBotAction appends a delivered agent action to the capped action log.
func (c *ContextStore) LogBotAction(category types.ActionCategory, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.botActions = append(c.botActions, types.BotAction{
		Timestamp: time.Now(),
		Category:  category,
		Text:      text,
	})
	if len(c.botActions) > c.cfg.MaxBotActions {
		c.botActions = c.botActions[1:]
	}
}

// RecentBotAction returns the latest action if it happened within window.
func (c *ContextStore) RecentBotAction(window time.Duration) (types.BotAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.botActions) == 0 {
		return types.BotAction{}, false
	}
	last := c.botActions[len(c.botActions)-1]
	if time.Since(last.Timestamp) <= window {
		return last, true
	}
	return types.BotAction{}, false
}

// UpdateActionWeight nudges an action category's weight, clamped to
// [0.5, 2.0] to prevent runaway bias.
func (c *ContextStore) UpdateActionWeight(category types.ActionCategory, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.actionWeights[category]
	if !ok {
		w = 1.0
	}
	w += delta
	if w < 0.5 {
		w = 0.5
	}
	if w > 2.0 {
		w = 2.0
	}
	c.actionWeights[category] = w
}

// ActionWeight returns the current weight for an action category.
func (c *ContextStore) ActionWeight(category types.ActionCategory) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.actionWeights[category]; ok {
		return w
	}
	return 1.0
}

// ActionWeights returns a copy of the full weight table.
func (c *ContextStore) ActionWeights() map[types.ActionCategory]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[types.ActionCategory]float64, len(c.actionWeights))
	for k, v := range c.actionWeights {
		out[k] = v
	}
	return out
}

// AddNarrativeSegment appends one compressed narrative sentence.
func (c *ContextStore) AddNarrativeSegment(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.narrativeLog = append(c.narrativeLog, text)
}

// NarrativeLog returns a copy of the narrative log.
func (c *ContextStore) NarrativeLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.narrativeLog...)
}

// NarrativeOverflow pops the oldest n narrative entries when the log has
// grown past the configured cap, for collapse into ancient history. Returns
// nil while the log is within bounds.
func (c *ContextStore) NarrativeOverflow(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.narrativeLog) <= c.cfg.MaxNarrative || n <= 0 {
		return nil
	}
	if n > len(c.narrativeLog) {
		n = len(c.narrativeLog)
	}
	oldest := append([]string(nil), c.narrativeLog[:n]...)
	c.narrativeLog = c.narrativeLog[n:]
	return oldest
}

// ArchiveAncientHistory appends one collapsed long-term recollection.
func (c *ContextStore) ArchiveAncientHistory(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ancientLog = append(c.ancientLog, text)
}

// AncientHistory returns a copy of the ancient-history log.
func (c *ContextStore) AncientHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ancientLog...)
}

// SetPendingSpeech caches a high-scoring speech event for audio/visual
// bundling. Uses the dedicated pending lock, never the tier lock.
func (c *ContextStore) SetPendingSpeech(e *types.EventItem) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pendingSpeech = e
}

// ConsumePendingSpeech returns and clears the pending speech event if it is
// still fresh. A stale slot is cleared and nothing is returned.
func (c *ContextStore) ConsumePendingSpeech() *types.EventItem {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	e := c.pendingSpeech
	c.pendingSpeech = nil
	if e == nil || time.Since(e.Timestamp) > c.cfg.PendingSpeechAge {
		return nil
	}
	return e
}

// SetSummary stores the summarizer's latest output.
func (c *ContextStore) SetSummary(summary, rawContext string, topics, entities []string, prediction string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = summary
	c.rawContext = rawContext
	c.topics = topics
	c.entities = entities
	c.prediction = prediction
}

// Topics returns the summarizer's current topic list.
func (c *ContextStore) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

// SetDirective stores the latest reflex-tick directive.
func (c *ContextStore) SetDirective(d *types.Directive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.directive = d
}

// Directive returns the latest directive, or nil before the first tick.
func (c *ContextStore) Directive() *types.Directive {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directive
}

// Breadcrumb is one ranked event in the status surface.
type Breadcrumb struct {
	Source types.Source `json:"source"`
	Text   string       `json:"text"`
	Score  float64      `json:"score"`
	Type   string       `json:"type"`
}

// Breadcrumbs returns the top-count active events by interestingness.
func (c *ContextStore) Breadcrumbs(count int) []Breadcrumb {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.migrateLocked(time.Now())
	active := append(append([]*types.EventItem(nil), c.immediate...), c.recent...)
	sort.Slice(active, func(i, j int) bool {
		return active[i].Score.Interestingness > active[j].Score.Interestingness
	})
	if count > len(active) {
		count = len(active)
	}
	crumbs := make([]Breadcrumb, 0, count)
	for _, e := range active[:count] {
		crumbs = append(crumbs, Breadcrumb{
			Source: e.Source,
			Text:   e.Text,
			Score:  e.Score.Interestingness,
			Type:   "recent",
		})
	}
	return crumbs
}

// StatusSummary is the read-only view exposed to the transport shell.
type StatusSummary struct {
	Summary           string                  `json:"summary"`
	RawContext        string                  `json:"raw_context"`
	Topics            []string                `json:"topics"`
	Entities          []string                `json:"entities"`
	Prediction        string                  `json:"prediction"`
	Mood              types.Mood              `json:"mood"`
	Momentum          types.Momentum          `json:"momentum"`
	ConversationState types.ConversationState `json:"conversation_state"`
	Flow              types.FlowState         `json:"flow"`
	Intent            types.UserIntent        `json:"intent"`
	Scene             types.SceneType         `json:"scene"`
	FocusTopic        string                  `json:"focus_topic,omitempty"`
	Directive         *types.Directive        `json:"directive,omitempty"`
	ActiveUser        *types.UserProfile      `json:"active_user,omitempty"`
}

// Status returns a consistent snapshot of the summary-level state.
func (c *ContextStore) Status() StatusSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StatusSummary{
		Summary:           c.summary,
		RawContext:        c.rawContext,
		Topics:            append([]string(nil), c.topics...),
		Entities:          append([]string(nil), c.entities...),
		Prediction:        c.prediction,
		Mood:              c.mood,
		Momentum:          c.momentum,
		ConversationState: c.conversationState,
		Flow:              c.flow,
		Intent:            c.intent,
		Scene:             c.scene,
		FocusTopic:        c.focus.Topic,
		Directive:         c.directive,
		ActiveUser:        c.activeUser,
	}
}
