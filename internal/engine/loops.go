package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peepingotter/director/internal/decision"
	"github.com/peepingotter/director/internal/scene"
	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

const (
	// loopRestartBackoff is the fixed delay before a crashed loop restarts.
	loopRestartBackoff = 2 * time.Second

	// debtMaxAge is how long an unanswered agent question survives before it
	// expires into a circle-back prompt.
	debtMaxAge = 60 * time.Second

	// Reflection-tick multiples for the slower maintenance jobs.
	summarizeEvery = 2
	compressEvery  = 6
	callbackEvery  = 18
	curiosityEvery = 24
)

// runLoop drives one tick function on a fixed cadence under a supervisor: a
// panicking tick is logged and the loop restarts after a fixed backoff. One
// bad tick must never take the process down.
func (e *Engine) runLoop(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	defer e.wg.Done()

	for {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					tick(ctx)
				}
			}
		}()
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "[engine] %s loop crashed: %v (restarting in %v)\n",
			name, err, loopRestartBackoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(loopRestartBackoff):
		}
	}
}

// reflexTick is the ~1s cadence: threshold update, goal update, focus
// arbitration, directive composition, speech evaluation.
func (e *Engine) reflexTick(ctx context.Context) {
	metrics := e.store.Metrics()
	threshold := e.adaptive.Update(metrics.ChatVelocity, metrics.StreamEnergy)
	e.adaptive.ProcessFeedback(e.store, metrics.ChatVelocity)

	g := e.planner.Plan(e.store.ConversationState(), e.store.Mood(), metrics)
	e.mu.Lock()
	e.currentGoal = g
	e.mu.Unlock()

	layers := e.store.Snapshot()
	live := append(append([]*types.EventItem(nil), layers.Immediate...), layers.Recent...)
	e.attention.DirectAttention(e.store, g, live)

	directive := e.decisions.GenerateDirective(e.store, decision.Inputs{
		Goal:      g,
		Threshold: threshold,
		Regime:    e.adaptive.Regime(),
		Energy:    e.budget.Status(),
	})

	dec := e.speech.Evaluate(e.store, directive)
	if dec == nil {
		return
	}
	// Passive observations additionally face the adaptive threshold: the
	// hotter the stream, the more interesting an unprompted remark must be.
	if dec.Reason == "passive_observation" {
		if ev := findEvent(live, dec.EventID); ev != nil && ev.Score.Interestingness < threshold {
			return
		}
	}
	if e.speech.Dispatch(e.store, dec) && strings.Contains(dec.Content, "?") {
		e.store.AddDebt(dec.Content, directive.TopicFocus)
	}
}

// reflectionTick is the ~5s cadence: deep analysis, pattern correlation,
// scene and flow classification, summarization, and memory maintenance.
func (e *Engine) reflectionTick(ctx context.Context) {
	e.mu.Lock()
	e.reflections++
	n := e.reflections
	e.mu.Unlock()

	if ev := e.store.StaleEventForAnalysis(e.adaptive.Threshold()); ev != nil {
		e.requestAnalysis(ev)
	}

	emitted := e.correlation.Scan(e.store)

	layers := e.store.Snapshot()
	metrics := e.store.Metrics()
	e.classifyFlow(layers)

	patterns := make(map[types.PatternType]bool, len(emitted))
	for _, p := range emitted {
		patterns[p.Meta.Pattern] = true
	}
	e.scenes.Update(e.store, scene.Signals{
		Mood:         e.store.Mood(),
		Momentum:     e.store.Momentum(),
		ChatVelocity: metrics.ChatVelocity,
		StreamEnergy: metrics.StreamEnergy,
		Patterns:     patterns,
		RecentVisual: latestVisual(layers),
	})

	if n%summarizeEvery == 0 {
		e.summarize(ctx, layers)
	}

	e.memory.Decay(e.store)
	if n%compressEvery == 0 {
		e.memory.Compress(ctx, e.store, e.summarizer)
	}

	e.surfaceThoughts(n)
}

// surfaceThoughts emits internal-thought events: expired debts, narrative
// callbacks, and curiosity prompts about the active user.
func (e *Engine) surfaceThoughts(tick int) {
	if debt, ok := e.store.PopExpiredDebt(debtMaxAge); ok {
		e.internalThought(
			fmt.Sprintf("circle back: they never answered %q", debt.Text),
			"debt_callback",
		)
	}

	state := e.store.ConversationState()
	calm := state == types.ConversationIdle || state == types.ConversationEngaged

	if tick%callbackEvery == 0 && calm {
		if log := e.store.NarrativeLog(); len(log) > 1 {
			e.internalThought(
				fmt.Sprintf("earlier: %s", log[0]),
				"narrative_callback",
			)
		}
	}

	if tick%curiosityEvery == 0 && state == types.ConversationIdle {
		if user := e.store.ActiveUser(); user != nil && len(user.Facts) == 0 {
			e.internalThought(
				fmt.Sprintf("I still know nothing about %s, worth asking something", user.Username),
				"curiosity",
			)
		}
	}
}

func (e *Engine) internalThought(text, kind string) {
	e.store.AddEvent(types.SourceInternalThought, text,
		types.EventMeta{ThoughtKind: kind},
		types.EventScore{Interestingness: 0.5, ConversationalValue: 0.6})
}

// classifyFlow reads the live speech cadence: sustained operator speech with
// no agent turn is a monologue, rapid short lines are staccato, silence is
// dead air.
func (e *Engine) classifyFlow(layers store.Layers) {
	live := append(append([]*types.EventItem(nil), layers.Immediate...), layers.Recent...)

	var speechCount, shortCount int
	for _, ev := range live {
		if !ev.Source.IsSpeech() {
			continue
		}
		speechCount++
		if len(ev.Text) < 40 {
			shortCount++
		}
	}

	_, spoke := e.store.RecentBotAction(30 * time.Second)

	switch {
	case speechCount == 0:
		if lastRecent(layers) {
			e.store.SetFlowState(types.FlowNatural)
		} else {
			e.store.SetFlowState(types.FlowDeadAir)
		}
	case speechCount >= 4 && !spoke:
		e.store.SetFlowState(types.FlowDominated)
	case speechCount >= 3 && shortCount >= speechCount-1:
		e.store.SetFlowState(types.FlowStaccato)
	default:
		e.store.SetFlowState(types.FlowNatural)
	}
}

// lastRecent reports whether anything at all is live.
func lastRecent(layers store.Layers) bool {
	return len(layers.Immediate)+len(layers.Recent) > 0
}

// summarize asks the Summarizer for a fresh digest over the layered context.
func (e *Engine) summarize(ctx context.Context, layers store.Layers) {
	if e.summarizer == nil {
		return
	}
	layered := buildLayeredContext(layers)
	if layered == "" {
		return
	}

	sum, err := e.summarizer.Summarize(ctx, layered)
	if err != nil {
		fmt.Printf("[engine] summarize skipped: %v\n", err)
		return
	}
	e.store.SetSummary(sum.Summary, layered, sum.Topics, sum.Entities, sum.Prediction)
	if cs := types.ConversationState(sum.ConversationState); validConversationState(cs) {
		e.store.SetConversationState(cs)
	}
}

func validConversationState(cs types.ConversationState) bool {
	switch cs {
	case types.ConversationIdle, types.ConversationEngaged, types.ConversationFrustrated,
		types.ConversationCelebratory, types.ConversationStorytelling:
		return true
	}
	return false
}

// buildLayeredContext renders the three tiers as the Summarizer's input.
func buildLayeredContext(layers store.Layers) string {
	if !lastRecent(layers) && len(layers.Background) == 0 {
		return ""
	}
	var b strings.Builder
	writeTier := func(name string, events []*types.EventItem) {
		if len(events) == 0 {
			return
		}
		b.WriteString(name)
		b.WriteString(":\n")
		// Newest-heavy tiers can run long; cap each.
		if len(events) > 15 {
			events = events[len(events)-15:]
		}
		for _, ev := range events {
			fmt.Fprintf(&b, "- [%s] %s\n", ev.Source, ev.Text)
		}
	}
	writeTier("IMMEDIATE", layers.Immediate)
	writeTier("RECENT", layers.Recent)
	writeTier("BACKGROUND", layers.Background)
	return b.String()
}

// latestVisual returns the newest visual description, lowercased for the
// scene classifier.
func latestVisual(layers store.Layers) string {
	live := append(append([]*types.EventItem(nil), layers.Immediate...), layers.Recent...)
	for i := len(live) - 1; i >= 0; i-- {
		if live[i].Source == types.SourceVisualChange {
			return strings.ToLower(live[i].Text)
		}
	}
	return ""
}

func findEvent(live []*types.EventItem, id string) *types.EventItem {
	for _, ev := range live {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}
