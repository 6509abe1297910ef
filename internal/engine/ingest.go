package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/peepingotter/director/internal/scoring"
	"github.com/peepingotter/director/internal/types"
)

const (
	// bundleSpeechFloor is the interestingness a speech event needs to be
	// cached for audio/visual bundling; bundleEventFloor is what the
	// follow-up non-speech event needs to consume it.
	bundleSpeechFloor = 0.6
	bundleEventFloor  = 0.7

	// analysisFloor is the weighted-average score above which an event is
	// fast-tracked to deep analysis at ingestion time.
	analysisFloor = 0.6
	// analysisUrgency fast-tracks on urgency alone.
	analysisUrgency = 0.8
)

// Ingest validates, scores, and stores one raw event. It is the single
// thread-safe entry point shared by sensors, the control socket, and the
// correlation engine's synthetic emissions. Deep analysis is dispatched
// asynchronously; this call never blocks on the model.
func (e *Engine) Ingest(source types.Source, text string, meta types.EventMeta) (*types.EventItem, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty event text")
	}

	e.detectDirectAddress(source, text, &meta)

	score := e.scorer.Score(source, text, meta)
	if meta.DirectAddress {
		scoring.BoostDirectAddress(&score)
		meta.InterruptPriority = true
	}

	event := e.store.AddEvent(source, text, meta, score)

	bundle := e.maybeBundle(event)

	if source.IsSpeech() {
		// Any direct operator speech settles the oldest open debt.
		if debt, ok := e.store.ResolveDebt(); ok {
			fmt.Printf("[engine] debt resolved: %.40s\n", debt.Text)
		}
	}
	if source.IsSpeech() || source.IsChat() {
		e.trackThread(event)
	}
	if meta.Username != "" {
		if p, err := e.profiles.Get(meta.Username); err == nil {
			e.store.SetActiveUser(p)
		} else {
			fmt.Printf("[engine] profile lookup for %s: %v\n", meta.Username, err)
		}
	}

	switch {
	case bundle != nil:
		e.requestAnalysis(bundle)
	case meta.DirectAddress,
		score.WeightedAverage() >= analysisFloor,
		score.Urgency >= analysisUrgency:
		e.requestAnalysis(event)
	}
	return event, nil
}

// detectDirectAddress flags events aimed at the agent: direct-mic always,
// and mic/chat text containing the agent's name.
func (e *Engine) detectDirectAddress(source types.Source, text string, meta *types.EventMeta) {
	if meta.DirectAddress {
		return
	}
	switch source {
	case types.SourceDirectMic:
		meta.DirectAddress = true
	case types.SourceMic, types.SourceChat, types.SourceChatMention:
		if strings.Contains(strings.ToLower(text), strings.ToLower(e.cfg.AgentName)) {
			meta.DirectAddress = true
		}
	}
}

// maybeBundle runs the audio/visual correlation slot: interesting speech
// waits in the pending slot; an interesting non-speech follow-up consumes it
// into one synthetic bundle event with maximal score.
func (e *Engine) maybeBundle(event *types.EventItem) *types.EventItem {
	if event.Source.IsSpeech() {
		if !event.Meta.DirectAddress && event.Score.Interestingness >= bundleSpeechFloor {
			e.store.SetPendingSpeech(event)
		}
		return nil
	}
	if event.Source == types.SourceSystemPattern || event.Source == types.SourceInternalThought {
		return nil
	}
	if event.Score.Interestingness < bundleEventFloor {
		return nil
	}
	pending := e.store.ConsumePendingSpeech()
	if pending == nil {
		return nil
	}

	meta := types.EventMeta{
		IsBundle:   true,
		SpeechText: pending.Text,
		EventText:  event.Text,
		Username:   pending.Meta.Username,
	}
	text := fmt.Sprintf("%s (while: %s)", pending.Text, event.Text)
	bundle := e.store.AddEvent(event.Source, text, meta, scoring.BundleScore())
	fmt.Printf("[engine] bundled speech with %s event\n", event.Source)
	return bundle
}

// trackThread feeds the conversation tracker and links the event to the
// thread it lands in.
func (e *Engine) trackThread(event *types.EventItem) {
	topic := event.Meta.Topic
	if topic == "" {
		topic = e.extractor.Subject(event.Text)
	}
	importance := event.Score.ConversationalValue
	if event.Meta.Importance != nil {
		importance = *event.Meta.Importance
	}
	if th := e.threads.TrackUserStatement(event.Text, topic, importance); th != nil {
		e.store.SetEventThread(event.ID, th.ID)
	}
}

// requestAnalysis schedules async deep analysis grounded in the current
// summary.
func (e *Engine) requestAnalysis(event *types.EventItem) {
	e.enricher.Enrich(context.Background(), e.store, event, e.store.Status().Summary)
}
