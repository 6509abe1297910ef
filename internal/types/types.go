package types

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies the sensor or channel an event arrived from.
type Source string

const (
	// SourceDirectMic is the operator speaking directly to the agent
	SourceDirectMic Source = "direct_mic"
	// SourceMic is operator speech not addressed to the agent
	SourceMic Source = "mic"
	// SourceAmbientAudio is game/system audio transcription
	SourceAmbientAudio Source = "ambient_audio"
	// SourceVisualChange is a described change on screen
	SourceVisualChange Source = "visual_change"
	// SourceChat is a regular chat message
	SourceChat Source = "chat"
	// SourceChatMention is a chat message that mentions the agent
	SourceChatMention Source = "chat_mention"
	// SourceBotReply is the agent's own delivered reply, fed back in
	SourceBotReply Source = "bot_reply"
	// SourceSystemPattern is a synthetic event emitted by the correlation engine
	SourceSystemPattern Source = "system_pattern"
	// SourceInternalThought is a self-generated prompt (curiosity, callback, debt)
	SourceInternalThought Source = "internal_thought"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceDirectMic, SourceMic, SourceAmbientAudio, SourceVisualChange,
		SourceChat, SourceChatMention, SourceBotReply, SourceSystemPattern,
		SourceInternalThought:
		return true
	}
	return false
}

// IsSpeech reports whether s carries operator speech.
func (s Source) IsSpeech() bool {
	return s == SourceDirectMic || s == SourceMic
}

// IsChat reports whether s is a chat channel.
func (s Source) IsChat() bool {
	return s == SourceChat || s == SourceChatMention
}

// EventScore is the five-dimensional relevance vector attached to every event.
// All fields are kept in [0, 1]; call Clamp after any external update.
type EventScore struct {
	Interestingness    float64 `json:"interestingness"`
	Urgency            float64 `json:"urgency"`
	ConversationalValue float64 `json:"conversational_value"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	TopicRelevance     float64 `json:"topic_relevance"`
}

// Clamp forces every dimension into [0, 1].
func (s *EventScore) Clamp() {
	s.Interestingness = clamp01(s.Interestingness)
	s.Urgency = clamp01(s.Urgency)
	s.ConversationalValue = clamp01(s.ConversationalValue)
	s.EmotionalIntensity = clamp01(s.EmotionalIntensity)
	s.TopicRelevance = clamp01(s.TopicRelevance)
}

// WeightedAverage collapses the vector into a single priority metric
// (0.4 interest, 0.3 urgency, 0.2 conversational, 0.1 topic).
func (s EventScore) WeightedAverage() float64 {
	return s.Interestingness*0.4 + s.Urgency*0.3 + s.ConversationalValue*0.2 + s.TopicRelevance*0.1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PatternType tags synthetic system-pattern events by what the correlation
// engine detected.
type PatternType string

const (
	PatternSkillIssue  PatternType = "skill_issue"
	PatternFixation    PatternType = "fixation"
	PatternMeme        PatternType = "meme"
	PatternTilt        PatternType = "tilt"
	PatternVictory     PatternType = "victory"
	PatternVoid        PatternType = "void"
	PatternMomentumNeg PatternType = "momentum_negative"
	PatternBackseat    PatternType = "backseat"
	PatternFear        PatternType = "fear"
)

// EventMeta carries the optional, source-specific fields an event may arrive
// with or acquire through analysis. Every field is explicitly optional;
// pointer fields distinguish "absent" from zero.
type EventMeta struct {
	// Who produced the event (chat/mic sources)
	Username string `json:"username,omitempty"`

	// Sensor-declared hints that feed the heuristic scorer
	Relevance  *float64 `json:"relevance,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Urgency    *float64 `json:"urgency,omitempty"`
	IsSummary  bool     `json:"is_summary,omitempty"`
	Kind       string   `json:"kind,omitempty"` // producer-specific tag, e.g. "fast_transcription"

	// Conversation threading hints
	Topic      string   `json:"topic,omitempty"`
	Importance *float64 `json:"importance,omitempty"`

	// Filled in by the analyst
	Sentiment string `json:"sentiment,omitempty"`

	// Direct-address fast path
	DirectAddress     bool `json:"direct_address,omitempty"`
	InterruptPriority bool `json:"interrupt_priority,omitempty"`

	// Audio/visual bundle synthesis
	IsBundle   bool   `json:"is_bundle,omitempty"`
	SpeechText string `json:"speech_text,omitempty"`
	EventText  string `json:"event_text,omitempty"`

	// System-pattern payload
	Pattern PatternType `json:"pattern,omitempty"`
	Entity  string      `json:"entity,omitempty"`
	Level   float64     `json:"level,omitempty"`

	// Internal-thought payload
	ThoughtKind string `json:"thought_kind,omitempty"`
	Goal        string `json:"goal,omitempty"`
}

// Analyzed reports whether the analyst has already enriched this event.
func (m EventMeta) Analyzed() bool {
	return m.Sentiment != ""
}

// EventItem is a single scored occurrence in the working memory. Items are
// created by the ingestion path and mutated only through ContextStore methods
// keyed by ID.
type EventItem struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Source    Source     `json:"source"`
	Text      string     `json:"text"`
	Meta      EventMeta  `json:"meta"`
	Score     EventScore `json:"score"`

	// MemoryText is the analyst's one-sentence synopsis, set on promotion.
	MemoryText string `json:"memory_text,omitempty"`
	// ThreadID links the event to a conversation thread, if any.
	ThreadID string `json:"thread_id,omitempty"`
}

// NewEventItem builds an event with a fresh ID stamped at now.
func NewEventItem(source Source, text string, meta EventMeta, score EventScore) *EventItem {
	return &EventItem{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Source:    source,
		Text:      text,
		Meta:      meta,
		Score:     score,
	}
}

// Age returns how long ago the event happened.
func (e *EventItem) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// MemoryContent returns the text to use when the event acts as a memory.
func (e *EventItem) MemoryContent() string {
	if e.MemoryText != "" {
		return e.MemoryText
	}
	return e.Text
}
