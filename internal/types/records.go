package types

import "time"

// FocusState is the attention lock: the event currently holding the agent's
// focus, how strongly, and until when. A competing candidate may only take
// the lock if the lock expired, the candidate is the locked event itself, or
// its score beats Strength plus the director's switch cost.
type FocusState struct {
	TargetEventID string    `json:"target_event_id,omitempty"`
	Topic         string    `json:"topic,omitempty"`
	LockedUntil   time.Time `json:"locked_until"`
	Strength      float64   `json:"strength"`
}

// Locked reports whether the focus lock is held at now.
func (f FocusState) Locked(now time.Time) bool {
	return f.TargetEventID != "" && now.Before(f.LockedUntil)
}

// DebtStatus is the lifecycle state of a conversational debt.
type DebtStatus string

const (
	DebtUnresolved DebtStatus = "unresolved"
	DebtResolved   DebtStatus = "resolved"
	DebtExpired    DebtStatus = "expired"
)

// DebtItem is a question the agent asked and the operator has not answered.
// Old debts expire into a "circle back" prompt.
type DebtItem struct {
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	Topic     string     `json:"topic"`
	Status    DebtStatus `json:"status"`
}

// BotAction records a delivered agent action for the reinforcement loop.
type BotAction struct {
	Timestamp    time.Time      `json:"timestamp"`
	Category     ActionCategory `json:"category"`
	Text         string         `json:"text"`
	OutcomeScore float64        `json:"outcome_score"`
}

// Directive is the per-tick instruction bundle handed to the speech layer.
// It is regenerated every reflex tick and never persisted.
type Directive struct {
	Objective       string   `json:"objective"`
	Tone            string   `json:"tone"`
	Constraints     []string `json:"constraints"`
	TopicFocus      string   `json:"topic_focus"`
	SuggestedAction string   `json:"suggested_action"`
	Reasoning       string   `json:"reasoning"`
}

// SpeechDecision is the dispatcher's verdict: something worth saying, why,
// and how urgently. Lower Priority numbers outrank higher ones at the
// delivery gate.
type SpeechDecision struct {
	Reason      string  `json:"reason"`
	Content     string  `json:"content"`
	Priority    float64 `json:"priority"`
	Source      Source  `json:"source"`
	EventID     string  `json:"event_id,omitempty"`
	IsInterrupt bool    `json:"is_interrupt,omitempty"`
}
