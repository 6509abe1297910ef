// Package threads tracks topics of discussion as first-class threads with
// lifecycle state, distinct from the raw event stream.
package threads

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a thread's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending" // waiting on an answer
	StatusResolved  Status = "resolved"
	StatusAbandoned Status = "abandoned"
)

// Thread is one tracked topic of conversation.
type Thread struct {
	ID              string    `json:"id"`
	Topic           string    `json:"topic"`
	Initiator       string    `json:"initiator"` // "user" or "agent"
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Status          Status    `json:"status"`
	UserStatements  []string  `json:"user_statements"`
	AgentStatements []string  `json:"agent_statements"`
	PendingQuestion string    `json:"pending_question,omitempty"`
	Resolution      string    `json:"resolution,omitempty"`
	Importance      float64   `json:"importance"`
	NeedsFollowup   bool      `json:"needs_followup,omitempty"`
}

func (t *Thread) terminal() bool {
	return t.Status == StatusResolved || t.Status == StatusAbandoned
}

// Config holds the tracker's staleness window and history cap.
type Config struct {
	StaleAfter time.Duration
	MaxHistory int
}

// DefaultConfig returns the production tracker parameters.
func DefaultConfig() Config {
	return Config{
		StaleAfter: 60 * time.Second,
		MaxHistory: 10,
	}
}

// Tracker owns the thread collection. Safe for concurrent use.
type Tracker struct {
	cfg Config

	mu      sync.Mutex
	threads []*Thread

	now func() time.Time
}

// New creates an empty tracker.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, now: time.Now}
}

// Active returns the most recent non-stale, non-terminal thread, or nil.
// At most one thread is ever active.
func (t *Tracker) Active() *Thread {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

func (t *Tracker) activeLocked() *Thread {
	for i := len(t.threads) - 1; i >= 0; i-- {
		th := t.threads[i]
		if th.terminal() {
			continue
		}
		if t.now().Sub(th.UpdatedAt) > t.cfg.StaleAfter {
			continue
		}
		return th
	}
	return nil
}

// nonTerminalLocked returns the most recent open thread even when it has gone
// stale. Stale threads are not active, but a new thread still displaces them.
func (t *Tracker) nonTerminalLocked() *Thread {
	for i := len(t.threads) - 1; i >= 0; i-- {
		if !t.threads[i].terminal() {
			return t.threads[i]
		}
	}
	return nil
}

// TrackUserStatement continues the active thread when the topic matches,
// otherwise abandons whatever thread was open (stale included) and opens a
// new one. A question mark makes the new thread Pending.
func (t *Tracker) TrackUserStatement(text, topic string, importance float64) *Thread {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.activeLocked()
	if active != nil && (topic == "" || active.Topic == topic) {
		active.UserStatements = append(active.UserStatements, text)
		active.UpdatedAt = t.now()
		if strings.Contains(text, "?") {
			active.Status = StatusPending
			active.PendingQuestion = text
		}
		if importance > active.Importance {
			active.Importance = importance
		}
		return active
	}
	if open := t.nonTerminalLocked(); open != nil {
		open.Status = StatusAbandoned
	}

	th := &Thread{
		ID:             uuid.New().String(),
		Topic:          topic,
		Initiator:      "user",
		StartedAt:      t.now(),
		UpdatedAt:      t.now(),
		Status:         StatusActive,
		UserStatements: []string{text},
		Importance:     importance,
	}
	if strings.Contains(text, "?") {
		th.Status = StatusPending
		th.PendingQuestion = text
	}
	t.appendLocked(th)
	return th
}

// TrackAgentResponse appends the agent's reply to the active thread, or opens
// an agent-initiated one. resolves marks the thread Resolved.
func (t *Tracker) TrackAgentResponse(text string, resolves bool) *Thread {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.activeLocked()
	if active == nil {
		if open := t.nonTerminalLocked(); open != nil {
			open.Status = StatusAbandoned
		}
		active = &Thread{
			ID:        uuid.New().String(),
			Initiator: "agent",
			StartedAt: t.now(),
			Status:    StatusActive,
		}
		t.appendLocked(active)
	}
	active.AgentStatements = append(active.AgentStatements, text)
	active.UpdatedAt = t.now()
	if resolves {
		active.Status = StatusResolved
		active.Resolution = text
		active.PendingQuestion = ""
	} else if active.Status == StatusPending {
		// An answer arrived; the question is no longer hanging.
		active.Status = StatusActive
		active.PendingQuestion = ""
	}
	return active
}

// appendLocked adds a thread, evicting the oldest past the history cap.
func (t *Tracker) appendLocked(th *Thread) {
	t.threads = append(t.threads, th)
	if len(t.threads) > t.cfg.MaxHistory {
		t.threads = t.threads[len(t.threads)-t.cfg.MaxHistory:]
	}
}

// History returns a copy of all tracked threads, oldest first.
func (t *Tracker) History() []*Thread {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Thread(nil), t.threads...)
}

// Stats summarizes the tracker for the status surface.
type Stats struct {
	Total       int    `json:"total"`
	ActiveTopic string `json:"active_topic,omitempty"`
	Pending     int    `json:"pending"`
	Resolved    int    `json:"resolved"`
}

// Stats returns tracker statistics.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := Stats{Total: len(t.threads)}
	if a := t.activeLocked(); a != nil {
		st.ActiveTopic = a.Topic
	}
	for _, th := range t.threads {
		switch th.Status {
		case StatusPending:
			st.Pending++
		case StatusResolved:
			st.Resolved++
		}
	}
	return st
}
