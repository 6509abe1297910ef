// Package adaptive smooths the speech-interjection threshold in response to
// stream activity and carries the minimal reinforcement loop over delivered
// agent actions.
package adaptive

import (
	"fmt"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Config holds the controller's regime bounds and targets.
type Config struct {
	BaseThreshold    float64 // default interjection threshold
	ChaosThreshold   float64 // target when the stream is hot
	DeadAirThreshold float64 // target when nothing is happening
	HighVelocity     float64 // chat msgs/min considered chaotic
	HighEnergy       float64 // stream energy considered chaotic
	LowVelocity      float64 // chat msgs/min considered dead
	LowEnergy        float64 // stream energy considered dead
	FeedbackWindow   time.Duration
}

// DefaultConfig returns the production regime bounds.
func DefaultConfig() Config {
	return Config{
		BaseThreshold:    0.9,
		ChaosThreshold:   0.95,
		DeadAirThreshold: 0.65,
		HighVelocity:     30,
		HighEnergy:       0.8,
		LowVelocity:      2,
		LowEnergy:        0.2,
		FeedbackWindow:   30 * time.Second,
	}
}

// Controller smooths the live threshold toward the current regime target.
// Not safe for concurrent use; the reflex loop is its only caller.
type Controller struct {
	cfg       Config
	threshold float64
	regime    string

	lastVelocity float64
	lastFeedback time.Time
}

// New creates a controller starting at the base threshold.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:       cfg,
		threshold: cfg.BaseThreshold,
		regime:    "Normal",
	}
}

// Update picks a regime target from the metrics and moves the live threshold
// one smoothing step toward it. Returns the new threshold.
func (c *Controller) Update(chatVelocity, streamEnergy float64) float64 {
	target := c.cfg.BaseThreshold
	regime := "Normal"
	switch {
	case chatVelocity > c.cfg.HighVelocity || streamEnergy > c.cfg.HighEnergy:
		target = c.cfg.ChaosThreshold
		regime = "Chaos/Hype"
	case chatVelocity < c.cfg.LowVelocity && streamEnergy < c.cfg.LowEnergy:
		target = c.cfg.DeadAirThreshold
		regime = "Dead Air"
	}
	if regime != c.regime {
		fmt.Printf("[adaptive] regime %s -> %s (target %.2f)\n", c.regime, regime, target)
		c.regime = regime
	}

	// Exponential smoothing prevents abrupt personality shifts.
	c.threshold = c.threshold*0.8 + target*0.2
	return c.threshold
}

// Threshold returns the current smoothed threshold.
func (c *Controller) Threshold() float64 {
	return c.threshold
}

// Regime returns the current regime label.
func (c *Controller) Regime() string {
	return c.regime
}

// ProcessFeedback compares chat velocity before and after the most recent
// agent action. Rising velocity rewards the action's category; flat or falling
// velocity penalizes it. The weights live in the store, clamped to [0.5, 2.0].
// Each action is judged exactly once; later ticks inside the feedback window
// only refresh the velocity baseline.
func (c *Controller) ProcessFeedback(s *store.ContextStore, chatVelocity float64) {
	action, ok := s.RecentBotAction(c.cfg.FeedbackWindow)
	if !ok || !action.Timestamp.After(c.lastFeedback) {
		c.lastVelocity = chatVelocity
		return
	}
	if chatVelocity > c.lastVelocity {
		s.UpdateActionWeight(action.Category, 0.1)
	} else {
		s.UpdateActionWeight(action.Category, -0.05)
	}
	c.lastFeedback = action.Timestamp
	c.lastVelocity = chatVelocity
}

// Status describes the controller for the status surface.
type Status struct {
	Threshold float64                          `json:"threshold"`
	Regime    string                           `json:"regime"`
	Weights   map[types.ActionCategory]float64 `json:"weights,omitempty"`
}

// Status returns the current threshold, regime, and the store's weight table.
func (c *Controller) Status(s *store.ContextStore) Status {
	return Status{
		Threshold: c.threshold,
		Regime:    c.regime,
		Weights:   s.ActionWeights(),
	}
}
