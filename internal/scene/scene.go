// Package scene classifies the current phase of the stream with a hysteresis
// state machine so noisy signals cannot make the scene oscillate.
package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Config holds the hysteresis parameters.
type Config struct {
	SwitchThreshold float64       // confidence a challenger must reach
	MinDwell        time.Duration // time the current scene must hold first
	ExitCooldown    time.Duration // time before a just-exited scene may return
}

// DefaultConfig returns the production hysteresis parameters.
func DefaultConfig() Config {
	return Config{
		SwitchThreshold: 0.6,
		MinDwell:        15 * time.Second,
		ExitCooldown:    30 * time.Second,
	}
}

// Signals is the per-cycle evidence the classifier scores scenes from.
type Signals struct {
	Mood         types.Mood
	Momentum     types.Momentum
	ChatVelocity float64
	StreamEnergy float64
	// Patterns seen since the last cycle, keyed by type.
	Patterns map[types.PatternType]bool
	// RecentVisual is the latest visual description, lowercased by the caller.
	RecentVisual string
}

// Classifier runs on the reflection cadence. Not safe for concurrent use.
type Classifier struct {
	cfg        Config
	current    types.SceneType
	switchedAt time.Time
	exitedAt   map[types.SceneType]time.Time

	now func() time.Time
}

// New creates a classifier starting in chill chatting.
func New(cfg Config) *Classifier {
	c := &Classifier{
		cfg:      cfg,
		current:  types.SceneChillChatting,
		exitedAt: make(map[types.SceneType]time.Time),
		now:      time.Now,
	}
	c.switchedAt = c.now()
	return c
}

// Current returns the current scene.
func (c *Classifier) Current() types.SceneType {
	return c.current
}

// Update scores every candidate scene from the signals and switches only when
// a challenger clears the threshold, the dwell time has passed, and the
// challenger is not cooling down. The winning scene is written to the store.
func (c *Classifier) Update(s *store.ContextStore, sig Signals) types.SceneType {
	now := c.now()

	var best types.SceneType
	bestScore := 0.0
	for _, candidate := range types.AllScenes {
		score := c.confidence(candidate, sig)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}

	switch {
	case best == "" || best == c.current:
	case bestScore < c.cfg.SwitchThreshold:
	case now.Sub(c.switchedAt) < c.cfg.MinDwell:
	case now.Sub(c.exitedAt[best]) < c.cfg.ExitCooldown:
	default:
		fmt.Printf("[scene] %s -> %s (%.2f)\n", c.current, best, bestScore)
		c.exitedAt[c.current] = now
		c.current = best
		c.switchedAt = now
	}

	s.SetScene(c.current)
	return c.current
}

// confidence scores one candidate scene from the evidence. Scores are rough
// and only have to be comparable, not calibrated.
func (c *Classifier) confidence(scene types.SceneType, sig Signals) float64 {
	score := 0.0
	switch scene {
	case types.SceneCombatHigh:
		if sig.StreamEnergy > 0.7 {
			score += 0.5
		}
		if sig.Patterns[types.PatternVictory] || sig.Patterns[types.PatternSkillIssue] {
			score += 0.3
		}
		if containsAny(sig.RecentVisual, "fight", "combat", "battle", "boss", "enemy") {
			score += 0.3
		}
	case types.SceneHorrorTension:
		if sig.Mood == types.MoodScared {
			score += 0.5
		}
		if sig.Patterns[types.PatternFear] {
			score += 0.4
		}
		if sig.Momentum == types.MomentumEscalatingNegative {
			score += 0.2
		}
	case types.SceneComedyMoment:
		if sig.Patterns[types.PatternMeme] {
			score += 0.6
		}
		if sig.Mood == types.MoodHappy && sig.ChatVelocity > 10 {
			score += 0.3
		}
	case types.SceneMenuing:
		if containsAny(sig.RecentVisual, "menu", "inventory", "settings", "loading") {
			score += 0.7
		}
	case types.SceneTechnicalDowntime:
		if sig.Patterns[types.PatternVoid] && sig.StreamEnergy < 0.1 {
			score += 0.7
		}
	case types.SceneExploration:
		if sig.StreamEnergy > 0.2 && sig.StreamEnergy <= 0.7 && sig.Mood == types.MoodNeutral {
			score += 0.4
		}
		if containsAny(sig.RecentVisual, "walking", "exploring", "map", "travel") {
			score += 0.3
		}
	case types.SceneChillChatting:
		if sig.ChatVelocity > 2 && sig.StreamEnergy < 0.4 {
			score += 0.4
		}
	}
	return score
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
