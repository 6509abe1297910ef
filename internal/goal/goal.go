// Package goal selects the agent's current high-level objective from the
// conversational state and activity metrics.
package goal

import (
	"math/rand"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Planner picks the agent's goal each reflex tick. The random source is
// injected so tests are deterministic.
type Planner struct {
	rng *rand.Rand
}

// New creates a Planner. A nil rng selects a time-seeded source.
func New(rng *rand.Rand) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{rng: rng}
}

// Plan maps state and metrics to a goal. Frustration always wins; celebration
// or a hot stream entertains; a dead stream makes the agent go looking for
// trouble.
func (p *Planner) Plan(state types.ConversationState, mood types.Mood, metrics store.ActivityMetrics) types.BotGoal {
	switch {
	case state == types.ConversationFrustrated || mood == types.MoodAnnoyed:
		return types.GoalSupport
	case state == types.ConversationCelebratory || metrics.StreamEnergy > 0.7:
		return types.GoalEntertain
	case state == types.ConversationIdle && metrics.ChatVelocity < 2:
		if p.rng.Intn(2) == 0 {
			return types.GoalInvestigate
		}
		return types.GoalTroll
	}
	return types.GoalObserve
}
