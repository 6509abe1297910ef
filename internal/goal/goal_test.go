package goal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

func TestPlan(t *testing.T) {
	p := New(rand.New(rand.NewSource(1)))

	tests := []struct {
		name    string
		state   types.ConversationState
		mood    types.Mood
		metrics store.ActivityMetrics
		want    types.BotGoal
	}{
		{"frustration wins", types.ConversationFrustrated, types.MoodNeutral, store.ActivityMetrics{ChatVelocity: 50}, types.GoalSupport},
		{"annoyed mood supports", types.ConversationEngaged, types.MoodAnnoyed, store.ActivityMetrics{}, types.GoalSupport},
		{"celebration entertains", types.ConversationCelebratory, types.MoodHappy, store.ActivityMetrics{}, types.GoalEntertain},
		{"hot stream entertains", types.ConversationEngaged, types.MoodNeutral, store.ActivityMetrics{StreamEnergy: 0.8}, types.GoalEntertain},
		{"engaged default observes", types.ConversationEngaged, types.MoodNeutral, store.ActivityMetrics{ChatVelocity: 10}, types.GoalObserve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Plan(tt.state, tt.mood, tt.metrics))
		})
	}
}

func TestIdleDeadStreamIsMischief(t *testing.T) {
	p := New(rand.New(rand.NewSource(42)))

	seen := map[types.BotGoal]bool{}
	for i := 0; i < 50; i++ {
		g := p.Plan(types.ConversationIdle, types.MoodNeutral, store.ActivityMetrics{ChatVelocity: 0})
		assert.Contains(t, []types.BotGoal{types.GoalInvestigate, types.GoalTroll}, g)
		seen[g] = true
	}
	// Both branches must be reachable.
	assert.True(t, seen[types.GoalInvestigate])
	assert.True(t, seen[types.GoalTroll])
}

func TestDeterministicWithFixedSeed(t *testing.T) {
	a := New(rand.New(rand.NewSource(7)))
	b := New(rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		ga := a.Plan(types.ConversationIdle, types.MoodNeutral, store.ActivityMetrics{})
		gb := b.Plan(types.ConversationIdle, types.MoodNeutral, store.ActivityMetrics{})
		assert.Equal(t, ga, gb)
	}
}
