// Package attention arbitrates a single focus among competing events. A held
// focus lock can only be displaced by the locked event itself or by a
// candidate that beats the lock strength by the switch cost.
package attention

import (
	"fmt"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Config holds the arbiter's lock parameters.
type Config struct {
	SwitchCost   float64       // margin a challenger must beat
	LockDuration time.Duration // how long an accepted focus holds
}

// DefaultConfig returns the production lock parameters.
func DefaultConfig() Config {
	return Config{
		SwitchCost:   0.3,
		LockDuration: 5 * time.Second,
	}
}

// goalSources maps each goal to the source subset it cares about. An empty
// filter result falls back to the full candidate set.
var goalSources = map[types.BotGoal][]types.Source{
	types.GoalSupport: {
		types.SourceDirectMic, types.SourceMic, types.SourceAmbientAudio,
	},
	types.GoalEntertain: {
		types.SourceVisualChange, types.SourceSystemPattern, types.SourceChat,
		types.SourceChatMention,
	},
	types.GoalInvestigate: {
		types.SourceVisualChange, types.SourceAmbientAudio,
	},
}

// Director selects the focus event. Not safe for concurrent use; only the
// reflex loop calls it.
type Director struct {
	cfg Config
	now func() time.Time
}

// New creates a Director.
func New(cfg Config) *Director {
	return &Director{cfg: cfg, now: time.Now}
}

// DirectAttention picks the event the agent should attend to, or nil if the
// current focus holds. The decision and any new lock are written back to the
// store's FocusState.
func (d *Director) DirectAttention(s *store.ContextStore, goal types.BotGoal, candidates []*types.EventItem) *types.EventItem {
	if len(candidates) == 0 {
		return nil
	}

	pool := d.filterByGoal(goal, candidates)

	// Direct-address events dominate the pick; otherwise max interestingness.
	var best *types.EventItem
	for _, e := range pool {
		if best == nil {
			best = e
			continue
		}
		if e.Meta.DirectAddress != best.Meta.DirectAddress {
			if e.Meta.DirectAddress {
				best = e
			}
			continue
		}
		if e.Score.Interestingness > best.Score.Interestingness {
			best = e
		}
	}
	if best == nil {
		return nil
	}

	now := d.now()
	focus := s.Focus()
	if focus.Locked(now) && best.ID != focus.TargetEventID {
		// The operator addressing the agent by name always wins focus.
		if !best.Meta.DirectAddress && best.Score.Interestingness < focus.Strength+d.cfg.SwitchCost {
			return nil
		}
		fmt.Printf("[attention] focus stolen: %.2f beats %.2f+%.2f\n",
			best.Score.Interestingness, focus.Strength, d.cfg.SwitchCost)
	}

	s.SetFocus(types.FocusState{
		TargetEventID: best.ID,
		Topic:         best.Meta.Topic,
		LockedUntil:   now.Add(d.cfg.LockDuration),
		Strength:      best.Score.Interestingness,
	})
	return best
}

func (d *Director) filterByGoal(goal types.BotGoal, candidates []*types.EventItem) []*types.EventItem {
	wanted, ok := goalSources[goal]
	if !ok {
		return candidates
	}
	var pool []*types.EventItem
	for _, e := range candidates {
		// Direct address survives every goal filter.
		if e.Meta.DirectAddress {
			pool = append(pool, e)
			continue
		}
		for _, src := range wanted {
			if e.Source == src {
				pool = append(pool, e)
				break
			}
		}
	}
	if len(pool) == 0 {
		return candidates
	}
	return pool
}
