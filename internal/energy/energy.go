// Package energy implements the regenerating resource pool that gates how
// often the agent may act. Every gated action has a fixed cost; spending is
// atomic and all-or-nothing.
package energy

import (
	"sync"
	"time"
)

// Fixed costs per gated action kind.
const (
	CostInterjection = 15.0
	CostReply        = 10.0
	CostThought      = 5.0
)

// Config holds the budget parameters.
type Config struct {
	Max        float64 // pool ceiling
	RegenRate  float64 // points regained per second
	StartLevel float64 // initial fill
}

// DefaultConfig returns the production budget: full 100-point pool
// regenerating one point per second.
func DefaultConfig() Config {
	return Config{
		Max:        100,
		RegenRate:  1.0,
		StartLevel: 100,
	}
}

// Budget is a thread-safe regenerating energy pool.
type Budget struct {
	mu        sync.Mutex
	current   float64
	max       float64
	regenRate float64
	updatedAt time.Time

	now func() time.Time // test hook
}

// New creates a budget from cfg.
func New(cfg Config) *Budget {
	b := &Budget{
		current:   cfg.StartLevel,
		max:       cfg.Max,
		regenRate: cfg.RegenRate,
		now:       time.Now,
	}
	b.updatedAt = b.now()
	return b
}

// regenLocked applies regeneration since the last update.
func (b *Budget) regenLocked() {
	now := b.now()
	elapsed := now.Sub(b.updatedAt).Seconds()
	if elapsed > 0 {
		b.current += elapsed * b.regenRate
		if b.current > b.max {
			b.current = b.max
		}
	}
	b.updatedAt = now
}

// CanAfford reports whether the pool currently covers cost.
func (b *Budget) CanAfford(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regenLocked()
	return b.current >= cost
}

// Spend deducts cost if the pool covers it. Fails without side effects
// otherwise.
func (b *Budget) Spend(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regenLocked()
	if b.current < cost {
		return false
	}
	b.current -= cost
	return true
}

// Status describes the pool for the status surface.
type Status struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
	Percent float64 `json:"percent"`
}

// Status returns the current pool level after regeneration.
func (b *Budget) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regenLocked()
	return Status{
		Current: b.current,
		Max:     b.max,
		Percent: b.current / b.max,
	}
}
