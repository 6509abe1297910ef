package store

import (
	"time"

	"github.com/peepingotter/director/internal/types"
)

// ActivityMetrics is the adaptive controller's view of how busy the stream is.
type ActivityMetrics struct {
	// ChatVelocity approximates chat messages per minute.
	ChatVelocity float64 `json:"chat_velocity"`
	// StreamEnergy is the density of hot events, normalized to [0, 1].
	StreamEnergy float64 `json:"stream_energy"`
	// ActiveEvents is the number of events in the Immediate and Recent tiers.
	ActiveEvents int `json:"active_events"`
}

// Metrics computes activity metrics over the live tiers. Chat velocity doubles
// the chat count in the Recent window (30s) to estimate a per-minute rate.
func (c *ContextStore) Metrics() ActivityMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.migrateLocked(time.Now())

	chatCount := 0
	highCount := 0
	total := 0
	for _, tier := range [][]*types.EventItem{c.immediate, c.recent} {
		total += len(tier)
		for _, e := range tier {
			if e.Source.IsChat() {
				chatCount++
			}
			if e.Score.Interestingness > 0.6 {
				highCount++
			}
		}
	}

	// Five simultaneously hot events saturate the energy reading.
	energy := float64(highCount) / 5.0
	if energy > 1.0 {
		energy = 1.0
	}
	return ActivityMetrics{
		ChatVelocity: float64(chatCount) * 2.0,
		StreamEnergy: energy,
		ActiveEvents: total,
	}
}

// StaleEventForAnalysis returns the newest live event that slipped past the
// deep-analysis threshold but is interesting enough to deserve a second look.
// Bundles and already-analyzed events are skipped.
func (c *ContextStore) StaleEventForAnalysis(ceiling float64) *types.EventItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *types.EventItem
	for _, tier := range [][]*types.EventItem{c.immediate, c.recent} {
		for _, e := range tier {
			if e.Meta.Analyzed() || e.Meta.IsBundle {
				continue
			}
			if e.Score.Interestingness <= 0.3 || e.Score.Interestingness >= ceiling {
				continue
			}
			if best == nil || e.Timestamp.After(best.Timestamp) {
				best = e
			}
		}
	}
	return best
}
