// Package speech decides whether the agent should say something right now,
// and what. Actual delivery belongs to an external gate; the dispatcher only
// nominates a candidate with a priority.
package speech

import (
	"fmt"
	"sync"

	"github.com/peepingotter/director/internal/energy"
	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// DeliveryGate is the external surface that actually says things. It owns
// cooldowns and interrupt semantics; the dispatcher treats it as a black box.
type DeliveryGate interface {
	Deliver(decision types.SpeechDecision) (delivered bool, reason string)
}

// LogGate is the default gate: it prints instead of speaking. Useful for
// development and as the wiring placeholder until a TTS gate is attached.
type LogGate struct{}

// Deliver implements DeliveryGate.
func (LogGate) Deliver(d types.SpeechDecision) (bool, string) {
	fmt.Printf("[speech] (%s, p=%.1f) %s\n", d.Reason, d.Priority, d.Content)
	return true, "logged"
}

// Fixed priorities per trigger; lower outranks higher at the gate.
var patternPriority = map[types.PatternType]float64{
	types.PatternSkillIssue: 0.1,
	types.PatternVictory:    0.2,
	types.PatternMeme:       0.3,
	types.PatternFixation:   0.4,
	types.PatternVoid:       0.5,
}

const (
	priorityThought = 0.6
	priorityPassive = 0.7

	// passiveFloor is the minimum interestingness for a passive visual or
	// ambient remark.
	passiveFloor = 0.25
)

// Dispatcher evaluates speech candidates each reflex tick. Safe for
// concurrent use, though the reflex loop is the only expected caller.
type Dispatcher struct {
	budget *energy.Budget
	gate   DeliveryGate

	mu      sync.Mutex
	reacted map[string]bool // event IDs already spoken about
}

// New creates a dispatcher. A nil gate selects LogGate.
func New(budget *energy.Budget, gate DeliveryGate) *Dispatcher {
	if gate == nil {
		gate = LogGate{}
	}
	return &Dispatcher{
		budget:  budget,
		gate:    gate,
		reacted: make(map[string]bool),
	}
}

// Evaluate picks the highest-priority unreacted candidate, or nil. Gated
// first by energy and flow: the agent never talks over a monologuing
// operator and never speaks on an empty tank.
func (d *Dispatcher) Evaluate(s *store.ContextStore, directive *types.Directive) *types.SpeechDecision {
	if s.FlowState() == types.FlowDominated {
		return nil
	}
	if !d.budget.CanAfford(energy.CostThought) {
		return nil
	}

	layers := s.Snapshot()
	live := append(append([]*types.EventItem(nil), layers.Immediate...), layers.Recent...)

	d.mu.Lock()
	defer d.mu.Unlock()

	var best *types.SpeechDecision
	consider := func(cand *types.SpeechDecision) {
		if best == nil || cand.Priority < best.Priority {
			best = cand
		}
	}

	for _, ev := range live {
		if d.reacted[ev.ID] {
			continue
		}
		switch ev.Source {
		case types.SourceSystemPattern:
			prio, ok := patternPriority[ev.Meta.Pattern]
			if !ok {
				continue
			}
			consider(&types.SpeechDecision{
				Reason:   string(ev.Meta.Pattern),
				Content:  ev.Text,
				Priority: prio,
				Source:   ev.Source,
				EventID:  ev.ID,
			})
		case types.SourceInternalThought:
			consider(&types.SpeechDecision{
				Reason:   "internal_thought",
				Content:  ev.Text,
				Priority: priorityThought,
				Source:   ev.Source,
				EventID:  ev.ID,
			})
		case types.SourceVisualChange, types.SourceAmbientAudio:
			if ev.Score.Interestingness < passiveFloor {
				continue
			}
			cand := &types.SpeechDecision{
				Reason:   "passive_observation",
				Content:  ev.Text,
				Priority: priorityPassive,
				Source:   ev.Source,
				EventID:  ev.ID,
			}
			// Among passive candidates, keep the most interesting one.
			if best != nil && best.Priority == priorityPassive {
				if prev := d.findLive(live, best.EventID); prev != nil &&
					prev.Score.Interestingness >= ev.Score.Interestingness {
					continue
				}
				best = cand
				continue
			}
			consider(cand)
		case types.SourceDirectMic, types.SourceChatMention:
			if !ev.Meta.DirectAddress {
				continue
			}
			consider(&types.SpeechDecision{
				Reason:      "direct_address",
				Content:     ev.Text,
				Priority:    0.05,
				Source:      ev.Source,
				EventID:     ev.ID,
				IsInterrupt: true,
			})
		}
	}
	return best
}

func (d *Dispatcher) findLive(live []*types.EventItem, id string) *types.EventItem {
	for _, ev := range live {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// Dispatch spends energy, hands the decision to the gate, and on delivery
// marks the event reacted and logs the action for the reinforcement loop.
// Insufficient energy is a soft failure.
func (d *Dispatcher) Dispatch(s *store.ContextStore, decision *types.SpeechDecision) bool {
	cost := energy.CostThought
	switch {
	case decision.IsInterrupt:
		cost = energy.CostInterjection
	case decision.Source == types.SourceDirectMic, decision.Source == types.SourceChatMention:
		cost = energy.CostReply
	}
	if !d.budget.Spend(cost) {
		return false
	}

	delivered, reason := d.gate.Deliver(*decision)
	if !delivered {
		fmt.Printf("[speech] gate refused (%s): %s\n", reason, decision.Reason)
		return false
	}

	d.mu.Lock()
	d.reacted[decision.EventID] = true
	// Bound the reacted set; evicted events can never come back anyway.
	if len(d.reacted) > 512 {
		d.reacted = map[string]bool{decision.EventID: true}
	}
	d.mu.Unlock()

	s.LogBotAction(types.ClassifyAction(decision.Content), decision.Content)
	return true
}
