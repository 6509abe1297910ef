// Package decision composes the per-tick Directive that steers what the agent
// says and how.
package decision

import (
	"fmt"

	"github.com/peepingotter/director/internal/energy"
	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Inputs is everything the composer reads for one tick.
type Inputs struct {
	Goal      types.BotGoal
	Threshold float64
	Regime    string
	Energy    energy.Status
}

// Engine composes directives. Stateless; the reflex loop is its only caller.
type Engine struct{}

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// GenerateDirective builds a fresh Directive from the current state. The
// directive is fully regenerated each tick and never persisted.
func (e *Engine) GenerateDirective(s *store.ContextStore, in Inputs) *types.Directive {
	d := &types.Directive{
		TopicFocus: s.Focus().Topic,
	}

	mood := s.Mood()
	convState := s.ConversationState()
	flow := s.FlowState()

	// Tone cascade: adaptive regime beats mood beats default.
	switch {
	case in.Regime == "Chaos/Hype":
		d.Tone = "high-energy, punchy"
	case in.Regime == "Dead Air":
		d.Tone = "provocative, conversation-starting"
	case mood == types.MoodScared:
		d.Tone = "nervous, jumpy"
	case mood == types.MoodHappy:
		d.Tone = "playful, upbeat"
	case mood == types.MoodAnnoyed:
		d.Tone = "dry, sardonic"
	default:
		d.Tone = "casual, observant"
	}

	handler := false
	if u := s.ActiveUser(); u != nil && u.Role == "handler" {
		handler = true
	}

	switch in.Goal {
	case types.GoalSupport:
		d.Objective = "steady the operator, acknowledge the struggle"
		d.SuggestedAction = "supportive comment"
		if handler {
			// The agent never lets its own operator off easy.
			d.Objective = "console the operator while deflecting all blame onto them"
			d.SuggestedAction = "backhanded encouragement"
		}
	case types.GoalEntertain:
		d.Objective = "amplify the moment for the audience"
		d.SuggestedAction = "joke or hype callout"
	case types.GoalInvestigate:
		d.Objective = "probe what is happening on screen"
		d.SuggestedAction = "curious question"
	case types.GoalTroll:
		d.Objective = "stir the pot"
		d.SuggestedAction = "light provocation"
		if handler {
			d.SuggestedAction = "targeted needling of the operator"
		}
	default:
		d.Objective = "watch and wait"
		d.SuggestedAction = "none"
	}

	if in.Energy.Percent < 0.25 {
		d.Constraints = append(d.Constraints, "keep it short, energy is low")
	}
	switch flow {
	case types.FlowDominated:
		d.Constraints = append(d.Constraints, "do not interrupt, the operator is mid-monologue")
	case types.FlowStaccato:
		d.Constraints = append(d.Constraints, "short punchy responses only")
	}
	if convState == types.ConversationFrustrated {
		d.Constraints = append(d.Constraints, "lead with empathy before any jab")
	}

	d.Reasoning = fmt.Sprintf("goal=%s regime=%s mood=%s flow=%s threshold=%.2f",
		in.Goal, in.Regime, mood, flow, in.Threshold)

	s.SetDirective(d)
	return d
}
