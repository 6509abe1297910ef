package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peepingotter/director/internal/energy"
	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

type fakeGate struct {
	delivered []types.SpeechDecision
	refuse    bool
}

func (g *fakeGate) Deliver(d types.SpeechDecision) (bool, string) {
	if g.refuse {
		return false, "cooldown"
	}
	g.delivered = append(g.delivered, d)
	return true, "ok"
}

func newDispatcher() (*Dispatcher, *fakeGate) {
	gate := &fakeGate{}
	return New(energy.New(energy.DefaultConfig()), gate), gate
}

func addPattern(s *store.ContextStore, p types.PatternType) *types.EventItem {
	return s.AddEvent(types.SourceSystemPattern, "pattern text", types.EventMeta{Pattern: p}, types.EventScore{Interestingness: 0.8})
}

func TestPatternPriorityOrder(t *testing.T) {
	d, _ := newDispatcher()
	s := store.New(store.DefaultConfig())

	addPattern(s, types.PatternMeme)
	skill := addPattern(s, types.PatternSkillIssue)
	addPattern(s, types.PatternVoid)
	s.AddEvent(types.SourceInternalThought, "idle musing", types.EventMeta{}, types.EventScore{})

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	assert.Equal(t, skill.ID, got.EventID)
	assert.Equal(t, "skill_issue", got.Reason)
	assert.Equal(t, 0.1, got.Priority)
}

func TestThoughtOutranksPassive(t *testing.T) {
	d, _ := newDispatcher()
	s := store.New(store.DefaultConfig())

	s.AddEvent(types.SourceVisualChange, "a bird flies past", types.EventMeta{}, types.EventScore{Interestingness: 0.5})
	thought := s.AddEvent(types.SourceInternalThought, "wonder what that door was", types.EventMeta{}, types.EventScore{})

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	assert.Equal(t, thought.ID, got.EventID)
}

func TestPassiveFloor(t *testing.T) {
	d, _ := newDispatcher()
	s := store.New(store.DefaultConfig())

	s.AddEvent(types.SourceVisualChange, "nothing much", types.EventMeta{}, types.EventScore{Interestingness: 0.1})
	assert.Nil(t, d.Evaluate(s, nil))

	best := s.AddEvent(types.SourceVisualChange, "a dragon lands", types.EventMeta{}, types.EventScore{Interestingness: 0.9})
	s.AddEvent(types.SourceVisualChange, "a sheep wanders", types.EventMeta{}, types.EventScore{Interestingness: 0.4})

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	assert.Equal(t, best.ID, got.EventID)
}

func TestDominatedFlowSilences(t *testing.T) {
	d, _ := newDispatcher()
	s := store.New(store.DefaultConfig())
	addPattern(s, types.PatternVictory)
	s.SetFlowState(types.FlowDominated)

	assert.Nil(t, d.Evaluate(s, nil))
}

func TestDirectAddressInterrupts(t *testing.T) {
	d, _ := newDispatcher()
	s := store.New(store.DefaultConfig())
	addPattern(s, types.PatternSkillIssue)
	direct := s.AddEvent(types.SourceDirectMic, "hey, you there?", types.EventMeta{DirectAddress: true}, types.EventScore{Interestingness: 0.95})

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	assert.Equal(t, direct.ID, got.EventID)
	assert.True(t, got.IsInterrupt)
}

func TestDispatchMarksReacted(t *testing.T) {
	d, gate := newDispatcher()
	s := store.New(store.DefaultConfig())
	addPattern(s, types.PatternVictory)

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	require.True(t, d.Dispatch(s, got))
	require.Len(t, gate.delivered, 1)

	// The same event never triggers twice.
	assert.Nil(t, d.Evaluate(s, nil))

	// The delivered action lands in the reinforcement log.
	action, ok := s.RecentBotAction(store.DefaultConfig().PendingSpeechAge * 100)
	require.True(t, ok)
	assert.Equal(t, "pattern text", action.Text)
}

func TestGateRefusalKeepsEventUnreacted(t *testing.T) {
	d, gate := newDispatcher()
	gate.refuse = true
	s := store.New(store.DefaultConfig())
	addPattern(s, types.PatternVictory)

	got := d.Evaluate(s, nil)
	require.NotNil(t, got)
	assert.False(t, d.Dispatch(s, got))

	// Still eligible next tick.
	assert.NotNil(t, d.Evaluate(s, nil))
}

func TestNoEnergyNoSpeech(t *testing.T) {
	gate := &fakeGate{}
	drained := energy.New(energy.Config{Max: 100, RegenRate: 0, StartLevel: 0})
	d := New(drained, gate)
	s := store.New(store.DefaultConfig())
	addPattern(s, types.PatternVictory)

	assert.Nil(t, d.Evaluate(s, nil))
}
