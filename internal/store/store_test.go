package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peepingotter/director/internal/types"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WindowImmediate = 50 * time.Millisecond
	cfg.WindowRecent = 100 * time.Millisecond
	cfg.WindowBackground = 200 * time.Millisecond
	return cfg
}

func TestTierMigrationIsMonotonic(t *testing.T) {
	s := New(testConfig())
	e := s.AddEvent(types.SourceChat, "hello", types.EventMeta{}, types.EventScore{Interestingness: 0.5})

	layers := s.Snapshot()
	require.Len(t, layers.Immediate, 1)
	assert.Equal(t, e.ID, layers.Immediate[0].ID)

	// Age past the immediate window: the event must appear in Recent and
	// nowhere else.
	e.Timestamp = time.Now().Add(-60 * time.Millisecond)
	layers = s.Snapshot()
	assert.Empty(t, layers.Immediate)
	require.Len(t, layers.Recent, 1)
	assert.Empty(t, layers.Background)

	e.Timestamp = time.Now().Add(-150 * time.Millisecond)
	layers = s.Snapshot()
	assert.Empty(t, layers.Recent)
	require.Len(t, layers.Background, 1)

	// Past the background window the event is evicted entirely.
	e.Timestamp = time.Now().Add(-300 * time.Millisecond)
	layers = s.Snapshot()
	assert.Empty(t, layers.Immediate)
	assert.Empty(t, layers.Recent)
	assert.Empty(t, layers.Background)
}

func TestUpdateEventScoreClamps(t *testing.T) {
	s := New(testConfig())
	e := s.AddEvent(types.SourceMic, "whoa", types.EventMeta{}, types.EventScore{})

	ok := s.UpdateEventScore(e.ID, types.EventScore{Interestingness: 1.7, Urgency: -0.2})
	require.True(t, ok)

	layers := s.Snapshot()
	require.Len(t, layers.Immediate, 1)
	assert.Equal(t, 1.0, layers.Immediate[0].Score.Interestingness)
	assert.Equal(t, 0.0, layers.Immediate[0].Score.Urgency)

	assert.False(t, s.UpdateEventScore("no-such-id", types.EventScore{}))
}

func TestPromoteToMemoryIsIdempotent(t *testing.T) {
	s := New(testConfig())
	e := s.AddEvent(types.SourceDirectMic, "remember this", types.EventMeta{}, types.EventScore{Interestingness: 0.9})

	assert.True(t, s.PromoteToMemory(e, "operator said to remember"))
	assert.False(t, s.PromoteToMemory(e, "duplicate"))
	assert.Equal(t, 1, s.MemoryCount())
	assert.Equal(t, "operator said to remember", s.Memories()[0].MemoryText)
}

func TestDecayMemoriesHalfRateAndFloor(t *testing.T) {
	s := New(testConfig())
	hot := s.AddEvent(types.SourceDirectMic, "hot", types.EventMeta{}, types.EventScore{Interestingness: 0.95})
	cold := s.AddEvent(types.SourceChat, "cold", types.EventMeta{}, types.EventScore{Interestingness: 0.12})
	s.PromoteToMemory(hot, "")
	s.PromoteToMemory(cold, "")

	s.DecayMemories(0.1)

	mems := s.Memories()
	require.Len(t, mems, 2)
	// Above 0.9 decays at half rate.
	assert.InDelta(t, 0.90, mems[0].Score.Interestingness, 1e-9)
	// Never below the floor.
	assert.InDelta(t, 0.10, mems[1].Score.Interestingness, 1e-9)
}

func TestCapMemoriesEvictsLeastInteresting(t *testing.T) {
	s := New(testConfig())
	scores := []float64{0.9, 0.3, 0.7, 0.5}
	for _, sc := range scores {
		e := s.AddEvent(types.SourceChat, "m", types.EventMeta{}, types.EventScore{Interestingness: sc})
		s.PromoteToMemory(e, "")
	}

	evicted := s.CapMemories(2)
	require.Len(t, evicted, 2)
	assert.Equal(t, 2, s.MemoryCount())
	for _, m := range s.Memories() {
		assert.GreaterOrEqual(t, m.Score.Interestingness, 0.7)
	}
}

func TestMoodWindow(t *testing.T) {
	s := New(testConfig())

	for i := 0; i < 3; i++ {
		s.UpdateMood("excited")
	}
	assert.Equal(t, types.MoodHappy, s.Mood())

	// Fear dominates everything else in the window.
	s.UpdateMood("scared")
	assert.Equal(t, types.MoodScared, s.Mood())

	// Push the scared sample out of the five-slot window.
	for i := 0; i < 5; i++ {
		s.UpdateMood("frustrated")
	}
	assert.Equal(t, types.MoodAnnoyed, s.Mood())
}

func TestActionWeightClamping(t *testing.T) {
	s := New(testConfig())
	assert.Equal(t, 1.0, s.ActionWeight(types.ActionJoke))

	for i := 0; i < 30; i++ {
		s.UpdateActionWeight(types.ActionJoke, 0.1)
	}
	assert.Equal(t, 2.0, s.ActionWeight(types.ActionJoke))

	for i := 0; i < 100; i++ {
		s.UpdateActionWeight(types.ActionJoke, -0.05)
	}
	assert.Equal(t, 0.5, s.ActionWeight(types.ActionJoke))
}

func TestPendingSpeechExpires(t *testing.T) {
	cfg := testConfig()
	cfg.PendingSpeechAge = 30 * time.Millisecond
	s := New(cfg)

	e := types.NewEventItem(types.SourceDirectMic, "look at that", types.EventMeta{}, types.EventScore{Interestingness: 0.8})
	s.SetPendingSpeech(e)
	got := s.ConsumePendingSpeech()
	require.NotNil(t, got)
	assert.Equal(t, e.ID, got.ID)

	// Slot is cleared after a consume.
	assert.Nil(t, s.ConsumePendingSpeech())

	stale := types.NewEventItem(types.SourceMic, "old", types.EventMeta{}, types.EventScore{})
	stale.Timestamp = time.Now().Add(-time.Second)
	s.SetPendingSpeech(stale)
	assert.Nil(t, s.ConsumePendingSpeech())
}

func TestDebtLifecycle(t *testing.T) {
	s := New(testConfig())
	s.AddDebt("what game is this?", "")
	require.Equal(t, 1, s.DebtCount())

	_, ok := s.PopExpiredDebt(time.Hour)
	assert.False(t, ok, "fresh debt must not expire")

	d, ok := s.PopExpiredDebt(0)
	require.True(t, ok)
	assert.Equal(t, types.DebtExpired, d.Status)
	assert.Equal(t, "general", d.Topic)
	assert.Equal(t, 0, s.DebtCount())

	s.AddDebt("did you see that?", "gameplay")
	d, ok = s.ResolveDebt()
	require.True(t, ok)
	assert.Equal(t, types.DebtResolved, d.Status)
}

func TestMetrics(t *testing.T) {
	s := New(testConfig())
	s.AddEvent(types.SourceChat, "pog", types.EventMeta{}, types.EventScore{Interestingness: 0.2})
	s.AddEvent(types.SourceChat, "lol", types.EventMeta{}, types.EventScore{Interestingness: 0.2})
	s.AddEvent(types.SourceDirectMic, "hey", types.EventMeta{}, types.EventScore{Interestingness: 0.95})

	m := s.Metrics()
	assert.Equal(t, 4.0, m.ChatVelocity)
	assert.InDelta(t, 0.2, m.StreamEnergy, 1e-9)
	assert.Equal(t, 3, m.ActiveEvents)
}

func TestStaleEventForAnalysis(t *testing.T) {
	s := New(testConfig())
	s.AddEvent(types.SourceChat, "meh", types.EventMeta{}, types.EventScore{Interestingness: 0.2})
	mid := s.AddEvent(types.SourceMic, "hmm interesting", types.EventMeta{}, types.EventScore{Interestingness: 0.5})
	s.AddEvent(types.SourceDirectMic, "already hot", types.EventMeta{}, types.EventScore{Interestingness: 0.95})
	analyzed := s.AddEvent(types.SourceMic, "done", types.EventMeta{Sentiment: "neutral"}, types.EventScore{Interestingness: 0.5})
	_ = analyzed

	got := s.StaleEventForAnalysis(0.9)
	require.NotNil(t, got)
	assert.Equal(t, mid.ID, got.ID)
}

func TestNarrativeOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNarrative = 3
	s := New(cfg)

	for i := 0; i < 3; i++ {
		s.AddNarrativeSegment("segment")
	}
	assert.Nil(t, s.NarrativeOverflow(2), "within bounds, nothing to collapse")

	s.AddNarrativeSegment("one more")
	old := s.NarrativeOverflow(2)
	require.Len(t, old, 2)
	assert.Len(t, s.NarrativeLog(), 2)
}
