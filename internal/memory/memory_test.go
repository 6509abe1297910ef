package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

func addMemory(s *store.ContextStore, text string, interestingness float64, age time.Duration) *types.EventItem {
	e := s.AddEvent(types.SourceDirectMic, text, types.EventMeta{}, types.EventScore{Interestingness: interestingness})
	e.Timestamp = time.Now().Add(-age)
	s.PromoteToMemory(e, "")
	return e
}

func TestHybridRetrievalOrdering(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())

	// Identical importance and recency, different similarity to the query.
	match := addMemory(s, "the lighthouse keeper told a story", 0.5, time.Hour)
	other := addMemory(s, "bought groceries at the market", 0.5, time.Hour)

	got := m.Retrieve(s, "what was the lighthouse story", 2)
	require.Len(t, got, 2)
	assert.Equal(t, match.ID, got[0].ID)
	assert.Equal(t, other.ID, got[1].ID)
}

func TestTrivialQueryFallsBackToImportance(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())

	addMemory(s, "minor detail", 0.3, time.Hour)
	top := addMemory(s, "huge moment", 0.9, time.Hour)

	got := m.Retrieve(s, "", 1)
	require.Len(t, got, 1)
	assert.Equal(t, top.ID, got[0].ID)
}

func TestRecencyBreaksTies(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())

	old := addMemory(s, "the dragon fight was wild", 0.5, 30*time.Hour)
	fresh := addMemory(s, "the dragon fight was wild", 0.5, time.Hour)

	got := m.Retrieve(s, "tell me about the dragon fight", 2)
	require.Len(t, got, 2)
	assert.Equal(t, fresh.ID, got[0].ID)
	assert.Equal(t, old.ID, got[1].ID)
}

func TestDecayInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayRate = 0.1
	m := New(cfg, nil, nil)
	s := store.New(store.DefaultConfig())
	mem := addMemory(s, "fading", 0.5, 0)

	// Within the interval nothing happens.
	m.Decay(s)
	assert.InDelta(t, 0.5, mem.Score.Interestingness, 1e-9)

	// Two minutes later the decay applies minutes * rate.
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	m.Decay(s)
	assert.InDelta(t, 0.3, s.Memories()[0].Score.Interestingness, 0.001)
}

func TestMaybePromote(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())

	dull := s.AddEvent(types.SourceChat, "ok", types.EventMeta{}, types.EventScore{Interestingness: 0.2})
	assert.False(t, m.MaybePromote(s, dull, ""))

	// Emotional intensity alone can carry an event over the bar.
	emotional := s.AddEvent(types.SourceMic, "I can't believe that happened", types.EventMeta{},
		types.EventScore{Interestingness: 0.4, EmotionalIntensity: 0.9})
	assert.True(t, m.MaybePromote(s, emotional, "operator was stunned"))
	assert.Equal(t, 1, s.MemoryCount())
}

type fakeSummarizer struct {
	out  string
	err  error
	seen [][]string
}

func (f *fakeSummarizer) SummarizeBatch(_ context.Context, texts []string) (string, error) {
	f.seen = append(f.seen, texts)
	return f.out, f.err
}

func TestCompress(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())
	sum := &fakeSummarizer{out: "the operator fought a dragon and lost"}

	e := s.AddEvent(types.SourceVisualChange, "dragon appears", types.EventMeta{}, types.EventScore{})
	e.Timestamp = time.Now().Add(-60 * time.Second) // lands in Background

	m.Compress(context.Background(), s, sum)
	log := s.NarrativeLog()
	require.Len(t, log, 1)
	assert.Equal(t, "the operator fought a dragon and lost", log[0])
}

func TestCompressDegradesWithoutSummarizer(t *testing.T) {
	m := New(DefaultConfig(), nil, nil)
	s := store.New(store.DefaultConfig())
	sum := &fakeSummarizer{err: errors.New("model overloaded")}

	e := s.AddEvent(types.SourceVisualChange, "dragon appears", types.EventMeta{}, types.EventScore{})
	e.Timestamp = time.Now().Add(-60 * time.Second)

	m.Compress(context.Background(), s, sum)
	require.Len(t, s.NarrativeLog(), 1)
	assert.Contains(t, s.NarrativeLog()[0], "dragon appears")
}

func TestAncientHistoryCollapse(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.MaxNarrative = 2
	s := store.New(cfg)
	mcfg := DefaultConfig()
	mcfg.CollapseChunk = 2
	m := New(mcfg, nil, nil)
	sum := &fakeSummarizer{out: "a whole saga happened"}

	for i := 0; i < 3; i++ {
		e := s.AddEvent(types.SourceVisualChange, "something", types.EventMeta{}, types.EventScore{})
		e.Timestamp = time.Now().Add(-60 * time.Second)
		m.Compress(context.Background(), s, sum)
	}

	assert.NotEmpty(t, s.AncientHistory())
	assert.LessOrEqual(t, len(s.NarrativeLog()), 2)
}

func TestBuildSmartQuery(t *testing.T) {
	s := store.New(store.DefaultConfig())
	s.SetScene(types.SceneHorrorTension)
	s.SetConversationState(types.ConversationFrustrated)
	s.AddEvent(types.SourceMic, "I hate this hallway", types.EventMeta{}, types.EventScore{})
	s.AddEvent(types.SourceVisualChange, "a dark corridor stretches ahead", types.EventMeta{}, types.EventScore{})

	q := BuildSmartQuery(s)
	assert.Contains(t, q, "horror")
	assert.Contains(t, q, "frustration")
	assert.Contains(t, q, "hallway")
	assert.Contains(t, q, "corridor")
	assert.LessOrEqual(t, len(q), 500)
}

func TestLexicalComparator(t *testing.T) {
	c := NewLexicalComparator()
	same := c.Similarity("the lighthouse story", "the lighthouse story")
	assert.InDelta(t, 1.0, same, 1e-9)

	related := c.Similarity("the lighthouse story", "a story about a lighthouse keeper")
	unrelated := c.Similarity("the lighthouse story", "buying groceries downtown")
	assert.Greater(t, related, unrelated)
	assert.Equal(t, 0.0, unrelated)
}
