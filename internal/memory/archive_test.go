package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peepingotter/director/internal/types"
)

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")
	a, err := OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()

	e := types.NewEventItem(types.SourceDirectMic, "remember the lighthouse",
		types.EventMeta{}, types.EventScore{Interestingness: 0.9})
	e.MemoryText = "operator loved the lighthouse"
	require.NoError(t, a.SaveMemory(e))

	// Upsert on the same ID must not duplicate.
	e.Score.Interestingness = 0.7
	require.NoError(t, a.SaveMemory(e))

	n, err := a.MemoryCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := a.RecentMemories(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, "operator loved the lighthouse", got[0].MemoryText)
	assert.InDelta(t, 0.7, got[0].Interestingness, 1e-9)
}

func TestArchiveNarrative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")
	a, err := OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.SaveNarrative("the operator fought a dragon", "narrative"))
	require.NoError(t, a.SaveNarrative("week one was chaotic", "ancient"))
}

func TestArchiveSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")
	a, err := OpenArchive(path)
	require.NoError(t, err)

	e := types.NewEventItem(types.SourceChat, "gg", types.EventMeta{}, types.EventScore{Interestingness: 0.8})
	require.NoError(t, a.SaveMemory(e))
	require.NoError(t, a.Close())

	b, err := OpenArchive(path)
	require.NoError(t, err)
	defer b.Close()
	n, err := b.MemoryCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
