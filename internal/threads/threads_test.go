package threads

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenTracker() (*Tracker, func(d time.Duration)) {
	tr := New(DefaultConfig())
	current := time.Now()
	tr.now = func() time.Time { return current }
	return tr, func(d time.Duration) { current = current.Add(d) }
}

func TestQuestionOpensPendingThread(t *testing.T) {
	tr, _ := frozenTracker()

	th := tr.TrackUserStatement("what build should I use?", "builds", 0.5)
	assert.Equal(t, StatusPending, th.Status)
	assert.Equal(t, "what build should I use?", th.PendingQuestion)

	// A resolving agent response closes it out.
	got := tr.TrackAgentResponse("go full strength, obviously", true)
	assert.Equal(t, th.ID, got.ID)
	assert.Equal(t, StatusResolved, got.Status)
	assert.Empty(t, got.PendingQuestion)
	assert.Equal(t, "go full strength, obviously", got.Resolution)
}

func TestTopicMatchContinuesThread(t *testing.T) {
	tr, _ := frozenTracker()

	a := tr.TrackUserStatement("this boss is rough", "boss", 0.4)
	b := tr.TrackUserStatement("third attempt now", "boss", 0.6)
	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, b.UserStatements, 2)
	assert.Equal(t, 0.6, b.Importance)
}

func TestTopicMismatchAbandonsOldThread(t *testing.T) {
	tr, _ := frozenTracker()

	a := tr.TrackUserStatement("this boss is rough", "boss", 0.4)
	b := tr.TrackUserStatement("did you see the new patch notes", "patch", 0.3)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StatusAbandoned, a.Status)
	assert.Equal(t, StatusActive, b.Status)
}

func TestStaleThreadIsNotActive(t *testing.T) {
	tr, advance := frozenTracker()

	a := tr.TrackUserStatement("this boss is rough", "boss", 0.4)
	advance(61 * time.Second)
	require.Nil(t, tr.Active())

	// Same topic after the window still opens a fresh thread.
	b := tr.TrackUserStatement("ok trying again", "boss", 0.4)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStaleThreadIsAbandonedByNewStatement(t *testing.T) {
	tr, advance := frozenTracker()

	a := tr.TrackUserStatement("this boss is rough", "boss", 0.4)
	advance(61 * time.Second)

	b := tr.TrackUserStatement("did you see the new patch notes", "patch", 0.3)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StatusAbandoned, a.Status)
	assert.Equal(t, StatusActive, b.Status)
}

func TestStaleThreadIsAbandonedByAgentThread(t *testing.T) {
	tr, advance := frozenTracker()

	a := tr.TrackUserStatement("this boss is rough", "boss", 0.4)
	advance(61 * time.Second)

	b := tr.TrackAgentResponse("so what are we even doing today", false)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StatusAbandoned, a.Status)
	assert.Equal(t, "agent", b.Initiator)
}

func TestAgentInitiatedThread(t *testing.T) {
	tr, _ := frozenTracker()

	th := tr.TrackAgentResponse("so what are we even doing today", false)
	assert.Equal(t, "agent", th.Initiator)
	assert.Equal(t, StatusActive, th.Status)
}

func TestHistoryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 3
	tr := New(cfg)
	current := time.Now()
	tr.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		tr.TrackUserStatement("statement", fmt.Sprintf("topic-%d", i), 0.1)
	}
	hist := tr.History()
	require.Len(t, hist, 3)
	assert.Equal(t, "topic-4", hist[len(hist)-1].Topic)
}

func TestStats(t *testing.T) {
	tr, _ := frozenTracker()
	tr.TrackUserStatement("how do I beat this?", "boss", 0.4)

	st := tr.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, "boss", st.ActiveTopic)
}
