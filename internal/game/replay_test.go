package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recordedReplay(t *testing.T) (*Replay, []*Game) {
	t.Helper()
	g := startedGame(t, "test", 1, 1)
	replay := NewReplay(g.ID)

	var states []*Game
	snap := func() {
		s, err := NewSnapshot(g)
		require.NoError(t, err)
		replay.Record(s)
		c, err := g.Clone()
		require.NoError(t, err)
		states = append(states, c)
	}

	snap()
	for _, step := range []struct {
		seat SeatID
		op   string
	}{{"d0", "d0"}, {"a0", "d3"}, {"d0", "d4"}} {
		_, err := g.QueueOp(step.seat, step.op)
		require.NoError(t, err)
		snap()
	}
	return replay, states
}

func TestReplayPlayback(t *testing.T) {
	replay, states := recordedReplay(t)
	require.Equal(t, 4, replay.Size())

	replay.Start()
	for i := range states {
		s := replay.Next()
		require.NotNil(t, s)
		assert.Equal(t, i, s.Turn)
	}
	assert.Nil(t, replay.Next())

	prev := replay.Previous()
	require.NotNil(t, prev)
	assert.Equal(t, 3, prev.Turn)

	assert.Equal(t, 3, replay.Skip(10).Turn)
	assert.Equal(t, 0, replay.Skip(-10).Turn)
	assert.Nil(t, replay.At(4))

	g, err := replay.At(2).Game()
	require.NoError(t, err)
	assert.Equal(t, Checksum(states[2]).Hash, Checksum(g).Hash)
}

func TestSnapshotDetectsTampering(t *testing.T) {
	replay, _ := recordedReplay(t)
	s := replay.At(1)
	s.Checksum = "0000"

	_, err := s.Game()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReplayFileRoundTrip(t *testing.T) {
	replay, states := recordedReplay(t)
	dir := t.TempDir()

	require.NoError(t, replay.SaveToFile(dir))
	_, err := os.Stat(filepath.Join(dir, replay.GameID+".replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, replay.GameID)
	require.NoError(t, err)
	assert.Equal(t, replay.GameID, loaded.GameID)
	require.Equal(t, len(states), loaded.Size())

	for i, want := range states {
		g, err := loaded.At(i).Game()
		require.NoError(t, err, "snapshot %d", i)
		assert.Equal(t, Checksum(want).Hash, Checksum(g).Hash, "snapshot %d", i)
	}

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestReplayRecorder(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	g := startedGame(t, "binmat", 1, 1)

	require.NoError(t, rr.Record(g), "unrecorded games are ignored")
	assert.False(t, rr.IsRecording(g.ID))

	rr.StartRecording(g.ID)
	require.NoError(t, rr.Record(g))
	_, err := g.QueueOp("d0", "d2")
	require.NoError(t, err)
	require.NoError(t, rr.Record(g))

	replay, ok := rr.GetReplay(g.ID)
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size())

	require.NoError(t, rr.SaveReplay(g.ID))
	assert.False(t, rr.IsRecording(g.ID))
	assert.Error(t, rr.SaveReplay(g.ID))

	loaded, err := rr.LoadReplay(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())

	rr.StartRecording("other")
	rr.ClearReplay("other")
	assert.False(t, rr.IsRecording("other"))
}
