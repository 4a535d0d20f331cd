package game_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/c00lestkats/open-binmat/internal/game"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
	"github.com/c00lestkats/open-binmat/internal/store"
)

func newEngine(t *testing.T) (*game.Engine, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	return game.NewEngine(repo, game.DefaultSettings(), zaptest.NewLogger(t)), repo
}

func seededSettings(seed string) *game.Settings {
	s := game.DefaultSettings()
	s.Seed = seed
	return &s
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	engine, repo := newEngine(t)

	g, err := engine.Create(ctx, "alice", seededSettings("test"))
	require.NoError(t, err)
	assert.Equal(t, game.StatusLobby, g.Status)
	assert.Equal(t, 1, repo.Len())

	seat, err := engine.Join(ctx, g.ID, "alice", game.Attacker)
	require.NoError(t, err)
	assert.Equal(t, game.SeatID("a0"), seat)
	seat, err = engine.Join(ctx, g.ID, "bob", game.Defender)
	require.NoError(t, err)
	assert.Equal(t, game.SeatID("d0"), seat)

	_, err = engine.Start(ctx, g.ID, "bob")
	assert.ErrorIs(t, err, game.ErrRejected, "only the admin starts a game")

	started, err := engine.Start(ctx, g.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, game.StatusOngoing, started.Status)

	_, err = engine.Join(ctx, g.ID, "carol", game.Attacker)
	assert.ErrorIs(t, err, game.ErrInvalidState)

	ran, err := engine.Submit(ctx, g.ID, "d0", "d0")
	require.NoError(t, err)
	assert.True(t, ran)

	view, err := engine.View(ctx, g.ID, "d0")
	require.NoError(t, err)
	assert.Equal(t, game.Attacker, view.ActingTeam)
	for _, h := range view.Hands {
		if h.Seat == "d0" {
			assert.Equal(t, []string{"@+"}, h.Cards)
		}
	}

	_, err = engine.View(ctx, g.ID, "a3")
	assert.ErrorIs(t, err, game.ErrSeatNotFound)

	stored, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Turn)
	assert.Equal(t, []string{"0 ---", "d0 d0"}, stored.Binlog)
}

func TestEngineRejectionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)
	g := startViaEngine(t, engine, "test")

	before, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)

	_, err = engine.Submit(ctx, g.ID, "a0", "d0")
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
	_, err = engine.Submit(ctx, g.ID, "d0", "q9")
	assert.ErrorIs(t, err, rules.ErrInvalidSyntax)

	after, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Checksum(before).Hash, game.Checksum(after).Hash)
}

func TestEngineUnknownGame(t *testing.T) {
	engine, _ := newEngine(t)
	_, err := engine.Submit(context.Background(), "nope", "d0", "d0")
	assert.True(t, errors.Is(err, game.ErrGameNotFound), "got %v", err)
}

func TestEngineCreateValidatesSettings(t *testing.T) {
	engine, _ := newEngine(t)
	bad := game.DefaultSettings()
	bad.Ord = "alphabetical"
	_, err := engine.Create(context.Background(), "alice", &bad)
	assert.Error(t, err)

	bad = game.DefaultSettings()
	bad.TurnLimit = 0
	_, err = engine.Create(context.Background(), "alice", &bad)
	assert.Error(t, err)

	_, err = engine.Create(context.Background(), "", nil)
	assert.Error(t, err)
}

func startViaEngine(t *testing.T, engine *game.Engine, seed string) *game.Game {
	t.Helper()
	ctx := context.Background()
	g, err := engine.Create(ctx, "alice", seededSettings(seed))
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "alice", game.Attacker)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "bob", game.Defender)
	require.NoError(t, err)
	started, err := engine.Start(ctx, g.ID, "alice")
	require.NoError(t, err)
	return started
}

func TestEngineEventsAndReplay(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)
	dir := t.TempDir()
	engine.SetReplayRecorder(game.NewReplayRecorder(zaptest.NewLogger(t), dir))

	var mu sync.Mutex
	seen := map[rules.EventType]int{}
	engine.Events().Subscribe(func(evt rules.Event) {
		mu.Lock()
		seen[evt.Type]++
		mu.Unlock()
	})

	limit := game.DefaultSettings()
	limit.Seed = "test"
	limit.TurnLimit = 2
	g, err := engine.Create(ctx, "alice", &limit)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "alice", game.Attacker)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "bob", game.Defender)
	require.NoError(t, err)
	_, err = engine.Start(ctx, g.ID, "alice")
	require.NoError(t, err)

	_, err = engine.Submit(ctx, g.ID, "d0", "d0")
	require.NoError(t, err)
	_, err = engine.Submit(ctx, g.ID, "a0", "d3")
	require.NoError(t, err)
	_, err = engine.ForceTurn(ctx, g.ID)
	require.NoError(t, err)

	final, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, final.Status)
	assert.Equal(t, game.Defender, final.Winner)

	mu.Lock()
	assert.Equal(t, 1, seen[rules.EventGameStarted])
	assert.Equal(t, 2, seen[rules.EventCardDrawn])
	assert.Equal(t, 2, seen[rules.EventTurnExecuted])
	assert.Equal(t, 2, seen[rules.EventOpExecuted])
	assert.Equal(t, 1, seen[rules.EventGameOver])
	mu.Unlock()

	replay, err := game.LoadReplayFromFile(dir, g.ID)
	require.NoError(t, err)
	require.Equal(t, 4, replay.Size(), "start plus three turns")
	last, err := replay.At(3).Game()
	require.NoError(t, err)
	assert.Equal(t, game.Checksum(final).Hash, game.Checksum(last).Hash)
}

func TestEngineConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	g, err := engine.Create(ctx, "admin", seededSettings("binmat"))
	require.NoError(t, err)
	var seats []game.SeatID
	for _, name := range []string{"d-one", "d-two", "d-three", "d-four"} {
		seat, err := engine.Join(ctx, g.ID, name, game.Defender)
		require.NoError(t, err)
		seats = append(seats, seat)
	}
	_, err = engine.Join(ctx, g.ID, "attacker", game.Attacker)
	require.NoError(t, err)
	_, err = engine.Start(ctx, g.ID, "admin")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, len(seats))
	errs := make([]error, len(seats))
	for i, seat := range seats {
		wg.Add(1)
		go func(i int, seat game.SeatID) {
			defer wg.Done()
			results[i], errs[i] = engine.Submit(ctx, g.ID, seat, "d"+string(rune('0'+i)))
		}(i, seat)
	}
	wg.Wait()

	ranCount := 0
	for i := range seats {
		require.NoError(t, errs[i])
		if results[i] {
			ranCount++
		}
	}
	assert.Equal(t, 1, ranCount, "exactly one submission completes the turn")

	final, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, final.Turn)
	assert.Len(t, final.Binlog, 5)
	assert.Len(t, final.State.AllCards(), 78)
}

func TestEngineLogsTurnResolution(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	engine := game.NewEngine(store.NewMemory(), game.DefaultSettings(), zap.New(core))

	g, err := engine.Create(ctx, "alice", seededSettings("test"))
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "alice", game.Attacker)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "bob", game.Defender)
	require.NoError(t, err)
	_, err = engine.Start(ctx, g.ID, "alice")
	require.NoError(t, err)

	_, err = engine.ForceTurn(ctx, g.ID)
	require.NoError(t, err)
	_, err = engine.Submit(ctx, g.ID, "a0", "d3")
	require.NoError(t, err)

	noOps := logs.FilterMessage("seat took a no-op").AllUntyped()
	require.Len(t, noOps, 1)
	fields := noOps[0].ContextMap()
	assert.Equal(t, g.ID, fields["game_id"])
	assert.Equal(t, "d0", fields["seat"])
	assert.Equal(t, "no operation queued", fields["cause"])
	assert.Equal(t, zapcore.InfoLevel, noOps[0].Level)

	executed := logs.FilterMessage("operation executed").AllUntyped()
	require.Len(t, executed, 1)
	assert.Equal(t, "a0", executed[0].ContextMap()["seat"])
	assert.Equal(t, "d3", executed[0].ContextMap()["op"])
}

func TestEngineReleasesLocksOfCompletedGames(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	limit := game.DefaultSettings()
	limit.Seed = "test"
	limit.TurnLimit = 1
	g, err := engine.Create(ctx, "alice", &limit)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "alice", game.Attacker)
	require.NoError(t, err)
	_, err = engine.Join(ctx, g.ID, "bob", game.Defender)
	require.NoError(t, err)
	_, err = engine.Start(ctx, g.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, engine.HeldLocks())

	_, err = engine.Submit(ctx, g.ID, "d0", "d0")
	require.NoError(t, err)
	final, err := engine.ForceTurn(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, final.Status)
	assert.Equal(t, 0, engine.HeldLocks())

	_, err = engine.Submit(ctx, g.ID, "a0", "d3")
	assert.ErrorIs(t, err, game.ErrNotOngoing)
}
