package watchers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c00lestkats/open-binmat/internal/game"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

func combatEvent(gameID string, res game.CombatResult) rules.Event {
	evt := rules.NewEvent(rules.EventCombatResolved, gameID, "a0", 3)
	evt.Lane = res.Lane
	evt.Amount = res.Damage
	evt.Payload = res
	return evt
}

func TestCombatWatcher(t *testing.T) {
	watcher := NewCombatWatcher("g1")

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(combatEvent("g1", game.CombatResult{Lane: 2, Outcome: game.OutcomeDefender}))
	watcher.Watch(combatEvent("g1", game.CombatResult{Lane: 2, Outcome: game.OutcomeBounce}))
	assert.False(t, watcher.ConditionMet())

	watcher.Watch(combatEvent("g1", game.CombatResult{Lane: 4, Outcome: game.OutcomeAttacker, Damage: 3}))
	watcher.Watch(combatEvent("other", game.CombatResult{Lane: 4, Outcome: game.OutcomeAttacker, Damage: 9}))

	assert.True(t, watcher.ConditionMet())
	assert.Equal(t, 1, watcher.Count(game.OutcomeAttacker))
	assert.Equal(t, 1, watcher.Count(game.OutcomeDefender))
	assert.Equal(t, 0, watcher.Count(game.OutcomeDrawBounce))
	assert.Equal(t, 2, watcher.Combats(2))
	assert.Equal(t, 3, watcher.Damage(), "events of other games are ignored")

	watcher.Reset()
	assert.False(t, watcher.ConditionMet())
	assert.Equal(t, 0, watcher.Damage())
	assert.Equal(t, 0, watcher.Combats(2))
}

func TestCombatWatcherIgnoresUntypedPayload(t *testing.T) {
	watcher := NewCombatWatcher("")
	evt := rules.NewEvent(rules.EventCombatResolved, "g1", "a0", 1)
	evt.Payload = "bounce"
	watcher.Watch(evt)
	assert.Equal(t, 0, watcher.Combats(-1))
	assert.False(t, watcher.ConditionMet())
}

// seatedGame starts a one attacker, two defender game on seed "test" with
// inactive seats kicked after their first no-op.
func seatedGame(t *testing.T, registry *rules.WatcherRegistry) *game.Game {
	t.Helper()
	settings := game.DefaultSettings()
	settings.Seed = "test"
	settings.KickOnInactive = true
	settings.MarkInactiveTurns = 0

	g := game.New("g1", "admin", settings)
	for _, p := range []struct {
		name string
		team game.Team
	}{{"alice", game.Attacker}, {"bob", game.Defender}, {"carol", game.Defender}} {
		_, err := g.AddPlayer(p.name, p.team)
		require.NoError(t, err)
	}
	bus := rules.NewEventBus()
	registry.Attach(bus)
	g.AttachEvents(bus)
	require.NoError(t, g.Init())
	return g
}

func TestWatchersFollowAGame(t *testing.T) {
	registry := rules.NewWatcherRegistry()
	drawn := NewCardsDrawnWatcher("g1")
	idle := NewInactivityWatcher("g1", "d1")
	lead := NewInactivityWatcher("g1", "d0")
	registry.AddWatcher(drawn)
	registry.AddWatcher(idle)
	registry.AddWatcher(lead)

	g := seatedGame(t, registry)

	_, err := g.QueueOp("d0", "d0")
	require.NoError(t, err)
	ran, err := g.QueueOp("d1", "xa0")
	require.NoError(t, err)
	require.True(t, ran)

	ran, err = g.QueueOp("a0", "d3")
	require.NoError(t, err)
	require.True(t, ran)

	assert.Equal(t, 1, drawn.Drawn("d0"))
	assert.Equal(t, 1, drawn.Drawn("a0"))
	assert.Equal(t, 0, drawn.Drawn("d1"))
	assert.False(t, drawn.ConditionMet(), "no lane ran dry")

	assert.Equal(t, 1, idle.NoOps())
	assert.Equal(t, 1, idle.Streak())
	assert.Len(t, idle.Reasons(), 1)
	assert.True(t, idle.ConditionMet(), "d1 was kicked")

	assert.Equal(t, 0, lead.NoOps())
	assert.False(t, lead.ConditionMet())

	registry.ResetWatchers()
	assert.Equal(t, 0, idle.NoOps())
	assert.Empty(t, idle.Reasons())
	assert.False(t, idle.ConditionMet())
}

func TestCardsDrawnWatcherReshuffles(t *testing.T) {
	watcher := NewCardsDrawnWatcher("")
	evt := rules.NewEvent(rules.EventDeckReshuffled, "g9", "", 7)
	evt.Lane = 4
	evt.Amount = 13
	watcher.Watch(evt)

	assert.Equal(t, 1, watcher.Reshuffles(4))
	assert.True(t, watcher.ConditionMet())

	watcher.Reset()
	assert.Equal(t, 0, watcher.Reshuffles(4))
}

func TestInactivityStreakResetsOnExecutedOp(t *testing.T) {
	watcher := NewInactivityWatcher("", "a1")
	noOp := rules.NewEvent(rules.EventNoOp, "g1", "a1", 1)
	noOp.Payload = "no operation queued"

	watcher.Watch(noOp)
	watcher.Watch(noOp)
	assert.Equal(t, 2, watcher.Streak())

	// damage draws from a defender break land on rotating attacker seats
	// without the seat having acted
	watcher.Watch(rules.NewEvent(rules.EventCardDrawn, "g1", "a1", 4))
	assert.Equal(t, 2, watcher.Streak())

	executed := rules.NewEvent(rules.EventOpExecuted, "g1", "a1", 5)
	executed.Op = "d3"
	watcher.Watch(executed)
	assert.Equal(t, 0, watcher.Streak())
	assert.Equal(t, 2, watcher.NoOps())
	assert.Equal(t, []string{"no operation queued", "no operation queued"}, watcher.Reasons())
}
