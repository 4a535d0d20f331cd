package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
)

func handView(t *testing.T, v SeatView, seat SeatID) HandView {
	t.Helper()
	for _, h := range v.Hands {
		if h.Seat == seat {
			return h
		}
	}
	t.Fatalf("no hand for %s in view", seat)
	return HandView{}
}

func TestProjectHands(t *testing.T) {
	g := startedGame(t, "test", 1, 1)
	_, err := g.QueueOp("d0", "d0")
	require.NoError(t, err)

	dv := Project(g, "d0")
	assert.Equal(t, 0, dv.Turns)
	assert.Equal(t, Attacker, dv.ActingTeam)
	assert.Equal(t, []string{"@+"}, handView(t, dv, "d0").Cards)
	assert.Nil(t, handView(t, dv, "a0").Cards)
	assert.Equal(t, []string{"0 ---", "d0 d0"}, dv.Ops)
	assert.Equal(t, []SeatPlayer{{Seat: "a0", Username: "a0"}, {Seat: "d0", Username: "d0"}}, dv.Players)

	av := Project(g, "a0")
	ah := handView(t, av, "d0")
	assert.Equal(t, 1, ah.Count)
	assert.Nil(t, ah.Cards)

	spectator := Project(g, "")
	for _, h := range spectator.Hands {
		assert.Nil(t, h.Cards, "spectators see no hands")
	}
}

func TestProjectLanes(t *testing.T) {
	g := startedGame(t, "test", 1, 1)
	require.NoError(t, g.Draw("d0", 0))

	v := Project(g, "a0")
	assert.Equal(t, LaneView{Top: HiddenCard, Count: 12, Attacker: []string{}, Defender: []string{}, Discard: []string{}}, v.Lanes[0])
	assert.Equal(t, "5&", v.Lanes[3].Top)
	assert.Equal(t, 13, v.Lanes[3].Count)
	assert.Equal(t, 0, v.AttackerDeck)
	assert.Empty(t, v.AttackerDiscard)
}

func TestProjectStacks(t *testing.T) {
	g := startedGame(t, "test", 1, 1)
	l := &g.State.Lanes[2]
	l.AttackerStack.Cards = pileOf(t, g, cards.VisibleAttacker, "7^", "3+")
	l.AttackerStack.Cards[1].Visibility = cards.VisibleEveryone
	l.DefenderStack.Cards = pileOf(t, g, cards.VisibleDefender, "9#")
	l.Discard = pileOf(t, g, cards.VisibleEveryone, "2!", "4!")

	av := Project(g, "a0")
	assert.Equal(t, []string{"3+u", "7^"}, av.Lanes[2].Attacker, "top first")
	assert.Equal(t, []string{HiddenCard}, av.Lanes[2].Defender)
	assert.Equal(t, []string{"4!", "2!"}, av.Lanes[2].Discard)

	dv := Project(g, "d0")
	assert.Equal(t, []string{"3+u", HiddenCard}, dv.Lanes[2].Attacker)
	assert.Equal(t, []string{"9#"}, dv.Lanes[2].Defender)

	l.DefenderStack.ForceVisible = true
	av = Project(g, "a0")
	assert.Equal(t, []string{"9#u"}, av.Lanes[2].Defender)
}

func TestProjectOpsWindow(t *testing.T) {
	g := startedGame(t, "test", 1, 1)
	for _, step := range []struct {
		seat SeatID
		op   string
	}{{"d0", "d0"}, {"a0", "d3"}, {"d0", "d1"}, {"a0", "d4"}} {
		_, err := g.QueueOp(step.seat, step.op)
		require.NoError(t, err)
	}

	v := Project(g, "d0")
	assert.Equal(t, 3, v.Turns)
	assert.Equal(t, []string{"2 ---", "d0 d1", "3 ---", "a0 d4"}, v.Ops)
}
