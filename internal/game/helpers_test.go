package game

import (
	"testing"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// startedGame seats the given number of attackers and defenders and deals
// the table for seed.
func startedGame(t *testing.T, seed string, attackers, defenders int, tweak ...func(*Settings)) *Game {
	t.Helper()
	settings := DefaultSettings()
	settings.Seed = seed
	for _, f := range tweak {
		f(&settings)
	}

	g := New("game-"+seed, "admin", settings)
	for i := 0; i < attackers; i++ {
		if _, err := g.AddPlayer(string(rules.NewSeatID(Attacker, i)), Attacker); err != nil {
			t.Fatalf("seat attacker %d: %v", i, err)
		}
	}
	for i := 0; i < defenders; i++ {
		if _, err := g.AddPlayer(string(rules.NewSeatID(Defender, i)), Defender); err != nil {
			t.Fatalf("seat defender %d: %v", i, err)
		}
	}
	if err := g.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return g
}

func allPiles(g *Game) []*cards.Pile {
	st := &g.State
	out := []*cards.Pile{&st.AttackerDeck, &st.AttackerDiscard}
	for i := range st.Lanes {
		l := &st.Lanes[i]
		out = append(out, &l.Deck, &l.Discard, &l.AttackerStack.Cards, &l.DefenderStack.Cards)
	}
	for _, h := range st.Hands {
		out = append(out, h)
	}
	return out
}

// pull removes the card with identity id from wherever it lies.
func pull(t *testing.T, g *Game, id string) cards.Card {
	t.Helper()
	for _, p := range allPiles(g) {
		for i, c := range *p {
			if c.ID() != id {
				continue
			}
			got, err := p.RemoveAt(i)
			if err != nil {
				t.Fatalf("remove %s: %v", id, err)
			}
			return got
		}
	}
	t.Fatalf("card %s not on the table", id)
	return cards.Card{}
}

// pileOf pulls ids into a new pile with visibility v, bottom first.
func pileOf(t *testing.T, g *Game, v cards.Visibility, ids ...string) cards.Pile {
	t.Helper()
	var p cards.Pile
	for _, id := range ids {
		c := pull(t, g, id)
		c.Visibility = v
		p.Push(c)
	}
	return p
}

func giveHand(t *testing.T, g *Game, seat SeatID, ids ...string) {
	t.Helper()
	hand, err := g.Hand(seat)
	if err != nil {
		t.Fatalf("hand of %s: %v", seat, err)
	}
	hand.Push(pileOf(t, g, seat.Team().Visibility(), ids...)...)
}

func assertConserved(t *testing.T, g *Game) {
	t.Helper()
	all := g.State.AllCards()
	if len(all) != cards.SetSize {
		t.Fatalf("expected %d cards on the table, found %d", cards.SetSize, len(all))
	}
	seen := make(map[string]bool, len(all))
	for _, c := range all {
		if seen[c.ID()] {
			t.Fatalf("card %s appears twice", c.ID())
		}
		seen[c.ID()] = true
	}
}

func spec(value cards.Value, sign cards.Sign) CardSpec {
	return CardSpec{Value: value, Sign: sign, HasSign: true}
}
