package game

import (
	"errors"
	"fmt"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rng"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// CardSpec names a card in a hand. Without a sign the value must be unique.
type CardSpec struct {
	Value   cards.Value
	Sign    cards.Sign
	HasSign bool
}

func (c CardSpec) String() string {
	if c.HasSign {
		return c.Value.String() + c.Sign.String()
	}
	return c.Value.String()
}

// actor validates that seat may move in an ongoing game and returns its hand.
func (g *Game) actor(seat SeatID) (*cards.Pile, error) {
	if g.Status != StatusOngoing {
		return nil, reject(fmt.Errorf("game %s is %s: %w", g.ID, g.Status, ErrNotOngoing))
	}
	hand, err := g.Hand(seat)
	if err != nil {
		return nil, reject(err)
	}
	return hand, nil
}

// Draw takes the top card of lane's deck into seat's hand. Lane 6 is the
// attacker deck. An empty deck is refilled from the lane's discard; when both
// are empty the attacker team wins if it could still draw there.
func (g *Game) Draw(seat SeatID, lane int) error {
	hand, err := g.actor(seat)
	if err != nil {
		return err
	}
	team := seat.Team()
	if lane < 0 || lane > rules.AttackerLane {
		return rejectf("lane %d out of range", lane)
	}
	if team == Defender && lane == rules.AttackerLane {
		return rejectf("defenders cannot draw from the attacker deck")
	}
	if lane != rules.AttackerLane && team == Attacker && g.State.Lanes[lane].DefenderStack.Cards.Len() > 0 {
		return rejectf("lane %d is defended", lane)
	}

	deck, discard := g.State.piles(lane)
	if deck.Len() == 0 {
		if discard.Len() == 0 {
			if lane == rules.AttackerLane || team == Defender {
				return rejectf("lane %d has no cards left", lane)
			}
			g.EndGame(Attacker)
			return nil
		}
		g.reshuffle(lane, deck, discard)
	}

	c, err := deck.Pop()
	if err != nil {
		return invariantf("draw from lane %d after refill: %v", lane, err)
	}
	if rules.OpenLane(lane) {
		deck.SetTopVisibility(cards.VisibleEveryone)
	}
	c.Visibility = team.Visibility()
	hand.Push(c)

	evt := g.event(rules.EventCardDrawn, seat)
	evt.Lane = lane
	evt.Card = c.ID()
	g.emit(evt)
	return nil
}

// reshuffle moves lane's discard face down into its deck in shuffled order.
func (g *Game) reshuffle(lane int, deck, discard *cards.Pile) {
	refill := discard.TakeAll()
	rng.Shuffle(refill, g.random)
	for i := range refill {
		refill[i].Visibility = cards.Hidden
	}
	deck.Push(refill...)
	if rules.OpenLane(lane) {
		deck.SetTopVisibility(cards.VisibleEveryone)
	}

	evt := g.event(rules.EventDeckReshuffled, "")
	evt.Lane = lane
	evt.Amount = len(refill)
	g.emit(evt)
}

// Discard moves a card from seat's hand face up onto lane's discard.
// Discarding to the attacker discard (lane 6) draws two cards from the
// attacker deck.
func (g *Game) Discard(seat SeatID, lane int, spec CardSpec) error {
	hand, err := g.actor(seat)
	if err != nil {
		return err
	}
	if lane < 0 || lane > rules.AttackerLane {
		return rejectf("lane %d out of range", lane)
	}
	if seat.Team() == Defender && lane == rules.AttackerLane {
		return rejectf("defenders cannot discard to the attacker discard")
	}

	c, err := takeFromHand(hand, spec)
	if err != nil {
		return err
	}
	c.Visibility = cards.VisibleEveryone
	_, discard := g.State.piles(lane)
	discard.Push(c)

	evt := g.event(rules.EventCardDiscarded, seat)
	evt.Lane = lane
	evt.Card = c.ID()
	g.emit(evt)

	if lane == rules.AttackerLane {
		for i := 0; i < 2; i++ {
			if err := g.Draw(seat, lane); err != nil && !errors.Is(err, ErrRejected) {
				return err
			}
		}
	}
	return nil
}

// Play puts a card from seat's hand onto its team's stack in lane. A face-up
// break or bounce starts a combat at once, and its result is returned.
func (g *Game) Play(seat SeatID, lane int, spec CardSpec, faceUp bool) (*CombatResult, error) {
	hand, err := g.actor(seat)
	if err != nil {
		return nil, err
	}
	if lane < 0 || lane >= rules.LaneCount {
		return nil, rejectf("lane %d out of range", lane)
	}
	team := seat.Team()
	stack := g.State.Lanes[lane].Stack(team)

	if spec.Value == cards.Break && stack.Cards.Len() == 0 {
		return nil, rejectf("cannot play %s onto an empty stack", cards.Break)
	}
	if spec.Value == cards.Bounce && faceUp && team == Attacker && stack.Cards.Len() == 0 {
		return nil, rejectf("attackers cannot open a stack with a face-up %s", cards.Bounce)
	}

	c, err := takeFromHand(hand, spec)
	if err != nil {
		return nil, err
	}
	if faceUp {
		c.Visibility = cards.VisibleEveryone
	} else {
		c.Visibility = team.Visibility()
	}
	stack.Cards.Push(c)

	evt := g.event(rules.EventCardPlayed, seat)
	evt.Lane = lane
	if faceUp {
		evt.Card = c.ID()
	}
	g.emit(evt)

	if faceUp && (c.Value == cards.Break || c.Value == cards.Bounce) {
		return g.combat(seat, lane, true)
	}
	return nil, nil
}

// Combat resolves lane on behalf of seat. Only attackers may start a combat
// directly.
func (g *Game) Combat(seat SeatID, lane int) (*CombatResult, error) {
	if _, err := g.actor(seat); err != nil {
		return nil, err
	}
	if lane < 0 || lane >= rules.LaneCount {
		return nil, rejectf("lane %d out of range", lane)
	}
	return g.combat(seat, lane, false)
}

func takeFromHand(hand *cards.Pile, spec CardSpec) (cards.Card, error) {
	i, err := hand.Find(spec.Value, spec.Sign, spec.HasSign)
	if err != nil {
		return cards.Card{}, reject(err)
	}
	c, err := hand.RemoveAt(i)
	if err != nil {
		return cards.Card{}, invariantf("remove %s from hand: %v", spec, err)
	}
	return c, nil
}

// Apply executes a parsed operation for seat.
func (g *Game) Apply(seat SeatID, op rules.Op) error {
	spec := CardSpec{Value: op.Value, Sign: op.Sign, HasSign: op.HasSign}
	switch op.Kind {
	case rules.OpDraw:
		return g.Draw(seat, op.Lane)
	case rules.OpDiscard:
		return g.Discard(seat, op.Lane, spec)
	case rules.OpPlay:
		_, err := g.Play(seat, op.Lane, spec, op.FaceUp)
		return err
	case rules.OpCombat:
		_, err := g.Combat(seat, op.Lane)
		return err
	}
	return rejectf("unknown operation %s", op.Kind)
}
