package game

import (
	"errors"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// Outcome names how a combat ended.
type Outcome string

const (
	OutcomeBounce     Outcome = "bounce"
	OutcomeDrawBounce Outcome = "draw-bounce"
	OutcomeDefender   Outcome = "defender"
	OutcomeAttacker   Outcome = "attacker"
)

// CombatResult summarises a resolved combat.
type CombatResult struct {
	Lane          int     `json:"lane"`
	Initiator     Team    `json:"initiator"`
	AttackerPower int     `json:"attacker_power"`
	DefenderPower int     `json:"defender_power"`
	Outcome       Outcome `json:"outcome"`
	Damage        int     `json:"damage"`
}

var powersOfTwo = [...]int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384}

// Power returns the power of a stack: the index of its numeric sum in the
// power-of-two table, or 0 when the sum is not in the table. Each wild lifts
// the running sum to the next table entry above it.
func Power(stack cards.Pile) (int, error) {
	sum := 0
	for _, c := range stack {
		if n, ok := c.Value.Numeric(); ok {
			sum += n
		}
	}
	for range stack.Count(cards.Wild) {
		next, ok := nextPowerOfTwo(sum)
		if !ok {
			return 0, invariantf("wild cannot lift %d past %d", sum, powersOfTwo[len(powersOfTwo)-1])
		}
		sum = next
	}
	for i, p := range powersOfTwo {
		if p == sum {
			return i, nil
		}
	}
	return 0, nil
}

func nextPowerOfTwo(n int) (int, bool) {
	for _, p := range powersOfTwo {
		if p > n {
			return p, true
		}
	}
	return 0, false
}

func (g *Game) combat(seat SeatID, lane int, fromBreak bool) (*CombatResult, error) {
	initiator := seat.Team()
	if initiator == Defender && !fromBreak {
		return nil, rejectf("defenders can only fight through a break or bounce")
	}
	opponent := initiator.Opponent()

	st := &g.State
	l := &st.Lanes[lane]
	attack, defend := &l.AttackerStack, &l.DefenderStack

	trap(l.Stack(opponent), l.Stack(initiator), st.discardOf(opponent, lane))
	trap(l.Stack(initiator), l.Stack(opponent), st.discardOf(initiator, lane))

	attackPower, err := Power(attack.Cards)
	if err != nil {
		return nil, err
	}
	defendPower, err := Power(defend.Cards)
	if err != nil {
		return nil, err
	}

	result := &CombatResult{
		Lane:          lane,
		Initiator:     initiator,
		AttackerPower: attackPower,
		DefenderPower: defendPower,
	}

	switch {
	case attack.Cards.Contains(cards.Bounce) || defend.Cards.Contains(cards.Bounce):
		moveValue(&attack.Cards, cards.Bounce, st.discardOf(Defender, lane))
		moveValue(&defend.Cards, cards.Bounce, &st.AttackerDiscard)
		bounce(attack, defend, &st.AttackerDiscard)
		result.Outcome = OutcomeBounce

	case attackPower == 0 && defendPower == 0:
		bounce(attack, defend, &st.AttackerDiscard)
		result.Outcome = OutcomeDrawBounce

	case attackPower-defendPower < 0:
		discardFaceUp(attack, st.discardOf(Defender, lane))
		reveal(defend)
		result.Outcome = OutcomeDefender

	default:
		result.Outcome = OutcomeAttacker
		result.Damage = attackPower - defendPower + 1
		if attack.Cards.Contains(cards.Break) || defend.Cards.Contains(cards.Break) {
			result.Damage = max(attackPower, defend.Cards.Len())
		}
		if err := g.applyDamage(seat, lane, result.Damage); err != nil {
			return nil, err
		}
		discardFaceUp(attack, &st.AttackerDiscard)
	}

	evt := g.event(rules.EventCombatResolved, seat)
	evt.Lane = lane
	evt.Amount = result.Damage
	evt.Payload = *result
	g.emit(evt)
	return result, nil
}

// trap pops one card of victim per trap in owner's stack into discard.
func trap(owner, victim *cards.CombatStack, discard *cards.Pile) {
	for range owner.Cards.Count(cards.Trap) {
		c, err := victim.Cards.Pop()
		if errors.Is(err, cards.ErrEmptyPile) {
			return
		}
		c.Visibility = cards.VisibleEveryone
		discard.Push(c)
	}
}

// moveValue moves every card of value v from stack face up into discard.
func moveValue(stack *cards.Pile, v cards.Value, discard *cards.Pile) {
	kept := (*stack)[:0]
	var moved []cards.Card
	for _, c := range *stack {
		if c.Value == v {
			c.Visibility = cards.VisibleEveryone
			moved = append(moved, c)
			continue
		}
		kept = append(kept, c)
	}
	*stack = kept
	discard.Push(moved...)
}

func discardFaceUp(stack *cards.CombatStack, discard *cards.Pile) {
	taken := stack.Cards.TakeAll()
	for i := range taken {
		taken[i].Visibility = cards.VisibleEveryone
	}
	discard.Push(taken...)
}

func reveal(stack *cards.CombatStack) {
	stack.Cards.SetVisibility(cards.VisibleEveryone)
	stack.ForceVisible = true
}

func bounce(attack, defend *cards.CombatStack, attackerDiscard *cards.Pile) {
	discardFaceUp(attack, attackerDiscard)
	reveal(defend)
}

// applyDamage strips the defender stack one card per point and draws for the
// attackers once it is empty. An attacker-started combat draws for the
// initiator; a defender-started one rotates through attacker seats.
func (g *Game) applyDamage(seat SeatID, lane int, damage int) error {
	st := &g.State
	defend := &st.Lanes[lane].DefenderStack
	attackerSeats := g.SeatCount(Attacker)

	for i := 0; i < damage; i++ {
		if g.Status == StatusCompleted {
			return nil
		}
		if defend.Cards.Len() > 0 {
			c, err := defend.Cards.Pop()
			if err != nil {
				return invariantf("pop defender stack in lane %d: %v", lane, err)
			}
			c.Visibility = cards.VisibleEveryone
			st.AttackerDiscard.Push(c)
			continue
		}

		drawer := seat
		if seat.Team() == Defender {
			if attackerSeats == 0 {
				return invariantf("no attacker seats to take damage draws")
			}
			drawer = rules.NewSeatID(Attacker, i%attackerSeats)
		}
		if err := g.Draw(drawer, lane); err != nil && !errors.Is(err, ErrRejected) {
			return err
		}
	}
	return nil
}
