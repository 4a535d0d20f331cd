package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// ActingTeam returns the team whose turn it is.
func (g *Game) ActingTeam() Team {
	return rules.TeamForTurn(g.Turn)
}

// QueueOp stores seat's operation code for the current turn. Once every
// active seat of the acting team has submitted, the turn runs and QueueOp
// reports true.
func (g *Game) QueueOp(seat SeatID, code string) (bool, error) {
	if g.Status != StatusOngoing {
		return false, reject(fmt.Errorf("game %s is %s: %w", g.ID, g.Status, ErrNotOngoing))
	}
	p, ok := g.Player(seat)
	if !ok || p.Kicked {
		return false, reject(fmt.Errorf("seat %s: %w", seat, ErrSeatNotFound))
	}
	team := g.ActingTeam()
	if p.Team != team {
		return false, reject(fmt.Errorf("seat %s on turn %d: %w", seat, g.Turn, ErrNotYourTurn))
	}
	if g.QueuedOps == nil {
		g.QueuedOps = make(map[SeatID]string)
	}
	if _, queued := g.QueuedOps[seat]; queued {
		return false, reject(fmt.Errorf("seat %s: %w", seat, ErrAlreadySubmitted))
	}
	if _, err := rules.Parse(code); err != nil {
		return false, reject(err)
	}

	g.QueuedOps[seat] = code
	evt := g.event(rules.EventOpQueued, seat)
	evt.Op = code
	g.emit(evt)

	for _, s := range g.ActiveSeats(team) {
		if _, queued := g.QueuedOps[s]; !queued {
			return false, nil
		}
	}
	if err := g.RunTurn(); err != nil {
		return false, err
	}
	return true, nil
}

// RunTurn executes the queued operations of the acting team in seat order.
// Seats without a valid, accepted operation take a no-op. Reaching the turn
// limit ends the game in the defenders' favour instead.
func (g *Game) RunTurn() error {
	if g.Status != StatusOngoing {
		return fmt.Errorf("run turn in game %s: %w", g.ID, ErrNotOngoing)
	}
	if g.Turn >= g.Settings.TurnLimit {
		g.EndGame(Defender)
		return nil
	}

	team := g.ActingTeam()
	g.Binlog = append(g.Binlog, turnMarker(g.Turn))

	for _, seat := range rules.Filter(g.NextOrd, team) {
		if g.Status == StatusCompleted {
			break
		}
		p, ok := g.Player(seat)
		if !ok {
			return invariantf("seat %s in turn order has no player", seat)
		}
		if p.Kicked {
			continue
		}

		code, queued := g.QueuedOps[seat]
		err := g.execute(seat, code, queued)
		if errors.Is(err, ErrInvariant) {
			return fmt.Errorf("turn %d seat %s: %w", g.Turn, seat, err)
		}
		if err != nil {
			g.noOp(p, code, err)
			continue
		}
		p.ConsecutiveNoOps = 0
		g.Binlog = append(g.Binlog, fmt.Sprintf("%s %s", seat, code))
		done := g.event(rules.EventOpExecuted, seat)
		done.Op = code
		g.emit(done)
	}

	evt := g.event(rules.EventTurnExecuted, "")
	g.emit(evt)

	g.Turn++
	g.QueuedOps = make(map[SeatID]string)
	g.LastTurnAt = time.Now()

	if team == Attacker {
		ord, err := g.nextOrder()
		if err != nil {
			return invariantf("%v", err)
		}
		g.NextOrd = ord
	}
	return nil
}

func turnMarker(turn int) string {
	return fmt.Sprintf("%d ---", turn)
}

var errNoOpQueued = errors.New("no operation queued")

func (g *Game) execute(seat SeatID, code string, queued bool) error {
	if !queued {
		return errNoOpQueued
	}
	op, err := rules.Parse(code)
	if err != nil {
		return err
	}
	return g.Apply(seat, op)
}

func (g *Game) noOp(p *Player, code string, cause error) {
	p.ConsecutiveNoOps++

	evt := g.event(rules.EventNoOp, p.Seat)
	evt.Op = code
	evt.Payload = cause.Error()
	g.emit(evt)

	if g.Settings.KickOnInactive && p.ConsecutiveNoOps > g.Settings.MarkInactiveTurns && !p.Seat.Lead() {
		p.Kicked = true
		g.emit(g.event(rules.EventSeatKicked, p.Seat))
	}
}
