package game

import (
	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// HiddenCard is shown in place of a card the viewer may not see.
const HiddenCard = "X"

// SeatView is what one seat may see of a game. Card lists run top first.
// Combat stack entries carry a "u" suffix when face up.
type SeatView struct {
	GameID          string                    `json:"game_id"`
	Seat            SeatID                    `json:"seat"`
	Status          Status                    `json:"status"`
	Turns           int                       `json:"turns"`
	ActingTeam      Team                      `json:"acting_team"`
	Players         []SeatPlayer              `json:"players"`
	Order           []SeatID                  `json:"order"`
	Ops             []string                  `json:"ops"`
	Lanes           [rules.LaneCount]LaneView `json:"lanes"`
	AttackerDeck    int                       `json:"attacker_deck"`
	AttackerDiscard []string                  `json:"attacker_discard"`
	Hands           []HandView                `json:"hands"`
	Winner          Team                      `json:"winner,omitempty"`
}

// SeatPlayer pairs a seat with its username.
type SeatPlayer struct {
	Seat     SeatID `json:"seat"`
	Username string `json:"username"`
}

// LaneView is the visible part of one lane.
type LaneView struct {
	Top      string   `json:"top"`
	Count    int      `json:"count"`
	Attacker []string `json:"attacker"`
	Defender []string `json:"defender"`
	Discard  []string `json:"discard"`
}

// HandView is a hand as seen by the viewer. Cards is nil for the other team.
type HandView struct {
	Seat  SeatID   `json:"seat"`
	Count int      `json:"count"`
	Cards []string `json:"cards,omitempty"`
}

// Project builds the view of g for seat. An empty seat gives the spectator
// view, which shows only public information.
func Project(g *Game, seat SeatID) SeatView {
	team := seat.Team()
	v := SeatView{
		GameID:          g.ID,
		Seat:            seat,
		Status:          g.Status,
		Turns:           g.Turn - 1,
		ActingTeam:      g.ActingTeam(),
		Players:         make([]SeatPlayer, 0, len(g.Players)),
		Order:           append([]SeatID(nil), g.NextOrd...),
		Ops:             recentOps(g.Binlog, g.Turn),
		AttackerDeck:    g.State.AttackerDeck.Len(),
		AttackerDiscard: showPile(g.State.AttackerDiscard),
		Winner:          g.Winner,
	}

	for _, p := range g.Players {
		v.Players = append(v.Players, SeatPlayer{Seat: p.Seat, Username: p.Username})
		h, ok := g.State.Hands[p.Seat]
		if !ok || h == nil {
			continue
		}
		hv := HandView{Seat: p.Seat, Count: h.Len()}
		if team != "" && p.Team == team {
			hv.Cards = showPile(*h)
		}
		v.Hands = append(v.Hands, hv)
	}

	for i := range g.State.Lanes {
		l := &g.State.Lanes[i]
		lv := LaneView{
			Count:    l.Deck.Len(),
			Attacker: showStack(l.AttackerStack, team == Attacker),
			Defender: showStack(l.DefenderStack, team == Defender),
			Discard:  showPile(l.Discard),
		}
		if top, ok := l.Deck.Top(); ok {
			lv.Top = HiddenCard
			if top.Up() {
				lv.Top = top.ID()
			}
		}
		v.Lanes[i] = lv
	}
	return v
}

// recentOps returns the binlog from the marker of two turns ago, which covers
// everything since the viewer's team last acted.
func recentOps(binlog []string, turn int) []string {
	marker := turnMarker(turn - 2)
	for i, line := range binlog {
		if line == marker {
			return append([]string(nil), binlog[i:]...)
		}
	}
	return append([]string(nil), binlog...)
}

func showPile(p cards.Pile) []string {
	out := make([]string, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		out = append(out, p[i].ID())
	}
	return out
}

func showStack(s cards.CombatStack, own bool) []string {
	out := make([]string, 0, len(s.Cards))
	for i := len(s.Cards) - 1; i >= 0; i-- {
		c := s.Cards[i]
		switch {
		case c.Up() || s.ForceVisible:
			out = append(out, c.ID()+"u")
		case own:
			out = append(out, c.ID())
		default:
			out = append(out, HiddenCard)
		}
	}
	return out
}
