package rules

import (
	"fmt"
	"strconv"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
)

// Team is one side of the table.
type Team string

const (
	Attacker Team = "a"
	Defender Team = "d"
)

// MaxSeatsPerTeam bounds a team to one hex digit of seat ids.
const MaxSeatsPerTeam = 16

// Valid reports whether t names a playing team.
func (t Team) Valid() bool { return t == Attacker || t == Defender }

// Name returns the long team name.
func (t Team) Name() string {
	switch t {
	case Attacker:
		return "attacker"
	case Defender:
		return "defender"
	}
	return string(t)
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == Attacker {
		return Defender
	}
	return Attacker
}

// Visibility is the card visibility owned by the team.
func (t Team) Visibility() cards.Visibility {
	if t == Attacker {
		return cards.VisibleAttacker
	}
	return cards.VisibleDefender
}

// TeamForTurn returns the acting team: defenders act on even turns.
func TeamForTurn(turn int) Team {
	if turn%2 == 0 {
		return Defender
	}
	return Attacker
}

// SeatID identifies a seat: team letter followed by one lowercase hex digit.
type SeatID string

// NewSeatID builds the seat id for index on team.
func NewSeatID(team Team, index int) SeatID {
	return SeatID(fmt.Sprintf("%s%x", team, index))
}

// ParseSeatID validates a seat id string.
func ParseSeatID(s string) (SeatID, error) {
	if len(s) != 2 || !Team(s[:1]).Valid() {
		return "", fmt.Errorf("invalid seat id %q", s)
	}
	c := s[1]
	if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
		return "", fmt.Errorf("invalid seat id %q", s)
	}
	return SeatID(s), nil
}

// Team returns the seat's team.
func (s SeatID) Team() Team {
	if len(s) == 0 {
		return ""
	}
	return Team(s[:1])
}

// Index returns the numeric value of the seat's hex digit, or -1.
func (s SeatID) Index() int {
	if len(s) != 2 {
		return -1
	}
	n, err := strconv.ParseUint(string(s[1]), 16, 8)
	if err != nil {
		return -1
	}
	return int(n)
}

// Lead reports whether the seat is its team's first seat, which is never kicked.
func (s SeatID) Lead() bool { return s.Index() == 0 }
