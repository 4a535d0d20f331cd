package rules

import (
	"fmt"
	"sort"

	"github.com/c00lestkats/open-binmat/internal/game/rng"
)

// OrderMode selects how seats are ordered within a turn.
type OrderMode string

const (
	OrderPlayerIndex OrderMode = "playerIndex"
	OrderRandom      OrderMode = "random"
)

// Valid reports whether m is a known order mode.
func (m OrderMode) Valid() bool {
	return m == OrderPlayerIndex || m == OrderRandom
}

// NextOrder computes the execution order of seats. In playerIndex mode seats
// are sorted by their hex digit; in random mode they are shuffled with next.
// Either way defenders are then stably moved ahead of attackers.
func NextOrder(seats []SeatID, mode OrderMode, next func() float64) ([]SeatID, error) {
	order := make([]SeatID, len(seats))
	copy(order, seats)

	switch mode {
	case OrderPlayerIndex:
		sort.SliceStable(order, func(i, j int) bool {
			return order[i].Index() < order[j].Index()
		})
	case OrderRandom:
		if next == nil {
			return nil, fmt.Errorf("random seat order needs a generator")
		}
		rng.Shuffle(order, next)
	default:
		return nil, fmt.Errorf("unknown seat order %q", mode)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Team() == Defender && order[j].Team() != Defender
	})
	return order, nil
}

// Filter returns the seats of order that belong to team, keeping their order.
func Filter(order []SeatID, team Team) []SeatID {
	out := make([]SeatID, 0, len(order))
	for _, s := range order {
		if s.Team() == team {
			out = append(out, s)
		}
	}
	return out
}
