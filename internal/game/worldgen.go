package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rng"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// laneCapacity is the number of cards dealt to each lane.
const laneCapacity = cards.SetSize / rules.LaneCount

// NewWorld deals the full card set into the six lane decks for seed and
// returns the dealt state with the generator state left after dealing.
func NewWorld(seed string) (State, rng.State, error) {
	r := rng.Hash(seed)
	var st State

	remaining := cards.FullSet()
	for len(remaining) > 0 {
		ci := r.Intn(len(remaining) - 1)

		open := make([]int, 0, rules.LaneCount)
		for i := range st.Lanes {
			if st.Lanes[i].Deck.Len() < laneCapacity {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			return State{}, r, fmt.Errorf("no lane can take %d remaining cards: %w", len(remaining), ErrInvalidState)
		}
		li := open[r.Intn(len(open)-1)]

		st.Lanes[li].Deck.Push(remaining[ci])
		remaining = append(remaining[:ci], remaining[ci+1:]...)
	}

	for lane := range st.Lanes {
		if rules.OpenLane(lane) {
			st.Lanes[lane].Deck.SetTopVisibility(cards.VisibleEveryone)
		}
	}

	if err := verifyDeal(&st); err != nil {
		return State{}, r, err
	}
	return st, r, nil
}

func verifyDeal(st *State) error {
	seen := make(map[string]bool, cards.SetSize)
	for i := range st.Lanes {
		deck := st.Lanes[i].Deck
		if deck.Len() != laneCapacity {
			return fmt.Errorf("lane %d dealt %d cards: %w", i, deck.Len(), ErrInvalidState)
		}
		for _, c := range deck {
			if seen[c.ID()] {
				return fmt.Errorf("card %s dealt twice: %w", c.ID(), ErrInvalidState)
			}
			seen[c.ID()] = true
		}
	}
	if len(seen) != cards.SetSize {
		return fmt.Errorf("dealt %d distinct cards: %w", len(seen), ErrInvalidState)
	}
	return nil
}

// Init deals the table and starts the game. Seats a0 and d0 must be taken.
func (g *Game) Init() error {
	if g.Status != StatusLobby {
		return fmt.Errorf("init game %s in status %s: %w", g.ID, g.Status, ErrInvalidState)
	}
	for _, lead := range []SeatID{"a0", "d0"} {
		if _, ok := g.Player(lead); !ok {
			return fmt.Errorf("init game %s without %s: %w", g.ID, lead, ErrSeatNotFound)
		}
	}
	if g.Settings.Seed == "" {
		g.Settings.Seed = SuggestSeed()
	}

	st, seed, err := NewWorld(g.Settings.Seed)
	if err != nil {
		return err
	}
	st.Hands = make(map[SeatID]*cards.Pile, len(g.Players))
	for _, p := range g.Players {
		st.Hands[p.Seat] = &cards.Pile{}
	}

	g.State = st
	g.Seed = seed
	g.Turn = 0
	g.QueuedOps = make(map[SeatID]string)
	g.Binlog = []string{}
	g.Winner = ""

	ord, err := g.nextOrder()
	if err != nil {
		return err
	}
	g.NextOrd = ord
	g.Status = StatusOngoing
	g.LastTurnAt = time.Now()

	g.emit(g.event(rules.EventGameStarted, ""))
	return nil
}

// SuggestSeed derives a fresh seed string from a random uuid.
func SuggestSeed() string {
	h := rng.Hash(uuid.NewString())
	return strconv.FormatUint(uint64(h[0]), 16) + strconv.FormatUint(uint64(h[h[1]%4]), 16)
}

func (g *Game) nextOrder() ([]SeatID, error) {
	seats := make([]SeatID, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Kicked {
			seats = append(seats, p.Seat)
		}
	}
	ord, err := rules.NextOrder(seats, g.Settings.Ord, g.random)
	if err != nil {
		return nil, fmt.Errorf("seat order: %w", err)
	}
	return ord, nil
}
