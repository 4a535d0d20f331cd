// Package watchers holds event watchers that collect statistics about a
// running binmat game.
package watchers

import (
	"sync"

	"github.com/c00lestkats/open-binmat/internal/game"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// base filters events to one game and serialises access to watcher state.
// An empty gameID accepts events from every game.
type base struct {
	*rules.BaseWatcher
	mu     sync.Mutex
	gameID string
}

func (b *base) accepts(event rules.Event) bool {
	return (b.gameID == "" || event.GameID == b.gameID) && b.Follows(event)
}

// CardsDrawnWatcher counts draws per seat and reshuffles per lane. Its
// condition is met once any lane has been reshuffled.
type CardsDrawnWatcher struct {
	base
	drawn      map[rules.SeatID]int
	reshuffled map[int]int
}

// NewCardsDrawnWatcher creates a draw watcher for gameID.
func NewCardsDrawnWatcher(gameID string) *CardsDrawnWatcher {
	return &CardsDrawnWatcher{
		base:       base{BaseWatcher: rules.NewBaseWatcher("CardsDrawnWatcher"), gameID: gameID},
		drawn:      make(map[rules.SeatID]int),
		reshuffled: make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if !w.accepts(event) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch event.Type {
	case rules.EventCardDrawn:
		w.drawn[event.Seat]++
	case rules.EventDeckReshuffled:
		w.reshuffled[event.Lane]++
		w.SetCondition(true)
	}
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.BaseWatcher.Reset()
	w.drawn = make(map[rules.SeatID]int)
	w.reshuffled = make(map[int]int)
}

// Drawn returns the number of cards seat has drawn.
func (w *CardsDrawnWatcher) Drawn(seat rules.SeatID) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawn[seat]
}

// Reshuffles returns how often lane's discard was shuffled back into its deck.
func (w *CardsDrawnWatcher) Reshuffles(lane int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reshuffled[lane]
}

// CombatWatcher tallies combat outcomes and the damage attackers dealt. Its
// condition is met once an attacker has won a combat.
type CombatWatcher struct {
	base
	outcomes map[game.Outcome]int
	damage   int
	byLane   map[int]int
}

// NewCombatWatcher creates a combat watcher for gameID.
func NewCombatWatcher(gameID string) *CombatWatcher {
	return &CombatWatcher{
		base:     base{BaseWatcher: rules.NewBaseWatcher("CombatWatcher"), gameID: gameID},
		outcomes: make(map[game.Outcome]int),
		byLane:   make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *CombatWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCombatResolved || !w.accepts(event) {
		return
	}
	res, ok := event.Payload.(game.CombatResult)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcomes[res.Outcome]++
	w.byLane[res.Lane]++
	w.damage += res.Damage
	if res.Outcome == game.OutcomeAttacker {
		w.SetCondition(true)
	}
}

// Reset clears the watcher's state.
func (w *CombatWatcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.BaseWatcher.Reset()
	w.outcomes = make(map[game.Outcome]int)
	w.byLane = make(map[int]int)
	w.damage = 0
}

// Count returns how many combats ended with outcome.
func (w *CombatWatcher) Count(outcome game.Outcome) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcomes[outcome]
}

// Combats returns the number of combats fought in lane.
func (w *CombatWatcher) Combats(lane int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.byLane[lane]
}

// Damage returns the total damage dealt by winning attackers.
func (w *CombatWatcher) Damage() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.damage
}

// InactivityWatcher follows one seat's no-ops. Its condition is met when the
// seat is kicked.
type InactivityWatcher struct {
	base
	noOps   int
	streak  int
	reasons []string
}

// NewInactivityWatcher creates an inactivity watcher for seat in gameID.
func NewInactivityWatcher(gameID string, seat rules.SeatID) *InactivityWatcher {
	return &InactivityWatcher{
		base: base{BaseWatcher: rules.NewSeatWatcher("InactivityWatcher", seat), gameID: gameID},
	}
}

// Watch implements the Watcher interface.
func (w *InactivityWatcher) Watch(event rules.Event) {
	if !w.accepts(event) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch event.Type {
	case rules.EventNoOp:
		w.noOps++
		w.streak++
		if reason, ok := event.Payload.(string); ok {
			w.reasons = append(w.reasons, reason)
		}
	case rules.EventOpExecuted:
		w.streak = 0
	case rules.EventSeatKicked:
		w.SetCondition(true)
	}
}

// Reset clears the watcher's state.
func (w *InactivityWatcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.BaseWatcher.Reset()
	w.noOps, w.streak = 0, 0
	w.reasons = nil
}

// NoOps returns the total number of no-ops recorded for the seat.
func (w *InactivityWatcher) NoOps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.noOps
}

// Streak returns the no-ops since the seat last had an operation executed.
func (w *InactivityWatcher) Streak() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.streak
}

// Reasons returns the recorded no-op causes, oldest first.
func (w *InactivityWatcher) Reasons() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.reasons...)
}
