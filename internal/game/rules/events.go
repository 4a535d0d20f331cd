package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameStarted    EventType = "game_started"
	EventOpQueued       EventType = "op_queued"
	EventOpExecuted     EventType = "op_executed"
	EventTurnExecuted   EventType = "turn_executed"
	EventCardDrawn      EventType = "card_drawn"
	EventDeckReshuffled EventType = "deck_reshuffled"
	EventCardDiscarded  EventType = "card_discarded"
	EventCardPlayed     EventType = "card_played"
	EventCombatResolved EventType = "combat_resolved"
	EventNoOp           EventType = "no_op"
	EventSeatKicked     EventType = "seat_kicked"
	EventGameOver       EventType = "game_over"
)

// Event describes a state change that observers may react to. Payload carries
// a typed detail record for events that have one, such as a combat result.
type Event struct {
	Type      EventType
	GameID    string
	Seat      SeatID
	Lane      int
	Turn      int
	Card      string
	Op        string
	Winner    Team
	Amount    int
	Payload   any
	Timestamp time.Time
}

// NewEvent creates an event with the common fields populated.
func NewEvent(eventType EventType, gameID string, seat SeatID, turn int) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		Seat:      seat,
		Lane:      -1,
		Turn:      turn,
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle   int
	callback Listener
}

// EventBus is a synchronous publish/subscribe hub with type filtering.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	typed      map[EventType][]typedListener
	nextHandle int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[int]Listener),
		typed:     make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns its handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typed[eventType] = append(bus.typed[eventType], typedListener{handle: handle, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typed {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typed[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every matching listener synchronously.
// Listeners must not publish on the same bus.
func (bus *EventBus) Publish(event Event) {
	if bus == nil {
		return
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typed[event.Type] {
		listener.callback(event)
	}
}
