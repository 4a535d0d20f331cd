package rules

import (
	"sort"
	"sync"
)

// WatcherScope defines what a watcher tracks.
type WatcherScope int

const (
	// WatcherScopeGame tracks events across every seat of a game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopeSeat tracks events for one seat only.
	WatcherScopeSeat
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopeSeat:
		return "SEAT"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes game events and tracks a condition over them.
type Watcher interface {
	// Watch is called for every event published to the registry.
	Watch(event Event)

	// Reset clears the tracked state.
	Reset()

	// ConditionMet reports whether the tracked condition has been reached.
	ConditionMet() bool

	// Scope returns the scope of this watcher.
	Scope() WatcherScope

	// Key returns the unique key of this watcher instance.
	Key() string
}

// BaseWatcher carries the bookkeeping shared by concrete watchers.
type BaseWatcher struct {
	scope     WatcherScope
	seat      SeatID
	name      string
	condition bool
}

// NewBaseWatcher creates a game scoped base watcher named name.
func NewBaseWatcher(name string) *BaseWatcher {
	return &BaseWatcher{scope: WatcherScopeGame, name: name}
}

// NewSeatWatcher creates a base watcher that only follows seat.
func NewSeatWatcher(name string, seat SeatID) *BaseWatcher {
	return &BaseWatcher{scope: WatcherScopeSeat, seat: seat, name: name}
}

// Scope returns the watcher's scope.
func (bw *BaseWatcher) Scope() WatcherScope {
	return bw.scope
}

// Seat returns the followed seat for seat scoped watchers.
func (bw *BaseWatcher) Seat() SeatID {
	return bw.seat
}

// Follows reports whether event concerns this watcher.
func (bw *BaseWatcher) Follows(event Event) bool {
	return bw.scope == WatcherScopeGame || event.Seat == bw.seat
}

// Key returns the name, prefixed by the seat for seat scoped watchers.
func (bw *BaseWatcher) Key() string {
	if bw.scope == WatcherScopeSeat {
		return string(bw.seat) + "/" + bw.name
	}
	return bw.name
}

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// WatcherRegistry fans events out to a set of watchers.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// AddWatcher registers watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.watchers[watcher.Key()] = watcher
}

// RemoveWatcher removes the watcher registered under key.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	delete(wr.watchers, key)
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// GetWatchersByScope returns the watchers of scope ordered by key.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	var result []Watcher
	for _, key := range wr.keys() {
		if w := wr.watchers[key]; w.Scope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// GetAllWatchers returns every registered watcher ordered by key.
func (wr *WatcherRegistry) GetAllWatchers() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	result := make([]Watcher, 0, len(wr.watchers))
	for _, key := range wr.keys() {
		result = append(result, wr.watchers[key])
	}
	return result
}

func (wr *WatcherRegistry) keys() []string {
	keys := make([]string, 0, len(wr.watchers))
	for key := range wr.watchers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResetWatchers resets every registered watcher.
func (wr *WatcherRegistry) ResetWatchers() {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Reset()
	}
}

// NotifyWatchers passes event to every watcher. Watchers filter internally.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Watch(event)
	}
}

// Attach subscribes the registry to bus and returns the subscription handle.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(wr.NotifyWatchers)
}
