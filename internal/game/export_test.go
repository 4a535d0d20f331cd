package game

// HeldLocks returns the number of per-game locks the engine holds.
func (e *Engine) HeldLocks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.locks)
}
