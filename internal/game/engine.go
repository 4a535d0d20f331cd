package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// Repository loads and saves game documents. Load must return an error
// matching ErrGameNotFound for unknown ids.
type Repository interface {
	Load(ctx context.Context, id string) (*Game, error)
	Save(ctx context.Context, g *Game) error
}

// Engine runs games held in a repository. Every mutation of one game happens
// under that game's lock as load, mutate, save; a failed mutation is simply
// not saved. Different games proceed independently.
type Engine struct {
	logger   *zap.Logger
	repo     Repository
	defaults Settings
	events   *rules.EventBus
	replays  *ReplayRecorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine over repo. New games start from defaults.
func NewEngine(repo Repository, defaults Settings, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		repo:     repo,
		defaults: defaults,
		events:   rules.NewEventBus(),
		locks:    make(map[string]*sync.Mutex),
	}
	e.events.Subscribe(e.logEvent)
	return e
}

// logEvent records what happens inside a turn: per-seat no-ops, kicks,
// reshuffles and combat results.
func (e *Engine) logEvent(evt rules.Event) {
	fields := []zap.Field{
		zap.String("game_id", evt.GameID),
		zap.Int("turn", evt.Turn),
	}
	if evt.Seat != "" {
		fields = append(fields, zap.String("seat", string(evt.Seat)))
	}
	if evt.Lane >= 0 {
		fields = append(fields, zap.Int("lane", evt.Lane))
	}

	switch evt.Type {
	case rules.EventNoOp:
		fields = append(fields, zap.String("op", evt.Op))
		if cause, ok := evt.Payload.(string); ok {
			fields = append(fields, zap.String("cause", cause))
		}
		e.logger.Info("seat took a no-op", fields...)
	case rules.EventSeatKicked:
		e.logger.Info("seat kicked for inactivity", fields...)
	case rules.EventDeckReshuffled:
		e.logger.Debug("discard reshuffled into deck", append(fields, zap.Int("cards", evt.Amount))...)
	case rules.EventCombatResolved:
		if res, ok := evt.Payload.(CombatResult); ok {
			fields = append(fields,
				zap.String("outcome", string(res.Outcome)),
				zap.Int("attacker_power", res.AttackerPower),
				zap.Int("defender_power", res.DefenderPower),
				zap.Int("damage", res.Damage),
			)
		}
		e.logger.Debug("combat resolved", fields...)
	case rules.EventOpExecuted:
		e.logger.Debug("operation executed", append(fields, zap.String("op", evt.Op))...)
	}
}

// SetReplayRecorder enables replay recording for games started afterwards.
func (e *Engine) SetReplayRecorder(rr *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replays = rr
}

// Defaults returns the settings new games start from.
func (e *Engine) Defaults() Settings {
	return e.defaults
}

func (e *Engine) recorder() *ReplayRecorder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replays
}

// Events returns the bus every game of this engine publishes to.
func (e *Engine) Events() *rules.EventBus {
	return e.events
}

func (e *Engine) lockFor(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// release drops the lock of a completed game. Completed games refuse every
// mutation, so a later caller taking a fresh lock cannot race a writer.
func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, id)
}

// Create opens a new lobby administered by admin. A nil settings uses the
// engine defaults.
func (e *Engine) Create(ctx context.Context, admin string, settings *Settings) (*Game, error) {
	if admin == "" {
		return nil, fmt.Errorf("admin is required")
	}
	s := e.defaults
	if settings != nil {
		s = *settings
	}
	if !s.Ord.Valid() {
		return nil, fmt.Errorf("unknown seat order %q", s.Ord)
	}
	if s.TurnLimit < 1 {
		return nil, fmt.Errorf("turn limit must be at least 1, got %d", s.TurnLimit)
	}

	g := New(uuid.NewString(), admin, s)
	if err := e.repo.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save new game: %w", err)
	}

	e.logger.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("admin", admin),
		zap.Int("turn_limit", s.TurnLimit),
		zap.String("ord", string(s.Ord)),
	)
	return g, nil
}

// update runs fn on a freshly loaded copy of game id and saves the result
// when fn succeeds.
func (e *Engine) update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error) {
	l := e.lockFor(id)
	l.Lock()
	defer l.Unlock()

	g, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := e.repo.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game %s: %w", id, err)
	}
	return g, nil
}

func (e *Engine) load(ctx context.Context, id string) (*Game, error) {
	g, err := e.repo.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrGameNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	g.AttachEvents(e.events)
	return g, nil
}

// Join seats username on team in a lobby.
func (e *Engine) Join(ctx context.Context, id, username string, team Team) (SeatID, error) {
	var seat SeatID
	_, err := e.update(ctx, id, func(g *Game) error {
		var err error
		seat, err = g.AddPlayer(username, team)
		return err
	})
	if err != nil {
		e.logger.Debug("join refused",
			zap.String("game_id", id),
			zap.String("username", username),
			zap.String("team", string(team)),
			zap.Error(err),
		)
		return "", err
	}

	e.logger.Info("player joined",
		zap.String("game_id", id),
		zap.String("username", username),
		zap.String("seat", string(seat)),
	)
	return seat, nil
}

// Start deals the table. Only the game's admin may start it.
func (e *Engine) Start(ctx context.Context, id, username string) (*Game, error) {
	g, err := e.update(ctx, id, func(g *Game) error {
		if g.Admin != username {
			return rejectf("%s is not the admin of game %s", username, g.ID)
		}
		return g.Init()
	})
	if err != nil {
		return nil, err
	}

	if rr := e.recorder(); rr != nil {
		rr.StartRecording(g.ID)
		e.record(rr, g)
	}
	e.logger.Info("game started",
		zap.String("game_id", g.ID),
		zap.String("seed", g.Settings.Seed),
		zap.Int("players", len(g.Players)),
	)
	return g, nil
}

// Submit queues code for seat. It reports whether the submission completed
// the team and ran the turn.
func (e *Engine) Submit(ctx context.Context, id string, seat SeatID, code string) (bool, error) {
	var ran bool
	g, err := e.update(ctx, id, func(g *Game) error {
		var err error
		ran, err = g.QueueOp(seat, code)
		return err
	})
	if err != nil {
		fields := []zap.Field{
			zap.String("game_id", id),
			zap.String("seat", string(seat)),
			zap.String("op", code),
			zap.Error(err),
		}
		if errors.Is(err, ErrInvariant) {
			e.logger.Error("turn aborted", fields...)
		} else {
			e.logger.Debug("operation rejected", fields...)
		}
		return false, err
	}
	if ran {
		e.afterTurn(g)
	}
	return ran, nil
}

// ForceTurn runs the current turn with whatever has been queued. Seats that
// have not submitted take a no-op.
func (e *Engine) ForceTurn(ctx context.Context, id string) (*Game, error) {
	g, err := e.update(ctx, id, func(g *Game) error {
		return g.RunTurn()
	})
	if err != nil {
		e.logger.Error("forced turn failed", zap.String("game_id", id), zap.Error(err))
		return nil, err
	}
	e.afterTurn(g)
	return g, nil
}

func (e *Engine) afterTurn(g *Game) {
	e.logger.Info("turn executed",
		zap.String("game_id", g.ID),
		zap.Int("turn", g.Turn-1),
		zap.String("status", string(g.Status)),
	)

	rr := e.recorder()
	if rr != nil {
		e.record(rr, g)
	}
	if g.Status != StatusCompleted {
		return
	}

	e.logger.Info("game over",
		zap.String("game_id", g.ID),
		zap.String("winner", g.Winner.Name()),
		zap.Int("turn", g.Turn),
	)
	e.release(g.ID)
	if rr != nil && rr.IsRecording(g.ID) {
		if err := rr.SaveReplay(g.ID); err != nil {
			e.logger.Warn("failed to save replay", zap.String("game_id", g.ID), zap.Error(err))
		}
	}
}

func (e *Engine) record(rr *ReplayRecorder, g *Game) {
	if err := rr.Record(g); err != nil {
		e.logger.Warn("failed to record replay snapshot", zap.String("game_id", g.ID), zap.Error(err))
	}
}

// Get returns the current document of game id.
func (e *Engine) Get(ctx context.Context, id string) (*Game, error) {
	l := e.lockFor(id)
	l.Lock()
	defer l.Unlock()
	return e.load(ctx, id)
}

// View returns the projection of game id for seat.
func (e *Engine) View(ctx context.Context, id string, seat SeatID) (SeatView, error) {
	g, err := e.Get(ctx, id)
	if err != nil {
		return SeatView{}, err
	}
	if seat != "" {
		if _, ok := g.Player(seat); !ok {
			return SeatView{}, fmt.Errorf("view of %s: %w", seat, ErrSeatNotFound)
		}
	}
	return Project(g, seat), nil
}
