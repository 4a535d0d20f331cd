// Package store persists game documents. Every driver stores the JSON
// encoding produced by game.Marshal under the game id.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/c00lestkats/open-binmat/internal/config"
	"github.com/c00lestkats/open-binmat/internal/game"
)

// ErrNotFound is returned when no document exists for an id. It matches
// game.ErrGameNotFound under errors.Is.
var ErrNotFound = fmt.Errorf("store: %w", game.ErrGameNotFound)

// Store loads and saves whole game documents.
type Store interface {
	Load(ctx context.Context, id string) (*game.Game, error)
	Save(ctx context.Context, g *game.Game) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open connects the driver selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemory(), nil
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg.Postgres, logger)
	case config.DriverRedis:
		return NewRedis(ctx, cfg.Redis, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func notFound(id string) error {
	return fmt.Errorf("game %s: %w", id, ErrNotFound)
}
