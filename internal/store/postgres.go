package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/c00lestkats/open-binmat/internal/config"
	"github.com/c00lestkats/open-binmat/internal/game"
)

// Postgres stores one JSONB document per game in a single table.
type Postgres struct {
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// NewPostgres connects a pool and creates the document table if needed.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = "binmat_games"
	}
	p := &Postgres{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: logger,
	}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres store ready", zap.String("table", table), zap.Int32("max_conns", poolCfg.MaxConns))
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + p.table + ` (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			turn       INTEGER NOT NULL,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, id string) (*game.Game, error) {
	query := `SELECT document FROM ` + p.table + ` WHERE id = $1`

	var data []byte
	err := p.pool.QueryRow(ctx, query, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return game.Unmarshal(data)
}

func (p *Postgres) Save(ctx context.Context, g *game.Game) error {
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + p.table + ` (id, status, turn, document, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, turn = EXCLUDED.turn,
		    document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.pool.Exec(ctx, query, g.ID, string(g.Status), g.Turn, data); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	p.logger.Debug("saved game document", zap.String("game_id", g.ID), zap.Int("turn", g.Turn))
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM `+p.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
