package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/c00lestkats/open-binmat/internal/config"
	"github.com/c00lestkats/open-binmat/internal/game"
)

// Redis stores each game document as a JSON string under prefix+id. A
// non-zero TTL expires idle games; every save renews it.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects a client and checks the server is reachable.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	logger.Info("redis store ready", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, logger: logger}, nil
}

func (r *Redis) key(id string) string { return r.prefix + id }

func (r *Redis) Load(ctx context.Context, id string) (*game.Game, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return game.Unmarshal(data)
}

func (r *Redis) Save(ctx context.Context, g *game.Game) error {
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(g.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	r.logger.Debug("saved game document", zap.String("game_id", g.ID), zap.Int("turn", g.Turn))
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
