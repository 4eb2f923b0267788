package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pokedex:ratelimit:"

// Counter incrementa o contador de uma janela e garante sua expiração.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter implementa Counter com INCR + EXPIRE em um único pipeline.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ratelimit: redis pipeline failed: %w", err)
	}
	return incr.Val(), nil
}

// Result é a decisão para uma requisição.
type Result struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter aplica uma janela fixa de Requests por Window para cada cliente.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(counter Counter, limit int64, window time.Duration) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window, now: time.Now}
}

// Allow conta a requisição de client na janela corrente.
func (l *Limiter) Allow(ctx context.Context, client string) (Result, error) {
	now := l.now()
	start := now.Truncate(l.window)
	reset := start.Add(l.window)

	key := fmt.Sprintf("%s%s:%d", keyPrefix, client, start.Unix())
	n, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Allowed:   n <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-n, 0),
		ResetAt:   reset,
	}
	if !res.Allowed {
		res.RetryAfter = reset.Sub(now)
	}
	return res, nil
}
