// Package ratelimit implements fixed-window request limits.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propertyapp/property-listing/pkg/logger"
)

// Limiter counts hits for key inside window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Rule names a limit for logging.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	// Hash the key so raw phone numbers never land in Redis
	redisKey := fmt.Sprintf("%s:%x", l.prefix, sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// Guard applies rules and fails open when the limiter errors.
type Guard struct {
	limiter Limiter
}

func NewGuard(l Limiter) *Guard {
	return &Guard{limiter: l}
}

// Allow returns false only when the limiter answered and the rule is exceeded.
// A nil Guard or limiter allows everything.
func (g *Guard) Allow(ctx context.Context, rule Rule, key string) bool {
	if g == nil || g.limiter == nil || rule.Limit <= 0 {
		return true
	}
	ok, err := g.limiter.Allow(ctx, rule.Name+":"+key, rule.Limit, rule.Window)
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed", "rule", rule.Name, "error", err)
		return true
	}
	if !ok {
		logger.InfoContext(ctx, "Rate limit exceeded", "rule", rule.Name)
	}
	return ok
}

// MemoryLimiter is an in-process fixed-window limiter for single instances and tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]window), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w.start.IsZero() || now.Sub(w.start) >= win {
		w = window{start: now}
	}
	w.count++
	l.windows[key] = w
	return w.count <= limit, nil
}
