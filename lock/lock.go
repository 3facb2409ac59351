// Package lock serializes runs per project. A Redis-backed lock covers
// several serve instances sharing one media volume; the in-process lock is
// used when no Redis is configured.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"reelsmith/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLocked is returned when another run holds the key
var ErrLocked = errors.New("project is locked by another run")

// Locker hands out exclusive, non-blocking locks keyed by project
type Locker interface {
	// Acquire returns ErrLocked when key is held. release is idempotent.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Locker
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// RedisConfig configures the Redis connection
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Prefix   string
	// TTL bounds how long a crashed holder can block the project
	TTL time.Duration
}

// Redis is a Locker backed by SET NX PX with a token-checked release
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NewRedisFromEnv reads REDIS_ADDR, REDIS_PASS and REDIS_DB
func NewRedisFromEnv() (*Redis, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	return NewRedis(RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
		Prefix:   "reelsmith:lock:",
		TTL:      config.LockTTL,
	})
}

// NewRedis creates the client and verifies connectivity
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.LockTTL
	}
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := r.prefix + key
	ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, r.client, []string{full}, token).Err()
		})
	}, nil
}

// FromEnv returns a Redis locker when REDIS_ADDR is set and reachable,
// otherwise an in-process one
func FromEnv(logger *zap.Logger) Locker {
	if os.Getenv("REDIS_ADDR") == "" {
		return NewLocal()
	}
	r, err := NewRedisFromEnv()
	if err != nil {
		logger.Warn("redis lock unavailable, using in-process lock", zap.Error(err))
		return NewLocal()
	}
	return r
}
