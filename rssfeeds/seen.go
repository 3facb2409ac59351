package rssfeeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"reelsmith/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SeenStore remembers which feed items already went into a video
type SeenStore interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Add(ctx context.Context, hash string) error
}

// MemorySeen is a process-local SeenStore
type MemorySeen struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemorySeen() *MemorySeen {
	return &MemorySeen{seen: make(map[string]struct{})}
}

func (m *MemorySeen) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[hash]
	return ok, nil
}

func (m *MemorySeen) Add(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[hash] = struct{}{}
	return nil
}

// BloomConfig configures the RedisBloom filter
type BloomConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
	// Capacity and ErrorRate are passed to BF.RESERVE
	Capacity  int
	ErrorRate float64
}

// RedisBloom is a SeenStore backed by RedisBloom's BF.* commands
type RedisBloom struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisBloomFromEnv reads REDIS_ADDR, REDIS_PASS, REDIS_DB and the
// optional BLOOM_KEY, BLOOM_TTL_SECONDS, BLOOM_CAPACITY
func NewRedisBloomFromEnv() (*RedisBloom, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is not set")
	}
	ttl := time.Duration(config.GetEnvInt("BLOOM_TTL_SECONDS", int(config.SeenFeedTTL/time.Second))) * time.Second
	return NewRedisBloom(BloomConfig{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASS"),
		DB:        config.GetEnvInt("REDIS_DB", 0),
		Key:       config.GetEnvOrDefault("BLOOM_KEY", "reelsmith:feeds:seen"),
		TTL:       ttl,
		Capacity:  config.GetEnvInt("BLOOM_CAPACITY", 100000),
		ErrorRate: 0.001,
	})
}

// NewRedisBloom connects and reserves the filter when the key is new
func NewRedisBloom(cfg BloomConfig) (*RedisBloom, error) {
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

	// BF.ADD auto-creates the filter, so a failed reserve is not fatal
	if n, err := client.Exists(ctx, cfg.Key).Result(); err == nil && n == 0 {
		_ = client.Do(ctx, "BF.RESERVE", cfg.Key, fmt.Sprintf("%f", cfg.ErrorRate), cfg.Capacity).Err()
	}
	return &RedisBloom{client: client, key: cfg.Key, ttl: cfg.TTL}, nil
}

func (r *RedisBloom) Close() error {
	return r.client.Close()
}

// Exists runs BF.EXISTS
func (r *RedisBloom) Exists(ctx context.Context, hash string) (bool, error) {
	res, err := r.client.Do(ctx, "BF.EXISTS", r.key, hash).Result()
	if err != nil {
		return false, err
	}
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case bool:
		return v, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

// Add runs BF.ADD and slides the key's expiry forward
func (r *RedisBloom) Add(ctx context.Context, hash string) error {
	if err := r.client.Do(ctx, "BF.ADD", r.key, hash).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, r.key, r.ttl).Err()
}

// SeenFromEnv returns a RedisBloom store when REDIS_ADDR is set and
// reachable, otherwise a MemorySeen
func SeenFromEnv(logger *zap.Logger) SeenStore {
	if os.Getenv("REDIS_ADDR") == "" {
		return NewMemorySeen()
	}
	rb, err := NewRedisBloomFromEnv()
	if err != nil {
		logger.Warn("redis bloom unavailable, remembering feed items in memory", zap.Error(err))
		return NewMemorySeen()
	}
	return rb
}

// NormalizeAndHash identifies an article by its normalized URL and title,
// so tracking parameters and casing do not defeat the seen check
func NormalizeAndHash(a *Article) string {
	h := sha256.Sum256([]byte(normalizeURL(a.URL) + "|" + normalizeTitle(a.Title)))
	return hex.EncodeToString(h[:])
}

func normalizeTitle(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return strings.TrimRight(u.String(), "/")
}
