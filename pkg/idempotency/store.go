package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 24 * time.Hour

	pendingMarker = "pending"
	donePrefix    = "done:"
)

// ErrInProgress means another request holding the same key has not finished yet.
var ErrInProgress = errors.New("request with this idempotency key is still in progress")

// Store reserves keys for the first request and remembers the resource it produced.
//
// Reserve returns ("", nil) when the caller now owns the key, (id, nil) when an earlier
// request already completed with id, and ErrInProgress while that request is running.
type Store interface {
	Reserve(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, resourceID string) error
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{Client: client, TTL: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.Client.SetNX(ctx, key, pendingMarker, s.TTL).Result()
	if err != nil {
		return "", fmt.Errorf("reserve key: %w", err)
	}
	if ok {
		return "", nil
	}

	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired or released between SETNX and GET
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	return decode(val)
}

func (s *RedisStore) Complete(ctx context.Context, key, resourceID string) error {
	if err := s.Client.Set(ctx, key, donePrefix+resourceID, s.TTL).Err(); err != nil {
		return fmt.Errorf("complete key: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release key: %w", err)
	}
	return nil
}

func decode(val string) (string, error) {
	if id, ok := strings.CutPrefix(val, donePrefix); ok {
		return id, nil
	}
	return "", ErrInProgress
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is a process-local Store for single-instance deployments and tests.
// The zero value is ready to use with DefaultTTL.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu   sync.Mutex
	keys map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{TTL: ttl, Now: time.Now, keys: map[string]entry{}}
}

// put stores value under key; callers hold mu.
func (m *Memory) put(key, value string, now time.Time) {
	if m.keys == nil {
		m.keys = map[string]entry{}
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.keys[key] = entry{value: value, expires: now.Add(ttl)}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Memory) Reserve(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.keys[key]; ok && now.Before(e.expires) {
		return decode(e.value)
	}
	m.put(key, pendingMarker, now)
	return "", nil
}

func (m *Memory) Complete(_ context.Context, key, resourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, donePrefix+resourceID, m.now())
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
