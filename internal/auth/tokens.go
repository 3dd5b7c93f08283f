package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/redis/go-redis/v9"
)

// TokenStore makes emailed tokens single use. A token is valid while its id
// is present; Take removes it and returns the stored value.
type TokenStore interface {
	Put(ctx context.Context, jti, value string, ttl time.Duration) error
	Peek(ctx context.Context, jti string) (bool, error)
	Take(ctx context.Context, jti string) (string, error)
}

// RedisTokenStore keeps token state in Redis so it is shared across replicas
type RedisTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenStore creates a store on an existing client
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, keyPrefix: "token:pending:"}
}

// Put stores value under jti until ttl elapses
func (s *RedisTokenStore) Put(ctx context.Context, jti, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+jti, value, ttl).Err(); err != nil {
		return apperr.Internal(err, "store token")
	}
	return nil
}

// Peek reports whether jti is still redeemable
func (s *RedisTokenStore) Peek(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+jti).Result()
	if err != nil {
		return false, apperr.Internal(err, "check token")
	}
	return n > 0, nil
}

// Take atomically removes jti and returns its value
func (s *RedisTokenStore) Take(ctx context.Context, jti string) (string, error) {
	val, err := s.client.GetDel(ctx, s.keyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperr.Unauthorized("Token has already been used")
	}
	if err != nil {
		return "", apperr.Internal(err, "redeem token")
	}
	return val, nil
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is the single-process TokenStore used when Redis is not configured
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenStore creates an empty in-memory store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

// Put stores value under jti until ttl elapses
func (s *MemoryTokenStore) Put(_ context.Context, jti, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, t := range s.tokens {
		if now.After(t.expiresAt) {
			delete(s.tokens, k)
		}
	}
	s.tokens[jti] = memoryToken{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// Peek reports whether jti is still redeemable
func (s *MemoryTokenStore) Peek(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[jti]
	return ok && !s.now().After(t.expiresAt), nil
}

// Take removes jti and returns its value
func (s *MemoryTokenStore) Take(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[jti]
	delete(s.tokens, jti)
	if !ok || s.now().After(t.expiresAt) {
		return "", apperr.Unauthorized("Token has already been used")
	}
	return t.value, nil
}
