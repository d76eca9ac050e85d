package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"villamar/models"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists in-flight checkout sessions and hands out the
// per-session execution lock that serializes duplicate submits.
type SessionStore interface {
	Put(ctx context.Context, session *models.CheckoutSession) error
	Get(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	Delete(ctx context.Context, sessionID string) error
	// AcquireLock returns false when another invocation currently holds the
	// session's execution lock.
	AcquireLock(ctx context.Context, sessionID string) (bool, error)
	ReleaseLock(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions as JSON values with a TTL, and execution
// locks as SETNX keys in a separate DB.
type RedisSessionStore struct {
	Sessions *redis.Client
	Locks    *redis.Client
	TTL      time.Duration
	LockTTL  time.Duration
}

// NewRedisSessionStore wires the store with the given session TTL. The lock
// TTL is short; it only needs to outlive one payment execution.
func NewRedisSessionStore(sessions, locks *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		Sessions: sessions,
		Locks:    locks,
		TTL:      ttl,
		LockTTL:  90 * time.Second,
	}
}

func (s *RedisSessionStore) Put(ctx context.Context, session *models.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout session: %w", err)
	}
	if err := s.Sessions.Set(ctx, sessionKey(session.SessionID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store checkout session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	data, err := s.Sessions.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, NewError(CodeSessionNotFound, "checkout session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	var session models.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.Sessions.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisSessionStore) AcquireLock(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.Locks.SetNX(ctx, lockKey(sessionID), 1, s.LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

func (s *RedisSessionStore) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.Locks.Del(ctx, lockKey(sessionID)).Err()
}

func sessionKey(id string) string { return "checkout:session:" + id }
func lockKey(id string) string    { return "checkout:lock:" + id }
