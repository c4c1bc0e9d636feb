package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "booking_state:"

// SessionStore keeps one State per conversation session. A missing record
// is equivalent to no active booking; the caller owns the lifecycle.
type SessionStore interface {
	Get(ctx context.Context, sessionKey string) (*State, error)
	Put(ctx context.Context, sessionKey string, state *State) error
	Delete(ctx context.Context, sessionKey string) error
}

// RedisSessionStore persists booking state in Redis with a TTL so abandoned
// sessions age out with the owning conversation.
type RedisSessionStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(redisClient *redis.Client, ttl time.Duration) *RedisSessionStore {
	if redisClient == nil {
		panic("booking: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		redis:  redisClient,
		tracer: otel.Tracer("vetchat.internal.booking.sessions"),
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionKey string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "booking.session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(sessionKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("booking: load session state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: decode session state: %w", err)
	}
	if state.Fields == nil {
		state.Fields = make(map[FieldName]string)
	}
	if state.Attempts == nil {
		state.Attempts = make(map[FieldName]int)
	}
	return &state, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionKey string, state *State) error {
	ctx, span := s.tracer.Start(ctx, "booking.session.put")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: marshal session state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(sessionKey), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: persist session state: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionKey string) error {
	ctx, span := s.tracer.Start(ctx, "booking.session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, stateKey(sessionKey)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: delete session state: %w", err)
	}
	return nil
}

func stateKey(sessionKey string) string {
	return sessionKeyPrefix + sessionKey
}

// MemorySessionStore is a map-backed store for tests and single-process
// deployments.
type MemorySessionStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{states: make(map[string]*State)}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionKey string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionKey]
	if !ok {
		return nil, nil
	}
	// Copy so callers can't mutate the stored record in place.
	clone := *state
	clone.Fields = make(map[FieldName]string, len(state.Fields))
	for k, v := range state.Fields {
		clone.Fields[k] = v
	}
	clone.Attempts = make(map[FieldName]int, len(state.Attempts))
	for k, v := range state.Attempts {
		clone.Attempts[k] = v
	}
	return &clone, nil
}

func (s *MemorySessionStore) Put(_ context.Context, sessionKey string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionKey] = state
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionKey)
	return nil
}
