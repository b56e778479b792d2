package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gatehouse:session:"

// RedisStore keeps states in Redis as JSON with a key expiry, so several
// server processes can share sessions.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, sid string) (State, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to read session %s: %w", sid, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("failed to decode session %s: %w", sid, err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, st State, ttl time.Duration) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", st.SessionID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+st.SessionID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", st.SessionID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
