package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	lockKeyPrefix    = "session_lock:"

	lockTTL       = 5 * time.Second
	lockRetryWait = 25 * time.Millisecond
)

// RedisStore persists sessions in Redis with a TTL, for deployments running
// more than one instance behind the webhook. Update uses a SET NX lock per
// phone so read-modify-write cycles from different instances serialize.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl bounds session lifetime; zero
// means sessions never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the stored state, or a zero State when none exists.
func (r *RedisStore) Get(ctx context.Context, phone string) (State, error) {
	var s State
	raw, err := r.client.Get(ctx, sessionKeyPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s, nil
		}
		return s, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// Update acquires the per-phone lock, applies fn, and writes the result back
// with the configured TTL.
func (r *RedisStore) Update(ctx context.Context, phone string, fn func(*State)) (State, error) {
	if err := r.lock(ctx, phone); err != nil {
		return State{}, err
	}
	defer r.client.Del(context.WithoutCancel(ctx), lockKeyPrefix+phone)

	s, err := r.Get(ctx, phone)
	if err != nil {
		return State{}, err
	}
	fn(&s)
	s.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(&s)
	if err != nil {
		return State{}, err
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+phone, raw, r.ttl).Err(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Delete discards the customer's session.
func (r *RedisStore) Delete(ctx context.Context, phone string) error {
	return r.client.Del(ctx, sessionKeyPrefix+phone).Err()
}

func (r *RedisStore) lock(ctx context.Context, phone string) error {
	key := lockKeyPrefix + phone
	for {
		ok, err := r.client.SetNX(ctx, key, 1, lockTTL).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
}
