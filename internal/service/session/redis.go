package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

const redisKeyPrefix = "tongue:session:"

// RedisStore shares sessions between replicas. Updates use WATCH/MULTI so a
// concurrent writer on another replica aborts the transaction.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, seed diagnosis.Session) (diagnosis.Session, error) {
	now := time.Now().UTC()
	session := seed.Clone()
	session.ID = uuid.NewString()
	session.Status = diagnosis.StatusCreated
	session.CreatedAt = now
	session.UpdatedAt = now

	val, err := json.Marshal(session)
	if err != nil {
		return diagnosis.Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), val, s.ttl).Err(); err != nil {
		return diagnosis.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (diagnosis.Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return diagnosis.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return diagnosis.Session{}, fmt.Errorf("load session: %w", err)
	}

	var session diagnosis.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return diagnosis.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, id string, fn Mutator) (diagnosis.Session, error) {
	key := s.key(id)
	var updated diagnosis.Session

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var current diagnosis.Session
		if err := json.Unmarshal(val, &current); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = time.Now().UTC()

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}, key)
	if err != nil {
		return diagnosis.Session{}, err
	}
	return updated, nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
