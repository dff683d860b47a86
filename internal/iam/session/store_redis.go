// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/constants"
)

// RedisStore implements [Store] using Redis with native key expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

/*
Save persists the session as JSON under its ID with the given TTL.

Parameters:
  - context: context.Context
  - session: *Session
  - ttl: time.Duration

Returns:
  - error: Serialization or connectivity errors
*/
func (store *RedisStore) Save(context context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_store_marshal_failed: %w", err)
	}

	key := constants.RedisPrefixSession + session.ID
	if err := store.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_store_save_failed: %w", err)
	}

	return nil
}

/*
Find retrieves a session by ID.

Description: Missing and expired sessions both answer apperr.Unauthorized —
the caller cannot (and must not) distinguish them.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Session: Hydrated session
  - error: apperr.Unauthorized or connectivity errors
*/
func (store *RedisStore) Find(context context.Context, id string) (*Session, error) {
	key := constants.RedisPrefixSession + id

	payload, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.Unauthorized("Session is invalid or expired")
		}
		return nil, fmt.Errorf("redis_session_store_find_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("redis_session_store_unmarshal_failed: %w", err)
	}

	return session, nil
}

/*
Delete removes a session. Absent keys are ignored (idempotent logout).

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Connectivity errors
*/
func (store *RedisStore) Delete(context context.Context, id string) error {
	key := constants.RedisPrefixSession + id

	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_store_delete_failed: %w", err)
	}

	return nil
}
