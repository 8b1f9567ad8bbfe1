package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/acartag7/callguard/pkg/session"
)

// RedisStore persists session snapshots as JSON blobs in Redis, keyed by
// session id, so multiple processes fronting the same agent session
// observe a consistent (if eventually-written) view of its counters.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr/db with the given password (empty for
// none), storing keys under "callguard:session:<id>".
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		prefix: "callguard:session:",
	}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get %s: %w", id, err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("storage: decoding snapshot %s: %w", id, err)
	}
	return &snap, nil
}

func (r *RedisStore) Put(ctx context.Context, snap session.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: encoding snapshot %s: %w", snap.ID, err)
	}
	if err := r.client.Set(ctx, r.key(snap.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %s: %w", snap.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("storage: redis del %s: %w", id, err)
	}
	return nil
}
