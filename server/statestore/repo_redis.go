package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores authorization state in redis so callbacks can land on any
// instance behind a load balancer. Entries expire with the roundtrip TTL.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{
		client: client,
		ttl:    DefaultTTL,
		prefix: "oidc:state:",
	}
}

func (r *RedisRepo) key(state string) string {
	return r.prefix + state
}

func (r *RedisRepo) Upsert(state string, data *State) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if data == nil {
		return errors.New("state data cannot be nil")
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("statestore: failed to marshal: %w", err)
	}
	return r.client.Set(context.Background(), r.key(state), encoded, r.ttl).Err()
}

func (r *RedisRepo) Get(state string) (*State, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	val, err := r.client.Get(context.Background(), r.key(state)).Result()
	if err == redis.Nil {
		return nil, errors.New("state not found")
	}
	if err != nil {
		return nil, err
	}

	var data State
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("statestore: failed to unmarshal: %w", err)
	}
	return &data, nil
}

func (r *RedisRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	return r.client.Del(context.Background(), r.key(state)).Err()
}
