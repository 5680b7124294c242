package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps slots in redis, for deployments that run several server processes
// against shared storage.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys (default: "boardicon:").
	Prefix string
	// TTL expires slot keys that were never swept. 0 keeps them until deleted.
	TTL time.Duration
}

// OpenRedis connects to redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "boardicon:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL}, nil
}

func (s *RedisStore) key(tmpHash string) string {
	return s.prefix + slotPrefix + tmpHash
}

// index is a set holding every known token, so List does not need SCAN.
func (s *RedisStore) index() string {
	return s.prefix + "slots"
}

// Get returns the slot for tmpHash or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, tmpHash string) (*Slot, error) {
	data, err := s.client.Get(ctx, s.key(tmpHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	var slot Slot
	if err := json.Unmarshal(data, &slot); err != nil {
		return nil, fmt.Errorf("decode slot: %w", err)
	}
	return &slot, nil
}

// Put creates or overwrites a slot. Promoting slots never expire: they must
// survive until RecoverPromotions has seen them.
func (s *RedisStore) Put(ctx context.Context, slot *Slot) error {
	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}

	// SET without an expiration also clears a TTL left by an earlier state.
	ttl := s.ttl
	if slot.State == StatePromoting {
		ttl = 0
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(slot.TmpHash), data, ttl)
		pipe.SAdd(ctx, s.index(), slot.TmpHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put slot: %w", err)
	}
	return nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *RedisStore) Delete(ctx context.Context, tmpHash string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(tmpHash))
		pipe.SRem(ctx, s.index(), tmpHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// List returns every slot. Index entries whose key expired are pruned.
func (s *RedisStore) List(ctx context.Context) ([]*Slot, error) {
	tokens, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	slots := make([]*Slot, 0, len(tokens))
	for _, token := range tokens {
		slot, err := s.Get(ctx, token)
		if errors.Is(err, ErrNotFound) {
			s.client.SRem(ctx, s.index(), token)
			continue
		}
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
