package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oip/autopurchase/internal/model"
)

const availabilityPrefix = "autopurchase:"

// AvailabilityStore keeps availability results in Redis, expiring them with the key TTL.
type AvailabilityStore struct {
	client redis.UniversalClient
}

// NewAvailabilityStore creates an AvailabilityStore
func NewAvailabilityStore(client redis.UniversalClient) *AvailabilityStore {
	return &AvailabilityStore{client: client}
}

// Get returns nil, nil on a miss
func (s *AvailabilityStore) Get(ctx context.Context, key string) (*model.AvailabilityResult, error) {
	data, err := s.client.Get(ctx, availabilityPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s failed: %w", key, err)
	}

	var result model.AvailabilityResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached availability %s failed: %w", key, err)
	}
	return &result, nil
}

// Set stores result for ttl
func (s *AvailabilityStore) Set(ctx context.Context, key string, result *model.AvailabilityResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode availability %s failed: %w", key, err)
	}
	if err := s.client.Set(ctx, availabilityPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

// Size counts the cached results. Scan errors count as empty.
func (s *AvailabilityStore) Size(ctx context.Context) int {
	n, err := countKeys(ctx, s.client, availabilityPrefix+"availability:*")
	if err != nil {
		return 0
	}
	return n
}
