package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const inflightPrefix = "autopurchase:inflight:"

// DefaultInFlightTTL bounds how long a crashed process can hold an order. Holders refresh it per item.
const DefaultInFlightTTL = 30 * time.Minute

// InFlightStore is a Redis SETNX guard shared by every worker process.
type InFlightStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewInFlightStore creates an InFlightStore. ttl <= 0 uses DefaultInFlightTTL.
func NewInFlightStore(client redis.UniversalClient, ttl time.Duration) *InFlightStore {
	if ttl <= 0 {
		ttl = DefaultInFlightTTL
	}
	return &InFlightStore{client: client, ttl: ttl}
}

// Acquire sets the order key if absent
func (s *InFlightStore) Acquire(ctx context.Context, orderID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, inflightPrefix+orderID, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s failed: %w", orderID, err)
	}
	return ok, nil
}

// Release deletes the order key
func (s *InFlightStore) Release(ctx context.Context, orderID string) error {
	if err := s.client.Del(ctx, inflightPrefix+orderID).Err(); err != nil {
		return fmt.Errorf("redis del %s failed: %w", orderID, err)
	}
	return nil
}

// Refresh resets the ttl of a held order key. A key that already expired is not recreated.
func (s *InFlightStore) Refresh(ctx context.Context, orderID string) error {
	ok, err := s.client.Expire(ctx, inflightPrefix+orderID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire %s failed: %w", orderID, err)
	}
	if !ok {
		return fmt.Errorf("in-flight entry for %s has expired", orderID)
	}
	return nil
}

// Active lists the order ids currently held, sorted
func (s *InFlightStore) Active(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	iter := s.client.Scan(ctx, 0, inflightPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), inflightPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan in-flight failed: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
