package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/model"
)

// testClient connects to the Redis at AUTOPURCHASE_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *InFlightStore {
	addr := os.Getenv("AUTOPURCHASE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUTOPURCHASE_TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewInFlightStore(client, time.Minute)
}

func TestInFlightStore(t *testing.T) {
	store := testClient(t)
	ctx := context.Background()
	id := "test-" + uuid.NewString()
	defer store.Release(ctx, id)

	ok, err := store.Acquire(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Contains(t, active, id)

	require.NoError(t, store.Release(ctx, id))
	ok, err = store.Acquire(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInFlightRefresh(t *testing.T) {
	store := testClient(t)
	ctx := context.Background()
	id := "test-" + uuid.NewString()
	defer store.Release(ctx, id)

	assert.Error(t, store.Refresh(ctx, id))

	ok, err := store.Acquire(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.client.Expire(ctx, inflightPrefix+id, time.Second).Err())

	require.NoError(t, store.Refresh(ctx, id))
	ttl, err := store.client.TTL(ctx, inflightPrefix+id).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}

func TestAvailabilityStore(t *testing.T) {
	inflight := testClient(t)
	store := NewAvailabilityStore(inflight.client)
	ctx := context.Background()
	key := "availability:test:" + uuid.NewString()

	miss, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	stock := 4
	require.NoError(t, store.Set(ctx, key, &model.AvailabilityResult{Provider: "ebay", Available: true, StockQuantity: &stock}, time.Minute))

	hit, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.True(t, hit.Available)
	assert.Equal(t, 4, *hit.StockQuantity)
	assert.GreaterOrEqual(t, store.Size(ctx), 1)

	require.NoError(t, inflight.client.Del(ctx, availabilityPrefix+key).Err())
}

func TestPubSubNotify(t *testing.T) {
	inflight := testClient(t)
	ps := NewPubSub(inflight.client, "autopurchase-test-"+uuid.NewString())
	ctx := context.Background()

	sub := ps.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, ps.Notify(ctx, &model.Order{ID: "o-1", OrderNumber: "N-1"},
		&model.OrchestrationResult{OrderID: "o-1", Success: true, ProviderUsed: "amazon"}))

	select {
	case msg := <-sub.Channel():
		var cb model.PurchaseCallback
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &cb))
		assert.Equal(t, "o-1", cb.OrderID)
		assert.Equal(t, model.CallbackStatusSuccess, cb.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
