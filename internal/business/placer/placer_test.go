package placer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/internal/provider/providertest"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
)

var (
	supplier = model.SupplierProfile{Name: "amazon", BasePrice: 20, ShippingCost: 5, DeliveryDays: 3}
	request  = &model.PurchaseRequest{OrderID: "order-1", SKU: "SKU-1", Quantity: 2, Destination: model.Address{Country: "ES"}}
)

func newTestPlacer(gw *providertest.Gateway, clock *providertest.Clock, jitter float64) *Placer {
	return NewPlacer(provider.NewRegistry(gw), DefaultRetryConfig(), logger.NewNop(),
		WithSleep(clock.Sleep),
		WithJitter(func() float64 { return jitter }),
	)
}

func TestPlaceOrderFirstTry(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	clock := providertest.NewClock(time.Unix(0, 0))

	order, err := newTestPlacer(gw, clock, 0).PlaceOrder(context.Background(), supplier, request, nil)
	require.NoError(t, err)

	assert.Equal(t, "AMAZON-order-1-1", order.ProviderOrderID)
	assert.Equal(t, 45.0, order.TotalCost)
	assert.Equal(t, 1, gw.PlaceCalls())
	assert.Empty(t, clock.Sleeps())
}

func TestPlaceOrderTerminalErrorIsNotRetried(t *testing.T) {
	for _, code := range []string{
		errorutil.CodeInsufficientInventory,
		errorutil.CodeInvalidAddress,
		errorutil.CodePaymentDeclined,
	} {
		gw := providertest.New(provider.Amazon, supplier)
		gw.PlaceErr = errorutil.NonRetriable(code, "nope")
		clock := providertest.NewClock(time.Unix(0, 0))

		_, err := newTestPlacer(gw, clock, 0).PlaceOrder(context.Background(), supplier, request, nil)

		assert.Equal(t, code, errorutil.CodeOf(err))
		assert.Equal(t, 1, gw.PlaceCalls(), code)
		assert.Empty(t, clock.Sleeps(), code)
	}
}

func TestPlaceOrderRetriesWithGrowingBackoff(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	gw.PlaceErr = errorutil.Retriable(errorutil.CodeServerError, "upstream 500")
	clock := providertest.NewClock(time.Unix(0, 0))

	_, err := newTestPlacer(gw, clock, 0.5).PlaceOrder(context.Background(), supplier, request, nil)

	assert.Equal(t, errorutil.CodeMaxRetriesExceeded, errorutil.CodeOf(err))
	assert.False(t, errorutil.IsRetryable(err))
	assert.Equal(t, 3, gw.PlaceCalls())

	var last *errorutil.Error
	require.True(t, errors.As(errors.Unwrap(err), &last))
	assert.Equal(t, errorutil.CodeServerError, last.Code)

	// 1s and 2s plus 5% jitter
	assert.Equal(t, []time.Duration{1050 * time.Millisecond, 2100 * time.Millisecond}, clock.Sleeps())
}

func TestPlaceOrderRecoversAfterTransientError(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	gw.PlaceErrs = []error{
		errorutil.Retriable(errorutil.CodeNetworkError, "reset"),
		errorutil.Retriable(errorutil.CodeTimeout, "slow"),
	}
	clock := providertest.NewClock(time.Unix(0, 0))

	order, err := newTestPlacer(gw, clock, 0).PlaceOrder(context.Background(), supplier, request, nil)
	require.NoError(t, err)
	assert.Equal(t, "AMAZON-order-1-3", order.ProviderOrderID)
	assert.Len(t, clock.Sleeps(), 2)
}

func TestPlaceOrderHonoursRetryAfter(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	gw.PlaceErrs = []error{errorutil.RetriableAfter(errorutil.CodeRateLimitExceeded, "slow down", 7*time.Second)}
	clock := providertest.NewClock(time.Unix(0, 0))

	_, err := newTestPlacer(gw, clock, 0.9).PlaceOrder(context.Background(), supplier, request, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, clock.Sleeps())
}

func TestPlaceOrderCustomPolicy(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	gw.PlaceErr = errorutil.Retriable(errorutil.CodeTemporaryUnavailable, "maintenance")
	clock := providertest.NewClock(time.Unix(0, 0))

	retry := &RetryConfig{MaxAttempts: 5, InitialDelay: 10 * time.Second, MaxDelay: 25 * time.Second, Multiplier: 3}
	_, err := newTestPlacer(gw, clock, 0).PlaceOrder(context.Background(), supplier, request, retry)

	assert.Equal(t, errorutil.CodeMaxRetriesExceeded, errorutil.CodeOf(err))
	assert.Equal(t, 5, gw.PlaceCalls())
	assert.Equal(t, []time.Duration{10 * time.Second, 25 * time.Second, 25 * time.Second, 25 * time.Second}, clock.Sleeps())
}

func TestPlaceOrderUnknownSupplier(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	clock := providertest.NewClock(time.Unix(0, 0))

	unknown := supplier
	unknown.Name = "temu"
	_, err := newTestPlacer(gw, clock, 0).PlaceOrder(context.Background(), unknown, request, nil)

	assert.Equal(t, errorutil.CodeUnsupportedProvider, errorutil.CodeOf(err))
	assert.Zero(t, gw.PlaceCalls())
}

func TestPlaceOrderCancelledDuringBackoff(t *testing.T) {
	gw := providertest.New(provider.Amazon, supplier)
	gw.PlaceErr = errorutil.Retriable(errorutil.CodeNetworkError, "reset")
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPlacer(provider.NewRegistry(gw), DefaultRetryConfig(), logger.NewNop(),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	_, err := p.PlaceOrder(ctx, supplier, request, nil)

	assert.Equal(t, errorutil.CodeTimeout, errorutil.CodeOf(err))
	assert.Equal(t, 1, gw.PlaceCalls())
}
