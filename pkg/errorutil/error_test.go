package errorutil

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	assert.True(t, IsRetryable(Retriable(CodeTimeout, "slow")))
	assert.True(t, IsRetryable(RetriableAfter(CodeRateLimitExceeded, "later", time.Second)))
	assert.False(t, IsRetryable(NonRetriable(CodePaymentDeclined, "declined")))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	plain := Wrap(errors.New("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Message)

	inner := Retriable(CodeNetworkError, "reset")
	wrapped := fmt.Errorf("placing: %w", inner)
	assert.Same(t, inner, Wrap(wrapped))
	assert.Equal(t, CodeNetworkError, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(nil))
}

func TestCauseChain(t *testing.T) {
	last := NonRetriable(CodeInsufficientInventory, "out of stock")
	err := NonRetriableWithCause(CodeMaxRetriesExceeded, "amazon placement failed after 3 attempts", last)

	assert.Equal(t, "MAX_RETRIES_EXCEEDED: amazon placement failed after 3 attempts: INSUFFICIENT_INVENTORY: out of stock", err.Error())
	assert.True(t, errors.Is(err, last))
	assert.Equal(t, "amazon placement failed after 3 attempts: INSUFFICIENT_INVENTORY: out of stock", Message(err))
	assert.Equal(t, "declined", Message(NonRetriable(CodePaymentDeclined, "declined")))
}
