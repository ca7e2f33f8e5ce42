package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPurchaseCallback(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	order := &Order{ID: "o-1", OrderNumber: "N-1"}

	tests := []struct {
		name   string
		result *OrchestrationResult
		want   string
	}{
		{"success", &OrchestrationResult{OrderID: "o-1", Success: true}, CallbackStatusSuccess},
		{"failed", &OrchestrationResult{OrderID: "o-1", Error: "boom"}, CallbackStatusFailed},
		{"duplicate", &OrchestrationResult{OrderID: "o-1", Duplicate: true}, CallbackStatusDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewPurchaseCallback(order, tt.result, "req-1", at)
			assert.Equal(t, tt.want, cb.Status)
			assert.Equal(t, "N-1", cb.OrderNumber)
			assert.Equal(t, at.Unix(), cb.ProcessedAt)
		})
	}

	assert.Empty(t, NewPurchaseCallback(nil, &OrchestrationResult{OrderID: "o-2"}, "", at).OrderNumber)
}

func TestConfirmationStateIsTerminal(t *testing.T) {
	assert.False(t, ConfirmationPending.IsTerminal())
	for _, s := range []ConfirmationState{
		ConfirmationConfirmed, ConfirmationProcessing, ConfirmationShipped, ConfirmationCancelled, ConfirmationFailed,
	} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, ConfirmationState("lost").IsTerminal())
}

func TestPurchaseRequestCriteria(t *testing.T) {
	days := 7
	price := 50.0
	req := &PurchaseRequest{
		SKU:         "SKU-1",
		Quantity:    2,
		Destination: Address{Country: "FR"},
		Constraints: &PurchaseConstraints{
			MaxDeliveryDays:    &days,
			MaxPrice:           &price,
			PreferredProviders: []string{"ebay"},
			ExcludeProviders:   []string{"wish"},
		},
	}

	c := req.Criteria()
	assert.Equal(t, "SKU-1", c.SKU)
	assert.Equal(t, 2, c.Quantity)
	assert.Equal(t, 7, *c.MaxDeliveryDays)
	assert.Equal(t, 50.0, *c.MaxPrice)
	assert.Equal(t, []string{"ebay"}, c.PreferredProviders)
	assert.Equal(t, []string{"wish"}, c.ExcludeProviders)

	req.Constraints = nil
	assert.Nil(t, req.Criteria().MaxPrice)
}
