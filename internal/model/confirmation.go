package model

import "time"

// ConfirmationState is a provider order's settlement state.
type ConfirmationState string

const (
	ConfirmationPending    ConfirmationState = "pending"
	ConfirmationConfirmed  ConfirmationState = "confirmed"
	ConfirmationProcessing ConfirmationState = "processing"
	ConfirmationShipped    ConfirmationState = "shipped"
	ConfirmationCancelled  ConfirmationState = "cancelled"
	ConfirmationFailed     ConfirmationState = "failed"
)

// IsTerminal reports whether polling stops at s. Every state but pending is terminal.
func (s ConfirmationState) IsTerminal() bool {
	switch s {
	case ConfirmationConfirmed, ConfirmationProcessing, ConfirmationShipped,
		ConfirmationCancelled, ConfirmationFailed:
		return true
	}
	return false
}

// ConfirmationStatus is mutated in place across poll iterations.
type ConfirmationStatus struct {
	ProviderOrderID    string            `json:"provider_order_id"`
	Status             ConfirmationState `json:"status"`
	ConfirmationNumber string            `json:"confirmation_number,omitempty"`
	TrackingNumber     string            `json:"tracking_number,omitempty"`
	LastUpdated        time.Time         `json:"last_updated"`
	RetryCount         int               `json:"retry_count"`
	Error              string            `json:"error,omitempty"`
}

// StatusUpdate is one provider answer to a status poll.
type StatusUpdate struct {
	Status             ConfirmationState
	ConfirmationNumber string
	TrackingNumber     string
	RetryAfter         time.Duration
}
