package errorutil

import (
	"errors"
	"fmt"
	"time"
)

// Machine-readable error codes shared by placement, confirmation and selection.
const (
	CodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	CodeTemporaryUnavailable  = "TEMPORARY_UNAVAILABLE"
	CodeNetworkError          = "NETWORK_ERROR"
	CodeTimeout               = "TIMEOUT"
	CodeServerError           = "SERVER_ERROR"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeInvalidAddress        = "INVALID_ADDRESS"
	CodePaymentDeclined       = "PAYMENT_DECLINED"
	CodeUnsupportedProvider   = "UNSUPPORTED_PROVIDER"
	CodeMaxRetriesExceeded    = "MAX_RETRIES_EXCEEDED"
	CodeNoProviderAvailable   = "NO_PROVIDER_AVAILABLE"
	CodeOrderNotFound         = "ORDER_NOT_FOUND"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInternal              = "INTERNAL_ERROR"
)

// Error carries a machine code and the retryable classification.
type Error struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	DevDetails string        `json:"dev_details,omitempty"`
	Cause      error         `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retriable builds a retryable error (rate limits, timeouts, transient faults).
func Retriable(code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// RetriableAfter builds a retryable error with a provider supplied retry hint.
func RetriableAfter(code, message string, after time.Duration) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Retryable:  true,
		RetryAfter: after,
	}
}

// NonRetriable builds a terminal error (bad input, business rule violations).
func NonRetriable(code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NonRetriableWithCause builds a terminal error wrapping cause.
func NonRetriableWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// Wrap converts any error into *Error. Unknown errors are non-retryable.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Code:       CodeInternal,
		Message:    err.Error(),
		Retryable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}

// CodeOf returns the machine code of err, or "" when err is nil.
func CodeOf(err error) string {
	if e := Wrap(err); e != nil {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether err is classified as retryable.
func IsRetryable(err error) bool {
	e := Wrap(err)
	return e != nil && e.Retryable
}

// Message returns the human readable part of err without the code prefix.
func Message(err error) string {
	e := Wrap(err)
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
