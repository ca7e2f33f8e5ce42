package framework

import (
	"context"
	"time"
)

// MessageSource adapts a message queue
type MessageSource interface {
	// Consume blocks until a message arrives or timeout passes. A nil message means nothing arrived.
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	Ack(queue string, jobID string) error
}

// Logger is the logging the framework needs
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// ProcessorFunc is one step of a PreProcessor chain
type ProcessorFunc func(ctx context.Context) error

// BusinessHandler handles one parsed job and returns the serialized response.
type BusinessHandler interface {
	Handle(ctx context.Context) ([]byte, error)
}
