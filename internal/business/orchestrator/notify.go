package orchestrator

import (
	"context"
	"errors"

	"oip/autopurchase/internal/model"
)

// Notifier publishes a finished orchestration somewhere outside the process.
type Notifier interface {
	Notify(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error
}

// Recorder persists a finished orchestration.
type Recorder interface {
	Record(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error
}

// MultiNotifier fans out to every notifier. All are called even if some fail.
type MultiNotifier []Notifier

// Notify implements Notifier
func (m MultiNotifier) Notify(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, order, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
