package confirmation

import (
	"context"
	"fmt"
	"time"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/timeutil"
)

// Config bounds the poll loop
type Config struct {
	MaxRetries   int
	MaxWait      time.Duration
	PollInterval time.Duration
}

// DefaultConfig returns 10 polls within 5 minutes, 30s apart unless the provider says otherwise.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   10,
		MaxWait:      5 * time.Minute,
		PollInterval: 30 * time.Second,
	}
}

// Handler polls a provider until its order settles.
type Handler struct {
	registry *provider.Registry
	cfg      Config
	sleep    timeutil.SleepFunc
	now      timeutil.NowFunc
	logger   logger.Logger
}

// Option customizes a Handler
type Option func(*Handler)

// WithClock replaces the wall clock and the sleep between polls.
func WithClock(now timeutil.NowFunc, sleep timeutil.SleepFunc) Option {
	return func(h *Handler) {
		h.now = now
		h.sleep = sleep
	}
}

// NewHandler creates a Handler. Zero config fields take the defaults.
func NewHandler(registry *provider.Registry, cfg Config, log logger.Logger, opts ...Option) *Handler {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = def.MaxWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}

	h := &Handler{
		registry: registry,
		cfg:      cfg,
		sleep:    timeutil.Sleep,
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConfirmation polls until the first terminal state. It never returns pending:
// running out of polls or wall time turns the status into failed.
func (h *Handler) HandleConfirmation(ctx context.Context, supplier, providerOrderID string) *model.ConfirmationStatus {
	start := h.now()
	status := &model.ConfirmationStatus{
		ProviderOrderID: providerOrderID,
		Status:          model.ConfirmationPending,
		LastUpdated:     start,
	}
	ctx = logger.WithProvider(ctx, supplier)

	gw, err := h.registry.Lookup(supplier)
	if err != nil {
		return h.fail(ctx, status, errorutil.Message(err))
	}

	for status.RetryCount < h.cfg.MaxRetries {
		if h.now().Sub(start) >= h.cfg.MaxWait {
			break
		}

		wait := h.cfg.PollInterval
		update, err := gw.CheckStatus(ctx, providerOrderID)
		status.LastUpdated = h.now()

		if err != nil {
			e := errorutil.Wrap(err)
			if !e.Retryable {
				return h.fail(ctx, status, fmt.Sprintf("status check failed: %s", errorutil.Message(e)))
			}
			h.logger.Warnf(ctx, "[Confirmation] %s poll %d failed: %v", providerOrderID, status.RetryCount+1, e)
			if e.RetryAfter > 0 {
				wait = e.RetryAfter
			}
		} else {
			apply(status, update)
			if status.Status.IsTerminal() {
				h.logger.Infof(ctx, "[Confirmation] %s settled as %s after %d polls",
					providerOrderID, status.Status, status.RetryCount+1)
				return status
			}
			if update.RetryAfter > 0 {
				wait = update.RetryAfter
			}
		}

		status.RetryCount++
		if status.RetryCount >= h.cfg.MaxRetries {
			break
		}

		remaining := h.cfg.MaxWait - h.now().Sub(start)
		if remaining <= 0 {
			break
		}
		if wait > remaining {
			wait = remaining
		}
		if err := h.sleep(ctx, wait); err != nil {
			return h.fail(ctx, status, fmt.Sprintf("confirmation aborted: %v", err))
		}
	}

	return h.fail(ctx, status, fmt.Sprintf("confirmation timeout: order still pending after %d polls in %v",
		status.RetryCount, h.now().Sub(start).Round(time.Millisecond)))
}

func apply(status *model.ConfirmationStatus, update *model.StatusUpdate) {
	status.Status = update.Status
	if update.ConfirmationNumber != "" {
		status.ConfirmationNumber = update.ConfirmationNumber
	}
	if update.TrackingNumber != "" {
		status.TrackingNumber = update.TrackingNumber
	}
}

func (h *Handler) fail(ctx context.Context, status *model.ConfirmationStatus, reason string) *model.ConfirmationStatus {
	status.Status = model.ConfirmationFailed
	status.Error = reason
	status.LastUpdated = h.now()
	h.logger.Warnf(ctx, "[Confirmation] %s failed: %s", status.ProviderOrderID, reason)
	return status
}
