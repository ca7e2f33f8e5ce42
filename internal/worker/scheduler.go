package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"oip/autopurchase/internal/business/orchestrator"
	"oip/autopurchase/pkg/logger"
)

// CycleRunner runs one processing cycle
type CycleRunner interface {
	ProcessPending(ctx context.Context) (*orchestrator.CycleSummary, error)
}

// Scheduler runs a CycleRunner on a fixed interval. A failed cycle never stops the next one.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   logger.Logger

	running *atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewScheduler creates a Scheduler
func NewScheduler(runner CycleRunner, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   log,
		running:  atomic.NewBool(false),
	}
}

// Start launches the loop. The first cycle runs immediately. Starting twice is a no-op.
func (s *Scheduler) Start(parent context.Context) {
	if !s.running.CAS(false, true) {
		return
	}

	s.mu.Lock()
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Infof(ctx, "[Scheduler] Started, interval %v", s.interval)
	go s.loop(ctx, done)
}

// Stop cancels the loop and waits for the running cycle to return
func (s *Scheduler) Stop() {
	if !s.running.CAS(true, false) {
		return
	}

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Infof(context.Background(), "[Scheduler] Stopped")
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf(ctx, "[Scheduler] cycle panic: %v", r)
		}
	}()

	summary, err := s.runner.ProcessPending(ctx)
	if err != nil {
		s.logger.Warnf(ctx, "[Scheduler] cycle failed: %v", err)
		return
	}
	s.logger.Debugf(ctx, "[Scheduler] cycle processed %d orders", summary.Fetched)
}
