package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"oip/autopurchase/internal/framework"
	"oip/autopurchase/pkg/config"
	"oip/autopurchase/pkg/lmstfyx"
	"oip/autopurchase/pkg/logger"
)

// Manager owns the queue workers and the scheduler
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance is the default Manager
type ManagerInstance struct {
	ctx        context.Context
	cfg        []config.WorkerConfig
	source     framework.MessageSource
	proc       lmstfyx.Proc
	scheduler  *Scheduler
	workers    []Worker
	closing    *atomic.Bool
	shutdownCh chan struct{}
	mu         sync.Mutex
	logger     logger.Logger
}

// NewManagerInstance creates a Manager. source and proc may be nil when no queue worker is configured;
// scheduler may be nil when the processing loop is disabled.
func NewManagerInstance(
	workers []config.WorkerConfig,
	source framework.MessageSource,
	proc lmstfyx.Proc,
	scheduler *Scheduler,
	log logger.Logger,
) (*ManagerInstance, error) {
	if len(workers) > 0 && (source == nil || proc == nil) {
		return nil, fmt.Errorf("queue workers need a message source and a proc")
	}

	return &ManagerInstance{
		ctx:        context.Background(),
		cfg:        workers,
		source:     source,
		proc:       proc,
		scheduler:  scheduler,
		closing:    atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		logger:     log,
	}, nil
}

// Start launches everything and blocks until Shutdown completes
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	m.mu.Lock()
	if m.closing.Load() {
		m.mu.Unlock()
		return nil
	}
	m.loadWorkers()
	for _, w := range m.workers {
		w.Start()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	if m.scheduler != nil {
		m.scheduler.Start(m.ctx)
	}
	m.mu.Unlock()

	m.logger.Infof(m.ctx, "[Manager] Start success, workers: %d, scheduler: %v", len(m.workers), m.scheduler != nil)

	<-m.shutdownCh
	return nil
}

// Shutdown stops the scheduler, then every worker. Only the first call does anything.
func (m *ManagerInstance) Shutdown() {
	if !m.closing.CAS(false, true) {
		return
	}
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		m.scheduler.Stop()
	}

	for _, worker := range m.workers {
		m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
		worker.Shutdown()
	}

	close(m.shutdownCh)
	m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
}

func (m *ManagerInstance) loadWorkers() {
	for _, workerCfg := range m.cfg {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}
		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		m.workers = append(m.workers, NewQueueWorker(m.ctx, workerCfg.Name, subCfg, procCfg, m.source, m.proc, m.logger))
	}
}
