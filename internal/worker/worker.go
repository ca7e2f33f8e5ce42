package worker

import (
	"context"

	"oip/autopurchase/internal/framework"
	"oip/autopurchase/pkg/lmstfyx"
	"oip/autopurchase/pkg/logger"
)

// Worker is one queue consumer
type Worker interface {
	Start()
	Shutdown()
	GetName() string
}

// QueueWorker wires a Subscriber and a Processor through a buffered channel
type QueueWorker struct {
	ctx        context.Context
	name       string
	subscriber *framework.Subscriber
	processor  *framework.Processor
	inputChan  chan *framework.Message
	logger     logger.Logger
}

// NewQueueWorker creates a QueueWorker
func NewQueueWorker(
	ctx context.Context,
	name string,
	subscriberCfg *framework.SubscriberConfig,
	processorCfg *framework.ProcessorConfig,
	source framework.MessageSource,
	proc lmstfyx.Proc,
	log logger.Logger,
) *QueueWorker {
	bufferSize := processorCfg.BufferSize
	if bufferSize < 0 {
		bufferSize = 0
	}

	return &QueueWorker{
		ctx:        ctx,
		name:       name,
		subscriber: framework.NewSubscriber(subscriberCfg, source, log),
		processor:  framework.NewProcessor(processorCfg, proc, source, log),
		inputChan:  make(chan *framework.Message, bufferSize),
		logger:     log,
	}
}

// Start launches the processor and subscriber goroutines
func (w *QueueWorker) Start() {
	w.processor.Start(w.ctx, w.inputChan)
	w.subscriber.Start(w.ctx, w.inputChan)
	w.logger.Infof(w.ctx, "[Worker] %s started", w.name)
}

// Shutdown stops pulling, then drains what was already pulled
func (w *QueueWorker) Shutdown() {
	w.logger.Infof(w.ctx, "[Worker] %s began to close", w.name)

	w.subscriber.Stop()
	w.subscriber.Wait()

	w.processor.SignalShutdown()
	w.processor.Wait()

	w.logger.Infof(w.ctx, "[Worker] %s shutdown complete", w.name)
}

// GetName returns the worker name
func (w *QueueWorker) GetName() string {
	return w.name
}
