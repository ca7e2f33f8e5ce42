package framework

import (
	"context"
	"sync"

	"oip/autopurchase/pkg/timeutil"
)

// Subscriber pulls messages from the source and hands them to the Processor
type Subscriber struct {
	cfg        *SubscriberConfig
	source     MessageSource
	logger     Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSubscriber creates a Subscriber
func NewSubscriber(cfg *SubscriberConfig, source MessageSource, logger Logger) *Subscriber {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Subscriber{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// Start launches the pull loops under a child of parentCtx
func (s *Subscriber) Start(parentCtx context.Context, inputChan chan<- *Message) {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel

	s.logger.Infof(ctx, "[Subscriber] Starting %d pullers for queue: %s", s.cfg.Concurrency, s.cfg.QueueName)

	for i := 0; i < s.cfg.Concurrency; i++ {
		workerID := i
		s.wg.Add(1)
		go s.loop(ctx, workerID, inputChan)
	}
}

// Stop stops pulling new messages
func (s *Subscriber) Stop() {
	s.logger.Infof(context.Background(), "[Subscriber] Stopping %s", s.cfg.QueueName)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
}

// Wait blocks until every pull loop has exited
func (s *Subscriber) Wait() {
	s.wg.Wait()
	s.logger.Infof(context.Background(), "[Subscriber] All pullers exited")
}

func (s *Subscriber) loop(ctx context.Context, workerID int, inputChan chan<- *Message) {
	defer s.wg.Done()
	s.logger.Debugf(ctx, "[Subscriber-%d] Started", workerID)

	for {
		if ctx.Err() != nil {
			s.logger.Debugf(ctx, "[Subscriber-%d] Context cancelled, exiting", workerID)
			return
		}

		msg, err := s.source.Consume(s.cfg.QueueName, s.cfg.Timeout, s.cfg.TTR)
		if err != nil {
			s.logger.Warnf(ctx, "[Subscriber-%d] Consume error: %v, retrying", workerID, err)
			if timeutil.Sleep(ctx, s.cfg.ErrorBackoff) != nil {
				return
			}
			continue
		}

		if msg == nil {
			continue
		}

		select {
		case inputChan <- msg:
			s.logger.Debugf(ctx, "[Subscriber-%d] Message sent: %s", workerID, msg.ID)
		case <-ctx.Done():
			// not acked, so lmstfy redelivers it after the TTR
			s.logger.Warnf(ctx, "[Subscriber-%d] Dropping message due to shutdown: %s", workerID, msg.ID)
			return
		}

		if s.cfg.Rate > 0 && timeutil.Sleep(ctx, s.cfg.Rate) != nil {
			return
		}
	}
}
