package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

// Producer publishes purchase outcome events to a Kafka topic.
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   logger.Logger
	wg       sync.WaitGroup
}

// NewSaramaConfig returns the producer settings used in production
func NewSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5
	return config
}

// NewProducer connects to brokers
func NewProducer(brokers []string, topic string, log logger.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	producer, err := sarama.NewAsyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}
	return NewProducerWith(producer, topic, log), nil
}

// NewProducerWith wraps an existing AsyncProducer and starts draining its errors.
func NewProducerWith(producer sarama.AsyncProducer, topic string, log logger.Logger) *Producer {
	p := &Producer{
		producer: producer,
		topic:    topic,
		logger:   log,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.logger.Errorf(context.Background(), "[Kafka] failed to send message to %s: %v", topic, err)
		}
	}()

	return p
}

// Notify enqueues the outcome event of one order, keyed by order id.
func (p *Producer) Notify(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error {
	requestID, _ := ctx.Value(logger.KeyTraceID).(string)
	data, err := json.Marshal(model.NewPurchaseCallback(order, result, requestID, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(result.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending messages and stops the error drain
func (p *Producer) Close() error {
	err := p.producer.Close()
	p.wg.Wait()
	return err
}
