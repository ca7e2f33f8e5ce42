package framework

import "time"

// SubscriberConfig controls queue pulling
type SubscriberConfig struct {
	QueueName    string
	Concurrency  int           // pulling goroutines
	Timeout      time.Duration // long-poll wait
	TTR          time.Duration // time-to-run before lmstfy redelivers
	Rate         time.Duration // pause between pulls
	ErrorBackoff time.Duration
}

// ProcessorConfig controls job handling
type ProcessorConfig struct {
	Concurrency int
	BufferSize  int
	Timeout     time.Duration // per job
}
