package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// ProducerConfig configures the reel event producer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int           // default 3
	RetryBackoff time.Duration // default 100ms
	WriteTimeout time.Duration // default 10s
	BatchSize    int           // default 100
	Async        bool
	Logger       zerolog.Logger
}

// Message is a single key/value record destined for the reel events topic.
type Message struct {
	Key   string
	Value []byte
}

// ProducerMetrics is a point-in-time snapshot of producer counters.
type ProducerMetrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

type producerCounters struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64 // cumulative nanoseconds
}

// Producer publishes reel lifecycle events to Kafka with bounded retries.
type Producer struct {
	config  ProducerConfig
	writer  *kafkago.Writer
	closed  atomic.Bool
	metrics producerCounters
	log     zerolog.Logger
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid producer config: %w", err)
	}
	setDefaults(&cfg)

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		BatchSize:    cfg.BatchSize,
		Async:        cfg.Async,
	}

	return &Producer{
		config: cfg,
		writer: writer,
		log:    cfg.Logger.With().Str("component", "kafka_producer").Str("topic", cfg.Topic).Logger(),
	}, nil
}

func validateConfig(cfg *ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("brokers list is empty")
	}
	if cfg.Topic == "" {
		return errors.New("topic is empty")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}
	if cfg.RetryBackoff < 0 {
		return errors.New("retry_backoff cannot be negative")
	}
	if cfg.WriteTimeout < 0 {
		return errors.New("write_timeout cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

// Publish sends a single event, retrying transient failures with backoff.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.PublishBatch(ctx, []Message{{Key: key, Value: value}})
}

// PublishBatch sends a batch of events in one write. An empty batch is a
// no-op.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return errors.New("producer is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	records := make([]kafkago.Message, 0, len(messages))
	for _, m := range messages {
		records = append(records, kafkago.Message{
			Key:   []byte(m.Key),
			Value: m.Value,
		})
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			select {
			case <-ctx.Done():
				p.metrics.MessagesFailed.Add(int64(len(messages)))
				return ctx.Err()
			case <-time.After(p.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		lastErr = p.writer.WriteMessages(ctx, records...)
		if lastErr == nil {
			p.metrics.MessagesPublished.Add(int64(len(messages)))
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}
		if !isRetriableError(lastErr) {
			break
		}
		p.log.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("publish failed, retrying")
	}

	p.metrics.MessagesFailed.Add(int64(len(messages)))
	return fmt.Errorf("kafka publish after %d attempts: %w", p.config.MaxRetries+1, lastErr)
}

// isRetriableError classifies write failures. Context cancellation and
// permanent broker rejections are not worth retrying; everything else
// defaults to retriable.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "leader not available"):
		return true
	case strings.Contains(msg, "invalid message"),
		strings.Contains(msg, "message too large"),
		strings.Contains(msg, "authorization"):
		return false
	}
	return true
}

// HealthCheck verifies the producer can still accept events.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return errors.New("producer is closed")
	}
	return ctx.Err()
}

// GetMetrics returns a snapshot of the producer counters.
func (p *Producer) GetMetrics() ProducerMetrics {
	published := p.metrics.MessagesPublished.Load()
	snapshot := ProducerMetrics{
		MessagesPublished: published,
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if published > 0 {
		snapshot.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / published)
	}
	return snapshot
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errors.New("producer is already closed")
	}
	return p.writer.Close()
}
