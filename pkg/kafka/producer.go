package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/prohmpiriya/event-inventory/pkg/retry"
)

// Message is a record to publish
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerConfig holds producer settings
type ProducerConfig struct {
	Brokers  []string
	ClientID string

	// MaxRetries and RetryInterval apply both to the initial ping and to each produce
	MaxRetries    int
	RetryInterval time.Duration

	LingerMs int
}

// DefaultProducerConfig returns default configuration
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:       []string{"localhost:9092"},
		ClientID:      "event-inventory-producer",
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	}
}

// Producer publishes messages synchronously through a franz-go client
type Producer struct {
	client  *kgo.Client
	retrier *retry.Retrier
}

// NewProducer creates a producer and waits until a broker answers
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if cfg == nil {
		cfg = DefaultProducerConfig()
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(time.Duration(cfg.LingerMs) * time.Millisecond),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	result := retry.New(retry.ConnectConfig(cfg.MaxRetries, cfg.RetryInterval)).Do(ctx, client.Ping)
	if result.Err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Kafka after %d attempts: %w", result.Attempts, result.Cause())
	}

	return &Producer{
		client: client,
		retrier: retry.New(&retry.Config{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     cfg.RetryInterval,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}),
	}, nil
}

// Produce publishes msg and waits for the broker acknowledgement
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	record := toRecord(msg)
	result := p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.client.ProduceSync(ctx, record).FirstErr()
	})
	if result.Err != nil {
		return fmt.Errorf("failed to produce to %s after %d attempts: %w", msg.Topic, result.Attempts, result.Cause())
	}
	return nil
}

// Close flushes buffered records and closes the client
func (p *Producer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}

func toRecord(msg *Message) *kgo.Record {
	record := &kgo.Record{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return record
}
