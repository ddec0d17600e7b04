package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecord(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := toRecord(&Message{
		Topic:     "booking-events",
		Key:       []byte("event-1"),
		Value:     []byte(`{"ok":true}`),
		Headers:   map[string]string{"event_type": "booking.confirmed"},
		Timestamp: ts,
	})

	assert.Equal(t, "booking-events", record.Topic)
	assert.Equal(t, []byte("event-1"), record.Key)
	assert.Equal(t, ts, record.Timestamp)
	require.Len(t, record.Headers, 1)
	assert.Equal(t, "event_type", record.Headers[0].Key)
	assert.Equal(t, []byte("booking.confirmed"), record.Headers[0].Value)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	assert.Error(t, err)
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig()
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 3, cfg.MaxRetries)
}
