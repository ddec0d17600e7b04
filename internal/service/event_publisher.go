package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/pkg/kafka"
)

// EventPublisher publishes booking lifecycle messages
type EventPublisher interface {
	// PublishBookingConfirmed publishes a paid and persisted booking
	PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error

	// PublishPaymentFailed publishes a booking whose payment was declined
	PublishPaymentFailed(ctx context.Context, booking *domain.Booking, reason string) error

	// Close closes the event publisher
	Close() error
}

// MessageProducer is the part of the Kafka producer the publisher needs
type MessageProducer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    MessageProducer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "event-inventory-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewEventPublisherWithProducer(producer, cfg.Topic, cfg.ServiceName), nil
}

// NewEventPublisherWithProducer wraps an existing producer
func NewEventPublisherWithProducer(producer MessageProducer, topic, serviceName string) *KafkaEventPublisher {
	if topic == "" {
		topic = "booking-events"
	}
	if serviceName == "" {
		serviceName = "event-inventory"
	}
	return &KafkaEventPublisher{producer: producer, topic: topic, serviceName: serviceName}
}

// PublishBookingConfirmed publishes a booking confirmed event
func (p *KafkaEventPublisher) PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	return p.publishEvent(ctx, domain.NewBookingEvent(domain.BookingEventConfirmed, booking, uuid.New().String()))
}

// PublishPaymentFailed publishes a payment failed event
func (p *KafkaEventPublisher) PublishPaymentFailed(ctx context.Context, booking *domain.Booking, reason string) error {
	event := domain.NewBookingEvent(domain.BookingEventPaymentFailed, booking, uuid.New().String())
	event.Reason = reason
	return p.publishEvent(ctx, event)
}

// Close closes the underlying producer
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

func (p *KafkaEventPublisher) publishEvent(ctx context.Context, event *domain.BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: map[string]string{
			"event_type":   string(event.Type),
			"event_id":     event.ID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	return nil
}

func (p *NoOpEventPublisher) PublishPaymentFailed(ctx context.Context, booking *domain.Booking, reason string) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
