package domain

import (
	"fmt"
	"time"
)

// BookingEventType names a booking lifecycle message
type BookingEventType string

const (
	BookingEventConfirmed     BookingEventType = "booking.confirmed"
	BookingEventPaymentFailed BookingEventType = "booking.payment_failed"
)

// BookingEvent is the message published when a booking attempt settles
type BookingEvent struct {
	ID            string           `json:"id"`
	Type          BookingEventType `json:"type"`
	BookingID     string           `json:"booking_id"`
	UserID        int64            `json:"user_id"`
	EventID       int64            `json:"event_id"`
	BookingType   BookingType      `json:"booking_type"`
	Quantity      int              `json:"quantity"`
	TotalAmount   float64          `json:"total_amount"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewBookingEvent snapshots booking into a message of type eventType
func NewBookingEvent(eventType BookingEventType, booking *Booking, id string) *BookingEvent {
	return &BookingEvent{
		ID:            id,
		Type:          eventType,
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		EventID:       booking.EventID,
		BookingType:   booking.Type,
		Quantity:      booking.TicketQuantity(),
		TotalAmount:   booking.TotalAmount,
		PaymentStatus: booking.PaymentStatus,
		TransactionID: booking.TransactionID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Key partitions messages by event so one event's bookings stay ordered
func (e *BookingEvent) Key() string {
	return fmt.Sprintf("event-%d", e.EventID)
}
