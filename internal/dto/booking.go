package dto

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// CreateBookingRequest represents the HTTP body for creating a booking
type CreateBookingRequest struct {
	EventID       int64  `json:"event_id" binding:"required"`
	Quantity      int    `json:"quantity"`
	SectionID     *int64 `json:"section_id,omitempty"`
	SeatID        *int64 `json:"seat_id,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// CreateBookingCommand is the application-level input of the booking workflow
type CreateBookingCommand struct {
	UserID        int64  `json:"user_id"`
	EventID       int64  `json:"event_id"`
	Quantity      int    `json:"quantity"`
	SectionID     *int64 `json:"section_id,omitempty"`
	SeatID        *int64 `json:"seat_id,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// ToCommand builds a command for the authenticated user; an omitted quantity means one ticket
func (r *CreateBookingRequest) ToCommand(userID int64) *CreateBookingCommand {
	quantity := r.Quantity
	if quantity == 0 {
		quantity = domain.DefaultReservationQuantity
	}
	return &CreateBookingCommand{
		UserID:        userID,
		EventID:       r.EventID,
		Quantity:      quantity,
		SectionID:     r.SectionID,
		SeatID:        r.SeatID,
		PaymentMethod: r.PaymentMethod,
	}
}

// ToReservationRequest maps the command onto a domain reservation request
func (c *CreateBookingCommand) ToReservationRequest() *domain.ReservationRequest {
	customerID := c.UserID
	return domain.NewReservationRequest(c.Quantity, c.SectionID, c.SeatID, &customerID)
}

// BookingState is a step of one booking attempt
type BookingState string

const (
	BookingStateValidating      BookingState = "validating"
	BookingStateEntitiesLoaded  BookingState = "entities_loaded"
	BookingStateDomainValidated BookingState = "domain_validated"
	BookingStateReserved        BookingState = "reserved"
	BookingStatePaymentPending  BookingState = "payment_pending"
	BookingStatePaid            BookingState = "paid"
	BookingStatePaymentFailed   BookingState = "payment_failed"
	BookingStatePersisted       BookingState = "persisted"
	BookingStatePersistFailed   BookingState = "persist_failed"
)

// Error codes reported in BookingResult
const (
	ErrorCodeValidation         = "VALIDATION_ERROR"
	ErrorCodeNotFound           = "NOT_FOUND"
	ErrorCodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	ErrorCodeSoldOut            = "SOLD_OUT"
	ErrorCodeRuleViolation      = "RULE_VIOLATION"
	ErrorCodePaymentDeclined    = "PAYMENT_DECLINED"
	ErrorCodePersistenceFailure = "PERSISTENCE_FAILURE"
	ErrorCodeInternal           = "INTERNAL_ERROR"
)

// BookingResult is the structured outcome of a booking attempt
type BookingResult struct {
	Success       bool         `json:"success"`
	State         BookingState `json:"state"`
	BookingID     string       `json:"booking_id,omitempty"`
	TotalAmount   float64      `json:"total_amount,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	ErrorCode     string       `json:"error_code,omitempty"`
	Message       string       `json:"message"`
	SagaID        string       `json:"saga_id,omitempty"`
}

// BookingItemResponse represents a booking line in API responses
type BookingItemResponse struct {
	ID                 string  `json:"id"`
	SeatID             *int64  `json:"seat_id,omitempty"`
	SectionInventoryID *int64  `json:"section_inventory_id,omitempty"`
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            string                 `json:"id"`
	UserID        int64                  `json:"user_id"`
	EventID       int64                  `json:"event_id"`
	BookingType   string                 `json:"booking_type"`
	PaymentStatus string                 `json:"payment_status"`
	Quantity      int                    `json:"quantity"`
	TotalAmount   float64                `json:"total_amount"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	Items         []*BookingItemResponse `json:"items"`
}

// FromDomain converts domain Booking to BookingResponse
func FromDomain(b *domain.Booking) *BookingResponse {
	items := make([]*BookingItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, &BookingItemResponse{
			ID:                 item.ID,
			SeatID:             item.SeatID,
			SectionInventoryID: item.SectionInventoryID,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
		})
	}
	return &BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		EventID:       b.EventID,
		BookingType:   string(b.Type),
		PaymentStatus: string(b.PaymentStatus),
		Quantity:      b.TicketQuantity(),
		TotalAmount:   b.TotalAmount,
		TransactionID: b.TransactionID,
		Items:         items,
	}
}
