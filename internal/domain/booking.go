package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingType is derived from the event variant a booking was made against
type BookingType string

const (
	BookingTypeGeneralAdmission BookingType = "general_admission"
	BookingTypeSection          BookingType = "section"
	BookingTypeSeat             BookingType = "seat"
)

// BookingTypeOf returns the booking type for an event variant
func BookingTypeOf(e Event) BookingType {
	return SwitchEvent(e,
		func(*GeneralAdmissionEvent) BookingType { return BookingTypeGeneralAdmission },
		func(*SectionBasedEvent) BookingType { return BookingTypeSection },
		func(*ReservedSeatingEvent) BookingType { return BookingTypeSeat },
	)
}

// PaymentStatus represents the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	}
	return false
}

// BookingItem is one line of a booking. It references either a seat or a section inventory, never both.
type BookingItem struct {
	ID                 string  `json:"id"`
	BookingID          string  `json:"booking_id"`
	SeatID             *int64  `json:"seat_id,omitempty"`
	SectionInventoryID *int64  `json:"section_inventory_id,omitempty"`
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
}

// NewSeatItem creates an item for one reserved seat
func NewSeatItem(seatID int64, unitPrice float64) *BookingItem {
	return &BookingItem{
		ID:        uuid.New().String(),
		SeatID:    &seatID,
		Quantity:  1,
		UnitPrice: unitPrice,
	}
}

// NewSectionItem creates an item for quantity places in a section
func NewSectionItem(sectionID int64, quantity int, unitPrice float64) *BookingItem {
	return &BookingItem{
		ID:                 uuid.New().String(),
		SectionInventoryID: &sectionID,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
	}
}

// Validate checks the seat-xor-section invariant
func (i *BookingItem) Validate() error {
	if (i.SeatID == nil) == (i.SectionInventoryID == nil) {
		return newError(ErrInvalidState, "Booking item must reference exactly one of seat or section")
	}
	if i.Quantity <= 0 {
		return newError(ErrInvalidArgument, "Quantity must be positive")
	}
	return nil
}

// Booking records one purchase. Only PaymentStatus and TransactionID change after creation.
type Booking struct {
	ID            string         `json:"id"`
	UserID        int64          `json:"user_id"`
	EventID       int64          `json:"event_id"`
	Type          BookingType    `json:"booking_type"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	TotalAmount   float64        `json:"total_amount"`
	Quantity      int            `json:"quantity"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Items         []*BookingItem `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewBooking creates a pending booking and attaches items
func NewBooking(userID, eventID int64, bookingType BookingType, quantity int, totalAmount float64, items ...*BookingItem) (*Booking, error) {
	if quantity <= 0 {
		return nil, newError(ErrInvalidArgument, "Quantity must be positive")
	}
	if bookingType == BookingTypeGeneralAdmission && len(items) > 0 {
		return nil, newError(ErrInvalidState, "General admission bookings carry no items")
	}
	if bookingType != BookingTypeGeneralAdmission && len(items) == 0 {
		return nil, newError(ErrInvalidState, "Booking of type %s requires at least one item", bookingType)
	}

	now := time.Now().UTC()
	b := &Booking{
		ID:            uuid.New().String(),
		UserID:        userID,
		EventID:       eventID,
		Type:          bookingType,
		PaymentStatus: PaymentStatusPending,
		TotalAmount:   totalAmount,
		Quantity:      quantity,
		Items:         make([]*BookingItem, 0, len(items)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.BookingID = b.ID
		b.Items = append(b.Items, item)
	}
	return b, nil
}

// TicketQuantity returns the number of tickets this booking holds, whatever its type
func (b *Booking) TicketQuantity() int {
	if b.Type == BookingTypeGeneralAdmission {
		return b.Quantity
	}
	total := 0
	for _, item := range b.Items {
		total += item.Quantity
	}
	return total
}

// IsActive reports whether the booking still holds its tickets
func (b *Booking) IsActive() bool {
	return b.PaymentStatus != PaymentStatusRefunded
}

// MarkPaid records a successful payment
func (b *Booking) MarkPaid(transactionID string) error {
	if b.PaymentStatus != PaymentStatusPending {
		return newError(ErrInvalidState, "Booking must be pending to be paid (status: %s)", b.PaymentStatus)
	}
	b.PaymentStatus = PaymentStatusPaid
	b.TransactionID = transactionID
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed records a failed payment
func (b *Booking) MarkFailed() error {
	if b.PaymentStatus != PaymentStatusPending {
		return newError(ErrInvalidState, "Booking must be pending to fail payment (status: %s)", b.PaymentStatus)
	}
	b.PaymentStatus = PaymentStatusFailed
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkRefunded records a refund of a paid booking
func (b *Booking) MarkRefunded() error {
	if b.PaymentStatus != PaymentStatusPaid {
		return newError(ErrInvalidState, "Only paid bookings can be refunded (status: %s)", b.PaymentStatus)
	}
	b.PaymentStatus = PaymentStatusRefunded
	b.UpdatedAt = time.Now().UTC()
	return nil
}
