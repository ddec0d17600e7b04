package domain

// DefaultReservationQuantity is used when a request omits the quantity
const DefaultReservationQuantity = 1

// ReservationRequest describes what a customer wants to reserve.
// SectionID applies to section-based events, SeatID to reserved seating; general admission ignores both.
type ReservationRequest struct {
	Quantity   int    `json:"quantity"`
	SectionID  *int64 `json:"section_id,omitempty"`
	SeatID     *int64 `json:"seat_id,omitempty"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}

// NewReservationRequest creates a request, defaulting quantity to 1
func NewReservationRequest(quantity int, sectionID, seatID, customerID *int64) *ReservationRequest {
	if quantity == 0 {
		quantity = DefaultReservationQuantity
	}
	return &ReservationRequest{
		Quantity:   quantity,
		SectionID:  sectionID,
		SeatID:     seatID,
		CustomerID: customerID,
	}
}
