package domain

// AllocationMode describes how tickets in a section are handed out
type AllocationMode string

const (
	AllocationModeGeneralAdmission AllocationMode = "general_admission"
	AllocationModeReserved         AllocationMode = "reserved"
)

// IsValid checks if the mode is a known AllocationMode
func (m AllocationMode) IsValid() bool {
	switch m {
	case AllocationModeGeneralAdmission, AllocationModeReserved:
		return true
	}
	return false
}

// SectionInventory tracks sellable capacity for one section of a section-based event.
// Invariant: 0 <= Booked <= Capacity.
type SectionInventory struct {
	ID             int64          `json:"id"`
	EventID        int64          `json:"event_id"`
	SectionID      int64          `json:"section_id"`
	Name           string         `json:"name"`
	Capacity       int            `json:"capacity"`
	Booked         int            `json:"booked"`
	Price          *float64       `json:"price,omitempty"`
	AllocationMode AllocationMode `json:"allocation_mode"`
}

// NewSectionInventory creates an empty inventory for a section
func NewSectionInventory(sectionID int64, name string, capacity int, price *float64) (*SectionInventory, error) {
	if capacity < 0 {
		return nil, newError(ErrInvalidArgument, "Section capacity cannot be negative")
	}
	return &SectionInventory{
		SectionID:      sectionID,
		Name:           name,
		Capacity:       capacity,
		Price:          price,
		AllocationMode: AllocationModeGeneralAdmission,
	}, nil
}

// Remaining returns the number of unbooked places
func (s *SectionInventory) Remaining() int {
	return s.Capacity - s.Booked
}

// IsSoldOut reports whether nothing is left to sell
func (s *SectionInventory) IsSoldOut() bool {
	return s.Remaining() <= 0
}

// UnitPrice returns the section price, zero when unpriced
func (s *SectionInventory) UnitPrice() float64 {
	if s.Price == nil {
		return 0
	}
	return *s.Price
}

// ValidateReservation checks a reservation of quantity without mutating anything
func (s *SectionInventory) ValidateReservation(quantity int) error {
	if quantity <= 0 {
		return newError(ErrInvalidArgument, "Quantity must be positive")
	}
	if quantity > s.Remaining() {
		return newError(ErrCapacityExceeded, "Insufficient capacity in section. Requested: %d, Available: %d", quantity, s.Remaining())
	}
	return nil
}

// ReserveSeats books quantity places in the section
func (s *SectionInventory) ReserveSeats(quantity int) error {
	if err := s.ValidateReservation(quantity); err != nil {
		return err
	}
	s.Booked += quantity
	return nil
}

// ReleaseSeats returns quantity places to the section
func (s *SectionInventory) ReleaseSeats(quantity int) error {
	if quantity <= 0 {
		return newError(ErrInvalidArgument, "Quantity must be positive")
	}
	if quantity > s.Booked {
		return newError(ErrInvalidState, "Cannot release more seats than booked. Requested: %d, Booked: %d", quantity, s.Booked)
	}
	s.Booked -= quantity
	return nil
}
