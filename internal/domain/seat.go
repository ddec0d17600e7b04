package domain

// SeatStatus represents the state of an individually addressed seat
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusLocked    SeatStatus = "locked"
)

// IsValid checks if the status is a valid SeatStatus
func (s SeatStatus) IsValid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusReserved, SeatStatusLocked:
		return true
	}
	return false
}

// String returns the string representation of SeatStatus
func (s SeatStatus) String() string {
	return string(s)
}

// Seat is one sellable seat of a reserved seating event.
//
//	Available -> Reserved (Reserve)
//	Available -> Locked   (Lock)
//	Locked    -> Available (Release)
//
// Reserved is terminal for the public API; only CompensateReservation can undo it.
type Seat struct {
	ID        int64      `json:"id"`
	EventID   int64      `json:"event_id"`
	SectionID int64      `json:"section_id"`
	Row       string     `json:"row"`
	Number    string     `json:"number"`
	Status    SeatStatus `json:"status"`
}

// NewSeat creates an available seat
func NewSeat(id, sectionID int64, row, number string) *Seat {
	return &Seat{
		ID:        id,
		SectionID: sectionID,
		Row:       row,
		Number:    number,
		Status:    SeatStatusAvailable,
	}
}

// Label returns the row/number label, e.g. "A12"
func (s *Seat) Label() string {
	return s.Row + s.Number
}

// IsAvailable checks if the seat can be sold
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}

// IsReserved checks if the seat has been sold
func (s *Seat) IsReserved() bool {
	return s.Status == SeatStatusReserved
}

// IsLocked checks if the seat is held
func (s *Seat) IsLocked() bool {
	return s.Status == SeatStatusLocked
}

// Reserve marks the seat as sold
func (s *Seat) Reserve() error {
	if !s.IsAvailable() {
		return newError(ErrInvalidState, "Seat %s is not available (status: %s)", s.Label(), s.Status)
	}
	s.Status = SeatStatusReserved
	return nil
}

// Lock holds the seat without selling it
func (s *Seat) Lock() error {
	if !s.IsAvailable() {
		return newError(ErrInvalidState, "Seat %s cannot be locked (status: %s)", s.Label(), s.Status)
	}
	s.Status = SeatStatusLocked
	return nil
}

// Release frees a locked seat
func (s *Seat) Release() error {
	if !s.IsLocked() {
		return newError(ErrInvalidState, "Seat %s cannot be released because it is not locked (status: %s)", s.Label(), s.Status)
	}
	s.Status = SeatStatusAvailable
	return nil
}

// unreserve reverts a sale. Only compensation after a failed payment may call it.
func (s *Seat) unreserve() error {
	if !s.IsReserved() {
		return newError(ErrInvalidState, "Seat %s cannot be unreserved because it is not reserved (status: %s)", s.Label(), s.Status)
	}
	s.Status = SeatStatusAvailable
	return nil
}
