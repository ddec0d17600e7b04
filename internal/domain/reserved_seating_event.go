package domain

// ReservedSeatingEvent sells individually addressed seats
type ReservedSeatingEvent struct {
	EventBase
	seats []*Seat
}

// NewReservedSeatingEvent creates a reserved seating event; seat ids must be unique
func NewReservedSeatingEvent(base EventBase, seats ...*Seat) (*ReservedSeatingEvent, error) {
	e := &ReservedSeatingEvent{EventBase: base}
	for _, s := range seats {
		if err := e.AddSeat(s); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ReservedSeatingEvent) sealed() {}

// Kind returns EventKindReservedSeating
func (e *ReservedSeatingEvent) Kind() EventKind {
	return EventKindReservedSeating
}

// AddSeat appends a seat, keeping insertion order
func (e *ReservedSeatingEvent) AddSeat(seat *Seat) error {
	if seat == nil {
		return newError(ErrInvalidArgument, "Seat is required")
	}
	if _, ok := e.findSeat(seat.ID); ok {
		return newError(ErrInvalidArgument, "Seat %d already exists in event '%s'", seat.ID, e.Name)
	}
	seat.EventID = e.ID
	e.seats = append(e.seats, seat)
	return nil
}

// Seats returns all seats in order
func (e *ReservedSeatingEvent) Seats() []*Seat {
	return e.seats
}

// TotalCapacity returns the seat count
func (e *ReservedSeatingEvent) TotalCapacity() int {
	return len(e.seats)
}

// TotalReserved counts Reserved seats; Locked seats are not counted
func (e *ReservedSeatingEvent) TotalReserved() int {
	return len(e.seatsWithStatus(SeatStatusReserved))
}

// AvailableCapacity counts Available seats only; a Locked seat is neither available nor reserved
func (e *ReservedSeatingEvent) AvailableCapacity() int {
	return len(e.seatsWithStatus(SeatStatusAvailable))
}

// IsSoldOut reports whether no capacity is left
func (e *ReservedSeatingEvent) IsSoldOut() bool {
	return e.AvailableCapacity() <= 0
}

// ValidateCapacity checks event-wide capacity for quantity
func (e *ReservedSeatingEvent) ValidateCapacity(quantity int) error {
	return validateCapacity(e, quantity)
}

func (e *ReservedSeatingEvent) findSeat(seatID int64) (*Seat, bool) {
	for _, s := range e.seats {
		if s.ID == seatID {
			return s, true
		}
	}
	return nil, false
}

// GetSeat returns a seat by id
func (e *ReservedSeatingEvent) GetSeat(seatID int64) (*Seat, error) {
	s, ok := e.findSeat(seatID)
	if !ok {
		return nil, NotFound("Seat", seatID)
	}
	return s, nil
}

// ValidateSeatReservation checks that a seat exists and is available
func (e *ReservedSeatingEvent) ValidateSeatReservation(seatID int64) error {
	s, err := e.GetSeat(seatID)
	if err != nil {
		return err
	}
	if !s.IsAvailable() {
		return newError(ErrInvalidState, "Seat %s is not available (status: %s)", s.Label(), s.Status)
	}
	return nil
}

// ReserveSeat sells a seat
func (e *ReservedSeatingEvent) ReserveSeat(seatID int64) error {
	s, err := e.GetSeat(seatID)
	if err != nil {
		return err
	}
	return s.Reserve()
}

// LockSeat holds a seat
func (e *ReservedSeatingEvent) LockSeat(seatID int64) error {
	s, err := e.GetSeat(seatID)
	if err != nil {
		return err
	}
	return s.Lock()
}

// ReleaseSeat frees a locked seat
func (e *ReservedSeatingEvent) ReleaseSeat(seatID int64) error {
	s, err := e.GetSeat(seatID)
	if err != nil {
		return err
	}
	return s.Release()
}

func (e *ReservedSeatingEvent) seatsWithStatus(status SeatStatus) []*Seat {
	var result []*Seat
	for _, s := range e.seats {
		if s.Status == status {
			result = append(result, s)
		}
	}
	return result
}

// GetAvailableSeats returns all available seats
func (e *ReservedSeatingEvent) GetAvailableSeats() []*Seat {
	return e.seatsWithStatus(SeatStatusAvailable)
}

// GetReservedSeats returns all sold seats
func (e *ReservedSeatingEvent) GetReservedSeats() []*Seat {
	return e.seatsWithStatus(SeatStatusReserved)
}

// GetLockedSeats returns all held seats
func (e *ReservedSeatingEvent) GetLockedSeats() []*Seat {
	return e.seatsWithStatus(SeatStatusLocked)
}

// GetSeatsInSection returns the seats belonging to a section
func (e *ReservedSeatingEvent) GetSeatsInSection(sectionID int64) []*Seat {
	var result []*Seat
	for _, s := range e.seats {
		if s.SectionID == sectionID {
			result = append(result, s)
		}
	}
	return result
}

// GetAvailableSeatsInSection returns the available seats of a section
func (e *ReservedSeatingEvent) GetAvailableSeatsInSection(sectionID int64) []*Seat {
	var result []*Seat
	for _, s := range e.seats {
		if s.SectionID == sectionID && s.IsAvailable() {
			result = append(result, s)
		}
	}
	return result
}
