package domain

// GeneralAdmissionEvent sells unassigned admission against a single attendee counter
type GeneralAdmissionEvent struct {
	EventBase
	Capacity    int     `json:"capacity"`
	Attendees   int     `json:"attendees"`
	TicketPrice float64 `json:"ticket_price"`
}

func (e *GeneralAdmissionEvent) sealed() {}

// Kind returns EventKindGeneralAdmission
func (e *GeneralAdmissionEvent) Kind() EventKind {
	return EventKindGeneralAdmission
}

// TotalCapacity returns the override when set, else Capacity
func (e *GeneralAdmissionEvent) TotalCapacity() int {
	if e.CapacityOverride != nil {
		return *e.CapacityOverride
	}
	return e.Capacity
}

// TotalReserved returns the attendee count
func (e *GeneralAdmissionEvent) TotalReserved() int {
	return e.Attendees
}

// AvailableCapacity returns TotalCapacity - TotalReserved
func (e *GeneralAdmissionEvent) AvailableCapacity() int {
	return availableCapacity(e)
}

// IsSoldOut reports whether no capacity is left
func (e *GeneralAdmissionEvent) IsSoldOut() bool {
	return e.AvailableCapacity() <= 0
}

// ValidateCapacity checks that quantity tickets could be sold
func (e *GeneralAdmissionEvent) ValidateCapacity(quantity int) error {
	return validateCapacity(e, quantity)
}

// ReserveTickets sells quantity tickets
func (e *GeneralAdmissionEvent) ReserveTickets(quantity int) error {
	if err := e.ValidateCapacity(quantity); err != nil {
		return err
	}
	e.Attendees += quantity
	return nil
}

// ReleaseTickets returns quantity tickets
func (e *GeneralAdmissionEvent) ReleaseTickets(quantity int) error {
	if quantity <= 0 {
		return newError(ErrInvalidArgument, "Quantity must be positive")
	}
	if quantity > e.Attendees {
		return newError(ErrInvalidState, "Cannot release more tickets than attending. Requested: %d, Attending: %d", quantity, e.Attendees)
	}
	e.Attendees -= quantity
	return nil
}
