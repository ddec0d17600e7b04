package domain

import (
	"time"
)

// EventKind identifies the allocation scheme of an event
type EventKind string

const (
	EventKindGeneralAdmission EventKind = "general_admission"
	EventKindSectionBased     EventKind = "section_based"
	EventKindReservedSeating  EventKind = "reserved_seating"
)

// IsValid checks if the kind is a valid EventKind
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindGeneralAdmission, EventKindSectionBased, EventKindReservedSeating:
		return true
	}
	return false
}

// EventBase holds the fields shared by every event variant
type EventBase struct {
	ID                  int64     `json:"id"`
	VenueID             int64     `json:"venue_id"`
	Name                string    `json:"name"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	EstimatedAttendance int       `json:"estimated_attendance"`
	CapacityOverride    *int      `json:"capacity_override,omitempty"`

	// Version is the persisted revision; the persistence sink rejects stale writes.
	Version int64 `json:"version"`
}

// Info returns the shared fields
func (b *EventBase) Info() *EventBase {
	return b
}

// HasStarted reports whether the event has started at t
func (b *EventBase) HasStarted(t time.Time) bool {
	return !t.Before(b.StartTime)
}

// Overlaps reports strict interval overlap of [StartTime, EndTime) with [start, end)
func (b *EventBase) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && b.StartTime.Before(end)
}

// Event is the capacity contract every variant implements.
// The set of variants is closed; dispatch with SwitchEvent.
type Event interface {
	Info() *EventBase
	Kind() EventKind
	TotalCapacity() int
	TotalReserved() int
	AvailableCapacity() int
	IsSoldOut() bool
	ValidateCapacity(quantity int) error

	sealed()
}

// SwitchEvent calls the arm matching the concrete variant of e.
// Every arm is a required parameter, so adding a variant breaks every dispatch site at compile time.
func SwitchEvent[R any](
	e Event,
	generalAdmission func(*GeneralAdmissionEvent) R,
	sectionBased func(*SectionBasedEvent) R,
	reservedSeating func(*ReservedSeatingEvent) R,
) R {
	switch ev := e.(type) {
	case *GeneralAdmissionEvent:
		return generalAdmission(ev)
	case *SectionBasedEvent:
		return sectionBased(ev)
	case *ReservedSeatingEvent:
		return reservedSeating(ev)
	}
	// unreachable: Event is sealed to the three variants above
	panic("domain: unknown event variant")
}

func availableCapacity(e Event) int {
	return e.TotalCapacity() - e.TotalReserved()
}

func validateCapacity(e Event, quantity int) error {
	if quantity <= 0 {
		return newError(ErrInvalidArgument, "Quantity must be positive")
	}
	if e.IsSoldOut() {
		return newError(ErrSoldOut, "Event '%s' is sold out", e.Info().Name)
	}
	if available := e.AvailableCapacity(); available < quantity {
		return newError(ErrCapacityExceeded, "Insufficient capacity. Requested: %d, Available: %d", quantity, available)
	}
	return nil
}
