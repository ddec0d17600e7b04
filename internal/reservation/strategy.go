package reservation

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// Strategy validates and applies a reservation for one event variant
type Strategy interface {
	// ValidateReservation checks the request without mutating the event
	ValidateReservation(event domain.Event, req *domain.ReservationRequest) error
	// Reserve re-validates and then mutates the event's capacity
	Reserve(event domain.Event, req *domain.ReservationRequest) error
}

var (
	generalAdmission = &GeneralAdmissionStrategy{}
	sectionBased     = &SectionStrategy{}
	reservedSeating  = &SeatStrategy{}
)

// For returns the strategy matching the concrete variant of event
func For(event domain.Event) Strategy {
	return domain.SwitchEvent(event,
		func(*domain.GeneralAdmissionEvent) Strategy { return generalAdmission },
		func(*domain.SectionBasedEvent) Strategy { return sectionBased },
		func(*domain.ReservedSeatingEvent) Strategy { return reservedSeating },
	)
}

func wrongVariant(want domain.EventKind, got domain.Event) error {
	return domain.NewError(domain.ErrInvalidArgument, "Expected %s event, got %s", want, got.Kind())
}

func requireRequest(req *domain.ReservationRequest) error {
	if req == nil {
		return domain.NewError(domain.ErrInvalidArgument, "Reservation request is required")
	}
	return nil
}

// GeneralAdmissionStrategy reserves against the attendee counter
type GeneralAdmissionStrategy struct{}

func (s *GeneralAdmissionStrategy) cast(event domain.Event) (*domain.GeneralAdmissionEvent, error) {
	ga, ok := event.(*domain.GeneralAdmissionEvent)
	if !ok {
		return nil, wrongVariant(domain.EventKindGeneralAdmission, event)
	}
	return ga, nil
}

func (s *GeneralAdmissionStrategy) ValidateReservation(event domain.Event, req *domain.ReservationRequest) error {
	if err := requireRequest(req); err != nil {
		return err
	}
	ga, err := s.cast(event)
	if err != nil {
		return err
	}
	return ga.ValidateCapacity(req.Quantity)
}

func (s *GeneralAdmissionStrategy) Reserve(event domain.Event, req *domain.ReservationRequest) error {
	if err := s.ValidateReservation(event, req); err != nil {
		return err
	}
	ga, _ := s.cast(event)
	return ga.ReserveTickets(req.Quantity)
}

// SectionStrategy reserves places in one section
type SectionStrategy struct{}

func (s *SectionStrategy) cast(event domain.Event) (*domain.SectionBasedEvent, error) {
	sb, ok := event.(*domain.SectionBasedEvent)
	if !ok {
		return nil, wrongVariant(domain.EventKindSectionBased, event)
	}
	return sb, nil
}

func (s *SectionStrategy) ValidateReservation(event domain.Event, req *domain.ReservationRequest) error {
	if err := requireRequest(req); err != nil {
		return err
	}
	sb, err := s.cast(event)
	if err != nil {
		return err
	}
	if req.SectionID == nil {
		return domain.NewError(domain.ErrInvalidArgument, "Section ID is required for section-based events")
	}
	return sb.ValidateSectionReservation(*req.SectionID, req.Quantity)
}

func (s *SectionStrategy) Reserve(event domain.Event, req *domain.ReservationRequest) error {
	if err := s.ValidateReservation(event, req); err != nil {
		return err
	}
	sb, _ := s.cast(event)
	return sb.ReserveInSection(*req.SectionID, req.Quantity)
}

// SeatStrategy reserves one specific seat
type SeatStrategy struct{}

func (s *SeatStrategy) cast(event domain.Event) (*domain.ReservedSeatingEvent, error) {
	rs, ok := event.(*domain.ReservedSeatingEvent)
	if !ok {
		return nil, wrongVariant(domain.EventKindReservedSeating, event)
	}
	return rs, nil
}

func (s *SeatStrategy) ValidateReservation(event domain.Event, req *domain.ReservationRequest) error {
	if err := requireRequest(req); err != nil {
		return err
	}
	rs, err := s.cast(event)
	if err != nil {
		return err
	}
	if req.SeatID == nil {
		return domain.NewError(domain.ErrInvalidArgument, "Seat ID is required for reserved seating events")
	}
	if req.Quantity != 1 {
		return domain.NewError(domain.ErrInvalidArgument, "Reserved seating bookings are for exactly one seat. Requested: %d", req.Quantity)
	}
	return rs.ValidateSeatReservation(*req.SeatID)
}

func (s *SeatStrategy) Reserve(event domain.Event, req *domain.ReservationRequest) error {
	if err := s.ValidateReservation(event, req); err != nil {
		return err
	}
	rs, _ := s.cast(event)
	return rs.ReserveSeat(*req.SeatID)
}
