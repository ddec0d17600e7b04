package service

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/reservation"
	"github.com/prohmpiriya/event-inventory/internal/validator"
)

// BookingService builds bookings from validated reservations
type BookingService interface {
	// ValidateBooking runs event capacity, strategy and booking rule checks without mutating anything
	ValidateBooking(user *domain.User, event domain.Event, req *domain.ReservationRequest) error

	// CreateBooking validates, reserves capacity on event and returns the pending booking
	CreateBooking(user *domain.User, event domain.Event, req *domain.ReservationRequest) (*domain.Booking, error)
}

type bookingService struct {
	rules  *validator.Chain[*validator.BookingContext]
	pricer SeatPricer
}

// BookingServiceConfig contains configuration for booking service
type BookingServiceConfig struct {
	Rules      *validator.Chain[*validator.BookingContext]
	SeatPricer SeatPricer
}

// NewBookingService creates a new booking service
func NewBookingService(cfg *BookingServiceConfig) BookingService {
	s := &bookingService{
		rules:  validator.DefaultBookingChain(validator.BookingRulesConfig{CountGeneralAdmission: true}),
		pricer: ZeroSeatPricer{},
	}
	if cfg != nil {
		if cfg.Rules != nil {
			s.rules = cfg.Rules
		}
		if cfg.SeatPricer != nil {
			s.pricer = cfg.SeatPricer
		}
	}
	return s
}

func (s *bookingService) ValidateBooking(user *domain.User, event domain.Event, req *domain.ReservationRequest) error {
	if user == nil || event == nil || req == nil {
		return domain.NewError(domain.ErrInvalidOperation, "User, event and reservation request are required")
	}
	if err := event.ValidateCapacity(req.Quantity); err != nil {
		return domain.WrapError(domain.ErrInvalidOperation, err)
	}
	if err := reservation.For(event).ValidateReservation(event, req); err != nil {
		return domain.WrapError(domain.ErrInvalidOperation, err)
	}
	if err := s.rules.Validate(&validator.BookingContext{User: user, Event: event, Request: req}); err != nil {
		return domain.WrapError(domain.ErrInvalidOperation, err)
	}
	return nil
}

func (s *bookingService) CreateBooking(user *domain.User, event domain.Event, req *domain.ReservationRequest) (*domain.Booking, error) {
	if err := s.ValidateBooking(user, event, req); err != nil {
		return nil, err
	}

	// built before reserving so a construction failure leaves the event untouched
	booking, err := s.buildBooking(user, event, req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidOperation, err)
	}
	if err := reservation.For(event).Reserve(event, req); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidOperation, err)
	}
	return booking, nil
}

type priced struct {
	total float64
	items []*domain.BookingItem
	err   error
}

func (s *bookingService) buildBooking(user *domain.User, event domain.Event, req *domain.ReservationRequest) (*domain.Booking, error) {
	p := domain.SwitchEvent(event,
		func(ga *domain.GeneralAdmissionEvent) priced {
			return priced{total: ga.TicketPrice * float64(req.Quantity)}
		},
		func(sb *domain.SectionBasedEvent) priced {
			section, err := sb.GetSection(*req.SectionID)
			if err != nil {
				return priced{err: err}
			}
			unit := section.UnitPrice()
			return priced{
				total: unit * float64(req.Quantity),
				items: []*domain.BookingItem{domain.NewSectionItem(section.SectionID, req.Quantity, unit)},
			}
		},
		func(rs *domain.ReservedSeatingEvent) priced {
			seat, err := rs.GetSeat(*req.SeatID)
			if err != nil {
				return priced{err: err}
			}
			unit := s.pricer.PriceSeat(rs, seat)
			return priced{
				total: unit,
				items: []*domain.BookingItem{domain.NewSeatItem(seat.ID, unit)},
			}
		},
	)
	if p.err != nil {
		return nil, p.err
	}
	return domain.NewBooking(user.ID, event.Info().ID, domain.BookingTypeOf(event), req.Quantity, p.total, p.items...)
}
