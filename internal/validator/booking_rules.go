package validator

import (
	"strings"
	"time"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// DefaultMaxTicketsPerUser is the per-event ticket cap
const DefaultMaxTicketsPerUser = 4

// BookingContext is the subject of booking-time rules
type BookingContext struct {
	User    *domain.User
	Event   domain.Event
	Request *domain.ReservationRequest
}

// BookingRule is a booking-time rule
type BookingRule = Rule[*BookingContext]

// UserTicketLimitValidator caps the tickets one user may hold for one event.
// Refunded bookings do not count. General admission bookings count only when CountGeneralAdmission is set.
type UserTicketLimitValidator struct {
	MaxTickets            int
	CountGeneralAdmission bool
}

// NewUserTicketLimitValidator creates the limit rule with defaults applied
func NewUserTicketLimitValidator(maxTickets int, countGeneralAdmission bool) *UserTicketLimitValidator {
	if maxTickets <= 0 {
		maxTickets = DefaultMaxTicketsPerUser
	}
	return &UserTicketLimitValidator{MaxTickets: maxTickets, CountGeneralAdmission: countGeneralAdmission}
}

func (v *UserTicketLimitValidator) Validate(ctx *BookingContext) error {
	if ctx.User == nil || ctx.Event == nil || ctx.Request == nil {
		return nil
	}
	held := 0
	for _, b := range ctx.User.BookingsForEvent(ctx.Event.Info().ID) {
		if b.Type == domain.BookingTypeGeneralAdmission && !v.CountGeneralAdmission {
			continue
		}
		held += b.TicketQuantity()
	}
	if held+ctx.Request.Quantity > v.MaxTickets {
		return domain.NewError(domain.ErrRuleViolation,
			"Booking limit exceeded. Maximum %d tickets per event, you already have %d", v.MaxTickets, held)
	}
	return nil
}

// EventAvailabilityValidator rejects events that have started or are sold out
type EventAvailabilityValidator struct {
	Now func() time.Time
}

// NewEventAvailabilityValidator creates the rule using the wall clock
func NewEventAvailabilityValidator() *EventAvailabilityValidator {
	return &EventAvailabilityValidator{Now: time.Now}
}

func (v *EventAvailabilityValidator) Validate(ctx *BookingContext) error {
	if ctx.Event == nil {
		return nil
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	info := ctx.Event.Info()
	if info.HasStarted(now()) {
		return domain.NewError(domain.ErrRuleViolation, "Cannot book tickets for event '%s' that has already started", info.Name)
	}
	if ctx.Event.IsSoldOut() {
		return domain.NewError(domain.ErrRuleViolation, "Event '%s' is sold out", info.Name)
	}
	return nil
}

// RequiredFieldsValidator checks that user, event and request are present
type RequiredFieldsValidator struct{}

func (v *RequiredFieldsValidator) Validate(ctx *BookingContext) error {
	var missing []string
	if ctx.User == nil {
		missing = append(missing, "user")
	}
	if ctx.Event == nil {
		missing = append(missing, "event")
	}
	if ctx.Request == nil {
		missing = append(missing, "reservation request")
	}
	if len(missing) > 0 {
		return domain.NewError(domain.ErrInvalidArgument, "Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// QuantityRangeValidator bounds the requested quantity, both ends inclusive
type QuantityRangeValidator struct {
	Min int
	Max int
}

// NewQuantityRangeValidator creates the rule, defaulting to 1..10
func NewQuantityRangeValidator(min, max int) *QuantityRangeValidator {
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 10
	}
	return &QuantityRangeValidator{Min: min, Max: max}
}

func (v *QuantityRangeValidator) Validate(ctx *BookingContext) error {
	if ctx.Request == nil {
		return nil
	}
	return quantityInRange(ctx.Request.Quantity, v.Min, v.Max)
}

func quantityInRange(q, min, max int) error {
	if q < min || q > max {
		return domain.NewError(domain.ErrInvalidArgument, "Quantity must be between %d and %d", min, max)
	}
	return nil
}

// BookingRulesConfig configures DefaultBookingChain
type BookingRulesConfig struct {
	MaxTicketsPerUser     int
	CountGeneralAdmission bool
	MinQuantity           int
	MaxQuantity           int
	Now                   func() time.Time
}

// DefaultBookingChain builds the standard booking-time rule chain
func DefaultBookingChain(cfg BookingRulesConfig) *Chain[*BookingContext] {
	availability := NewEventAvailabilityValidator()
	if cfg.Now != nil {
		availability.Now = cfg.Now
	}
	return NewChain[*BookingContext](
		&RequiredFieldsValidator{},
		NewQuantityRangeValidator(cfg.MinQuantity, cfg.MaxQuantity),
		availability,
		NewUserTicketLimitValidator(cfg.MaxTicketsPerUser, cfg.CountGeneralAdmission),
	)
}
