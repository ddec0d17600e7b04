package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/internal/validator"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// SchedulingService adds events to venues
type SchedulingService interface {
	// ScheduleEvent validates event against the venue and its other events, then stores it
	ScheduleEvent(ctx context.Context, venueID int64, event domain.Event) (domain.Event, error)
}

type schedulingService struct {
	venues repository.VenueRepository
	events repository.EventRepository
	rules  *validator.Chain[*validator.SchedulingContext]
	// venue locks keep the conflict check and the insert atomic per venue
	locks *EventLocker
}

// NewSchedulingService creates a new scheduling service; a nil chain uses the default scheduling rules
func NewSchedulingService(venues repository.VenueRepository, events repository.EventRepository, rules *validator.Chain[*validator.SchedulingContext]) SchedulingService {
	if rules == nil {
		rules = validator.DefaultSchedulingChain()
	}
	return &schedulingService{venues: venues, events: events, rules: rules, locks: NewEventLocker()}
}

func (s *schedulingService) ScheduleEvent(ctx context.Context, venueID int64, event domain.Event) (domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.scheduling.schedule_event")
	defer span.End()

	if event == nil {
		span.SetStatus(codes.Error, "event required")
		return nil, domain.NewError(domain.ErrInvalidArgument, "Event is required")
	}
	span.SetAttributes(
		attribute.Int64("venue_id", venueID),
		attribute.String("event_kind", string(event.Kind())),
	)

	unlock := s.locks.Lock(venueID)
	defer unlock()

	venue, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "venue not loaded")
		return nil, err
	}

	if err := s.rules.Validate(&validator.SchedulingContext{Venue: venue, Event: event}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	venue.AddEvent(event)
	if err := s.events.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store event")
		if domain.IsNotFoundError(err) || errors.Is(err, domain.ErrRuleViolation) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrPersistenceFailure, fmt.Errorf("failed to store event: %w", err))
	}

	span.SetAttributes(attribute.Int64("event_id", event.Info().ID))
	span.SetStatus(codes.Ok, "")
	return event, nil
}
