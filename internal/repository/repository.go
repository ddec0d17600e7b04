package repository

import (
	"context"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// UserRepository loads users together with their bookings
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// EventRepository loads and creates events with their full capacity detail
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Event, error)
	// Create stores a new event and assigns its ID
	Create(ctx context.Context, event domain.Event) error
}

// VenueRepository loads venues with their sections and scheduled events
type VenueRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
}

// BookingRepository reads stored bookings
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByUserAndEvent(ctx context.Context, userID, eventID int64) ([]*domain.Booking, error)
}

// BookingSink stores a new booking and the event it changed as one unit.
// The event's Version must match the stored one, otherwise ErrConcurrentModification is returned
// and nothing is written. On success the event's Version is incremented.
type BookingSink interface {
	SaveBooking(ctx context.Context, booking *domain.Booking, event domain.Event) error
}
