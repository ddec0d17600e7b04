package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// MemoryStore keeps users, venues, events and bookings in memory.
// Loaded aggregates are copies; changes become visible only through SaveBooking or Create.
type MemoryStore struct {
	users       map[int64]*domain.User
	venues      map[int64]*domain.Venue
	events      map[int64]domain.Event
	bookings    map[string]*domain.Booking
	nextEventID int64
	mu          sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*domain.User),
		venues:   make(map[int64]*domain.Venue),
		events:   make(map[int64]domain.Event),
		bookings: make(map[string]*domain.Booking),
	}
}

// PutUser stores a user; its Bookings field is ignored
func (s *MemoryStore) PutUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	u.Bookings = nil
	s.users[user.ID] = &u
}

// PutVenue stores a venue and its sections; its Events field is ignored
func (s *MemoryStore) PutVenue(venue *domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *venue
	v.Events = nil
	v.Sections = make([]*domain.VenueSection, 0, len(venue.Sections))
	for _, sec := range venue.Sections {
		cs := *sec
		cs.VenueID = venue.ID
		v.Sections = append(v.Sections, &cs)
	}
	s.venues[venue.ID] = &v
}

// PutEvent stores an event as-is, keeping its ID
func (s *MemoryStore) PutEvent(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := event.Info().ID
	if id > s.nextEventID {
		s.nextEventID = id
	}
	s.events[id] = domain.CloneEvent(event)
}

// PutBooking stores an existing booking
func (s *MemoryStore) PutBooking(booking *domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[booking.ID] = domain.CloneBooking(booking)
}

func (s *MemoryStore) bookingsWhere(match func(*domain.Booking) bool) []*domain.Booking {
	var result []*domain.Booking
	for _, b := range s.bookings {
		if match(b) {
			result = append(result, domain.CloneBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Users returns a UserRepository backed by the store
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepository{s} }

// Events returns an EventRepository backed by the store
func (s *MemoryStore) Events() EventRepository { return &memoryEventRepository{s} }

// Venues returns a VenueRepository backed by the store
func (s *MemoryStore) Venues() VenueRepository { return &memoryVenueRepository{s} }

// Bookings returns a BookingRepository backed by the store
func (s *MemoryStore) Bookings() BookingRepository { return &memoryBookingRepository{s} }

type memoryUserRepository struct{ s *MemoryStore }

func (r *memoryUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFound("User", id)
	}
	u := *user
	u.Bookings = r.s.bookingsWhere(func(b *domain.Booking) bool { return b.UserID == id })
	return &u, nil
}

type memoryEventRepository struct{ s *MemoryStore }

func (r *memoryEventRepository) GetByID(ctx context.Context, id int64) (domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	event, ok := r.s.events[id]
	if !ok {
		return nil, domain.NotFound("Event", id)
	}
	return domain.CloneEvent(event), nil
}

func (r *memoryEventRepository) Create(ctx context.Context, event domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	info := event.Info()
	if _, ok := r.s.venues[info.VenueID]; !ok {
		return domain.NotFound("Venue", info.VenueID)
	}
	r.s.nextEventID++
	info.ID = r.s.nextEventID
	info.Version = 1
	r.s.events[info.ID] = domain.CloneEvent(event)
	return nil
}

type memoryVenueRepository struct{ s *MemoryStore }

func (r *memoryVenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	venue, ok := r.s.venues[id]
	if !ok {
		return nil, domain.NotFound("Venue", id)
	}
	v := *venue
	v.Sections = make([]*domain.VenueSection, 0, len(venue.Sections))
	for _, sec := range venue.Sections {
		cs := *sec
		v.Sections = append(v.Sections, &cs)
	}
	v.Events = nil
	for _, e := range r.s.events {
		if e.Info().VenueID == id {
			v.Events = append(v.Events, domain.CloneEvent(e))
		}
	}
	sort.Slice(v.Events, func(i, j int) bool {
		return v.Events[i].Info().StartTime.Before(v.Events[j].Info().StartTime)
	})
	return &v, nil
}

type memoryBookingRepository struct{ s *MemoryStore }

func (r *memoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.NotFound("Booking", id)
	}
	return domain.CloneBooking(b), nil
}

func (r *memoryBookingRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.bookingsWhere(func(b *domain.Booking) bool {
		return b.UserID == userID && b.EventID == eventID
	}), nil
}

// SaveBooking implements BookingSink
func (s *MemoryStore) SaveBooking(ctx context.Context, booking *domain.Booking, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info := event.Info()
	stored, ok := s.events[info.ID]
	if !ok {
		return domain.NotFound("Event", info.ID)
	}
	if stored.Info().Version != info.Version {
		return domain.NewError(domain.ErrConcurrentModification,
			"Event %d was modified concurrently (expected version %d, found %d)", info.ID, info.Version, stored.Info().Version)
	}
	if _, exists := s.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	info.Version++
	s.events[info.ID] = domain.CloneEvent(event)
	s.bookings[booking.ID] = domain.CloneBooking(booking)
	return nil
}
