package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

func seededStore(t *testing.T) (*MemoryStore, *domain.SectionBasedEvent) {
	t.Helper()
	store := NewMemoryStore()
	store.PutUser(&domain.User{ID: 1, Email: "a@example.com"})
	store.PutVenue(&domain.Venue{ID: 1, Name: "Arena", Sections: []*domain.VenueSection{{ID: 1, Capacity: 100}}})

	section, err := domain.NewSectionInventory(1, "Floor", 100, nil)
	require.NoError(t, err)
	event, err := domain.NewSectionBasedEvent(domain.EventBase{
		ID:        5,
		VenueID:   1,
		Name:      "Concert",
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
		Version:   1,
	}, section)
	require.NoError(t, err)
	store.PutEvent(event)
	return store, event
}

func TestMemoryStore_LoadReturnsCopies(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	loaded, err := store.Events().GetByID(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, loaded.(*domain.SectionBasedEvent).ReserveInSection(1, 10))

	again, err := store.Events().GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TotalReserved())
}

func TestMemoryStore_SaveBooking(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	event, err := store.Events().GetByID(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, event.(*domain.SectionBasedEvent).ReserveInSection(1, 2))
	booking, err := domain.NewBooking(1, 5, domain.BookingTypeSection, 2, 0, domain.NewSectionItem(1, 2, 0))
	require.NoError(t, err)

	require.NoError(t, store.SaveBooking(ctx, booking, event))
	assert.Equal(t, int64(2), event.Info().Version)

	stored, err := store.Events().GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalReserved())

	user, err := store.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, user.Bookings, 1)
	assert.Equal(t, booking.ID, user.Bookings[0].ID)

	got, err := store.Bookings().GetByUserAndEvent(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStore_StaleVersionRejected(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	first, _ := store.Events().GetByID(ctx, 5)
	second, _ := store.Events().GetByID(ctx, 5)

	b1, _ := domain.NewBooking(1, 5, domain.BookingTypeSection, 1, 0, domain.NewSectionItem(1, 1, 0))
	b2, _ := domain.NewBooking(1, 5, domain.BookingTypeSection, 1, 0, domain.NewSectionItem(1, 1, 0))
	require.NoError(t, first.(*domain.SectionBasedEvent).ReserveInSection(1, 1))
	require.NoError(t, second.(*domain.SectionBasedEvent).ReserveInSection(1, 1))

	require.NoError(t, store.SaveBooking(ctx, b1, first))
	err := store.SaveBooking(ctx, b2, second)
	assert.True(t, errors.Is(err, domain.ErrConcurrentModification))

	_, err = store.Bookings().GetByID(ctx, b2.ID)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Users().GetByID(ctx, 1)
	assert.Equal(t, "User with ID 1 not found", err.Error())
	_, err = store.Events().GetByID(ctx, 2)
	assert.Equal(t, "Event with ID 2 not found", err.Error())
	_, err = store.Venues().GetByID(ctx, 3)
	assert.Equal(t, "Venue with ID 3 not found", err.Error())
}

func TestMemoryStore_CreateEvent(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	event := &domain.GeneralAdmissionEvent{EventBase: domain.EventBase{VenueID: 1, Name: "Talk"}, Capacity: 50}
	require.NoError(t, store.Events().Create(ctx, event))
	assert.Equal(t, int64(6), event.ID)
	assert.Equal(t, int64(1), event.Version)

	venue, err := store.Venues().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, venue.Events, 2)

	orphan := &domain.GeneralAdmissionEvent{EventBase: domain.EventBase{VenueID: 99}}
	assert.True(t, domain.IsNotFoundError(store.Events().Create(ctx, orphan)))
}
