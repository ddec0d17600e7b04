package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func futureBase(id int64, name string) domain.EventBase {
	return domain.EventBase{
		ID:        id,
		VenueID:   1,
		Name:      name,
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(27 * time.Hour),
		Version:   1,
	}
}

func newSectionEvent(t *testing.T, id int64) *domain.SectionBasedEvent {
	t.Helper()
	floor, err := domain.NewSectionInventory(1, "Floor", 50, float64Ptr(100))
	require.NoError(t, err)
	balcony, err := domain.NewSectionInventory(2, "Balcony", 30, nil)
	require.NoError(t, err)
	event, err := domain.NewSectionBasedEvent(futureBase(id, "Concert"), floor, balcony)
	require.NoError(t, err)
	return event
}

func newGAEvent(id int64, capacity int) *domain.GeneralAdmissionEvent {
	return &domain.GeneralAdmissionEvent{
		EventBase:   futureBase(id, "Festival"),
		Capacity:    capacity,
		TicketPrice: 50,
	}
}

func newSeatEvent(t *testing.T, id int64) *domain.ReservedSeatingEvent {
	t.Helper()
	event, err := domain.NewReservedSeatingEvent(futureBase(id, "Theatre"),
		domain.NewSeat(101, 1, "A", "1"),
		domain.NewSeat(102, 1, "A", "2"),
	)
	require.NoError(t, err)
	return event
}

func TestBookingService_CreateSectionBooking(t *testing.T) {
	svc := NewBookingService(nil)
	event := newSectionEvent(t, 10)
	user := &domain.User{ID: 1}

	booking, err := svc.CreateBooking(user, event, domain.NewReservationRequest(3, int64Ptr(1), nil, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingTypeSection, booking.Type)
	assert.Equal(t, domain.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, 300.0, booking.TotalAmount)
	require.Len(t, booking.Items, 1)
	assert.Equal(t, int64(1), *booking.Items[0].SectionInventoryID)
	assert.Nil(t, booking.Items[0].SeatID)
	assert.Equal(t, 3, booking.Items[0].Quantity)
	assert.Equal(t, 3, event.TotalReserved())
}

func TestBookingService_UnpricedSectionIsFree(t *testing.T) {
	svc := NewBookingService(nil)
	event := newSectionEvent(t, 10)

	booking, err := svc.CreateBooking(&domain.User{ID: 1}, event, domain.NewReservationRequest(2, int64Ptr(2), nil, nil))
	require.NoError(t, err)
	assert.Zero(t, booking.TotalAmount)
}

func TestBookingService_CreateGeneralAdmissionBooking(t *testing.T) {
	svc := NewBookingService(nil)
	event := newGAEvent(11, 100)

	booking, err := svc.CreateBooking(&domain.User{ID: 1}, event, domain.NewReservationRequest(4, nil, nil, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingTypeGeneralAdmission, booking.Type)
	assert.Empty(t, booking.Items)
	assert.Equal(t, 200.0, booking.TotalAmount)
	assert.Equal(t, 4, booking.TicketQuantity())
	assert.Equal(t, 4, event.Attendees)
}

func TestBookingService_CreateSeatBooking(t *testing.T) {
	tests := []struct {
		name   string
		pricer SeatPricer
		want   float64
	}{
		{"zero pricer", nil, 0},
		{"flat pricer", NewSeatPricer(75), 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewBookingService(&BookingServiceConfig{SeatPricer: tt.pricer})
			event := newSeatEvent(t, 12)

			booking, err := svc.CreateBooking(&domain.User{ID: 1}, event, domain.NewReservationRequest(1, nil, int64Ptr(101), nil))
			require.NoError(t, err)

			assert.Equal(t, domain.BookingTypeSeat, booking.Type)
			assert.Equal(t, tt.want, booking.TotalAmount)
			require.Len(t, booking.Items, 1)
			assert.Equal(t, int64(101), *booking.Items[0].SeatID)
			assert.Equal(t, 1, booking.Items[0].Quantity)

			seat, err := event.GetSeat(101)
			require.NoError(t, err)
			assert.True(t, seat.IsReserved())
		})
	}
}

func TestBookingService_ValidateDoesNotMutate(t *testing.T) {
	svc := NewBookingService(nil)
	event := newSectionEvent(t, 10)
	user := &domain.User{ID: 1}
	req := domain.NewReservationRequest(2, int64Ptr(1), nil, nil)

	require.NoError(t, svc.ValidateBooking(user, event, req))
	require.NoError(t, svc.ValidateBooking(user, event, req))
	assert.Equal(t, 0, event.TotalReserved())
}

func TestBookingService_UserTicketLimit(t *testing.T) {
	svc := NewBookingService(nil)
	event := newSectionEvent(t, 10)

	previous, err := domain.NewBooking(1, 10, domain.BookingTypeSection, 3, 300, domain.NewSectionItem(1, 3, 100))
	require.NoError(t, err)
	require.NoError(t, previous.MarkPaid("txn_1"))
	user := &domain.User{ID: 1, Bookings: []*domain.Booking{previous}}

	_, err = svc.CreateBooking(user, event, domain.NewReservationRequest(2, int64Ptr(1), nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Booking limit exceeded")
	assert.Contains(t, err.Error(), "already have 3")
	assert.True(t, errors.Is(err, domain.ErrInvalidOperation))
	assert.True(t, errors.Is(err, domain.ErrRuleViolation))
	assert.Equal(t, 0, event.TotalReserved())
}

func TestBookingService_FailuresLeaveEventUntouched(t *testing.T) {
	tests := []struct {
		name    string
		event   func(t *testing.T) domain.Event
		req     *domain.ReservationRequest
		wantErr error
	}{
		{
			name:    "section capacity exceeded",
			event:   func(t *testing.T) domain.Event { return newSectionEvent(t, 10) },
			req:     domain.NewReservationRequest(31, int64Ptr(2), nil, nil),
			wantErr: domain.ErrCapacityExceeded,
		},
		{
			name:    "missing section id",
			event:   func(t *testing.T) domain.Event { return newSectionEvent(t, 10) },
			req:     domain.NewReservationRequest(1, nil, nil, nil),
			wantErr: domain.ErrInvalidArgument,
		},
		{
			name:    "unknown seat",
			event:   func(t *testing.T) domain.Event { return newSeatEvent(t, 12) },
			req:     domain.NewReservationRequest(1, nil, int64Ptr(999), nil),
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "general admission over capacity",
			event:   func(t *testing.T) domain.Event { return newGAEvent(11, 3) },
			req:     domain.NewReservationRequest(4, nil, nil, nil),
			wantErr: domain.ErrCapacityExceeded,
		},
	}

	svc := NewBookingService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := tt.event(t)
			_, err := svc.CreateBooking(&domain.User{ID: 1}, event, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, event.TotalReserved())
		})
	}
}

func TestBookingService_RequiresInputs(t *testing.T) {
	svc := NewBookingService(nil)
	_, err := svc.CreateBooking(nil, newGAEvent(11, 10), domain.NewReservationRequest(1, nil, nil, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}
