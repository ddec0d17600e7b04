package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

const bookingColumns = `
	id, user_id, event_id, booking_type, payment_status, total_amount,
	quantity, transaction_id, created_at, updated_at`

type postgresBookingRepository struct {
	pool *pgxpool.Pool
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	b := &domain.Booking{}
	var (
		bookingType   string
		paymentStatus string
		transactionID *string
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.EventID,
		&bookingType,
		&paymentStatus,
		&b.TotalAmount,
		&b.Quantity,
		&transactionID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Type = domain.BookingType(bookingType)
	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if transactionID != nil {
		b.TransactionID = *transactionID
	}
	b.Items = []*domain.BookingItem{}
	return b, nil
}

// loadBookings reads bookings matching where and attaches their items
func loadBookings(ctx context.Context, q querier, where string, args ...any) ([]*domain.Booking, error) {
	rows, err := q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}

	var (
		bookings []*domain.Booking
		ids      []string
		byID     = make(map[string]*domain.Booking)
	)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	if len(ids) == 0 {
		return bookings, nil
	}

	itemRows, err := q.Query(ctx, `
		SELECT id, booking_id, seat_id, section_inventory_id, quantity, unit_price
		FROM booking_items
		WHERE booking_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item := &domain.BookingItem{}
		if err := itemRows.Scan(&item.ID, &item.BookingID, &item.SeatID, &item.SectionInventoryID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		if b, ok := byID[item.BookingID]; ok {
			b.Items = append(b.Items, item)
		}
	}
	return bookings, itemRows.Err()
}

// GetByID retrieves a booking by its ID
func (r *postgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	bookings, err := loadBookings(ctx, r.pool, "id = $1", id)
	if err != nil {
		spanError(span, err)
		return nil, err
	}
	if len(bookings) == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.NotFound("Booking", id)
	}

	span.SetStatus(codes.Ok, "")
	return bookings[0], nil
}

// GetByUserAndEvent retrieves a user's bookings for one event
func (r *postgresBookingRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_user_and_event")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("event_id", eventID),
	)

	bookings, err := loadBookings(ctx, r.pool, "user_id = $1 AND event_id = $2", userID, eventID)
	if err != nil {
		spanError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// SaveBooking writes the booking, its items and the event's new counters in one transaction.
// The event row is updated only when its version still matches.
func (s *PostgresStore) SaveBooking(ctx context.Context, booking *domain.Booking, event domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.save")
	defer span.End()

	info := event.Info()
	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.Int64("event_id", info.ID),
		attribute.Int64("version", info.Version),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cols := counterColumns(event)
	tag, err := tx.Exec(ctx, `
		UPDATE events
		SET attendees = $2, version = version + 1
		WHERE id = $1 AND version = $3
	`, info.ID, cols.attendees, info.Version)
	if err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err := domain.NewError(domain.ErrConcurrentModification,
			"Event %d was modified concurrently (expected version %d)", info.ID, info.Version)
		spanError(span, err)
		return err
	}

	batch := &pgx.Batch{}
	queueInventoryUpdates(batch, event, booking)
	batch.Queue(`
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		booking.ID,
		booking.UserID,
		booking.EventID,
		string(booking.Type),
		string(booking.PaymentStatus),
		booking.TotalAmount,
		booking.Quantity,
		nullString(booking.TransactionID),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	for _, item := range booking.Items {
		batch.Queue(`
			INSERT INTO booking_items (id, booking_id, seat_id, section_inventory_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, booking.ID, item.SeatID, item.SectionInventoryID, item.Quantity, item.UnitPrice)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to write booking: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	info.Version++
	span.SetStatus(codes.Ok, "")
	return nil
}

// queueInventoryUpdates writes back the counters a booking touched
func queueInventoryUpdates(batch *pgx.Batch, event domain.Event, booking *domain.Booking) {
	eventID := event.Info().ID
	domain.SwitchEvent(event,
		func(*domain.GeneralAdmissionEvent) struct{} {
			return struct{}{}
		},
		func(sb *domain.SectionBasedEvent) struct{} {
			for _, item := range booking.Items {
				if item.SectionInventoryID == nil {
					continue
				}
				section, err := sb.GetSection(*item.SectionInventoryID)
				if err != nil {
					continue
				}
				batch.Queue(`UPDATE event_sections SET booked = $3 WHERE event_id = $1 AND section_id = $2`,
					eventID, section.SectionID, section.Booked)
			}
			return struct{}{}
		},
		func(rs *domain.ReservedSeatingEvent) struct{} {
			for _, item := range booking.Items {
				if item.SeatID == nil {
					continue
				}
				seat, err := rs.GetSeat(*item.SeatID)
				if err != nil {
					continue
				}
				batch.Queue(`UPDATE seats SET status = $3 WHERE event_id = $1 AND id = $2`,
					eventID, seat.ID, string(seat.Status))
			}
			return struct{}{}
		},
	)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// GetByID loads a user with all their bookings
func (r *postgresUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", id))

	user := &domain.User{}
	err := r.pool.QueryRow(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.NotFound("User", id)
		}
		spanError(span, err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Bookings, err = loadBookings(ctx, r.pool, "user_id = $1", id)
	if err != nil {
		spanError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

type postgresVenueRepository struct {
	pool *pgxpool.Pool
}

// GetByID loads a venue with its sections and scheduled events
func (r *postgresVenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.venue.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("venue_id", id))

	venue := &domain.Venue{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, address FROM venues WHERE id = $1`, id).
		Scan(&venue.ID, &venue.Name, &venue.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.NotFound("Venue", id)
		}
		spanError(span, err)
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT id, venue_id, name, capacity FROM venue_sections WHERE venue_id = $1 ORDER BY id`, id)
	if err != nil {
		spanError(span, err)
		return nil, fmt.Errorf("failed to query venue sections: %w", err)
	}
	for rows.Next() {
		s := &domain.VenueSection{}
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Name, &s.Capacity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan venue section: %w", err)
		}
		venue.Sections = append(venue.Sections, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venue sections: %w", err)
	}

	eventRows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE venue_id = $1 ORDER BY start_time`, id)
	if err != nil {
		spanError(span, err)
		return nil, fmt.Errorf("failed to query venue events: %w", err)
	}
	var headers []*eventRow
	for eventRows.Next() {
		row, err := scanEventRow(eventRows)
		if err != nil {
			eventRows.Close()
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		headers = append(headers, row)
	}
	eventRows.Close()
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venue events: %w", err)
	}

	for _, h := range headers {
		event, err := buildEvent(ctx, r.pool, h)
		if err != nil {
			spanError(span, err)
			return nil, err
		}
		venue.Events = append(venue.Events, event)
	}

	span.SetStatus(codes.Ok, "")
	return venue, nil
}
