package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// exclusionViolation is the SQLSTATE raised by events_no_venue_overlap
const exclusionViolation = "23P01"

const eventColumns = `
	id, venue_id, kind, name, start_time, end_time, estimated_attendance,
	capacity_override, capacity, attendees, ticket_price, version`

type postgresEventRepository struct {
	pool *pgxpool.Pool
}

type eventRow struct {
	base        domain.EventBase
	kind        string
	capacity    int
	attendees   int
	ticketPrice float64
}

func scanEventRow(row pgx.Row) (*eventRow, error) {
	r := &eventRow{}
	err := row.Scan(
		&r.base.ID,
		&r.base.VenueID,
		&r.kind,
		&r.base.Name,
		&r.base.StartTime,
		&r.base.EndTime,
		&r.base.EstimatedAttendance,
		&r.base.CapacityOverride,
		&r.capacity,
		&r.attendees,
		&r.ticketPrice,
		&r.base.Version,
	)
	return r, err
}

// loadEvent reads an event and its sections or seats
func loadEvent(ctx context.Context, q querier, id int64) (domain.Event, error) {
	row, err := scanEventRow(q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("Event", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return buildEvent(ctx, q, row)
}

func buildEvent(ctx context.Context, q querier, row *eventRow) (domain.Event, error) {
	switch domain.EventKind(row.kind) {
	case domain.EventKindGeneralAdmission:
		return &domain.GeneralAdmissionEvent{
			EventBase:   row.base,
			Capacity:    row.capacity,
			Attendees:   row.attendees,
			TicketPrice: row.ticketPrice,
		}, nil
	case domain.EventKindSectionBased:
		sections, err := loadSections(ctx, q, row.base.ID)
		if err != nil {
			return nil, err
		}
		return domain.NewSectionBasedEvent(row.base, sections...)
	case domain.EventKindReservedSeating:
		seats, err := loadSeats(ctx, q, row.base.ID)
		if err != nil {
			return nil, err
		}
		return domain.NewReservedSeatingEvent(row.base, seats...)
	}
	return nil, fmt.Errorf("event %d has unknown kind %q", row.base.ID, row.kind)
}

func loadSections(ctx context.Context, q querier, eventID int64) ([]*domain.SectionInventory, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_id, section_id, name, capacity, booked, price, allocation_mode
		FROM event_sections
		WHERE event_id = $1
		ORDER BY id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []*domain.SectionInventory
	for rows.Next() {
		s := &domain.SectionInventory{}
		var mode string
		if err := rows.Scan(&s.ID, &s.EventID, &s.SectionID, &s.Name, &s.Capacity, &s.Booked, &s.Price, &mode); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		s.AllocationMode = domain.AllocationMode(mode)
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func loadSeats(ctx context.Context, q querier, eventID int64) ([]*domain.Seat, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_id, section_id, row_label, seat_number, status
		FROM seats
		WHERE event_id = $1
		ORDER BY id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seats: %w", err)
	}
	defer rows.Close()

	var seats []*domain.Seat
	for rows.Next() {
		s := &domain.Seat{}
		var status string
		if err := rows.Scan(&s.ID, &s.EventID, &s.SectionID, &s.Row, &s.Number, &status); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		s.Status = domain.SeatStatus(status)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// GetByID loads an event with its full capacity detail
func (r *postgresEventRepository) GetByID(ctx context.Context, id int64) (domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", id))

	event, err := loadEvent(ctx, r.pool, id)
	if err != nil {
		if domain.IsNotFoundError(err) {
			span.SetStatus(codes.Error, "not found")
		} else {
			spanError(span, err)
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// Create inserts the event and its sections or seats in one transaction
func (r *postgresEventRepository) Create(ctx context.Context, event domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	info := event.Info()
	span.SetAttributes(
		attribute.Int64("venue_id", info.VenueID),
		attribute.String("kind", string(event.Kind())),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cols := counterColumns(event)

	err = tx.QueryRow(ctx, `
		INSERT INTO events (
			venue_id, kind, name, start_time, end_time, estimated_attendance,
			capacity_override, capacity, attendees, ticket_price, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		RETURNING id
	`,
		info.VenueID,
		string(event.Kind()),
		info.Name,
		info.StartTime,
		info.EndTime,
		info.EstimatedAttendance,
		info.CapacityOverride,
		cols.capacity,
		cols.attendees,
		cols.ticketPrice,
	).Scan(&info.ID)
	if err != nil {
		spanError(span, err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return domain.NewError(domain.ErrRuleViolation, "Event time conflicts with an existing event at venue %d", info.VenueID)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	info.Version = 1

	batch := &pgx.Batch{}
	domain.SwitchEvent(event,
		func(*domain.GeneralAdmissionEvent) struct{} { return struct{}{} },
		func(sb *domain.SectionBasedEvent) struct{} {
			for _, s := range sb.Sections() {
				s.EventID = info.ID
				batch.Queue(`
					INSERT INTO event_sections (event_id, section_id, name, capacity, booked, price, allocation_mode)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					RETURNING id
				`, info.ID, s.SectionID, s.Name, s.Capacity, s.Booked, s.Price, string(s.AllocationMode)).
					QueryRow(func(row pgx.Row) error { return row.Scan(&s.ID) })
			}
			return struct{}{}
		},
		func(rs *domain.ReservedSeatingEvent) struct{} {
			for _, s := range rs.Seats() {
				s.EventID = info.ID
				batch.Queue(`
					INSERT INTO seats (id, event_id, section_id, row_label, seat_number, status)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, s.ID, info.ID, s.SectionID, s.Row, s.Number, string(s.Status))
			}
			return struct{}{}
		},
	)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			spanError(span, err)
			return fmt.Errorf("failed to insert event inventory: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		spanError(span, err)
		return fmt.Errorf("failed to commit event: %w", err)
	}

	span.SetAttributes(attribute.Int64("event_id", info.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// gaColumns are the events columns only general admission uses; other kinds store zeros
type gaColumns struct {
	capacity    int
	attendees   int
	ticketPrice float64
}

func counterColumns(event domain.Event) gaColumns {
	return domain.SwitchEvent(event,
		func(ga *domain.GeneralAdmissionEvent) gaColumns {
			return gaColumns{capacity: ga.Capacity, attendees: ga.Attendees, ticketPrice: ga.TicketPrice}
		},
		func(*domain.SectionBasedEvent) gaColumns { return gaColumns{} },
		func(*domain.ReservedSeatingEvent) gaColumns { return gaColumns{} },
	)
}
