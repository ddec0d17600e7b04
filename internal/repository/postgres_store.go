package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements the repositories on PostgreSQL with pgxpool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Users returns a UserRepository backed by PostgreSQL
func (s *PostgresStore) Users() UserRepository { return &postgresUserRepository{pool: s.pool} }

// Events returns an EventRepository backed by PostgreSQL
func (s *PostgresStore) Events() EventRepository { return &postgresEventRepository{pool: s.pool} }

// Venues returns a VenueRepository backed by PostgreSQL
func (s *PostgresStore) Venues() VenueRepository { return &postgresVenueRepository{pool: s.pool} }

// Bookings returns a BookingRepository backed by PostgreSQL
func (s *PostgresStore) Bookings() BookingRepository { return &postgresBookingRepository{pool: s.pool} }

func spanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
