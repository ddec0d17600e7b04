package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the table used by PostgresStore
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS saga_instances (
	id            UUID PRIMARY KEY,
	definition_id TEXT NOT NULL,
	status        TEXT NOT NULL,
	step_results  JSONB NOT NULL DEFAULT '[]',
	current_step  INT NOT NULL DEFAULT 0,
	pivot_passed  BOOLEAN NOT NULL DEFAULT FALSE,
	error         TEXT,
	labels        JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_saga_instances_status ON saga_instances (status, created_at);
CREATE INDEX IF NOT EXISTS idx_saga_instances_labels ON saga_instances USING GIN (labels);
`

const instanceColumns = `
	id, definition_id, status, step_results, current_step,
	pivot_passed, error, labels, created_at, updated_at, completed_at`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-based saga store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the saga table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to migrate saga schema: %w", err)
	}
	return nil
}

type instanceRecord struct {
	stepResults []byte
	labels      []byte
	errorMsg    *string
}

func encodeInstance(instance *Instance) (*instanceRecord, error) {
	instance.mu.RLock()
	defer instance.mu.RUnlock()

	stepResults, err := json.Marshal(instance.StepResults)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step results: %w", err)
	}
	labels, err := json.Marshal(instance.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal labels: %w", err)
	}

	rec := &instanceRecord{stepResults: stepResults, labels: labels}
	if instance.Error != "" {
		msg := instance.Error
		rec.errorMsg = &msg
	}
	return rec, nil
}

// Save persists a new saga instance
func (s *PostgresStore) Save(ctx context.Context, instance *Instance) error {
	rec, err := encodeInstance(instance)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO saga_instances (`+instanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		instance.ID,
		instance.DefinitionID,
		string(instance.GetStatus()),
		rec.stepResults,
		instance.CurrentStep,
		instance.PivotPassed,
		rec.errorMsg,
		rec.labels,
		instance.CreatedAt,
		instance.UpdatedAt,
		instance.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSagaAlreadyExists
		}
		return fmt.Errorf("failed to save saga instance: %w", err)
	}
	return nil
}

// Get retrieves a saga instance by ID
func (s *PostgresStore) Get(ctx context.Context, id string) (*Instance, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+instanceColumns+` FROM saga_instances WHERE id = $1`, id)
	instance, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSagaNotFound
		}
		return nil, err
	}
	return instance, nil
}

// Update updates an existing saga instance
func (s *PostgresStore) Update(ctx context.Context, instance *Instance) error {
	rec, err := encodeInstance(instance)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE saga_instances
		SET status = $2,
			step_results = $3,
			current_step = $4,
			pivot_passed = $5,
			error = $6,
			labels = $7,
			updated_at = $8,
			completed_at = $9
		WHERE id = $1
	`,
		instance.ID,
		string(instance.GetStatus()),
		rec.stepResults,
		instance.CurrentStep,
		instance.PivotPassed,
		rec.errorMsg,
		rec.labels,
		instance.UpdatedAt,
		instance.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update saga instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSagaNotFound
	}
	return nil
}

// GetByStatus retrieves saga instances by status
func (s *PostgresStore) GetByStatus(ctx context.Context, status Status, limit int) ([]*Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM saga_instances WHERE status = $1 ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to get sagas by status: %w", err)
	}
	return scanInstances(rows)
}

// GetByLabel retrieves saga instances by label using JSONB containment
func (s *PostgresStore) GetByLabel(ctx context.Context, key, value string, limit int) ([]*Instance, error) {
	filter, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal label filter: %w", err)
	}

	query := `SELECT ` + instanceColumns + ` FROM saga_instances WHERE labels @> $1 ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get sagas by label: %w", err)
	}
	return scanInstances(rows)
}

func scanInstance(row pgx.Row) (*Instance, error) {
	var (
		instance    Instance
		status      string
		stepResults []byte
		labels      []byte
		errorMsg    *string
	)

	err := row.Scan(
		&instance.ID,
		&instance.DefinitionID,
		&status,
		&stepResults,
		&instance.CurrentStep,
		&instance.PivotPassed,
		&errorMsg,
		&labels,
		&instance.CreatedAt,
		&instance.UpdatedAt,
		&instance.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	instance.Status = Status(status)
	if errorMsg != nil {
		instance.Error = *errorMsg
	}
	if err := json.Unmarshal(stepResults, &instance.StepResults); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step results: %w", err)
	}
	if err := json.Unmarshal(labels, &instance.Labels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal labels: %w", err)
	}
	return &instance, nil
}

func scanInstances(rows pgx.Rows) ([]*Instance, error) {
	defer rows.Close()

	var instances []*Instance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saga instance: %w", err)
		}
		instances = append(instances, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saga instances: %w", err)
	}
	return instances, nil
}
