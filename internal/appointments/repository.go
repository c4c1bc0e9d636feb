package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound is returned when no appointment matches the lookup.
var ErrNotFound = errors.New("appointments: not found")

// Repository persists appointments in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Insert stores a new appointment row.
func (r *Repository) Insert(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, reference_id, owner_name, pet_name, phone, date, time_of_day, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		appt.ID, appt.ReferenceID, appt.OwnerName, appt.PetName,
		appt.Phone, appt.Date, appt.TimeOfDay, appt.Notes, appt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByReference loads an appointment by its booking reference.
func (r *Repository) GetByReference(ctx context.Context, referenceID string) (*Appointment, error) {
	query := `
		SELECT id, reference_id, owner_name, pet_name, phone, date, time_of_day, notes, created_at
		FROM appointments
		WHERE reference_id = $1
	`
	var appt Appointment
	err := r.pool.QueryRow(ctx, query, referenceID).Scan(
		&appt.ID, &appt.ReferenceID, &appt.OwnerName, &appt.PetName,
		&appt.Phone, &appt.Date, &appt.TimeOfDay, &appt.Notes, &appt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: load by reference: %w", err)
	}
	return &appt, nil
}

// ListByPhone returns the appointments booked under a phone number, most
// recent first.
func (r *Repository) ListByPhone(ctx context.Context, phone string, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, reference_id, owner_name, pet_name, phone, date, time_of_day, notes, created_at
		FROM appointments
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by phone: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID, &appt.ReferenceID, &appt.OwnerName, &appt.PetName,
			&appt.Phone, &appt.Date, &appt.TimeOfDay, &appt.Notes, &appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan row: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate rows: %w", err)
	}
	return out, nil
}
