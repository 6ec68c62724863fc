package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func NewPgRepositoryWithQuerier(q Querier) *PgRepository {
	return &PgRepository{pool: q}
}

// Helpers

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider

	err := row.Scan(
		&p.ID,
		&p.ClinicID,
		&p.Name,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointmentType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType

	err := row.Scan(
		&t.ID,
		&t.ClinicID,
		&t.Code,
		&t.DurationMinutes,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentTypeNotFound
		}
		return nil, err
	}

	return &t, nil
}

// Interface methods

func (r *PgRepository) GetAppointmentType(ctx context.Context, clinicID, typeID uuid.UUID) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, code, duration_minutes, created_at
		FROM appointment_types
		WHERE id = $1 AND clinic_id = $2
	`, typeID, clinicID)
	return scanAppointmentType(row)
}

func (r *PgRepository) FirstAppointmentType(ctx context.Context, clinicID uuid.UUID) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, code, duration_minutes, created_at
		FROM appointment_types
		WHERE clinic_id = $1
		ORDER BY created_at, id
		LIMIT 1
	`, clinicID)
	return scanAppointmentType(row)
}

func (r *PgRepository) FirstProvider(ctx context.Context, clinicID uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, name, created_at
		FROM providers
		WHERE clinic_id = $1
		ORDER BY created_at, id
		LIMIT 1
	`, clinicID)
	return scanProvider(row)
}

func (r *PgRepository) ListProviders(ctx context.Context, clinicID uuid.UUID) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, name, created_at
		FROM providers
		WHERE clinic_id = $1
		ORDER BY created_at, id
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListRulesForDay(ctx context.Context, providerID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, day_of_week, start_hhmm, end_hhmm, slot_minutes
		FROM availability_rules
		WHERE provider_id = $1 AND day_of_week = $2
		ORDER BY start_hhmm
	`, providerID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityRule
	for rows.Next() {
		var rule AvailabilityRule
		err := rows.Scan(
			&rule.ID,
			&rule.ProviderID,
			&rule.DayOfWeek,
			&rule.StartHHMM,
			&rule.EndHHMM,
			&rule.SlotMinutes,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListBusyIntervals(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE provider_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		  AND status != 'cancelled'
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
