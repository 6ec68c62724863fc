package booking

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

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.ClinicID,
		&p.FullName,
		&p.Phone,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.PatientID,
		&a.ProviderID,
		&a.TypeID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) UpsertPatient(ctx context.Context, clinicID uuid.UUID, fullName, phone string) (*Patient, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, clinic_id, full_name, phone, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (clinic_id, phone)
		DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id, clinic_id, full_name, phone, created_at
	`, id, clinicID, fullName, phone)

	return scanPatient(row)
}

func (r *PgRepository) TypeDuration(ctx context.Context, clinicID, typeID uuid.UUID) (time.Duration, error) {
	var minutes int

	row := r.pool.QueryRow(ctx, `
		SELECT duration_minutes
		FROM appointment_types
		WHERE id = $1 AND clinic_id = $2
	`, typeID, clinicID)

	if err := row.Scan(&minutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAppointmentTypeNotFound
		}
		return 0, err
	}

	return time.Duration(minutes) * time.Minute, nil
}

func (r *PgRepository) HasOverlap(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool

	row := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE provider_id = $1
			  AND status != 'cancelled'
			  AND start_time < $3
			  AND end_time > $2
		)
	`, providerID, start, end)

	if err := row.Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *PgRepository) CreateScheduled(ctx context.Context, clinicID, patientID, providerID, typeID uuid.UUID, start, end time.Time) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, patient_id, provider_id, type_id, start_time, end_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled', now())
		RETURNING id, clinic_id, patient_id, provider_id, type_id, start_time, end_time, status, created_at
	`, id, clinicID, patientID, providerID, typeID, start, end)

	return scanAppointment(row)
}
