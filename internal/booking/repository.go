package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentTypeNotFound = errors.New("appointment type not found")
)

// Repository contains all DB interactions needed by the writer.
type Repository interface {
	// UpsertPatient dedupes by (clinic, phone), refreshing the stored name
	// when the patient already exists.
	UpsertPatient(ctx context.Context, clinicID uuid.UUID, fullName, phone string) (*Patient, error)

	TypeDuration(ctx context.Context, clinicID, typeID uuid.UUID) (time.Duration, error)

	// HasOverlap reports whether a non-cancelled appointment for the
	// provider intersects [start, end).
	HasOverlap(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error)

	CreateScheduled(ctx context.Context, clinicID, patientID, providerID, typeID uuid.UUID, start, end time.Time) (*Appointment, error)
}
