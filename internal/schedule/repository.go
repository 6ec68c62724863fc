package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound        = errors.New("provider not found")
	ErrAppointmentTypeNotFound = errors.New("appointment type not found")
)

// Repository contains all DB reads needed by the slot engine and the
// dialogue engine's default resolution.
type Repository interface {
	GetAppointmentType(ctx context.Context, clinicID, typeID uuid.UUID) (*AppointmentType, error)

	// Defaults: first row for a clinic in insertion order.
	FirstProvider(ctx context.Context, clinicID uuid.UUID) (*Provider, error)
	FirstAppointmentType(ctx context.Context, clinicID uuid.UUID) (*AppointmentType, error)

	// Doctor selection by ordinal position.
	ListProviders(ctx context.Context, clinicID uuid.UUID) ([]Provider, error)

	ListRulesForDay(ctx context.Context, providerID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error)

	// Busy windows from non-cancelled appointments starting within [from, to).
	ListBusyIntervals(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Interval, error)
}
