package schedule

import (
	"time"

	"github.com/google/uuid"
)

type Provider struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	Name      string
	CreatedAt time.Time
}

type AppointmentType struct {
	ID              uuid.UUID
	ClinicID        uuid.UUID
	Code            string // EVAL, PREOP, ...
	DurationMinutes int
	CreatedAt       time.Time
}

// AvailabilityRule is a recurring weekly open window for one provider.
// DayOfWeek is Monday-indexed: 0=Mon ... 6=Sun. Times are "HH:MM" strings.
type AvailabilityRule struct {
	ID          uuid.UUID
	ProviderID  uuid.UUID
	DayOfWeek   int
	StartHHMM   string
	EndHHMM     string
	SlotMinutes int
}

// Slot is a free candidate window for an appointment.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Interval is a busy window taken from an existing appointment.
type Interval struct {
	Start time.Time
	End   time.Time
}
