package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Patient struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	FullName  string
	Phone     string
	CreatedAt time.Time
}

type Appointment struct {
	ID         uuid.UUID
	ClinicID   uuid.UUID
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	TypeID     uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Status     AppointmentStatus
	CreatedAt  time.Time
}
