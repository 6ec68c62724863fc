package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vozclinica/voice-booking/internal/redisclient"
)

var (
	ErrSlotTaken       = errors.New("slot already has an appointment")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Writer creates appointments: it upserts the patient, computes the end
// time from the appointment type, and persists the booking with status
// "scheduled".
type Writer struct {
	repo   Repository
	locker redisclient.Locker
	logger *zap.Logger
}

func NewWriter(repo Repository, locker redisclient.Locker, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		repo:   repo,
		locker: locker,
		logger: logger,
	}
}

// Book reserves the given start instant for the patient. The overlap
// re-check and the insert run inside a distributed lock keyed by
// (provider, start) so concurrent bookings for the same window cannot both
// pass the conflict check.
func (w *Writer) Book(ctx context.Context, clinicID uuid.UUID, fullName, phone string, providerID, typeID uuid.UUID, start time.Time) (*Appointment, error) {
	duration, err := w.repo.TypeDuration(ctx, clinicID, typeID)
	if err != nil {
		if errors.Is(err, ErrAppointmentTypeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment type: %w", err)
	}
	end := start.Add(duration)

	patient, err := w.repo.UpsertPatient(ctx, clinicID, fullName, phone)
	if err != nil {
		return nil, fmt.Errorf("upsert patient: %w", err)
	}

	var created *Appointment

	err = w.locker.WithBookingLock(ctx, providerID, start, func(lockCtx context.Context) error {
		taken, err := w.repo.HasOverlap(lockCtx, providerID, start, end)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		appt, err := w.repo.CreateScheduled(lockCtx, clinicID, patient.ID, providerID, typeID, start, end)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	w.logger.Info("appointment booked",
		zap.String("clinic_id", clinicID.String()),
		zap.String("appointment_id", created.ID.String()),
		zap.String("provider_id", providerID.String()),
		zap.Time("start", created.StartTime),
	)

	return created, nil
}
