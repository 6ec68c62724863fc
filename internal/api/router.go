package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vozclinica/voice-booking/internal/clinic"
	"github.com/vozclinica/voice-booking/internal/dialog"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

// DialogService is the conversation entry point; satisfied by dialog.Engine.
type DialogService interface {
	Start(ctx context.Context, clinicID uuid.UUID) (*dialog.Reply, error)
	Advance(ctx context.Context, clinicID, sessionID uuid.UUID, utterance string, d dialog.Defaults) (*dialog.Reply, error)
}

// SlotLister exposes the slot engine; satisfied by schedule.Engine.
type SlotLister interface {
	NextSlots(ctx context.Context, clinicID, providerID, typeID uuid.UUID, from time.Time, daysAhead, limit int) ([]schedule.Slot, error)
}

// ClinicStore resolves tenants; satisfied by clinic.PgStore.
type ClinicStore interface {
	GetBySlug(ctx context.Context, slug string) (*clinic.Clinic, error)
}

type RouterConfig struct {
	Dialog            DialogService
	Slots             SlotLister
	Directory         dialog.Directory
	Clinics           ClinicStore
	PgPool            *pgxpool.Pool
	Redis             *redis.Client
	Logger            *zap.Logger
	Env               string
	Version           string
	DefaultClinicSlug string
	SlotHorizonDays   int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(ClinicResolver(cfg.Clinics, cfg.DefaultClinicSlug, cfg.Logger))

		r.Post("/voice/start", startSessionHandler(cfg.Dialog))
		r.Post("/voice/message", messageHandler(cfg.Dialog))
		r.Get("/voice/slots", listSlotsHandler(cfg.Slots, cfg.Directory, cfg.SlotHorizonDays))
	})

	return r
}
