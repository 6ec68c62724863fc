package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vozclinica/voice-booking/internal/clinic"
	"github.com/vozclinica/voice-booking/internal/dialog"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

type fakeDialog struct {
	startReply   *dialog.Reply
	advanceReply *dialog.Reply
	advanceErr   error
	lastText     string
	lastSession  uuid.UUID
}

func (f *fakeDialog) Start(ctx context.Context, clinicID uuid.UUID) (*dialog.Reply, error) {
	return f.startReply, nil
}

func (f *fakeDialog) Advance(ctx context.Context, clinicID, sessionID uuid.UUID, utterance string, d dialog.Defaults) (*dialog.Reply, error) {
	f.lastText = utterance
	f.lastSession = sessionID
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	return f.advanceReply, nil
}

type fakeSlots struct {
	slots []schedule.Slot
}

func (f *fakeSlots) NextSlots(ctx context.Context, clinicID, providerID, typeID uuid.UUID, from time.Time, daysAhead, limit int) ([]schedule.Slot, error) {
	return f.slots, nil
}

type fakeDirectory struct {
	provider *schedule.Provider
	apptType *schedule.AppointmentType
}

func (f *fakeDirectory) FirstProvider(ctx context.Context, clinicID uuid.UUID) (*schedule.Provider, error) {
	if f.provider == nil {
		return nil, schedule.ErrProviderNotFound
	}
	return f.provider, nil
}

func (f *fakeDirectory) FirstAppointmentType(ctx context.Context, clinicID uuid.UUID) (*schedule.AppointmentType, error) {
	if f.apptType == nil {
		return nil, schedule.ErrAppointmentTypeNotFound
	}
	return f.apptType, nil
}

func (f *fakeDirectory) ListProviders(ctx context.Context, clinicID uuid.UUID) ([]schedule.Provider, error) {
	if f.provider == nil {
		return nil, nil
	}
	return []schedule.Provider{*f.provider}, nil
}

type fakeClinics struct {
	clinics map[string]*clinic.Clinic
}

func (f *fakeClinics) GetBySlug(ctx context.Context, slug string) (*clinic.Clinic, error) {
	if c, ok := f.clinics[slug]; ok {
		return c, nil
	}
	return nil, clinic.ErrClinicNotFound
}

func newTestRouter(t *testing.T, svc DialogService) (http.Handler, *clinic.Clinic) {
	t.Helper()

	demo := &clinic.Clinic{ID: uuid.New(), Name: "Clínica Demo", Slug: "demo", Active: true}

	router := NewRouter(RouterConfig{
		Dialog: svc,
		Slots:  &fakeSlots{},
		Directory: &fakeDirectory{
			provider: &schedule.Provider{ID: uuid.New(), Name: "Dra. Valeria García"},
			apptType: &schedule.AppointmentType{ID: uuid.New(), Code: "EVAL", DurationMinutes: 30},
		},
		Clinics:           &fakeClinics{clinics: map[string]*clinic.Clinic{"demo": demo}},
		Logger:            zap.NewNop(),
		Env:               "test",
		Version:           "test",
		DefaultClinicSlug: "demo",
		SlotHorizonDays:   14,
	})

	return router, demo
}

func TestStartSession(t *testing.T) {
	sessionID := uuid.New()
	svc := &fakeDialog{startReply: &dialog.Reply{SessionID: sessionID, Prompt: "¿Cuál es tu nombre completo?"}}
	router, _ := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/voice/start", nil)
	req.Header.Set("X-Clinic-Slug", "demo")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp StartSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, sessionID, resp.SessionID)
	require.NotEmpty(t, resp.Prompt)
}

func TestMessage(t *testing.T) {
	sessionID := uuid.New()
	svc := &fakeDialog{advanceReply: &dialog.Reply{SessionID: sessionID, Prompt: "Gracias.", Done: false}}
	router, _ := newTestRouter(t, svc)

	body, _ := json.Marshal(MessageRequest{SessionID: sessionID.String(), Text: "Ana María Pérez"})
	req := httptest.NewRequest(http.MethodPost, "/voice/message", bytes.NewReader(body))
	req.Header.Set("X-Clinic-Slug", "demo")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ana María Pérez", svc.lastText)
	require.Equal(t, sessionID, svc.lastSession)
}

func TestMessageBadSessionID(t *testing.T) {
	router, _ := newTestRouter(t, &fakeDialog{})

	body, _ := json.Marshal(MessageRequest{SessionID: "not-a-uuid", Text: "hola"})
	req := httptest.NewRequest(http.MethodPost, "/voice/message", bytes.NewReader(body))
	req.Header.Set("X-Clinic-Slug", "demo")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_session_id", resp.Error)
}

func TestMessageSessionNotFound(t *testing.T) {
	svc := &fakeDialog{advanceErr: dialog.ErrSessionNotFound}
	router, _ := newTestRouter(t, svc)

	body, _ := json.Marshal(MessageRequest{SessionID: uuid.NewString(), Text: "hola"})
	req := httptest.NewRequest(http.MethodPost, "/voice/message", bytes.NewReader(body))
	req.Header.Set("X-Clinic-Slug", "demo")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "session_not_found", resp.Error)
}

func TestUnknownClinic(t *testing.T) {
	router, _ := newTestRouter(t, &fakeDialog{})

	req := httptest.NewRequest(http.MethodPost, "/voice/start", nil)
	req.Header.Set("X-Clinic-Slug", "ghost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "clinic_not_found", resp.Error)
}

func TestClinicFromSubdomain(t *testing.T) {
	sessionID := uuid.New()
	svc := &fakeDialog{startReply: &dialog.Reply{SessionID: sessionID, Prompt: "hola"}}
	router, _ := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/voice/start", nil)
	req.Host = "demo.vozclinica.example.com"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestListSlots(t *testing.T) {
	router, _ := newTestRouter(t, &fakeDialog{})

	req := httptest.NewRequest(http.MethodGet, "/voice/slots", nil)
	req.Header.Set("X-Clinic-Slug", "demo")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
}

func TestLiveness(t *testing.T) {
	router, _ := newTestRouter(t, &fakeDialog{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
}

func TestRequestIDEchoed(t *testing.T) {
	router, _ := newTestRouter(t, &fakeDialog{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
