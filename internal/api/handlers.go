package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vozclinica/voice-booking/internal/booking"
	"github.com/vozclinica/voice-booking/internal/clinic"
	"github.com/vozclinica/voice-booking/internal/dialog"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

func startSessionHandler(svc DialogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := clinic.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "internal_error", "clinic missing from request context")
			return
		}

		reply, err := svc.Start(r.Context(), c.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, StartSessionResponse{
			SessionID: reply.SessionID,
			Prompt:    reply.Prompt,
		})
	}
}

func messageHandler(svc DialogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := clinic.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "internal_error", "clinic missing from request context")
			return
		}

		var req MessageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a valid UUID")
			return
		}

		reply, err := svc.Advance(r.Context(), c.ID, sessionID, req.Text, dialog.Defaults{})
		if err != nil {
			handleAdvanceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{
			SessionID: reply.SessionID,
			Prompt:    reply.Prompt,
			Done:      reply.Done,
		})
	}
}

// listSlotsHandler exposes the slot engine directly for diagnostics: the
// clinic's first provider/type unless overridden by query params.
func listSlotsHandler(slots SlotLister, directory dialog.Directory, horizonDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := clinic.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "internal_error", "clinic missing from request context")
			return
		}

		q := r.URL.Query()

		providerID, err := queryUUID(q.Get("provider_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}
		if providerID == uuid.Nil {
			p, err := directory.FirstProvider(r.Context(), c.ID)
			if err != nil {
				handleAdvanceError(w, err)
				return
			}
			providerID = p.ID
		}

		typeID, err := queryUUID(q.Get("type_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type_id", "type_id must be a valid UUID")
			return
		}
		if typeID == uuid.Nil {
			t, err := directory.FirstAppointmentType(r.Context(), c.ID)
			if err != nil {
				handleAdvanceError(w, err)
				return
			}
			typeID = t.ID
		}

		from := time.Now()
		if v := q.Get("from"); v != "" {
			from, err = time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC3339")
				return
			}
		}

		days := queryInt(q.Get("days"), horizonDays)
		limit := queryInt(q.Get("limit"), 3)

		result, err := slots.NextSlots(r.Context(), c.ID, providerID, typeID, from, days, limit)
		if err != nil {
			handleAdvanceError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(result))
		for _, s := range result {
			resp = append(resp, SlotResponse{Start: s.Start, End: s.End})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdvanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dialog.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, schedule.ErrAppointmentTypeNotFound),
		errors.Is(err, booking.ErrAppointmentTypeNotFound):
		writeError(w, http.StatusNotFound, "appointment_type_not_found", err.Error())
	case errors.Is(err, schedule.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func queryUUID(v string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(v)
}

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
