package api

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Prompt    string    `json:"prompt"`
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type MessageResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Prompt    string    `json:"prompt"`
	Done      bool      `json:"done"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
