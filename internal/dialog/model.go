package dialog

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the position of a conversation in its script. The flow is
// linear with one backward edge: CONFIRM returns to ASK_DATE on rejection.
type Stage string

const (
	StageAskName      Stage = "ASK_NAME"
	StageAskPhone     Stage = "ASK_PHONE"
	StageAskSpecialty Stage = "ASK_SPECIALTY"
	StageAskDate      Stage = "ASK_DATE"
	StageAskSlot      Stage = "ASK_SLOT"
	StageAskDoctor    Stage = "ASK_DOCTOR"
	StageConfirm      Stage = "CONFIRM"
	StageEnd          Stage = "END"
)

type SlotOption struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SessionData holds what the conversation has collected so far. Fields are
// only populated once their stage has passed; ChosenSlot deliberately
// survives the CONFIRM -> ASK_DATE back edge until a new slot replaces it.
type SessionData struct {
	FullName         string       `json:"full_name,omitempty"`
	Phone            string       `json:"phone,omitempty"`
	Specialty        string       `json:"specialty,omitempty"`
	Date             string       `json:"date,omitempty"` // ISO 2006-01-02
	SlotOptions      []SlotOption `json:"slot_options,omitempty"`
	ChosenSlot       *SlotOption  `json:"chosen_slot,omitempty"`
	DoctorName       string       `json:"doctor_name,omitempty"`
	DoctorProviderID uuid.UUID    `json:"doctor_provider_id,omitempty"`
}

type Session struct {
	ID        uuid.UUID   `json:"id"`
	ClinicID  uuid.UUID   `json:"clinic_id"`
	Stage     Stage       `json:"stage"`
	Data      SessionData `json:"data"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Reply is one outbound conversational turn.
type Reply struct {
	SessionID uuid.UUID
	Prompt    string
	Done      bool
}
