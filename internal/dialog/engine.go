package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vozclinica/voice-booking/internal/booking"
	"github.com/vozclinica/voice-booking/internal/lang"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

// How many slots to offer for a chosen day, and how generously to query
// the slot engine before filtering to that day.
const (
	maxSlotOptions = 5
	daySearchLimit = 200
)

// SlotSource produces free windows; satisfied by schedule.Engine.
type SlotSource interface {
	NextSlots(ctx context.Context, clinicID, providerID, typeID uuid.UUID, from time.Time, daysAhead, limit int) ([]schedule.Slot, error)
}

// Booker persists a confirmed appointment; satisfied by booking.Writer.
type Booker interface {
	Book(ctx context.Context, clinicID uuid.UUID, fullName, phone string, providerID, typeID uuid.UUID, start time.Time) (*booking.Appointment, error)
}

// Directory resolves clinic defaults and provider ordinals; satisfied by
// schedule.Repository.
type Directory interface {
	FirstProvider(ctx context.Context, clinicID uuid.UUID) (*schedule.Provider, error)
	FirstAppointmentType(ctx context.Context, clinicID uuid.UUID) (*schedule.AppointmentType, error)
	ListProviders(ctx context.Context, clinicID uuid.UUID) ([]schedule.Provider, error)
}

// Defaults are the provider/type to fall back to when the caller supplies
// none and the clinic has no rows of its own.
type Defaults struct {
	ProviderID uuid.UUID
	TypeID     uuid.UUID
}

// Engine drives the booking conversation: one Advance call per inbound
// utterance, with all state in the session store.
type Engine struct {
	sessions  SessionStore
	slots     SlotSource
	writer    Booker
	directory Directory
	fallback  Defaults
	logger    *zap.Logger
	now       func() time.Time
}

func NewEngine(sessions SessionStore, slots SlotSource, writer Booker, directory Directory, fallback Defaults, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sessions:  sessions,
		slots:     slots,
		writer:    writer,
		directory: directory,
		fallback:  fallback,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the engine's notion of "now"; used by tests to pin
// relative date parsing.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

const (
	promptAskName     = "Hola, soy el asistente de la clínica. ¿Cuál es tu nombre completo?"
	promptRepeat      = "No te escuché bien. ¿Me repites?"
	promptNameReject  = "Para registrarte correctamente necesito tus nombres y apellidos."
	promptDateReject  = "No entendí la fecha. Dime por ejemplo: 'mañana', 'lunes' o '2026-02-10'."
	promptNoSlots     = "Ese día no hay disponibilidad. ¿Qué otra fecha te sirve?"
	promptSlotReject  = "No entendí. Elige un número del 1 al 5 (por ejemplo: '3')."
	promptSlotLost    = "Ese horario acaba de ocuparse. ¿Qué otra fecha te sirve?"
	promptConfirmAsk  = "Solo para confirmar: ¿sí o no?"
	promptAskNewDate  = "De acuerdo. ¿Qué fecha prefieres? (Ej: mañana, lunes, 2026-02-10)"
	promptBooked      = "Tu cita quedó agendada correctamente. Gracias por contactarnos. ¡Que tengas un excelente día!"
	promptSessionOver = "La sesión ya terminó. Si deseas iniciar otra, usa /voice/start."
)

// Start creates a fresh session in ASK_NAME and returns the greeting.
func (e *Engine) Start(ctx context.Context, clinicID uuid.UUID) (*Reply, error) {
	sess, err := e.sessions.Create(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e.logger.Info("conversation started",
		zap.String("clinic_id", clinicID.String()),
		zap.String("session_id", sess.ID.String()),
	)

	return &Reply{SessionID: sess.ID, Prompt: promptAskName}, nil
}

// Advance processes one utterance for the session. Validation failures and
// empty days recover conversationally (a re-prompt, stage unchanged); only
// unknown sessions/types and storage faults surface as errors.
func (e *Engine) Advance(ctx context.Context, clinicID, sessionID uuid.UUID, utterance string, d Defaults) (*Reply, error) {
	sess, err := e.sessions.Get(ctx, clinicID, sessionID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(utterance)
	if text == "" {
		return e.reply(sess, promptRepeat, false), nil
	}

	d, err = e.resolveDefaults(ctx, clinicID, d)
	if err != nil {
		return nil, err
	}

	switch sess.Stage {
	case StageAskName:
		return e.handleAskName(ctx, sess, text)
	case StageAskPhone:
		return e.handleAskPhone(ctx, sess, text)
	case StageAskSpecialty:
		return e.handleAskSpecialty(ctx, sess, text)
	case StageAskDate:
		return e.handleAskDate(ctx, sess, text, d)
	case StageAskSlot:
		return e.handleAskSlot(ctx, sess, text)
	case StageAskDoctor:
		return e.handleAskDoctor(ctx, sess, text, d)
	case StageConfirm:
		return e.handleConfirm(ctx, sess, text, d)
	case StageEnd:
		return e.reply(sess, promptSessionOver, true), nil
	default:
		// Unknown stored stage behaves like a finished session.
		e.logger.Warn("session in unknown stage",
			zap.String("session_id", sess.ID.String()),
			zap.String("stage", string(sess.Stage)),
		)
		return e.reply(sess, promptSessionOver, true), nil
	}
}

func (e *Engine) handleAskName(ctx context.Context, sess *Session, text string) (*Reply, error) {
	if len(strings.Fields(text)) < 2 || lang.LooksLikePhone(text) {
		return e.reply(sess, promptNameReject, false), nil
	}

	sess.Data.FullName = text
	if err := e.transition(ctx, sess, StageAskPhone); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Gracias %s. Ahora indícame tu número telefónico, por favor.", sess.Data.FullName)
	return e.reply(sess, prompt, false), nil
}

func (e *Engine) handleAskPhone(ctx context.Context, sess *Session, text string) (*Reply, error) {
	sess.Data.Phone = text
	if err := e.transition(ctx, sess, StageAskSpecialty); err != nil {
		return nil, err
	}

	prompt := "Perfecto. Atendemos de lunes a viernes de 09:00 a 17:00. " +
		"La consulta incluye evaluación completa con el especialista. " +
		"¿Qué especialidad necesitas? " + specialtyMenu()
	return e.reply(sess, prompt, false), nil
}

func (e *Engine) handleAskSpecialty(ctx context.Context, sess *Session, text string) (*Reply, error) {
	idx, ok := matchSpecialty(text)
	if !ok {
		return e.reply(sess, "No entendí la especialidad. "+specialtyMenu(), false), nil
	}

	sess.Data.Specialty = specialties[idx]
	if err := e.transition(ctx, sess, StageAskDate); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Entendido, %s. ¿Para qué fecha deseas la cita? (Ej: mañana, lunes, 2026-02-10)", sess.Data.Specialty)
	return e.reply(sess, prompt, false), nil
}

func (e *Engine) handleAskDate(ctx context.Context, sess *Session, text string, d Defaults) (*Reply, error) {
	now := e.now()

	dateISO, ok := lang.ParseDate(text, now)
	if !ok {
		return e.reply(sess, promptDateReject, false), nil
	}

	dayStart, err := time.ParseInLocation("2006-01-02", dateISO, now.Location())
	if err != nil {
		return e.reply(sess, promptDateReject, false), nil
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Query the chosen day only; the generous limit is filtered down to
	// the day's half-open window below.
	all, err := e.slots.NextSlots(ctx, sess.ClinicID, d.ProviderID, d.TypeID, dayStart, 1, daySearchLimit)
	if err != nil {
		return nil, err
	}

	var options []SlotOption
	for _, s := range all {
		if !s.Start.Before(dayStart) && s.Start.Before(dayEnd) {
			options = append(options, SlotOption{Start: s.Start, End: s.End})
			if len(options) == maxSlotOptions {
				break
			}
		}
	}

	if len(options) == 0 {
		return e.reply(sess, promptNoSlots, false), nil
	}

	sess.Data.Date = dateISO
	sess.Data.SlotOptions = options
	if err := e.transition(ctx, sess, StageAskSlot); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Estos son los horarios disponibles para %s:\n", dateISO)
	for i, opt := range options {
		fmt.Fprintf(&b, "%d) %s\n", i+1, opt.Start.Format("15:04"))
	}
	b.WriteString("Elige el número (1-5).")
	return e.reply(sess, b.String(), false), nil
}

func (e *Engine) handleAskSlot(ctx context.Context, sess *Session, text string) (*Reply, error) {
	n, ok := lang.ParseSelector(text)
	if !ok || n < 1 || n > len(sess.Data.SlotOptions) {
		return e.reply(sess, promptSlotReject, false), nil
	}

	chosen := sess.Data.SlotOptions[n-1]
	sess.Data.ChosenSlot = &chosen
	if err := e.transition(ctx, sess, StageAskDoctor); err != nil {
		return nil, err
	}

	return e.reply(sess, "¿Con qué doctor deseas atenderte? "+doctorMenu(), false), nil
}

func (e *Engine) handleAskDoctor(ctx context.Context, sess *Session, text string, d Defaults) (*Reply, error) {
	idx, ok := matchDoctor(text)
	if !ok {
		return e.reply(sess, "No entendí. "+doctorMenu(), false), nil
	}

	// The roster ordinal maps to the clinic's Nth provider row when one
	// exists; otherwise the default provider takes the booking.
	providerID := d.ProviderID
	providers, err := e.directory.ListProviders(ctx, sess.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if idx < len(providers) {
		providerID = providers[idx].ID
	}

	sess.Data.DoctorName = doctorRoster[idx]
	sess.Data.DoctorProviderID = providerID
	if err := e.transition(ctx, sess, StageConfirm); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Voy a agendar: Paciente: %s. Teléfono: %s. Fecha: %s. Hora: %s. Doctor: %s. ¿Confirmas la cita? (sí/no)",
		sess.Data.FullName,
		sess.Data.Phone,
		sess.Data.Date,
		sess.Data.ChosenSlot.Start.Format("15:04"),
		sess.Data.DoctorName,
	)
	return e.reply(sess, prompt, false), nil
}

func (e *Engine) handleConfirm(ctx context.Context, sess *Session, text string, d Defaults) (*Reply, error) {
	switch lang.ParseYesNo(text) {
	case lang.AnswerNo:
		// Back edge: collected data stays as-is, only the stage moves.
		if err := e.transition(ctx, sess, StageAskDate); err != nil {
			return nil, err
		}
		return e.reply(sess, promptAskNewDate, false), nil

	case lang.AnswerYes:
		if sess.Data.ChosenSlot == nil {
			if err := e.transition(ctx, sess, StageAskDate); err != nil {
				return nil, err
			}
			return e.reply(sess, promptAskNewDate, false), nil
		}

		providerID := sess.Data.DoctorProviderID
		if providerID == uuid.Nil {
			providerID = d.ProviderID
		}

		_, err := e.writer.Book(ctx, sess.ClinicID, sess.Data.FullName, sess.Data.Phone, providerID, d.TypeID, sess.Data.ChosenSlot.Start)
		if err != nil {
			if errors.Is(err, booking.ErrSlotTaken) || errors.Is(err, booking.ErrSlotBeingBooked) {
				// Someone grabbed the window between listing and
				// confirming; recover conversationally.
				if terr := e.transition(ctx, sess, StageAskDate); terr != nil {
					return nil, terr
				}
				return e.reply(sess, promptSlotLost, false), nil
			}
			return nil, err
		}

		if err := e.transition(ctx, sess, StageEnd); err != nil {
			return nil, err
		}
		return e.reply(sess, promptBooked, true), nil

	default:
		return e.reply(sess, promptConfirmAsk, false), nil
	}
}

// transition mutates the stage and persists the full session row.
func (e *Engine) transition(ctx context.Context, sess *Session, next Stage) error {
	sess.Stage = next
	if err := e.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (e *Engine) reply(sess *Session, prompt string, done bool) *Reply {
	return &Reply{SessionID: sess.ID, Prompt: prompt, Done: done}
}

// resolveDefaults fills unset provider/type defaults from the clinic's
// first rows, then from the configured fallback.
func (e *Engine) resolveDefaults(ctx context.Context, clinicID uuid.UUID, d Defaults) (Defaults, error) {
	if d.ProviderID == uuid.Nil {
		p, err := e.directory.FirstProvider(ctx, clinicID)
		switch {
		case err == nil:
			d.ProviderID = p.ID
		case errors.Is(err, schedule.ErrProviderNotFound):
			d.ProviderID = e.fallback.ProviderID
		default:
			return d, fmt.Errorf("resolve default provider: %w", err)
		}
	}

	if d.TypeID == uuid.Nil {
		t, err := e.directory.FirstAppointmentType(ctx, clinicID)
		switch {
		case err == nil:
			d.TypeID = t.ID
		case errors.Is(err, schedule.ErrAppointmentTypeNotFound):
			d.TypeID = e.fallback.TypeID
		default:
			return d, fmt.Errorf("resolve default appointment type: %w", err)
		}
	}

	return d, nil
}

func specialtyMenu() string {
	var b strings.Builder
	for i, s := range specialties {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%d) %s", i+1, s)
	}
	b.WriteString(". Responde con el número o el nombre.")
	return b.String()
}

func doctorMenu() string {
	var b strings.Builder
	for i, name := range doctorRoster {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%d) %s", i+1, name)
	}
	b.WriteString(". Responde con el número o el apellido.")
	return b.String()
}
