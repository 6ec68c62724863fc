package dialog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vozclinica/voice-booking/internal/booking"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

type memorySessionStore struct {
	sessions map[uuid.UUID]*Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[uuid.UUID]*Session{}}
}

func (m *memorySessionStore) Create(ctx context.Context, clinicID uuid.UUID) (*Session, error) {
	sess := &Session{ID: uuid.New(), ClinicID: clinicID, Stage: StageAskName}
	stored := *sess
	m.sessions[sess.ID] = &stored
	return sess, nil
}

func (m *memorySessionStore) Get(ctx context.Context, clinicID, sessionID uuid.UUID) (*Session, error) {
	sess, ok := m.sessions[sessionID]
	if !ok || sess.ClinicID != clinicID {
		return nil, ErrSessionNotFound
	}
	stored := *sess
	return &stored, nil
}

func (m *memorySessionStore) Save(ctx context.Context, sess *Session) error {
	stored := *sess
	m.sessions[sess.ID] = &stored
	return nil
}

type fakeSlotSource struct {
	slots []schedule.Slot
	err   error
}

func (f *fakeSlotSource) NextSlots(ctx context.Context, clinicID, providerID, typeID uuid.UUID, from time.Time, daysAhead, limit int) ([]schedule.Slot, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []schedule.Slot
	for _, s := range f.slots {
		if !s.Start.Before(from) {
			out = append(out, s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeBooker struct {
	err       error
	booked    int
	lastStart time.Time
	lastName  string
}

func (f *fakeBooker) Book(ctx context.Context, clinicID uuid.UUID, fullName, phone string, providerID, typeID uuid.UUID, start time.Time) (*booking.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.booked++
	f.lastStart = start
	f.lastName = fullName
	return &booking.Appointment{ID: uuid.New(), StartTime: start, Status: booking.StatusScheduled}, nil
}

type fakeDirectory struct {
	providers []schedule.Provider
	apptType  *schedule.AppointmentType
}

func (f *fakeDirectory) FirstProvider(ctx context.Context, clinicID uuid.UUID) (*schedule.Provider, error) {
	if len(f.providers) == 0 {
		return nil, schedule.ErrProviderNotFound
	}
	return &f.providers[0], nil
}

func (f *fakeDirectory) FirstAppointmentType(ctx context.Context, clinicID uuid.UUID) (*schedule.AppointmentType, error) {
	if f.apptType == nil {
		return nil, schedule.ErrAppointmentTypeNotFound
	}
	return f.apptType, nil
}

func (f *fakeDirectory) ListProviders(ctx context.Context, clinicID uuid.UUID) ([]schedule.Provider, error) {
	return f.providers, nil
}

// Wednesday 2026-02-04, 10:00.
var fixedNow = time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)

// Thursday the 5th ("mañana" from fixedNow).
func tomorrowAt(hour, min int) time.Time {
	return time.Date(2026, 2, 5, hour, min, 0, 0, time.UTC)
}

type testHarness struct {
	engine   *Engine
	store    *memorySessionStore
	booker   *fakeBooker
	clinicID uuid.UUID
}

func newHarness(t *testing.T, slots []schedule.Slot) *testHarness {
	t.Helper()

	clinicID := uuid.New()
	dir := &fakeDirectory{
		providers: []schedule.Provider{
			{ID: uuid.New(), ClinicID: clinicID, Name: "Dra. Valeria García"},
			{ID: uuid.New(), ClinicID: clinicID, Name: "Dr. Andrés Morales"},
			{ID: uuid.New(), ClinicID: clinicID, Name: "Dra. Lucía Sánchez"},
		},
		apptType: &schedule.AppointmentType{ID: uuid.New(), ClinicID: clinicID, Code: "EVAL", DurationMinutes: 30},
	}

	store := newMemorySessionStore()
	booker := &fakeBooker{}
	eng := NewEngine(store, &fakeSlotSource{slots: slots}, booker, dir, Defaults{}, nil).
		WithClock(func() time.Time { return fixedNow })

	return &testHarness{engine: eng, store: store, booker: booker, clinicID: clinicID}
}

func defaultSlots() []schedule.Slot {
	return []schedule.Slot{
		{Start: tomorrowAt(9, 0), End: tomorrowAt(9, 30)},
		{Start: tomorrowAt(9, 30), End: tomorrowAt(10, 0)},
		{Start: tomorrowAt(10, 0), End: tomorrowAt(10, 30)},
	}
}

func (h *testHarness) start(t *testing.T) uuid.UUID {
	t.Helper()
	reply, err := h.engine.Start(context.Background(), h.clinicID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return reply.SessionID
}

func (h *testHarness) say(t *testing.T, sessionID uuid.UUID, text string) *Reply {
	t.Helper()
	reply, err := h.engine.Advance(context.Background(), h.clinicID, sessionID, text, Defaults{})
	if err != nil {
		t.Fatalf("Advance(%q): %v", text, err)
	}
	return reply
}

func (h *testHarness) stage(t *testing.T, sessionID uuid.UUID) Stage {
	t.Helper()
	sess, err := h.store.Get(context.Background(), h.clinicID, sessionID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	return sess.Stage
}

func TestFullConversationBooksAppointment(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)

	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "glaucoma")

	reply := h.say(t, id, "mañana")
	if !strings.Contains(reply.Prompt, "1) 09:00") {
		t.Fatalf("slot menu missing, got %q", reply.Prompt)
	}

	h.say(t, id, "2")
	reply = h.say(t, id, "morales")
	if !strings.Contains(reply.Prompt, "09:30") {
		t.Fatalf("summary should quote the chosen 09:30 slot, got %q", reply.Prompt)
	}
	if !strings.Contains(reply.Prompt, "Dr. Andrés Morales") {
		t.Fatalf("summary should name the doctor, got %q", reply.Prompt)
	}

	reply = h.say(t, id, "sí")
	if !reply.Done {
		t.Fatal("confirmation should finish the conversation")
	}
	if h.booker.booked != 1 {
		t.Fatalf("booked %d times, want 1", h.booker.booked)
	}
	if !h.booker.lastStart.Equal(tomorrowAt(9, 30)) {
		t.Fatalf("booked start = %v, want 09:30", h.booker.lastStart)
	}
	if h.stage(t, id) != StageEnd {
		t.Fatalf("stage = %v, want END", h.stage(t, id))
	}
}

func TestEndedSessionStaysEnded(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)

	for _, text := range []string{"Ana María Pérez", "5512345678", "1", "mañana", "1", "1", "sí"} {
		h.say(t, id, text)
	}

	reply := h.say(t, id, "hola?")
	if !reply.Done {
		t.Fatal("ended session should stay done")
	}
	if h.booker.booked != 1 {
		t.Fatalf("booked %d times after END, want 1", h.booker.booked)
	}
}

func TestNameRejection(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)

	// Single word.
	h.say(t, id, "Ana")
	if h.stage(t, id) != StageAskName {
		t.Fatal("single-word name should not advance")
	}

	// A phone number typed at the name stage.
	h.say(t, id, "5512345678")
	if h.stage(t, id) != StageAskName {
		t.Fatal("phone-shaped name should not advance")
	}

	h.say(t, id, "Ana María Pérez")
	if h.stage(t, id) != StageAskPhone {
		t.Fatal("valid name should advance to phone")
	}
}

func TestEmptyUtteranceRepeatsWithoutAdvancing(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)

	reply := h.say(t, id, "   ")
	if reply.Done {
		t.Fatal("empty utterance must not finish")
	}
	if h.stage(t, id) != StageAskName {
		t.Fatal("empty utterance must not advance")
	}
}

func TestUnparseableDateReprompts(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "retina")

	h.say(t, id, "cuando se pueda")
	if h.stage(t, id) != StageAskDate {
		t.Fatal("bad date should keep the stage")
	}
}

func TestNoAvailabilityKeepsAskingForDates(t *testing.T) {
	h := newHarness(t, nil)
	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "1")

	reply := h.say(t, id, "mañana")
	if reply.Done {
		t.Fatal("empty day must not finish")
	}
	if h.stage(t, id) != StageAskDate {
		t.Fatal("empty day should keep the date stage")
	}

	sess, _ := h.store.Get(context.Background(), h.clinicID, id)
	if sess.Data.Date != "" {
		t.Fatalf("date %q should not persist for an empty day", sess.Data.Date)
	}
}

func TestOutOfRangeSlotSelection(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "1")
	h.say(t, id, "mañana")

	// Three options offered, "5" parses but is out of range; "7" never
	// parses at all.
	h.say(t, id, "5")
	if h.stage(t, id) != StageAskSlot {
		t.Fatal("out-of-range selection should keep the slot stage")
	}
	h.say(t, id, "7")
	if h.stage(t, id) != StageAskSlot {
		t.Fatal("unparseable selection should keep the slot stage")
	}

	h.say(t, id, "tercera")
	if h.stage(t, id) != StageAskDoctor {
		t.Fatal("'tercera' should pick option 3 and advance")
	}
}

func TestConfirmNoReturnsToDateKeepingData(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "1")
	h.say(t, id, "mañana")
	h.say(t, id, "1")
	h.say(t, id, "1")

	reply := h.say(t, id, "no gracias")
	if reply.Done {
		t.Fatal("rejection must not finish")
	}
	if h.stage(t, id) != StageAskDate {
		t.Fatal("rejection should return to the date stage")
	}

	sess, _ := h.store.Get(context.Background(), h.clinicID, id)
	if sess.Data.FullName != "Ana María Pérez" || sess.Data.Phone != "5512345678" {
		t.Fatalf("collected data lost: %+v", sess.Data)
	}
	if sess.Data.ChosenSlot == nil {
		t.Fatal("chosen slot should survive the back edge")
	}
	if h.booker.booked != 0 {
		t.Fatal("nothing should be booked after a rejection")
	}

	// The conversation can immediately pick a new date and finish.
	h.say(t, id, "mañana")
	h.say(t, id, "1")
	h.say(t, id, "garcía")
	final := h.say(t, id, "sí")
	if !final.Done || h.booker.booked != 1 {
		t.Fatalf("retry should book: done=%v booked=%d", final.Done, h.booker.booked)
	}
}

func TestConfirmAmbiguousAsksAgain(t *testing.T) {
	h := newHarness(t, defaultSlots())
	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "1")
	h.say(t, id, "mañana")
	h.say(t, id, "1")
	h.say(t, id, "1")

	h.say(t, id, "tal vez")
	if h.stage(t, id) != StageConfirm {
		t.Fatal("ambiguous answer should stay in CONFIRM")
	}
}

func TestConfirmSlotLostRecoversToDate(t *testing.T) {
	h := newHarness(t, defaultSlots())
	h.booker.err = booking.ErrSlotTaken

	id := h.start(t)
	h.say(t, id, "Ana María Pérez")
	h.say(t, id, "5512345678")
	h.say(t, id, "1")
	h.say(t, id, "mañana")
	h.say(t, id, "1")
	h.say(t, id, "1")

	reply := h.say(t, id, "sí")
	if reply.Done {
		t.Fatal("lost slot must not finish")
	}
	if !strings.Contains(reply.Prompt, "ocuparse") {
		t.Fatalf("expected the slot-lost prompt, got %q", reply.Prompt)
	}
	if h.stage(t, id) != StageAskDate {
		t.Fatal("lost slot should return to the date stage")
	}
}

func TestAdvanceUnknownSession(t *testing.T) {
	h := newHarness(t, defaultSlots())

	_, err := h.engine.Advance(context.Background(), h.clinicID, uuid.New(), "hola", Defaults{})
	if err == nil {
		t.Fatal("expected an error for an unknown session")
	}
}
