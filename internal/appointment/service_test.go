package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/config"
	"github.com/hackgods/telehealth-social/internal/notify"
	"github.com/hackgods/telehealth-social/internal/profile"
	redisclient "github.com/hackgods/telehealth-social/internal/redis"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// -- Fakes --

type fakeResolver map[uuid.UUID]profile.Kind

func (f fakeResolver) Resolve(_ context.Context, id uuid.UUID) (*profile.Identity, error) {
	kind, ok := f[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &profile.Identity{ID: id, Kind: kind}, nil
}

func (f fakeResolver) ResolveMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Identity, error) {
	out := make(map[uuid.UUID]profile.Identity)
	for _, id := range ids {
		if kind, ok := f[id]; ok {
			out[id] = profile.Identity{ID: id, Kind: kind}
		}
	}
	return out, nil
}

// fakeAvailability offers a fixed set of start times that are not taken.
type fakeAvailability struct {
	repo  *fakeRepo
	slots []time.Time
}

func (f *fakeAvailability) IsBookable(_ context.Context, professionalID uuid.UUID, start time.Time) (bool, error) {
	for _, s := range f.slots {
		if s.Equal(start) {
			return !f.repo.occupied(professionalID, start), nil
		}
	}
	return false, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	busy bool
}

func (l *fakeLocker) WithBookingLock(ctx context.Context, professionalID uuid.UUID, start time.Time, fn func(ctx context.Context) error) error {
	key := redisclient.BookingLockKey(professionalID, start)
	l.mu.Lock()
	if l.busy || l.held[key] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (f *fakeRepo) occupied(professionalID uuid.UUID, start time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ProfessionalID == professionalID && a.StartTime.Equal(start) && a.Status.Occupying() {
			return true
		}
	}
	return false
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.appointments {
		if existing.ProfessionalID == a.ProfessionalID && existing.StartTime.Equal(a.StartTime) && existing.Status.Occupying() {
			return nil, ErrSlotAlreadyBooked
		}
	}
	a.CreatedAt, a.UpdatedAt = now, now
	f.appointments[a.ID] = &a
	cp := a
	return &cp, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) forUser(userID uuid.UUID) []Appointment {
	var out []Appointment
	for _, a := range f.appointments {
		if a.IsParticipant(userID) {
			out = append(out, *a)
		}
	}
	return out
}

func (f *fakeRepo) ListAppointmentsForUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]Appointment, error) {
	all := f.forUser(userID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeRepo) CountAppointmentsForUser(_ context.Context, userID uuid.UUID) (int, error) {
	return len(f.forUser(userID)), nil
}

func (f *fakeRepo) FindDueReminders(_ context.Context, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if (a.Status == StatusScheduled || a.Status == StatusConfirmed) &&
			a.ReminderSentAt == nil && a.StartTime.After(from) && !a.StartTime.After(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	if a, ok := f.appointments[id]; ok {
		a.ReminderSentAt = &at
	}
	return nil
}

func (f *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	locker    *fakeLocker
	publisher *fakePublisher
	doctor    uuid.UUID
	patient   uuid.UUID
	other     uuid.UUID
	slot      time.Time
}

func newFixture() fixture {
	doctor, patient, other := uuid.New(), uuid.New(), uuid.New()
	slot := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

	repo := newFakeRepo()
	locker := &fakeLocker{held: make(map[string]bool)}
	publisher := &fakePublisher{}
	resolver := fakeResolver{doctor: profile.KindProfessional, patient: profile.KindPatient, other: profile.KindPatient}
	avail := &fakeAvailability{repo: repo, slots: []time.Time{slot, slot.Add(time.Hour)}}
	cfg := config.Config{SlotDuration: 50 * time.Minute, ReminderLead: 24 * time.Hour}

	svc := NewService(repo, avail, resolver, locker, publisher, cfg, zap.NewNop())
	svc.now = func() time.Time { return now }

	return fixture{
		svc:       svc,
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		doctor:    doctor,
		patient:   patient,
		other:     other,
		slot:      slot,
	}
}

func (f fixture) book(t *testing.T) *Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), f.patient, f.doctor, f.slot, nil)
	require.NoError(t, err)
	return appt
}

func TestBook(t *testing.T) {
	f := newFixture()
	notes := "  primeira consulta "

	appt, err := f.svc.Book(context.Background(), f.patient, f.doctor, f.slot, &notes)
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, 50, appt.DurationMinutes)
	assert.Equal(t, "primeira consulta", *appt.Notes)
	assert.Equal(t, f.slot.Add(50*time.Minute), appt.EndTime())

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, EventAppointmentCreated, f.repo.events[0].EventType)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, notify.TypeCreated, f.publisher.messages[0].Type)
	assert.Equal(t, appt.ID, f.publisher.messages[0].AppointmentID)
}

func TestBookRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("slot taken", func(t *testing.T) {
		f := newFixture()
		f.book(t)
		_, err := f.svc.Book(ctx, f.other, f.doctor, f.slot, nil)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.True(t, apperr.Is(err, apperr.Conflict))
	})

	t.Run("not a slot", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Book(ctx, f.patient, f.doctor, f.slot.Add(10*time.Minute), nil)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("lock busy", func(t *testing.T) {
		f := newFixture()
		f.locker.busy = true
		_, err := f.svc.Book(ctx, f.patient, f.doctor, f.slot, nil)
		assert.ErrorIs(t, err, ErrSlotBeingBooked)
	})

	t.Run("caller is not a patient", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Book(ctx, f.doctor, f.doctor, f.slot, nil)
		assert.ErrorIs(t, err, ErrNotPatient)
		_, err = f.svc.Book(ctx, uuid.New(), f.doctor, f.slot, nil)
		assert.ErrorIs(t, err, ErrNotPatient)
	})

	t.Run("unknown professional", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Book(ctx, f.patient, f.other, f.slot, nil)
		assert.ErrorIs(t, err, ErrProfessionalNotFound)
	})

	t.Run("missing start", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Book(ctx, f.patient, f.doctor, time.Time{}, nil)
		assert.True(t, apperr.Is(err, apperr.InvalidInput))
	})
}

func TestBookPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	appt, err := f.svc.Book(context.Background(), f.patient, f.doctor, f.slot, nil)
	require.NoError(t, err)
	assert.NotNil(t, appt)
}

func TestConcurrentBookingsYieldOneAppointment(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), f.patient, f.doctor, f.slot, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.Conflict), err.Error())
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.repo.appointments, 1)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm then complete", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)

		got, err := f.svc.Transition(ctx, f.doctor, appt.ID, ActionConfirm)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)

		got, err = f.svc.Transition(ctx, f.doctor, appt.ID, ActionComplete)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)

		_, err = f.svc.Transition(ctx, f.patient, appt.ID, ActionCancel)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("patient cannot confirm", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)
		_, err := f.svc.Transition(ctx, f.patient, appt.ID, ActionConfirm)
		assert.ErrorIs(t, err, ErrProfessionalOnly)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)
		_, err := f.svc.Transition(ctx, f.other, appt.ID, ActionCancel)
		assert.ErrorIs(t, err, ErrNotParticipant)
		assert.True(t, apperr.Is(err, apperr.Forbidden))
	})

	t.Run("cancel frees the slot", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)
		got, err := f.svc.Transition(ctx, f.patient, appt.ID, ActionCancel)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)

		_, err = f.svc.Book(ctx, f.other, f.doctor, f.slot, nil)
		assert.NoError(t, err)
	})

	t.Run("complete requires confirmation", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)
		_, err := f.svc.Transition(ctx, f.doctor, appt.ID, ActionComplete)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("unknown action and missing appointment", func(t *testing.T) {
		f := newFixture()
		appt := f.book(t)
		_, err := f.svc.Transition(ctx, f.doctor, appt.ID, Action("archive"))
		assert.ErrorIs(t, err, ErrUnknownAction)

		_, err = f.svc.Transition(ctx, f.doctor, uuid.New(), ActionConfirm)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	appt := f.book(t)

	detail, err := f.svc.GetAppointment(ctx, f.patient, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Professional)
	assert.Equal(t, profile.KindProfessional, detail.Professional.Kind)
	require.NotNil(t, detail.Patient)
	assert.Equal(t, f.patient, detail.Patient.ID)

	_, err = f.svc.GetAppointment(ctx, f.other, appt.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	page, err := f.svc.ListForUser(ctx, f.doctor, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Len(t, page.Appointments, 1)
	assert.Equal(t, 20, page.Limit)

	page, err = f.svc.ListForUser(ctx, f.other, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Appointments)
}

func TestTriggerReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	due := f.book(t)

	// Outside the lead window.
	later := uuid.New()
	f.repo.appointments[later] = &Appointment{
		ID: later, ProfessionalID: f.doctor, PatientID: f.other,
		StartTime: now.Add(72 * time.Hour), DurationMinutes: 50, Status: StatusScheduled,
	}
	f.publisher.messages = nil

	f.publisher.err = errors.New("broker down")
	sent, err := f.svc.TriggerReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Nil(t, f.repo.appointments[due.ID].ReminderSentAt)

	f.publisher.err = nil
	sent, err = f.svc.TriggerReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, notify.TypeReminder, f.publisher.messages[0].Type)
	assert.Equal(t, due.ID, f.publisher.messages[0].AppointmentID)
	assert.NotNil(t, f.repo.appointments[due.ID].ReminderSentAt)

	sent, err = f.svc.TriggerReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
