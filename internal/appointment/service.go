package appointment

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/config"
	"github.com/hackgods/telehealth-social/internal/notify"
	"github.com/hackgods/telehealth-social/internal/pagination"
	"github.com/hackgods/telehealth-social/internal/profile"
	redisclient "github.com/hackgods/telehealth-social/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentRejected  = "APPOINTMENT_REJECTED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventReminderTriggered    = "APPOINTMENT_REMINDER_TRIGGERED"
)

const maxNotesLength = 1000

var (
	ErrSlotAlreadyBooked       = apperr.New(apperr.Conflict, "slot already has an appointment")
	ErrSlotBeingBooked         = apperr.New(apperr.Conflict, "slot is currently being booked, please retry")
	ErrSlotUnavailable         = apperr.New(apperr.Conflict, "requested time is not an available slot")
	ErrInvalidStatusTransition = apperr.New(apperr.Conflict, "invalid status transition")
	ErrUnknownAction           = apperr.New(apperr.InvalidInput, "unknown appointment action")
	ErrNotPatient              = apperr.New(apperr.Forbidden, "only patients can book appointments")
	ErrNotParticipant          = apperr.New(apperr.Forbidden, "you are not part of this appointment")
	ErrProfessionalOnly        = apperr.New(apperr.Forbidden, "only the professional can perform this action")
	ErrProfessionalNotFound    = apperr.New(apperr.NotFound, "professional not found")
)

// Availability decides whether a start time is a free slot.
type Availability interface {
	IsBookable(ctx context.Context, professionalID uuid.UUID, start time.Time) (bool, error)
}

type ProfileResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*profile.Identity, error)
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Identity, error)
}

type Service struct {
	repo         Repository
	availability Availability
	profiles     ProfileResolver
	locker       redisclient.Locker
	publisher    notify.Publisher
	cfg          config.Config
	log          *zap.Logger
	now          func() time.Time
}

func NewService(
	repo Repository,
	availability Availability,
	profiles ProfileResolver,
	locker redisclient.Locker,
	publisher notify.Publisher,
	cfg config.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		repo:         repo,
		availability: availability,
		profiles:     profiles,
		locker:       locker,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
	}
}

// Book reserves a slot for a patient.
// The availability check and the insert run under a distributed lock keyed by
// professional and start time. The partial unique index on occupying
// appointments backs the lock up if it expires mid-flight.
func (s *Service) Book(ctx context.Context, patientID, professionalID uuid.UUID, start time.Time, notes *string) (*Appointment, error) {
	if start.IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "horario is required")
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if utf8.RuneCountInString(trimmed) > maxNotesLength {
			return nil, apperr.New(apperr.InvalidInput, "observacoes is too long")
		}
		notes = &trimmed
		if trimmed == "" {
			notes = nil
		}
	}

	if err := s.requireKind(ctx, patientID, profile.KindPatient, ErrNotPatient); err != nil {
		return nil, err
	}
	if err := s.requireKind(ctx, professionalID, profile.KindProfessional, ErrProfessionalNotFound); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.locker.WithBookingLock(ctx, professionalID, start, func(lockCtx context.Context) error {
		// Inside the critical section re-check that the slot is still free
		ok, err := s.availability.IsBookable(lockCtx, professionalID, start)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:              uuid.New(),
			ProfessionalID:  professionalID,
			PatientID:       patientID,
			StartTime:       start.UTC(),
			DurationMinutes: int(s.cfg.SlotDuration / time.Minute),
			Status:          StatusScheduled,
			Notes:           notes,
		})
		if err != nil {
			return err
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"professional_id": professionalID.String(),
			"patient_id":      patientID.String(),
			"start_time":      appt.StartTime,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not book appointment")
	}

	s.publish(ctx, notify.TypeCreated, created)
	return created, nil
}

// Transition applies action to an appointment on behalf of callerID.
// The update is conditional on the status read, so two concurrent
// transitions cannot both succeed.
func (s *Service) Transition(ctx context.Context, callerID, id uuid.UUID, action Action) (*Appointment, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, ErrUnknownAction
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	if t.professionalOnly && appt.ProfessionalID != callerID {
		return nil, ErrProfessionalOnly
	}
	if !t.allows(appt.Status) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, t.to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	s.logEvent(ctx, updated.ID, t.event, map[string]any{
		"from":  appt.Status,
		"to":    updated.Status,
		"actor": callerID.String(),
	})

	return updated, nil
}

// GetAppointment retrieves a fully hydrated appointment visible to callerID.
func (s *Service) GetAppointment(ctx context.Context, callerID, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}

	details := s.hydrate(ctx, []Appointment{*appt})
	return &details[0], nil
}

// ListForUser lists appointments where userID is patient or professional,
// latest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*Page, error) {
	p := pagination.New(limit, offset)

	total, err := s.repo.CountAppointmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := &Page{Appointments: make([]AppointmentDetail, 0), Total: total, Limit: p.Limit, Offset: p.Offset}
	if p.Offset >= total {
		return page, nil
	}

	appointments, err := s.repo.ListAppointmentsForUser(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	page.Appointments = s.hydrate(ctx, appointments)
	return page, nil
}

// TriggerReminders is intended to be called by the worker periodically.
// Appointments whose trigger fails to publish stay unmarked and are retried
// on the next run.
func (s *Service) TriggerReminders(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.FindDueReminders(ctx, now, now.Add(s.cfg.ReminderLead))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, appt := range due {
		if err := s.publisher.Publish(ctx, message(notify.TypeReminder, &appt)); err != nil {
			s.log.Warn("failed to publish reminder",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err))
			continue
		}

		if err := s.repo.MarkReminderSent(ctx, appt.ID, now); err != nil {
			s.log.Error("failed to mark reminder sent",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err))
			continue
		}
		sent++

		s.logEvent(ctx, appt.ID, EventReminderTriggered, map[string]any{
			"start_time": appt.StartTime,
		})
	}

	return sent, nil
}

func (s *Service) requireKind(ctx context.Context, id uuid.UUID, kind profile.Kind, wrong error) error {
	identity, err := s.profiles.Resolve(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return wrong
		}
		return err
	}
	if identity.Kind != kind {
		return wrong
	}
	return nil
}

// hydrate attaches participant identities. Resolution failures leave the
// identities empty.
func (s *Service) hydrate(ctx context.Context, appointments []Appointment) []AppointmentDetail {
	ids := make([]uuid.UUID, 0, 2*len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.ProfessionalID, a.PatientID)
	}

	identities, err := s.profiles.ResolveMany(ctx, ids)
	if err != nil {
		s.log.Warn("could not resolve appointment participants", zap.Error(err))
	}

	details := make([]AppointmentDetail, 0, len(appointments))
	for _, a := range appointments {
		d := AppointmentDetail{Appointment: a}
		if identity, ok := identities[a.ProfessionalID]; ok {
			d.Professional = &identity
		}
		if identity, ok := identities[a.PatientID]; ok {
			d.Patient = &identity
		}
		details = append(details, d)
	}
	return details
}

func message(kind string, a *Appointment) notify.Message {
	return notify.Message{
		Type:           kind,
		AppointmentID:  a.ID,
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
	}
}

func (s *Service) publish(ctx context.Context, kind string, a *Appointment) {
	if err := s.publisher.Publish(ctx, message(kind, a)); err != nil {
		s.log.Warn("failed to publish appointment trigger",
			zap.String("type", kind),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err))
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err))
	}
}
