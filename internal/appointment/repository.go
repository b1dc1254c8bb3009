package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

var (
	ErrAppointmentNotFound = apperr.New(apperr.NotFound, "appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// CreateAppointment returns ErrSlotAlreadyBooked when another occupying
	// appointment holds the same professional and start time.
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointmentStatus only applies when the row is still in from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	ListAppointmentsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Appointment, error)
	CountAppointmentsForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Reminder worker
	FindDueReminders(ctx context.Context, from, to time.Time) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
