package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/profile"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCompleted AppointmentStatus = "completed"
)

// Occupying reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) Occupying() bool {
	return s != StatusCancelled && s != StatusRejected
}

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

type transition struct {
	from             []AppointmentStatus
	to               AppointmentStatus
	professionalOnly bool
	event            string
}

var transitions = map[Action]transition{
	ActionConfirm: {
		from:             []AppointmentStatus{StatusScheduled},
		to:               StatusConfirmed,
		professionalOnly: true,
		event:            EventAppointmentConfirmed,
	},
	ActionReject: {
		from:             []AppointmentStatus{StatusScheduled},
		to:               StatusRejected,
		professionalOnly: true,
		event:            EventAppointmentRejected,
	},
	ActionCancel: {
		from:  []AppointmentStatus{StatusScheduled, StatusConfirmed},
		to:    StatusCancelled,
		event: EventAppointmentCancelled,
	},
	ActionComplete: {
		from:             []AppointmentStatus{StatusConfirmed},
		to:               StatusCompleted,
		professionalOnly: true,
		event:            EventAppointmentCompleted,
	},
}

func (t transition) allows(s AppointmentStatus) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID              uuid.UUID         `json:"id"`
	ProfessionalID  uuid.UUID         `json:"professional_id"`
	PatientID       uuid.UUID         `json:"patient_id"`
	StartTime       time.Time         `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	Notes           *string           `json:"notes,omitempty"`
	ReminderSentAt  *time.Time        `json:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsParticipant reports whether userID is the patient or the professional.
func (a Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.PatientID == userID || a.ProfessionalID == userID
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Professional *profile.Identity `json:"professional,omitempty"`
	Patient      *profile.Identity `json:"patient,omitempty"`
}

type Page struct {
	Appointments []AppointmentDetail
	Total        int
	Limit        int
	Offset       int
}
