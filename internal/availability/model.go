package availability

import (
	"time"

	"github.com/google/uuid"
)

// Rule is a recurring (day of week) or one-off (specific date) window in
// which a professional takes appointments. Times are HH:MM in the schedule
// timezone.
type Rule struct {
	ID             uuid.UUID     `json:"id"`
	ProfessionalID uuid.UUID     `json:"professional_id"`
	DayOfWeek      *time.Weekday `json:"day_of_week,omitempty"`
	Date           *time.Time    `json:"date,omitempty"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Booking is the occupied interval of an appointment that still holds its slot.
type Booking struct {
	Start    time.Time
	Duration time.Duration
}

func (b Booking) End() time.Time { return b.Start.Add(b.Duration) }

// Blackout is an interval in which no slot may be offered, whatever the rules say.
type Blackout struct {
	ID             uuid.UUID `json:"id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Reason         *string   `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Slot is a derived bookable interval. It is never persisted.
type Slot struct {
	Start time.Time
	End   time.Time
}

// DaySchedule is the slot listing for one professional and date.
type DaySchedule struct {
	ProfessionalID uuid.UUID
	Date           string
	Slots          []Slot
	Duration       time.Duration
	Gap            time.Duration
	Location       *time.Location
}
