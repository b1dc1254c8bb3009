package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const appointmentColumns = `id, professional_id, patient_id, start_time, duration_minutes, status, notes, reminder_sent_at, created_at, updated_at`

func unavailable(err error) error {
	return apperr.Wrap(apperr.Unavailable, err, "appointment store unavailable")
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string
	var reminderSentAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.ProfessionalID,
		&a.PatientID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Status,
		&notes,
		&reminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, unavailable(err)
	}

	a.Notes = notes
	a.ReminderSentAt = reminderSentAt
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, professional_id, patient_id, start_time, duration_minutes, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.ProfessionalID, a.PatientID, a.StartTime, a.DurationMinutes, a.Status, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 OR professional_id = $1
		ORDER BY start_time DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, unavailable(err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CountAppointmentsForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments WHERE patient_id = $1 OR professional_id = $1
	`, userID).Scan(&n)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (r *PgRepository) FindDueReminders(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		  AND reminder_sent_at IS NULL
		  AND start_time > $1
		  AND start_time <= $2
		ORDER BY start_time
		LIMIT 500
	`, from, to)
	if err != nil {
		return nil, unavailable(err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = $2
		WHERE id = $1 AND reminder_sent_at IS NULL
	`, id, at)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return unavailable(err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
