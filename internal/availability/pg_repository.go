package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const ruleCols = `id, professional_id, day_of_week, specific_date, start_time, end_time, active, created_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule
	var dow *int16

	err := row.Scan(
		&r.ID,
		&r.ProfessionalID,
		&dow,
		&r.Date,
		&r.StartTime,
		&r.EndTime,
		&r.Active,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dow != nil {
		wd := time.Weekday(*dow)
		r.DayOfWeek = &wd
	}
	return &r, nil
}

func scanBlackout(row pgx.Row) (*Blackout, error) {
	var b Blackout
	err := row.Scan(
		&b.ID,
		&b.ProfessionalID,
		&b.Start,
		&b.End,
		&b.Reason,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgRepository) queryRules(ctx context.Context, sql string, args ...any) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load availability rules")
	}
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "could not load availability rules")
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load availability rules")
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) ActiveRules(ctx context.Context, professionalID uuid.UUID) ([]Rule, error) {
	return r.queryRules(ctx, `
		SELECT `+ruleCols+`
		FROM availability_rules
		WHERE professional_id = $1 AND active
	`, professionalID)
}

func (r *PgRepository) ListRules(ctx context.Context, professionalID uuid.UUID) ([]Rule, error) {
	return r.queryRules(ctx, `
		SELECT `+ruleCols+`
		FROM availability_rules
		WHERE professional_id = $1
		ORDER BY day_of_week NULLS LAST, specific_date, start_time
	`, professionalID)
}

func (r *PgRepository) OccupyingBookings(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, duration_minutes
		FROM appointments
		WHERE professional_id = $1
		  AND status NOT IN ('cancelled', 'rejected')
		  AND start_time < $3
		  AND start_time + make_interval(mins => duration_minutes) > $2
		ORDER BY start_time
	`, professionalID, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load appointments")
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		var b Booking
		var minutes int
		if err := rows.Scan(&b.Start, &minutes); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "could not load appointments")
		}
		b.Duration = time.Duration(minutes) * time.Minute
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load appointments")
	}
	return result, nil
}

func (r *PgRepository) Blackouts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Blackout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, start_time, end_time, reason, created_at
		FROM blackouts
		WHERE professional_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`, professionalID, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load blackouts")
	}
	defer rows.Close()

	var result []Blackout
	for rows.Next() {
		b, err := scanBlackout(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "could not load blackouts")
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not load blackouts")
	}
	return result, nil
}

func (r *PgRepository) CreateRule(ctx context.Context, rule Rule) (*Rule, error) {
	var dow *int16
	if rule.DayOfWeek != nil {
		v := int16(*rule.DayOfWeek)
		dow = &v
	}

	created, err := scanRule(r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (id, professional_id, day_of_week, specific_date, start_time, end_time, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+ruleCols,
		uuid.New(), rule.ProfessionalID, dow, rule.Date, rule.StartTime, rule.EndTime, rule.Active))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not create availability rule")
	}
	return created, nil
}

func (r *PgRepository) DeleteRule(ctx context.Context, professionalID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules WHERE id = $1 AND professional_id = $2
	`, id, professionalID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "could not delete availability rule")
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) CreateBlackout(ctx context.Context, b Blackout) (*Blackout, error) {
	created, err := scanBlackout(r.pool.QueryRow(ctx, `
		INSERT INTO blackouts (id, professional_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, professional_id, start_time, end_time, reason, created_at
	`, uuid.New(), b.ProfessionalID, b.Start, b.End, b.Reason))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not create blackout")
	}
	return created, nil
}

func (r *PgRepository) DeleteBlackout(ctx context.Context, professionalID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blackouts WHERE id = $1 AND professional_id = $2
	`, id, professionalID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "could not delete blackout")
	}
	if tag.RowsAffected() == 0 {
		return ErrBlackoutNotFound
	}
	return nil
}
