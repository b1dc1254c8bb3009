package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const resolveSQL = `
	SELECT id, 'professional', name, avatar_url, specialty, created_at FROM professionals WHERE id = ANY($1)
	UNION ALL
	SELECT id, 'patient', name, avatar_url, NULL::text, created_at FROM patients WHERE id = ANY($1)
	UNION ALL
	SELECT id, 'clinic', name, avatar_url, NULL::text, created_at FROM clinics WHERE id = ANY($1)
	UNION ALL
	SELECT id, 'company', name, avatar_url, NULL::text, created_at FROM companies WHERE id = ANY($1)
`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Name,
		&i.AvatarURL,
		&i.Specialty,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *PgRepository) ResolveMany(ctx context.Context, ids []uuid.UUID) ([]Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, resolveSQL, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not resolve profiles")
	}
	defer rows.Close()

	var result []Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "could not resolve profiles")
		}
		result = append(result, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "could not resolve profiles")
	}
	return result, nil
}

func (r *PgRepository) FindCPF(ctx context.Context, cpf string) (Kind, bool, error) {
	var kind Kind
	err := r.pool.QueryRow(ctx, `SELECT kind FROM profile_cpfs WHERE cpf = $1`, cpf).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.Unavailable, err, "could not check CPF")
	}
	return kind, true, nil
}

func (r *PgRepository) Create(ctx context.Context, id uuid.UUID, in RegisterInput, cpf string) (*Identity, error) {
	var (
		query string
		args  []any
	)

	switch in.Kind {
	case KindProfessional:
		query = `
			INSERT INTO professionals (id, name, cpf, specialty, avatar_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, 'professional', name, avatar_url, specialty, created_at`
		args = []any{id, in.Name, cpf, in.Specialty, in.AvatarURL}
	case KindPatient:
		query = `
			INSERT INTO patients (id, name, cpf, avatar_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id, 'patient', name, avatar_url, NULL::text, created_at`
		args = []any{id, in.Name, cpf, in.AvatarURL}
	case KindClinic, KindCompany:
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, avatar_url)
			VALUES ($1, $2, $3)
			RETURNING id, '%s', name, avatar_url, NULL::text, created_at`, in.Kind.table(), in.Kind)
		args = []any{id, in.Name, in.AvatarURL}
	default:
		return nil, apperr.New(apperr.InvalidInput, "unknown profile kind")
	}

	var identity *Identity
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// profile_cpfs is keyed by CPF across both kinds.
		if cpf != "" {
			if _, err := tx.Exec(ctx, `
				INSERT INTO profile_cpfs (cpf, kind, profile_id) VALUES ($1, $2, $3)
			`, cpf, string(in.Kind), id); err != nil {
				return err
			}
		}
		var err error
		identity, err = scanIdentity(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, asCreateError(err)
	}
	return identity, nil
}

func asCreateError(err error) error {
	if db.IsUniqueViolation(err) {
		if strings.Contains(db.ViolatedConstraint(err), "cpf") {
			return ErrDuplicateCPF
		}
		return ErrAlreadyRegistered
	}
	return apperr.Wrap(apperr.Unavailable, err, "could not create profile")
}
