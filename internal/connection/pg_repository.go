package connection

import (
	"context"
	"errors"

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

func unavailable(err error) error {
	return apperr.Wrap(apperr.Unavailable, err, "connection store unavailable")
}

func (r *PgRepository) Insert(ctx context.Context, followerID, followingID uuid.UUID) (*Connection, bool, error) {
	var c Connection
	err := r.pool.QueryRow(ctx, `
		INSERT INTO connections (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
		RETURNING follower_id, following_id, created_at
	`, followerID, followingID).Scan(&c.FollowerID, &c.FollowingID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable(err)
	}
	return &c, true, nil
}

func (r *PgRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM connections WHERE follower_id = $1 AND following_id = $2
	`, followerID, followingID)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *PgRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM connections WHERE follower_id = $1 AND following_id = $2)
	`, followerID, followingID).Scan(&exists)
	if err != nil {
		return false, unavailable(err)
	}
	return exists, nil
}

func (r *PgRepository) count(ctx context.Context, sql string, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, sql, userID).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (r *PgRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM connections WHERE following_id = $1`, userID)
}

func (r *PgRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM connections WHERE follower_id = $1`, userID)
}

func (r *PgRepository) edges(ctx context.Context, sql string, args ...any) ([]Edge, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var result []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.UserID, &e.CreatedAt); err != nil {
			return nil, unavailable(err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return result, nil
}

func (r *PgRepository) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Edge, error) {
	return r.edges(ctx, `
		SELECT follower_id, created_at
		FROM connections
		WHERE following_id = $1
		ORDER BY created_at DESC, follower_id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
}

func (r *PgRepository) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Edge, error) {
	return r.edges(ctx, `
		SELECT following_id, created_at
		FROM connections
		WHERE follower_id = $1
		ORDER BY created_at DESC, following_id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
}

func (r *PgRepository) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT following_id FROM connections WHERE follower_id = $1`, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}
