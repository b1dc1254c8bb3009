package feed

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

func unavailable(err error) error {
	return apperr.Wrap(apperr.Unavailable, err, "feed store unavailable")
}

// Helpers

const postColumns = `id, author_id, content, media, likes_count, comments_count, active, created_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.Content,
		&p.Media,
		&p.LikesCount,
		&p.CommentsCount,
		&p.Active,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, unavailable(err)
	}
	if p.Media == nil {
		p.Media = []string{}
	}
	return &p, nil
}

func scanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&c.Content,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	return &c, nil
}

// where renders the filter part of a post query. Placeholders start at $1.
func where(q PostQuery) (string, []any) {
	conds := []string{"active"}
	var args []any
	if q.Authors != nil {
		args = append(args, q.Authors)
		conds = append(conds, fmt.Sprintf("author_id = ANY($%d)", len(args)))
	}
	if q.Since != nil {
		args = append(args, *q.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// activePost locks the post row so counter updates serialize per post.
func activePost(ctx context.Context, tx pgx.Tx, postID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 AND active FOR UPDATE`, postID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		return unavailable(err)
	}
	return nil
}

// Interface methods

func (r *PgRepository) ListPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	cond, args := where(q)
	order := "ORDER BY created_at DESC, id"
	if q.ByLikes {
		order = "ORDER BY likes_count DESC, created_at DESC, id"
	}
	args = append(args, q.Limit, q.Offset)
	sql := fmt.Sprintf(`SELECT %s FROM posts %s %s LIMIT $%d OFFSET $%d`,
		postColumns, cond, order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	result := make([]Post, 0, q.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return result, nil
}

func (r *PgRepository) CountPosts(ctx context.Context, q PostQuery) (int, error) {
	cond, args := where(q)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts `+cond, args...).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (r *PgRepository) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)
	`, userID, postIDs)
	if err != nil {
		return nil, unavailable(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, unavailable(err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *PgRepository) CreatePost(ctx context.Context, p Post) (*Post, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, content, media, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+postColumns,
		p.ID, p.AuthorID, p.Content, p.Media)
	return scanPost(row)
}

func (r *PgRepository) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 AND active`, id)
	return scanPost(row)
}

func (r *PgRepository) DeactivatePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET active = false WHERE id = $1 AND active`, id)
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PgRepository) InsertLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	inserted := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := activePost(ctx, tx, postID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, postID, userID)
		if err != nil {
			return unavailable(err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		inserted = true

		if _, err := tx.Exec(ctx, `UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1`, postID); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return false, asStoreError(err)
	}
	return inserted, nil
}

func (r *PgRepository) DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	removed := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return unavailable(err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		removed = true

		_, err = tx.Exec(ctx, `
			UPDATE posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1
		`, postID)
		if err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return false, asStoreError(err)
	}
	return removed, nil
}

func (r *PgRepository) InsertComment(ctx context.Context, c Comment) (*Comment, error) {
	var created *Comment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := activePost(ctx, tx, c.PostID); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO post_comments (id, post_id, author_id, content, created_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING id, post_id, author_id, content, created_at
		`, c.ID, c.PostID, c.AuthorID, c.Content)
		var err error
		if created, err = scanComment(row); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, c.PostID); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, asStoreError(err)
	}
	return created, nil
}

func (r *PgRepository) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, post_id, author_id, content, created_at
		FROM post_comments
		WHERE post_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`, postID, limit, offset)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	result := make([]Comment, 0, limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return result, nil
}

func (r *PgRepository) CountComments(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM post_comments WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// asStoreError keeps typed errors raised inside a transaction and marks
// begin/commit failures as Unavailable.
func asStoreError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return unavailable(err)
}
