package feed

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListPosts(ctx context.Context, q PostQuery) ([]Post, error)
	CountPosts(ctx context.Context, q PostQuery) (int, error)
	// LikedPostIDs returns the subset of postIDs liked by userID.
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	CreatePost(ctx context.Context, p Post) (*Post, error)
	// GetPost returns an active post or ErrPostNotFound.
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	DeactivatePost(ctx context.Context, id uuid.UUID) error

	// InsertLike adds the like and bumps likes_count in one transaction.
	// inserted is false when the like already existed.
	InsertLike(ctx context.Context, postID, userID uuid.UUID) (inserted bool, err error)
	// DeleteLike removes the like and decrements likes_count in one
	// transaction. removed is false when there was nothing to remove.
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) (removed bool, err error)

	// InsertComment adds the comment and bumps comments_count in one transaction.
	InsertComment(ctx context.Context, c Comment) (*Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]Comment, error)
	CountComments(ctx context.Context, postID uuid.UUID) (int, error)
}
