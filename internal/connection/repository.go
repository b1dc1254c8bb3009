package connection

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Insert creates the edge if absent. inserted is false when the pair
	// already existed; the existing row is left untouched.
	Insert(ctx context.Context, followerID, followingID uuid.UUID) (c *Connection, inserted bool, err error)
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)

	CountFollowers(ctx context.Context, userID uuid.UUID) (int, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int, error)

	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Edge, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Edge, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
