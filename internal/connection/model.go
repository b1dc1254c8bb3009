package connection

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/profile"
)

// Connection is a directed follow edge.
type Connection struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Edge is the far end of a connection as stored, before profile resolution.
type Edge struct {
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Entry is a listed follower or followee tagged with its profile kind.
type Entry struct {
	profile.Identity
	FollowedAt time.Time `json:"followed_at"`
}

type Page struct {
	Entries []Entry
	Total   int
	Limit   int
	Offset  int
}
