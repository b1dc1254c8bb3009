package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/profile"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterFollowing Filter = "following"
	FilterTrending  Filter = "trending"
)

// TrendingWindow bounds how old a trending post may be.
const TrendingWindow = 7 * 24 * time.Hour

type Post struct {
	ID            uuid.UUID         `json:"id"`
	AuthorID      uuid.UUID         `json:"author_id"`
	Content       string            `json:"content"`
	Media         []string          `json:"media"`
	LikesCount    int               `json:"likes_count"`
	CommentsCount int               `json:"comments_count"`
	Active        bool              `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UserLiked     bool              `json:"userLiked"`
	Author        *profile.Identity `json:"author,omitempty"`
}

type Comment struct {
	ID        uuid.UUID         `json:"id"`
	PostID    uuid.UUID         `json:"post_id"`
	AuthorID  uuid.UUID         `json:"author_id"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Author    *profile.Identity `json:"author,omitempty"`
}

// Query is a feed request. Viewer is nil for anonymous callers.
type Query struct {
	Viewer *uuid.UUID
	Filter string
	Limit  int
	Offset int
}

type Page struct {
	Posts  []Post
	Total  int
	Limit  int
	Offset int
	Filter Filter
}

type CommentPage struct {
	Comments []Comment
	Total    int
	Limit    int
	Offset   int
}

// PostQuery selects active posts. Authors restricts by author when non-nil,
// Since drops older posts and ByLikes orders by likes_count before recency.
type PostQuery struct {
	Authors []uuid.UUID
	Since   *time.Time
	ByLikes bool
	Limit   int
	Offset  int
}
