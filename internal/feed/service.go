package feed

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/pagination"
	"github.com/hackgods/telehealth-social/internal/profile"
)

const (
	maxPostLength    = 5000
	maxCommentLength = 2000
	maxMediaPerPost  = 10
)

var (
	ErrPostNotFound   = apperr.New(apperr.NotFound, "post not found")
	ErrAlreadyLiked   = apperr.New(apperr.Conflict, "post already liked")
	ErrNotPostAuthor  = apperr.New(apperr.Forbidden, "only the author can delete this post")
	ErrInvalidFilter  = apperr.New(apperr.InvalidInput, "filter must be one of all, following, trending")
	ErrViewerRequired = apperr.New(apperr.Unauthenticated, "authentication required for the following feed")
	ErrEmptyPost      = apperr.New(apperr.InvalidInput, "post must have content or media")
	ErrEmptyComment   = apperr.New(apperr.InvalidInput, "comment content is required")
)

// FollowGraph lists who a viewer follows.
type FollowGraph interface {
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ProfileResolver interface {
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Identity, error)
}

type Service struct {
	repo     Repository
	graph    FollowGraph
	profiles ProfileResolver
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, graph FollowGraph, profiles ProfileResolver, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		graph:    graph,
		profiles: profiles,
		log:      log,
		now:      time.Now,
	}
}

func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFollowing, FilterTrending:
		return Filter(s), nil
	}
	return "", ErrInvalidFilter
}

// Compose builds one page of the feed for q. The total is counted over the
// whole filtered set, independent of the page window.
func (s *Service) Compose(ctx context.Context, q Query) (*Page, error) {
	filter, err := ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	p := pagination.New(q.Limit, q.Offset)
	page := &Page{Posts: make([]Post, 0), Limit: p.Limit, Offset: p.Offset, Filter: filter}
	pq := PostQuery{Limit: p.Limit, Offset: p.Offset}

	switch filter {
	case FilterFollowing:
		if q.Viewer == nil {
			return nil, ErrViewerRequired
		}
		ids, err := s.graph.FollowingIDs(ctx, *q.Viewer)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return page, nil
		}
		pq.Authors = ids
	case FilterTrending:
		since := s.now().Add(-TrendingWindow)
		pq.Since = &since
		pq.ByLikes = true
	}

	total, err := s.repo.CountPosts(ctx, pq)
	if err != nil {
		return nil, err
	}
	page.Total = total
	if total == 0 || p.Offset >= total {
		return page, nil
	}

	posts, err := s.repo.ListPosts(ctx, pq)
	if err != nil {
		return nil, err
	}
	if len(posts) > p.Limit {
		posts = posts[:p.Limit]
	}

	if err := s.annotate(ctx, q.Viewer, posts); err != nil {
		return nil, err
	}
	page.Posts = posts
	return page, nil
}

// annotate marks posts the viewer liked and attaches author identities.
// Author resolution is best effort.
func (s *Service) annotate(ctx context.Context, viewer *uuid.UUID, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}

	if viewer != nil {
		ids := make([]uuid.UUID, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		liked, err := s.repo.LikedPostIDs(ctx, *viewer, ids)
		if err != nil {
			return err
		}
		for i := range posts {
			posts[i].UserLiked = liked[posts[i].ID]
		}
	}

	authors := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		authors = append(authors, p.AuthorID)
	}
	identities, err := s.profiles.ResolveMany(ctx, authors)
	if err != nil {
		s.log.Warn("could not resolve post authors", zap.Error(err))
		return nil
	}
	for i := range posts {
		if identity, ok := identities[posts[i].AuthorID]; ok {
			posts[i].Author = &identity
		}
	}
	return nil
}

func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, content string, media []string) (*Post, error) {
	content = strings.TrimSpace(content)
	cleaned := make([]string, 0, len(media))
	for _, m := range media {
		if m = strings.TrimSpace(m); m != "" {
			cleaned = append(cleaned, m)
		}
	}

	switch {
	case content == "" && len(cleaned) == 0:
		return nil, ErrEmptyPost
	case utf8.RuneCountInString(content) > maxPostLength:
		return nil, apperr.New(apperr.InvalidInput, "post content is too long")
	case len(cleaned) > maxMediaPerPost:
		return nil, apperr.New(apperr.InvalidInput, "too many media attachments")
	}

	post, err := s.repo.CreatePost(ctx, Post{
		ID:       uuid.New(),
		AuthorID: authorID,
		Content:  content,
		Media:    cleaned,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("author_id", authorID.String()))
	return post, nil
}

// DeletePost soft-deletes a post owned by callerID.
func (s *Service) DeletePost(ctx context.Context, callerID, postID uuid.UUID) error {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return ErrNotPostAuthor
	}
	return s.repo.DeactivatePost(ctx, postID)
}

func (s *Service) Like(ctx context.Context, userID, postID uuid.UUID) error {
	inserted, err := s.repo.InsertLike(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyLiked
	}
	return nil
}

// Unlike removes a like. Unliking a post that was not liked is not an error.
func (s *Service) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := s.repo.DeleteLike(ctx, postID, userID)
	return err
}

func (s *Service) AddComment(ctx context.Context, authorID, postID uuid.UUID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, apperr.New(apperr.InvalidInput, "comment is too long")
	}

	return s.repo.InsertComment(ctx, Comment{
		ID:       uuid.New(),
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	})
}

func (s *Service) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) (*CommentPage, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	p := pagination.New(limit, offset)
	total, err := s.repo.CountComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	page := &CommentPage{Comments: make([]Comment, 0), Total: total, Limit: p.Limit, Offset: p.Offset}
	if p.Offset >= total {
		return page, nil
	}

	comments, err := s.repo.ListComments(ctx, postID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	authors := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authors = append(authors, c.AuthorID)
	}
	identities, err := s.profiles.ResolveMany(ctx, authors)
	if err != nil {
		s.log.Warn("could not resolve comment authors", zap.Error(err))
	}
	for i := range comments {
		if identity, ok := identities[comments[i].AuthorID]; ok {
			comments[i].Author = &identity
		}
	}
	page.Comments = comments
	return page, nil
}
