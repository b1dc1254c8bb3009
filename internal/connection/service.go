package connection

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/pagination"
	"github.com/hackgods/telehealth-social/internal/profile"
)

var (
	ErrSelfFollow       = apperr.New(apperr.InvalidInput, "you cannot follow yourself")
	ErrAlreadyFollowing = apperr.New(apperr.Conflict, "already following this user")
	ErrUserNotFound     = apperr.New(apperr.NotFound, "user not found")
)

// ProfileResolver tags listed identities with their profile kind.
type ProfileResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*profile.Identity, error)
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Identity, error)
}

type Service struct {
	repo     Repository
	profiles ProfileResolver
	log      *zap.Logger
}

func NewService(repo Repository, profiles ProfileResolver, log *zap.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, log: log}
}

// Follow creates the edge follower -> followee. The insert is a single
// conditional statement, so concurrent duplicate follows produce exactly one
// row and ErrAlreadyFollowing for everyone else.
func (s *Service) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*Connection, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}

	if _, err := s.profiles.Resolve(ctx, followeeID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	c, inserted, err := s.repo.Insert(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrAlreadyFollowing
	}

	s.log.Debug("follow created",
		zap.String("follower_id", followerID.String()),
		zap.String("following_id", followeeID.String()))
	return c, nil
}

// Unfollow removes the edge if present. Removing a missing edge is not an error,
// and a self edge can never exist.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return nil
	}
	return s.repo.Delete(ctx, followerID, followeeID)
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if followerID == followeeID {
		return false, nil
	}
	return s.repo.Exists(ctx, followerID, followeeID)
}

// FollowerCount counts incoming edges.
func (s *Service) FollowerCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountFollowers(ctx, userID)
}

// FollowingCount counts outgoing edges.
func (s *Service) FollowingCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountFollowing(ctx, userID)
}

func (s *Service) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.FollowingIDs(ctx, userID)
}

func (s *Service) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) (*Page, error) {
	return s.list(ctx, userID, pagination.New(limit, offset), s.repo.CountFollowers, s.repo.ListFollowers)
}

func (s *Service) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) (*Page, error) {
	return s.list(ctx, userID, pagination.New(limit, offset), s.repo.CountFollowing, s.repo.ListFollowing)
}

type (
	countFunc func(ctx context.Context, userID uuid.UUID) (int, error)
	listFunc  func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Edge, error)
)

// list pages through one direction of the graph. Ids that do not resolve to
// exactly one profile kind are dropped from the page; total still counts the
// stored edges.
func (s *Service) list(ctx context.Context, userID uuid.UUID, p pagination.Params, count countFunc, list listFunc) (*Page, error) {
	total, err := count(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: make([]Entry, 0), Total: total, Limit: p.Limit, Offset: p.Offset}
	if total == 0 || p.Offset >= total {
		return page, nil
	}

	edges, err := list(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return page, nil
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.UserID)
	}
	identities, err := s.profiles.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, e := range edges {
		identity, ok := identities[e.UserID]
		if !ok {
			s.log.Debug("skipping unresolved connection", zap.String("user_id", e.UserID.String()))
			continue
		}
		page.Entries = append(page.Entries, Entry{Identity: identity, FollowedAt: e.CreatedAt})
	}
	return page, nil
}
