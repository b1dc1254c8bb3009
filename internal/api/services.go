package api

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/appointment"
	"github.com/hackgods/telehealth-social/internal/availability"
	"github.com/hackgods/telehealth-social/internal/connection"
	"github.com/hackgods/telehealth-social/internal/feed"
	"github.com/hackgods/telehealth-social/internal/profile"
)

// The handlers depend on these views of the domain services.

type ConnectionService interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*connection.Connection, error)
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	FollowerCount(ctx context.Context, userID uuid.UUID) (int, error)
	FollowingCount(ctx context.Context, userID uuid.UUID) (int, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) (*connection.Page, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) (*connection.Page, error)
}

type FeedService interface {
	Compose(ctx context.Context, q feed.Query) (*feed.Page, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, content string, media []string) (*feed.Post, error)
	DeletePost(ctx context.Context, callerID, postID uuid.UUID) error
	Like(ctx context.Context, userID, postID uuid.UUID) error
	Unlike(ctx context.Context, userID, postID uuid.UUID) error
	AddComment(ctx context.Context, authorID, postID uuid.UUID, content string) (*feed.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) (*feed.CommentPage, error)
}

type AvailabilityService interface {
	SlotsForDate(ctx context.Context, professionalID uuid.UUID, date string) (*availability.DaySchedule, error)
	CreateRule(ctx context.Context, callerID uuid.UUID, in availability.RuleInput) (*availability.Rule, error)
	ListRules(ctx context.Context, callerID uuid.UUID) ([]availability.Rule, error)
	DeleteRule(ctx context.Context, callerID, ruleID uuid.UUID) error
	CreateBlackout(ctx context.Context, callerID uuid.UUID, start, end time.Time, reason *string) (*availability.Blackout, error)
	ListBlackouts(ctx context.Context, callerID uuid.UUID) ([]availability.Blackout, error)
	DeleteBlackout(ctx context.Context, callerID, blackoutID uuid.UUID) error
}

type AppointmentService interface {
	Book(ctx context.Context, patientID, professionalID uuid.UUID, start time.Time, notes *string) (*appointment.Appointment, error)
	Transition(ctx context.Context, callerID, id uuid.UUID, action appointment.Action) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, callerID, id uuid.UUID) (*appointment.AppointmentDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*appointment.Page, error)
}

type ProfileService interface {
	Resolve(ctx context.Context, id uuid.UUID) (*profile.Identity, error)
	Register(ctx context.Context, userID uuid.UUID, in profile.RegisterInput) (*profile.Identity, error)
}

type MediaStore interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}
