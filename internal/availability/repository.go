package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

var (
	ErrRuleNotFound     = apperr.New(apperr.NotFound, "availability rule not found")
	ErrBlackoutNotFound = apperr.New(apperr.NotFound, "blackout not found")
	errInvalidDate      = errors.New("expected YYYY-MM-DD")
)

// Repository loads the three inputs of the slot computation and manages a
// professional's rules and blackouts.
type Repository interface {
	ActiveRules(ctx context.Context, professionalID uuid.UUID) ([]Rule, error)
	// OccupyingBookings returns appointments that hold their slot and
	// intersect [from, to).
	OccupyingBookings(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Booking, error)
	// Blackouts returns blackouts intersecting [from, to).
	Blackouts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Blackout, error)

	CreateRule(ctx context.Context, r Rule) (*Rule, error)
	ListRules(ctx context.Context, professionalID uuid.UUID) ([]Rule, error)
	DeleteRule(ctx context.Context, professionalID, id uuid.UUID) error

	CreateBlackout(ctx context.Context, b Blackout) (*Blackout, error)
	DeleteBlackout(ctx context.Context, professionalID, id uuid.UUID) error
}
