package availability

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/profile"
)

const dateLayout = "2006-01-02"

var (
	ErrProfessionalNotFound = apperr.New(apperr.NotFound, "professional not found")
	ErrNotProfessional      = apperr.New(apperr.Forbidden, "only professionals can manage availability")
)

// ProfileResolver is the part of the profile service the engine needs.
type ProfileResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*profile.Identity, error)
}

type Settings struct {
	Duration time.Duration
	Gap      time.Duration
	Location *time.Location
}

type Service struct {
	repo     Repository
	profiles ProfileResolver
	settings Settings
	now      func() time.Time
	log      *zap.Logger
}

func NewService(repo Repository, profiles ProfileResolver, settings Settings, log *zap.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Service{
		repo:     repo,
		profiles: profiles,
		settings: settings,
		now:      time.Now,
		log:      log,
	}
}

// SlotsForDate lists the free slots of a professional on a YYYY-MM-DD date.
func (s *Service) SlotsForDate(ctx context.Context, professionalID uuid.UUID, date string) (*DaySchedule, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.settings.Location)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, errInvalidDate, "invalid date")
	}

	if err := s.requireKind(ctx, professionalID, ErrProfessionalNotFound); err != nil {
		return nil, err
	}

	slots, err := s.daySlots(ctx, professionalID, day)
	if err != nil {
		return nil, err
	}

	return &DaySchedule{
		ProfessionalID: professionalID,
		Date:           day.Format(dateLayout),
		Slots:          slots,
		Duration:       s.settings.Duration,
		Gap:            s.settings.Gap,
		Location:       s.settings.Location,
	}, nil
}

// IsBookable reports whether start is exactly one of the professional's free slots.
func (s *Service) IsBookable(ctx context.Context, professionalID uuid.UUID, start time.Time) (bool, error) {
	local := start.In(s.settings.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.settings.Location)

	slots, err := s.daySlots(ctx, professionalID, day)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) daySlots(ctx context.Context, professionalID uuid.UUID, day time.Time) ([]Slot, error) {
	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	rules, err := s.repo.ActiveRules(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return []Slot{}, nil
	}

	bookings, err := s.repo.OccupyingBookings(ctx, professionalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	blackouts, err := s.repo.Blackouts(ctx, professionalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return ComputeSlots(Input{
		Date:      day,
		Location:  s.settings.Location,
		Rules:     rules,
		Bookings:  bookings,
		Blackouts: blackouts,
		Duration:  s.settings.Duration,
		Gap:       s.settings.Gap,
		Now:       s.now(),
	})
}

// RuleInput describes a new rule. Exactly one of DayOfWeek or Date is set.
type RuleInput struct {
	DayOfWeek *int
	Date      string
	StartTime string
	EndTime   string
}

func (s *Service) CreateRule(ctx context.Context, callerID uuid.UUID, in RuleInput) (*Rule, error) {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return nil, err
	}

	rule := Rule{
		ProfessionalID: callerID,
		StartTime:      strings.TrimSpace(in.StartTime),
		EndTime:        strings.TrimSpace(in.EndTime),
		Active:         true,
	}

	switch {
	case in.DayOfWeek != nil && in.Date != "":
		return nil, apperr.New(apperr.InvalidInput, "set either day_of_week or date, not both")
	case in.DayOfWeek != nil:
		if *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
			return nil, apperr.New(apperr.InvalidInput, "day_of_week must be between 0 and 6")
		}
		wd := time.Weekday(*in.DayOfWeek)
		rule.DayOfWeek = &wd
	case in.Date != "":
		d, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, errInvalidDate, "invalid date")
		}
		rule.Date = &d
	default:
		return nil, apperr.New(apperr.InvalidInput, "day_of_week or date is required")
	}

	sh, sm, err := ParseClock(rule.StartTime)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid start_time")
	}
	eh, em, err := ParseClock(rule.EndTime)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid end_time")
	}
	if eh*60+em <= sh*60+sm {
		return nil, apperr.New(apperr.InvalidInput, "end_time must be after start_time")
	}

	created, err := s.repo.CreateRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	s.log.Info("availability rule created",
		zap.String("professional_id", callerID.String()),
		zap.String("rule_id", created.ID.String()))
	return created, nil
}

func (s *Service) ListRules(ctx context.Context, callerID uuid.UUID) ([]Rule, error) {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return nil, err
	}
	return s.repo.ListRules(ctx, callerID)
}

func (s *Service) DeleteRule(ctx context.Context, callerID, ruleID uuid.UUID) error {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return err
	}
	return s.repo.DeleteRule(ctx, callerID, ruleID)
}

func (s *Service) CreateBlackout(ctx context.Context, callerID uuid.UUID, start, end time.Time, reason *string) (*Blackout, error) {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "start and end are required")
	}
	if !end.After(start) {
		return nil, apperr.New(apperr.InvalidInput, "end must be after start")
	}

	created, err := s.repo.CreateBlackout(ctx, Blackout{
		ProfessionalID: callerID,
		Start:          start,
		End:            end,
		Reason:         reason,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("blackout created",
		zap.String("professional_id", callerID.String()),
		zap.Time("start", start),
		zap.Time("end", end))
	return created, nil
}

// ListBlackouts returns the caller's blackouts that have not ended yet.
func (s *Service) ListBlackouts(ctx context.Context, callerID uuid.UUID) ([]Blackout, error) {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return nil, err
	}
	now := s.now()
	return s.repo.Blackouts(ctx, callerID, now, now.AddDate(5, 0, 0))
}

func (s *Service) DeleteBlackout(ctx context.Context, callerID, blackoutID uuid.UUID) error {
	if err := s.requireKind(ctx, callerID, ErrNotProfessional); err != nil {
		return err
	}
	return s.repo.DeleteBlackout(ctx, callerID, blackoutID)
}

// requireKind fails with notProfessional unless id resolves to a professional.
func (s *Service) requireKind(ctx context.Context, id uuid.UUID, notProfessional error) error {
	identity, err := s.profiles.Resolve(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return notProfessional
		}
		return err
	}
	if identity.Kind != profile.KindProfessional {
		return notProfessional
	}
	return nil
}
