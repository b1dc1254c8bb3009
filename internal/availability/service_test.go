package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/profile"
)

// -- Fakes --

type fakeResolver map[uuid.UUID]profile.Kind

func (f fakeResolver) Resolve(_ context.Context, id uuid.UUID) (*profile.Identity, error) {
	kind, ok := f[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &profile.Identity{ID: id, Kind: kind}, nil
}

type fakeRepo struct {
	rules     []Rule
	bookings  []Booking
	blackouts []Blackout
	loadErr   error
	queried   int
}

func (f *fakeRepo) ActiveRules(_ context.Context, id uuid.UUID) ([]Rule, error) {
	f.queried++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []Rule
	for _, r := range f.rules {
		if r.ProfessionalID == id && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) OccupyingBookings(_ context.Context, _ uuid.UUID, from, to time.Time) ([]Booking, error) {
	var out []Booking
	for _, b := range f.bookings {
		if Overlaps(b.Start, b.End(), from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) Blackouts(_ context.Context, _ uuid.UUID, from, to time.Time) ([]Blackout, error) {
	var out []Blackout
	for _, b := range f.blackouts {
		if Overlaps(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateRule(_ context.Context, r Rule) (*Rule, error) {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	f.rules = append(f.rules, r)
	return &r, nil
}

func (f *fakeRepo) ListRules(_ context.Context, id uuid.UUID) ([]Rule, error) {
	return f.ActiveRules(context.Background(), id)
}

func (f *fakeRepo) DeleteRule(_ context.Context, professionalID, id uuid.UUID) error {
	for i, r := range f.rules {
		if r.ID == id && r.ProfessionalID == professionalID {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

func (f *fakeRepo) CreateBlackout(_ context.Context, b Blackout) (*Blackout, error) {
	b.ID = uuid.New()
	f.blackouts = append(f.blackouts, b)
	return &b, nil
}

func (f *fakeRepo) DeleteBlackout(_ context.Context, professionalID, id uuid.UUID) error {
	for i, b := range f.blackouts {
		if b.ID == id && b.ProfessionalID == professionalID {
			f.blackouts = append(f.blackouts[:i], f.blackouts[i+1:]...)
			return nil
		}
	}
	return ErrBlackoutNotFound
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	doctor  uuid.UUID
	patient uuid.UUID
}

func newFixture() fixture {
	doctor, patient := uuid.New(), uuid.New()
	repo := &fakeRepo{}
	resolver := fakeResolver{doctor: profile.KindProfessional, patient: profile.KindPatient}
	svc := NewService(repo, resolver, Settings{Duration: 50 * time.Minute, Gap: 10 * time.Minute, Location: saoPaulo}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, saoPaulo) }
	return fixture{svc: svc, repo: repo, doctor: doctor, patient: patient}
}

func TestSlotsForDate(t *testing.T) {
	f := newFixture()
	rule := weeklyRule(time.Monday, "08:00", "11:00")
	rule.ProfessionalID = f.doctor
	f.repo.rules = []Rule{rule}
	f.repo.bookings = []Booking{{Start: at(9, 0), Duration: 50 * time.Minute}}

	got, err := f.svc.SlotsForDate(context.Background(), f.doctor, "2026-03-02")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", got.Date)
	assert.Equal(t, []string{"08:00", "10:00"}, starts(got.Slots))
	assert.Equal(t, 50*time.Minute, got.Duration)
	assert.Equal(t, 10*time.Minute, got.Gap)
}

func TestSlotsForDateNoRules(t *testing.T) {
	f := newFixture()

	got, err := f.svc.SlotsForDate(context.Background(), f.doctor, "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, got.Slots)
	assert.NotNil(t, got.Slots)
}

func TestSlotsForDateErrors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SlotsForDate(context.Background(), f.doctor, "02/03/2026")
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = f.svc.SlotsForDate(context.Background(), f.patient, "2026-03-02")
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	_, err = f.svc.SlotsForDate(context.Background(), uuid.New(), "2026-03-02")
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	f.repo.loadErr = apperr.Wrap(apperr.Unavailable, errors.New("conn refused"), "could not load availability rules")
	_, err = f.svc.SlotsForDate(context.Background(), f.doctor, "2026-03-02")
	assert.True(t, apperr.Is(err, apperr.Unavailable))
}

func TestIsBookable(t *testing.T) {
	f := newFixture()
	rule := weeklyRule(time.Monday, "08:00", "11:00")
	rule.ProfessionalID = f.doctor
	f.repo.rules = []Rule{rule}
	f.repo.blackouts = []Blackout{{ProfessionalID: f.doctor, Start: at(10, 0), End: at(11, 0)}}

	ok, err := f.svc.IsBookable(context.Background(), f.doctor, at(8, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	// Same instant expressed in UTC.
	ok, err = f.svc.IsBookable(context.Background(), f.doctor, at(9, 0).UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.IsBookable(context.Background(), f.doctor, at(8, 30))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.IsBookable(context.Background(), f.doctor, at(10, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRule(t *testing.T) {
	ctx := context.Background()
	monday := 1

	t.Run("weekly rule", func(t *testing.T) {
		f := newFixture()
		got, err := f.svc.CreateRule(ctx, f.doctor, RuleInput{DayOfWeek: &monday, StartTime: "08:00", EndTime: "12:00"})
		require.NoError(t, err)
		assert.Equal(t, time.Monday, *got.DayOfWeek)
		assert.True(t, got.Active)
		assert.Equal(t, f.doctor, got.ProfessionalID)
	})

	t.Run("specific date", func(t *testing.T) {
		f := newFixture()
		got, err := f.svc.CreateRule(ctx, f.doctor, RuleInput{Date: "2026-03-05", StartTime: "14:00", EndTime: "16:00"})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-05", got.Date.Format(dateLayout))
	})

	t.Run("patients cannot create rules", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateRule(ctx, f.patient, RuleInput{DayOfWeek: &monday, StartTime: "08:00", EndTime: "12:00"})
		assert.ErrorIs(t, err, ErrNotProfessional)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		f := newFixture()
		seven := 7
		cases := []RuleInput{
			{StartTime: "08:00", EndTime: "12:00"},
			{DayOfWeek: &monday, Date: "2026-03-05", StartTime: "08:00", EndTime: "12:00"},
			{DayOfWeek: &seven, StartTime: "08:00", EndTime: "12:00"},
			{DayOfWeek: &monday, StartTime: "12:00", EndTime: "08:00"},
			{DayOfWeek: &monday, StartTime: "8", EndTime: "12:00"},
			{Date: "tomorrow", StartTime: "08:00", EndTime: "12:00"},
		}
		for _, in := range cases {
			_, err := f.svc.CreateRule(ctx, f.doctor, in)
			assert.True(t, apperr.Is(err, apperr.InvalidInput), "%+v", in)
		}
	})
}

func TestBlackoutLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reason := "congresso"

	created, err := f.svc.CreateBlackout(ctx, f.doctor, at(8, 0), at(12, 0), &reason)
	require.NoError(t, err)

	list, err := f.svc.ListBlackouts(ctx, f.doctor)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.CreateBlackout(ctx, f.doctor, at(12, 0), at(8, 0), nil)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	require.NoError(t, f.svc.DeleteBlackout(ctx, f.doctor, created.ID))
	assert.ErrorIs(t, f.svc.DeleteBlackout(ctx, f.doctor, created.ID), ErrBlackoutNotFound)
	assert.ErrorIs(t, f.svc.DeleteBlackout(ctx, f.patient, created.ID), ErrNotProfessional)
}
