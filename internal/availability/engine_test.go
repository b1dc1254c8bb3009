package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

var saoPaulo = time.FixedZone("BRT", -3*3600)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, saoPaulo)

func weekday(d time.Weekday) *time.Weekday { return &d }

func weeklyRule(d time.Weekday, start, end string) Rule {
	return Rule{DayOfWeek: weekday(d), StartTime: start, EndTime: end, Active: true}
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, saoPaulo)
}

func baseInput(rules ...Rule) Input {
	return Input{
		Date:     monday,
		Location: saoPaulo,
		Rules:    rules,
		Duration: 50 * time.Minute,
		Gap:      10 * time.Minute,
	}
}

func starts(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.In(saoPaulo).Format("15:04"))
	}
	return out
}

func TestComputeSlotsNoRules(t *testing.T) {
	slots, err := ComputeSlots(baseInput())
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	// A rule for another weekday is the same as no rule.
	slots, err = ComputeSlots(baseInput(weeklyRule(time.Tuesday, "08:00", "12:00")))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeSlotsExpandsWindow(t *testing.T) {
	slots, err := ComputeSlots(baseInput(weeklyRule(time.Monday, "08:00", "12:00")))
	require.NoError(t, err)

	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, starts(slots))
	for _, s := range slots {
		assert.Equal(t, 50*time.Minute, s.End.Sub(s.Start))
	}
}

func TestComputeSlotsDropsCandidatePastWindowEnd(t *testing.T) {
	slots, err := ComputeSlots(baseInput(weeklyRule(time.Monday, "08:00", "09:49")))
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00"}, starts(slots))

	slots, err = ComputeSlots(baseInput(weeklyRule(time.Monday, "08:00", "09:50")))
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "09:00"}, starts(slots))
}

func TestComputeSlotsExcludesBookings(t *testing.T) {
	in := baseInput(weeklyRule(time.Monday, "08:00", "12:00"))
	in.Bookings = []Booking{
		{Start: at(9, 0), Duration: 50 * time.Minute},
		// Off grid booking that spills into the 11:00 slot.
		{Start: at(10, 55), Duration: 30 * time.Minute},
	}

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "10:00"}, starts(slots))
}

func TestComputeSlotsBookingTouchingSlotDoesNotBlock(t *testing.T) {
	in := baseInput(weeklyRule(time.Monday, "08:00", "10:00"))
	in.Bookings = []Booking{{Start: at(8, 50), Duration: 10 * time.Minute}}

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "09:00"}, starts(slots))
}

func TestComputeSlotsExcludesBlackouts(t *testing.T) {
	in := baseInput(weeklyRule(time.Monday, "08:00", "12:00"))
	in.Blackouts = []Blackout{
		// Contains the 08:00 start.
		{Start: at(7, 0), End: at(8, 30)},
		// Starts after 10:00 but inside the 10:00 slot.
		{Start: at(10, 40), End: at(10, 45)},
	}

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, starts(slots))
}

func TestComputeSlotsDeduplicatesOverlappingRules(t *testing.T) {
	in := baseInput(
		weeklyRule(time.Monday, "08:00", "11:00"),
		weeklyRule(time.Monday, "10:00", "12:00"),
		weeklyRule(time.Monday, "08:30", "10:00"),
	)

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "08:30", "09:00", "10:00", "11:00"}, starts(slots))
}

func TestComputeSlotsSpecificDateAndInactive(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	other := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	inactive := weeklyRule(time.Monday, "08:00", "09:00")
	inactive.Active = false

	in := baseInput(
		Rule{Date: &date, StartTime: "14:00", EndTime: "15:00", Active: true},
		Rule{Date: &other, StartTime: "16:00", EndTime: "17:00", Active: true},
		inactive,
	)

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, starts(slots))
}

func TestComputeSlotsDropsPastSlots(t *testing.T) {
	in := baseInput(weeklyRule(time.Monday, "08:00", "12:00"))
	in.Now = at(9, 30)

	slots, err := ComputeSlots(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00"}, starts(slots))
}

func TestComputeSlotsInvalidInput(t *testing.T) {
	in := baseInput(weeklyRule(time.Monday, "08:00", "12:00"))
	in.Date = time.Time{}
	_, err := ComputeSlots(in)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	in = baseInput(weeklyRule(time.Monday, "08:00", "12:00"))
	in.Duration = 0
	_, err = ComputeSlots(in)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = ComputeSlots(baseInput(weeklyRule(time.Monday, "8h", "12:00")))
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestComputeSlotsNeverOverlapsOccupiedTime(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		in := baseInput(
			weeklyRule(time.Monday, "07:00", "12:00"),
			weeklyRule(time.Monday, "13:00", "19:30"),
		)
		in.Gap = time.Duration(rng.Intn(4)*5) * time.Minute
		in.Duration = time.Duration(20+rng.Intn(5)*10) * time.Minute

		for i, n := 0, rng.Intn(6); i < n; i++ {
			start := at(7+rng.Intn(12), rng.Intn(60))
			in.Bookings = append(in.Bookings, Booking{Start: start, Duration: time.Duration(15+rng.Intn(60)) * time.Minute})
		}
		for i, n := 0, rng.Intn(3); i < n; i++ {
			start := at(7+rng.Intn(12), rng.Intn(60))
			in.Blackouts = append(in.Blackouts, Blackout{Start: start, End: start.Add(time.Duration(5+rng.Intn(120)) * time.Minute)})
		}

		slots, err := ComputeSlots(in)
		require.NoError(t, err)

		for i, s := range slots {
			if i > 0 {
				require.True(t, slots[i-1].Start.Before(s.Start), "slots must be strictly ascending")
			}
			for _, b := range in.Bookings {
				require.False(t, Overlaps(s.Start, s.End, b.Start, b.End()), "slot %s overlaps booking %s", s.Start, b.Start)
			}
			for _, b := range in.Blackouts {
				require.False(t, Overlaps(s.Start, s.End, b.Start, b.End), "slot %s overlaps blackout %s", s.Start, b.Start)
				require.False(t, !s.Start.Before(b.Start) && s.Start.Before(b.End), "slot %s starts inside blackout", s.Start)
			}
		}
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:45")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 45, m)

	for _, bad := range []string{"9:45", "24:00", "12:60", "ab:cd", ""} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
