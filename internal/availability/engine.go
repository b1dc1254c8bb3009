package availability

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

// Input is everything ComputeSlots needs. The caller loads rules, bookings
// and blackouts; the engine does no I/O.
type Input struct {
	Date      time.Time // any instant on the target day, read in Location
	Location  *time.Location
	Rules     []Rule
	Bookings  []Booking
	Blackouts []Blackout
	Duration  time.Duration
	Gap       time.Duration
	Now       time.Time // zero disables dropping past slots
}

// ComputeSlots expands every rule that applies to the target day into
// candidates spaced Duration+Gap apart, drops those overlapping a booking or
// blackout, and returns the rest ascending with duplicates removed.
func ComputeSlots(in Input) ([]Slot, error) {
	if in.Date.IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "date is required")
	}
	if in.Duration <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "slot duration must be positive")
	}
	if in.Gap < 0 {
		return nil, apperr.New(apperr.InvalidInput, "slot gap must not be negative")
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	day := in.Date.In(loc)

	seen := make(map[int64]bool)
	slots := make([]Slot, 0)

	for _, rule := range in.Rules {
		if !rule.appliesTo(day) {
			continue
		}
		startH, startM, err := ParseClock(rule.StartTime)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid availability rule start time")
		}
		endH, endM, err := ParseClock(rule.EndTime)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid availability rule end time")
		}

		windowStart := atClock(day, startH, startM, loc)
		windowEnd := atClock(day, endH, endM, loc)

		for _, c := range candidatesBetween(windowStart, windowEnd, in.Duration, in.Gap) {
			key := c.Start.UnixNano()
			if seen[key] || !in.free(c) {
				continue
			}
			seen[key] = true
			slots = append(slots, c)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots, nil
}

func (in Input) free(c Slot) bool {
	if !in.Now.IsZero() && c.Start.Before(in.Now) {
		return false
	}
	for _, b := range in.Bookings {
		if Overlaps(c.Start, c.End, b.Start, b.End()) {
			return false
		}
	}
	for _, b := range in.Blackouts {
		// A slot starting inside the blackout is contained in it; a slot
		// running into it overlaps it. Both are excluded.
		if Overlaps(c.Start, c.End, b.Start, b.End) {
			return false
		}
	}
	return true
}

// appliesTo reports whether the rule covers the given local day. A rule with
// a specific date only matches that date; otherwise the weekday decides.
func (r Rule) appliesTo(day time.Time) bool {
	if !r.Active {
		return false
	}
	if r.Date != nil {
		ry, rm, rd := r.Date.Date()
		y, m, d := day.Date()
		return ry == y && rm == m && rd == d
	}
	return r.DayOfWeek != nil && *r.DayOfWeek == day.Weekday()
}

// candidatesBetween lays out fixed length slots from start, stepping by
// duration+gap, dropping any candidate whose end passes end.
func candidatesBetween(start, end time.Time, duration, gap time.Duration) []Slot {
	var out []Slot
	step := duration + gap
	for t := start; !t.Add(duration).After(end); t = t.Add(step) {
		out = append(out, Slot{Start: t, End: t.Add(duration)})
	}
	return out
}

// Overlaps checks whether [start1,end1) and [start2,end2) intersect.
// Touching intervals do not overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (int, int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time format %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour out of range in %q", s)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute out of range in %q", s)
	}

	return hour, minute, nil
}

func atClock(day time.Time, h, m int, loc *time.Location) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc)
}
