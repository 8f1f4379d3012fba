package engine

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" string into a TimeOfDay. Both fields must be
// exactly two digits; "7:5" is rejected rather than read as 07:05.
func ParseClock(raw string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("malformed clock value %q", raw))
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("malformed clock hour in %q", raw))
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("malformed clock minute in %q", raw))
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustClock is a test/config helper that panics on malformed input.
func MustClock(raw string) TimeOfDay {
	t, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add advances the time by a positive number of minutes. Crossing midnight is
// not supported; schedules live within a single day.
func (t TimeOfDay) Add(minutes int) (TimeOfDay, error) {
	if minutes <= 0 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("duration must be positive, got %d minutes", minutes))
	}
	end := int(t) + minutes
	if end > minutesPerDay {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("window starting at %s would cross the day boundary", t))
	}
	return TimeOfDay(end), nil
}

// Interval is a half-open [Start, End) time range within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether two half-open intervals intersect. Back-to-back
// intervals (End == other.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether the instant t falls inside the interval.
func (i Interval) Contains(t TimeOfDay) bool {
	return t >= i.Start && t < i.End
}

// Minutes returns the interval length.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}
