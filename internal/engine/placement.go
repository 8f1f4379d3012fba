package engine

import (
	"fmt"

	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

// WindowKind selects the duration rule for a manually placed slot.
type WindowKind string

const (
	WindowClass WindowKind = "class"
	WindowBreak WindowKind = "break"
	WindowLunch WindowKind = "lunch"
)

// Window is the next contiguous time range available on a day, together with
// the 1-based slot order it would occupy.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
	Order int
}

// Insertion is a cell the driver committed on the caller's behalf while
// computing a window, together with the grid period it landed in. The period
// comes from the commit itself, so it stays correct when cleared cells leave
// holes earlier in the day.
type Insertion struct {
	Assignment Assignment
	Period     int
}

// Driver places slots one at a time against a grid, the way an interactive
// editor does. It shares the grid's time arithmetic and conflict rules with
// the automatic scheduler but computes windows from the last committed slot
// instead of the fixed period timings.
type Driver struct {
	grid *Grid
}

// NewDriver wraps a grid for incremental placement.
func NewDriver(grid *Grid) *Driver {
	return &Driver{grid: grid}
}

// Grid exposes the underlying grid for occupancy queries.
func (d *Driver) Grid() *Grid {
	return d.grid
}

// NextWindow computes the upcoming time window on a day for the given kind.
// The window starts where the day's last committed slot ends, or at the
// configured day start on an empty day.
//
// When the computed window would straddle the lunch start and the kind being
// placed is not itself lunch, a lunch cell is committed first and the window
// restarts immediately after lunch. The insertion is returned so the caller
// can surface it before committing its own slot; it happens at most once per
// call.
func (d *Driver) NextWindow(day int, kind WindowKind, periods int) (Window, *Insertion, error) {
	cfg := d.grid.Config()
	if day < 0 || day >= d.grid.DayCount() {
		return Window{}, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day index %d outside grid", day))
	}
	if periods < 1 {
		periods = 1
	}

	duration, err := d.windowMinutes(kind, periods)
	if err != nil {
		return Window{}, nil, err
	}

	start := d.dayCursor(day)
	lunch, hasLunch := cfg.Lunch()
	if hasLunch && lunch.Interval().Contains(start) {
		start = lunch.End
	}

	end, err := start.Add(duration)
	if err != nil {
		return Window{}, nil, err
	}

	var inserted *Insertion
	if hasLunch && kind != WindowLunch && start < lunch.Start && end >= lunch.Start {
		lunchAssignment := Assignment{
			ActivityID: LunchName,
			Kind:       KindBreak,
			Start:      lunch.Start,
			End:        lunch.End,
		}
		order, err := d.Commit(day, lunchAssignment)
		if err != nil {
			return Window{}, nil, err
		}
		inserted = &Insertion{Assignment: lunchAssignment, Period: order - 1}

		start = lunch.End
		end, err = start.Add(duration)
		if err != nil {
			return Window{}, nil, err
		}
	}

	order := d.grid.CommittedCount(day) + 1
	return Window{Start: start, End: end, Order: order}, inserted, nil
}

// Commit places an assignment into the day's next free cell and returns its
// 1-based order. AlreadyOccupied from a full day surfaces to the caller.
func (d *Driver) Commit(day int, a Assignment) (int, error) {
	period, ok := d.nextFreePeriod(day)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrAlreadyOccupied, fmt.Sprintf("no free cell remains on day %d", day+1))
	}
	if err := d.grid.Commit(day, period, a); err != nil {
		return 0, err
	}
	return period + 1, nil
}

func (d *Driver) windowMinutes(kind WindowKind, periods int) (int, error) {
	cfg := d.grid.Config()
	switch kind {
	case WindowClass:
		return cfg.PeriodLength * periods, nil
	case WindowBreak:
		return cfg.BreakLength, nil
	case WindowLunch:
		lunch, ok := cfg.Lunch()
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrInvalidConfiguration, "no lunch window declared")
		}
		return lunch.Interval().Minutes(), nil
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown window kind %q", kind))
	}
}

// dayCursor returns the end of the day's last committed slot, or the
// configured day start when nothing is committed yet.
func (d *Driver) dayCursor(day int) TimeOfDay {
	occupants := d.grid.OccupantsOf(day)
	if len(occupants) == 0 {
		return d.grid.Config().DayStart
	}
	last := occupants[len(occupants)-1]
	return last.Assignment.End
}

func (d *Driver) nextFreePeriod(day int) (int, bool) {
	for p := 0; p < d.grid.PeriodCount(); p++ {
		if !d.grid.IsOccupied(day, p) {
			return p, true
		}
	}
	return 0, false
}
