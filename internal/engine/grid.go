package engine

import (
	"fmt"
	"strings"

	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

// LunchName identifies the break window treated as lunch by the incremental
// placement driver.
const LunchName = "lunch"

// PeriodTiming describes one base period's boundaries. The ordered timing
// list, shared by every working day, defines the grid's columns.
type PeriodTiming struct {
	Start TimeOfDay
	End   TimeOfDay
}

// BreakWindow is a named protected interval that never hosts an activity.
type BreakWindow struct {
	Name  string
	Start TimeOfDay
	End   TimeOfDay
}

// Interval returns the window as a half-open interval.
func (b BreakWindow) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Config is the validated grid configuration for one scheduling run. Defaults
// are resolved once in ApplyDefaults, never at call sites.
type Config struct {
	Days    []string
	Periods []PeriodTiming
	Breaks  []BreakWindow

	// Incremental placement parameters.
	DayStart      TimeOfDay
	PeriodLength  int // minutes of one base period
	BreakLength   int // minutes of a short break
}

// ApplyDefaults fills derivable fields from the timing list.
func (c *Config) ApplyDefaults() {
	if len(c.Periods) > 0 {
		if c.DayStart == 0 {
			c.DayStart = c.Periods[0].Start
		}
		if c.PeriodLength <= 0 {
			c.PeriodLength = Interval{Start: c.Periods[0].Start, End: c.Periods[0].End}.Minutes()
		}
	}
	if c.BreakLength <= 0 {
		c.BreakLength = 15
	}
}

// Validate rejects malformed or contradictory grid configuration before any
// scheduling attempt.
func (c Config) Validate() error {
	if len(c.Days) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "at least one working day is required")
	}
	if len(c.Periods) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "at least one period timing is required")
	}
	for i, p := range c.Periods {
		if p.End <= p.Start {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("period %d has non-positive duration (%s-%s)", i+1, p.Start, p.End))
		}
		if i > 0 {
			prev := c.Periods[i-1]
			if p.Start < prev.End || p.Start <= prev.Start {
				return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("period timings must be strictly increasing and non-overlapping, period %d starts at %s", i+1, p.Start))
			}
		}
	}
	for i, b := range c.Breaks {
		if b.End <= b.Start {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("break %q has non-positive duration", b.Name))
		}
		for _, other := range c.Breaks[i+1:] {
			if b.Interval().Overlaps(other.Interval()) {
				return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("break windows %q and %q overlap", b.Name, other.Name))
			}
		}
	}
	return nil
}

// Lunch returns the break window named "lunch", if declared.
func (c Config) Lunch() (BreakWindow, bool) {
	for _, b := range c.Breaks {
		if strings.EqualFold(b.Name, LunchName) {
			return b, true
		}
	}
	return BreakWindow{}, false
}

// Activity is a subject/instructor/room combination requiring a fixed number
// of weekly base periods. Immutable during a scheduling run.
type Activity struct {
	ID            string
	Name          string
	Code          string
	WeeklyPeriods int
	InstructorID  string
	RoomID        string
	Span          int // contiguous base periods per placement, default 1
}

func (a Activity) span() int {
	if a.Span < 1 {
		return 1
	}
	return a.Span
}

// Kind discriminates cell occupants.
type Kind string

const (
	KindClass Kind = "CLASS"
	KindBreak Kind = "BREAK"
	KindFree  Kind = "FREE"
)

// Assignment is a committed occupant of one grid cell.
type Assignment struct {
	ActivityID   string
	InstructorID string
	RoomID       string
	Kind         Kind
	Start        TimeOfDay
	End          TimeOfDay
}

// Interval returns the assignment's concrete time range.
func (a Assignment) Interval() Interval {
	return Interval{Start: a.Start, End: a.End}
}

// Cell is one (day, period) slot of the weekly grid.
type Cell struct {
	Day        int
	Period     int
	Start      TimeOfDay
	End        TimeOfDay
	Assignment *Assignment
}

// Grid holds the days × periods cells of one scheduling run. A Grid is owned
// exclusively by its run; it performs no locking.
type Grid struct {
	cfg   Config
	cells [][]Cell
}

// NewGrid validates the configuration and builds an empty grid. Two grids
// built from the same configuration enumerate identical cells.
func NewGrid(cfg Config) (*Grid, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cells := make([][]Cell, len(cfg.Days))
	for d := range cfg.Days {
		row := make([]Cell, len(cfg.Periods))
		for p, timing := range cfg.Periods {
			row[p] = Cell{Day: d, Period: p, Start: timing.Start, End: timing.End}
		}
		cells[d] = row
	}
	return &Grid{cfg: cfg, cells: cells}, nil
}

// Config returns the grid's resolved configuration.
func (g *Grid) Config() Config {
	return g.cfg
}

// DayCount returns the number of working days.
func (g *Grid) DayCount() int {
	return len(g.cells)
}

// PeriodCount returns the number of base periods per day.
func (g *Grid) PeriodCount() int {
	return len(g.cfg.Periods)
}

// Cell returns a copy of the cell at (day, period).
func (g *Grid) Cell(day, period int) (Cell, bool) {
	if day < 0 || day >= len(g.cells) || period < 0 || period >= len(g.cells[day]) {
		return Cell{}, false
	}
	return g.cells[day][period], true
}

// IsOccupied reports whether the cell holds a committed assignment. Cells
// outside the grid count as occupied so callers never place there.
func (g *Grid) IsOccupied(day, period int) bool {
	cell, ok := g.Cell(day, period)
	if !ok {
		return true
	}
	return cell.Assignment != nil
}

// Commit places an assignment into an empty cell. A committed cell is never
// silently overwritten; the caller must Clear it first.
func (g *Grid) Commit(day, period int, a Assignment) error {
	if day < 0 || day >= len(g.cells) || period < 0 || period >= len(g.cells[day]) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell (%d,%d) outside grid", day, period))
	}
	cell := &g.cells[day][period]
	if cell.Assignment != nil {
		return appErrors.Clone(appErrors.ErrAlreadyOccupied, fmt.Sprintf("cell %s period %d already holds an assignment", g.cfg.Days[day], period+1))
	}
	// Zero Start and End means "use the cell's nominal timing". An assignment
	// spanning exactly [00:00, 00:00) cannot be expressed, but a zero-length
	// slot is already rejected everywhere an interval is validated.
	if a.Start == 0 && a.End == 0 {
		a.Start = cell.Start
		a.End = cell.End
	}
	if a.Kind == "" {
		a.Kind = KindClass
	}
	committed := a
	cell.Assignment = &committed
	return nil
}

// Clear removes the occupant of a cell, if any.
func (g *Grid) Clear(day, period int) {
	if day < 0 || day >= len(g.cells) || period < 0 || period >= len(g.cells[day]) {
		return
	}
	g.cells[day][period].Assignment = nil
}

// OccupantsOf returns the committed cells of one day in period order.
func (g *Grid) OccupantsOf(day int) []Cell {
	if day < 0 || day >= len(g.cells) {
		return nil
	}
	var out []Cell
	for _, cell := range g.cells[day] {
		if cell.Assignment != nil {
			out = append(out, cell)
		}
	}
	return out
}

// CommittedCount returns how many cells of a day are occupied.
func (g *Grid) CommittedCount(day int) int {
	return len(g.OccupantsOf(day))
}

// Cells returns every cell in day-then-period enumeration order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells)*g.PeriodCount())
	for d := range g.cells {
		out = append(out, g.cells[d]...)
	}
	return out
}
