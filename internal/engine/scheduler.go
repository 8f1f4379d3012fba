package engine

import "sort"

// Shortfall records the periods an activity could not receive.
type Shortfall struct {
	ActivityID string
	Missing    int
}

// Result is the outcome of one generation run. The engine holds no state
// across runs; the caller owns the returned grid.
type Result struct {
	Grid       *Grid
	Shortfalls []Shortfall
}

// Placed returns the total number of committed class periods.
func (r *Result) Placed() int {
	total := 0
	for day := 0; day < r.Grid.DayCount(); day++ {
		for _, cell := range r.Grid.OccupantsOf(day) {
			if cell.Assignment.Kind == KindClass {
				total++
			}
		}
	}
	return total
}

// Generate runs the greedy assignment loop over all pending activities.
// Activities are processed in descending order of weekly period count (stable
// on ties); each placement commits the best-scored legal cell and is never
// revisited. A shortfall never aborts the run; configuration errors abort it
// before anything is committed.
func Generate(cfg Config, activities []Activity) (*Result, error) {
	grid, err := NewGrid(cfg)
	if err != nil {
		return nil, err
	}

	pending := make([]Activity, len(activities))
	copy(pending, activities)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].WeeklyPeriods > pending[j].WeeklyPeriods
	})

	result := &Result{Grid: grid}
	for _, act := range pending {
		remaining := act.WeeklyPeriods
		span := act.span()
		for remaining >= span {
			cell, ok := grid.BestSlot(act)
			if !ok {
				break
			}
			if err := commitSpan(grid, cell, act); err != nil {
				// BestSlot only proposes empty cells; a failed commit means
				// the candidate raced nothing and the grid is exhausted.
				break
			}
			remaining -= span
		}
		if remaining > 0 {
			result.Shortfalls = append(result.Shortfalls, Shortfall{ActivityID: act.ID, Missing: remaining})
		}
	}
	return result, nil
}

func commitSpan(grid *Grid, cell Cell, act Activity) error {
	span := act.span()
	for p := cell.Period; p < cell.Period+span; p++ {
		target, _ := grid.Cell(cell.Day, p)
		a := Assignment{
			ActivityID:   act.ID,
			InstructorID: act.InstructorID,
			RoomID:       act.RoomID,
			Kind:         KindClass,
			Start:        target.Start,
			End:          target.End,
		}
		if err := grid.Commit(cell.Day, p, a); err != nil {
			return err
		}
	}
	return nil
}
