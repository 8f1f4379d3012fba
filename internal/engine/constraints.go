package engine

// IsLegal decides whether placing the activity at (day, period) violates any
// hard constraint. Overlap is computed on concrete start/end times rather than
// period indices, so multi-period spans are checked against every base period
// they would cover.
func (g *Grid) IsLegal(day, period int, act Activity) bool {
	span := act.span()
	first, ok := g.Cell(day, period)
	if !ok {
		return false
	}
	last, ok := g.Cell(day, period+span-1)
	if !ok {
		return false
	}
	for p := period; p < period+span; p++ {
		if g.IsOccupied(day, p) {
			return false
		}
	}

	candidate := Interval{Start: first.Start, End: last.End}

	for _, cell := range g.OccupantsOf(day) {
		other := cell.Assignment
		if !candidate.Overlaps(other.Interval()) {
			continue
		}
		if act.InstructorID != "" && other.InstructorID == act.InstructorID {
			return false
		}
		if act.RoomID != "" && other.RoomID == act.RoomID {
			return false
		}
	}

	for _, b := range g.cfg.Breaks {
		if candidate.Overlaps(b.Interval()) {
			return false
		}
	}

	return true
}
