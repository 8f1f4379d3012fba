package engine

// slotScore ranks an open cell for placement. Lower is better: the adjacency
// term discourages isolated singletons, the period term front-loads the day,
// and the day-count term spreads load across the week.
func (g *Grid) slotScore(day, period int) int {
	adjacent := 0
	if period > 0 && g.IsOccupied(day, period-1) {
		adjacent++
	}
	if period < g.PeriodCount()-1 && g.IsOccupied(day, period+1) {
		adjacent++
	}
	return 2*adjacent + period + 3*g.CommittedCount(day)
}

// BestSlot returns the legal open cell with the lowest score for the given
// activity. Ties resolve to the first such cell in day-then-period order,
// keeping generation deterministic. For multi-period spans the score is
// computed at the span's first base period.
func (g *Grid) BestSlot(act Activity) (Cell, bool) {
	var best Cell
	bestScore := 0
	found := false
	for day := 0; day < g.DayCount(); day++ {
		for period := 0; period < g.PeriodCount(); period++ {
			if g.IsOccupied(day, period) {
				continue
			}
			if !g.IsLegal(day, period, act) {
				continue
			}
			score := g.slotScore(day, period)
			if !found || score < bestScore {
				cell, _ := g.Cell(day, period)
				best = cell
				bestScore = score
				found = true
			}
		}
	}
	return best, found
}
