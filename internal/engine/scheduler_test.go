package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

func TestGenerateRejectsInvalidConfiguration(t *testing.T) {
	cfg := fiveDayConfig(6)
	cfg.Periods = nil
	_, err := Generate(cfg, []Activity{{ID: "math", WeeklyPeriods: 2}})
	require.ErrorIs(t, err, appErrors.ErrInvalidConfiguration)
}

func TestGenerateSingleActivitySpreadsAcrossDays(t *testing.T) {
	// Scenario: one activity needing 3 periods on a 5x6 grid.
	result, err := Generate(fiveDayConfig(6), []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 3},
	})
	require.NoError(t, err)
	require.Empty(t, result.Shortfalls)

	days := map[int]bool{}
	cells := 0
	for day := 0; day < result.Grid.DayCount(); day++ {
		for _, cell := range result.Grid.OccupantsOf(day) {
			require.Equal(t, "math", cell.Assignment.ActivityID)
			days[cell.Day] = true
			cells++
		}
	}
	assert.Equal(t, 3, cells)
	// The day-count penalty pushes each period onto its own day.
	assert.Len(t, days, 3)
	assert.Equal(t, 3, result.Placed())
}

func TestGenerateSharedInstructorShortfall(t *testing.T) {
	// Scenario: two activities share an instructor but only two cells exist,
	// so the second-processed activity cannot receive any period.
	cfg := Config{
		Days: []string{"Monday"},
		Periods: []PeriodTiming{
			{Start: MustClock("09:00"), End: MustClock("09:55")},
			{Start: MustClock("10:00"), End: MustClock("10:55")},
		},
	}
	result, err := Generate(cfg, []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 2},
		{ID: "physics", InstructorID: "t1", RoomID: "r2", WeeklyPeriods: 2},
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Placed(), 2)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, "physics", result.Shortfalls[0].ActivityID)
	assert.GreaterOrEqual(t, result.Shortfalls[0].Missing, 1)
}

func TestGenerateShortfallDoesNotAbortRun(t *testing.T) {
	// The first activity exhausts the instructor; later activities with other
	// instructors still get placed.
	cfg := Config{
		Days: []string{"Monday"},
		Periods: []PeriodTiming{
			{Start: MustClock("09:00"), End: MustClock("09:55")},
			{Start: MustClock("10:00"), End: MustClock("10:55")},
			{Start: MustClock("11:00"), End: MustClock("11:55")},
		},
	}
	result, err := Generate(cfg, []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 3},
		{ID: "physics", InstructorID: "t1", RoomID: "r2", WeeklyPeriods: 2},
		{ID: "art", InstructorID: "t2", RoomID: "r3", WeeklyPeriods: 1},
	})
	require.NoError(t, err)

	// math fills all three cells, physics records a full shortfall, art finds
	// no free cell either.
	require.Len(t, result.Shortfalls, 2)
	assert.Equal(t, "physics", result.Shortfalls[0].ActivityID)
	assert.Equal(t, 2, result.Shortfalls[0].Missing)
	assert.Equal(t, "art", result.Shortfalls[1].ActivityID)
	assert.Equal(t, 1, result.Shortfalls[1].Missing)
}

func TestGenerateQuotaConservation(t *testing.T) {
	activities := []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 4},
		{ID: "science", InstructorID: "t2", RoomID: "r2", WeeklyPeriods: 3},
		{ID: "art", InstructorID: "t3", RoomID: "r3", WeeklyPeriods: 2},
		{ID: "sport", InstructorID: "t1", RoomID: "gym", WeeklyPeriods: 2},
	}
	result, err := Generate(fiveDayConfig(6), activities)
	require.NoError(t, err)
	require.Empty(t, result.Shortfalls)

	counts := map[string]int{}
	for day := 0; day < result.Grid.DayCount(); day++ {
		for _, cell := range result.Grid.OccupantsOf(day) {
			counts[cell.Assignment.ActivityID]++
		}
	}
	for _, act := range activities {
		assert.Equal(t, act.WeeklyPeriods, counts[act.ID], act.ID)
	}
}

func TestGenerateNoDoubleBooking(t *testing.T) {
	activities := []Activity{
		{ID: "math-a", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 5},
		{ID: "math-b", InstructorID: "t1", RoomID: "r2", WeeklyPeriods: 5},
		{ID: "lab-a", InstructorID: "t2", RoomID: "lab", WeeklyPeriods: 4},
		{ID: "lab-b", InstructorID: "t3", RoomID: "lab", WeeklyPeriods: 4},
	}
	result, err := Generate(fiveDayConfig(6), activities)
	require.NoError(t, err)

	instructors := map[string][]Assignment{}
	rooms := map[string][]Assignment{}
	for day := 0; day < result.Grid.DayCount(); day++ {
		for _, cell := range result.Grid.OccupantsOf(day) {
			a := *cell.Assignment
			dayKey := result.Grid.Config().Days[day]
			instructors[dayKey+"/"+a.InstructorID] = append(instructors[dayKey+"/"+a.InstructorID], a)
			rooms[dayKey+"/"+a.RoomID] = append(rooms[dayKey+"/"+a.RoomID], a)
		}
	}
	assertNoOverlap := func(groups map[string][]Assignment) {
		for key, group := range groups {
			for i := range group {
				for j := i + 1; j < len(group); j++ {
					assert.False(t, group[i].Interval().Overlaps(group[j].Interval()), key)
				}
			}
		}
	}
	assertNoOverlap(instructors)
	assertNoOverlap(rooms)
}

func TestGenerateBreakInviolability(t *testing.T) {
	// Periods 7 and 8 of the long day overlap the lunch window and must stay
	// free.
	result, err := Generate(fiveDayConfig(8), []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 10},
		{ID: "science", InstructorID: "t2", RoomID: "r2", WeeklyPeriods: 10},
	})
	require.NoError(t, err)
	require.Empty(t, result.Shortfalls)

	lunch, ok := result.Grid.Config().Lunch()
	require.True(t, ok)
	for day := 0; day < result.Grid.DayCount(); day++ {
		for _, cell := range result.Grid.OccupantsOf(day) {
			assert.False(t, cell.Assignment.Interval().Overlaps(lunch.Interval()),
				"assignment %s on day %d overlaps lunch", cell.Assignment.ActivityID, day)
		}
	}
}

func TestGenerateOrdersByWeeklyPeriodsDescending(t *testing.T) {
	// Only three cells exist; the heavier activity wins them even though it
	// is listed last.
	cfg := Config{
		Days: []string{"Monday"},
		Periods: []PeriodTiming{
			{Start: MustClock("09:00"), End: MustClock("09:55")},
			{Start: MustClock("10:00"), End: MustClock("10:55")},
			{Start: MustClock("11:00"), End: MustClock("11:55")},
		},
	}
	result, err := Generate(cfg, []Activity{
		{ID: "light", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 2},
		{ID: "heavy", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 3},
	})
	require.NoError(t, err)

	for _, cell := range result.Grid.OccupantsOf(0) {
		assert.Equal(t, "heavy", cell.Assignment.ActivityID)
	}
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, "light", result.Shortfalls[0].ActivityID)
	assert.Equal(t, 2, result.Shortfalls[0].Missing)
}

func TestGenerateIsDeterministic(t *testing.T) {
	activities := []Activity{
		{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 4},
		{ID: "science", InstructorID: "t2", RoomID: "r2", WeeklyPeriods: 4},
		{ID: "art", InstructorID: "t3", RoomID: "r1", WeeklyPeriods: 3},
		{ID: "music", InstructorID: "t2", RoomID: "r3", WeeklyPeriods: 3},
	}
	first, err := Generate(fiveDayConfig(6), activities)
	require.NoError(t, err)
	second, err := Generate(fiveDayConfig(6), activities)
	require.NoError(t, err)

	assert.Equal(t, first.Shortfalls, second.Shortfalls)
	assert.Equal(t, first.Grid.Cells(), second.Grid.Cells())
}

func TestGenerateMultiPeriodSpan(t *testing.T) {
	result, err := Generate(fiveDayConfig(6), []Activity{
		{ID: "lab", InstructorID: "t1", RoomID: "lab", WeeklyPeriods: 4, Span: 2},
	})
	require.NoError(t, err)
	require.Empty(t, result.Shortfalls)
	assert.Equal(t, 4, result.Placed())

	// Each placement occupies two contiguous periods.
	for day := 0; day < result.Grid.DayCount(); day++ {
		occupants := result.Grid.OccupantsOf(day)
		if len(occupants) == 0 {
			continue
		}
		require.Len(t, occupants, 2)
		assert.Equal(t, occupants[0].Period+1, occupants[1].Period)
	}
}
