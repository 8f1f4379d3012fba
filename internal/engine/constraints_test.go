package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLegalEmptyGridIsVacuouslyLegal(t *testing.T) {
	grid, err := NewGrid(fiveDayConfig(6))
	require.NoError(t, err)

	act := Activity{ID: "math", InstructorID: "t1", RoomID: "r1", WeeklyPeriods: 2}
	for day := 0; day < grid.DayCount(); day++ {
		for period := 0; period < grid.PeriodCount(); period++ {
			assert.True(t, grid.IsLegal(day, period, act))
		}
	}
}

func TestIsLegalRejectsOccupiedCell(t *testing.T) {
	grid, err := NewGrid(fiveDayConfig(6))
	require.NoError(t, err)
	require.NoError(t, grid.Commit(0, 0, Assignment{ActivityID: "math", InstructorID: "t1", RoomID: "r1"}))

	other := Activity{ID: "science", InstructorID: "t2", RoomID: "r2"}
	assert.False(t, grid.IsLegal(0, 0, other))
	assert.True(t, grid.IsLegal(0, 1, other))
}

func TestIsLegalInstructorOverlapOnConcreteTimes(t *testing.T) {
	grid, err := NewGrid(fiveDayConfig(6))
	require.NoError(t, err)

	// A manually placed double block covers the whole morning regardless of
	// the cell's nominal timing.
	block := Assignment{
		ActivityID:   "assembly",
		InstructorID: "t1",
		Kind:         KindClass,
		Start:        MustClock("07:30"),
		End:          MustClock("11:00"),
	}
	require.NoError(t, grid.Commit(0, 0, block))

	sameInstructor := Activity{ID: "math", InstructorID: "t1", RoomID: "r2"}
	otherInstructor := Activity{ID: "science", InstructorID: "t2", RoomID: "r2"}

	// Period 3 runs 09:45-10:25, inside the block.
	assert.False(t, grid.IsLegal(0, 3, sameInstructor))
	assert.True(t, grid.IsLegal(0, 3, otherInstructor))
	// Period 5 runs 11:15-11:55, after the block ends.
	assert.True(t, grid.IsLegal(0, 5, sameInstructor))
	// Another day is untouched.
	assert.True(t, grid.IsLegal(1, 3, sameInstructor))
}

func TestIsLegalRoomOverlap(t *testing.T) {
	grid, err := NewGrid(fiveDayConfig(6))
	require.NoError(t, err)
	require.NoError(t, grid.Commit(0, 2, Assignment{ActivityID: "math", InstructorID: "t1", RoomID: "lab"}))

	sameRoom := Activity{ID: "chemistry", InstructorID: "t2", RoomID: "lab"}
	// Period 2 overlaps itself; adjacent periods do not share any time.
	assert.False(t, grid.IsLegal(0, 2, sameRoom))
	assert.True(t, grid.IsLegal(0, 1, sameRoom))
	assert.True(t, grid.IsLegal(0, 3, sameRoom))
}

func TestIsLegalBackToBackRoomUse(t *testing.T) {
	cfg := Config{
		Days: []string{"Monday"},
		Periods: []PeriodTiming{
			{Start: MustClock("09:00"), End: MustClock("09:55")},
			{Start: MustClock("09:55"), End: MustClock("10:50")},
		},
	}
	grid, err := NewGrid(cfg)
	require.NoError(t, err)

	require.NoError(t, grid.Commit(0, 0, Assignment{ActivityID: "math", InstructorID: "t1", RoomID: "r1"}))

	// Half-open semantics: 09:00-09:55 and 09:55-10:50 do not conflict even
	// for the same room.
	successor := Activity{ID: "science", InstructorID: "t2", RoomID: "r1"}
	assert.True(t, grid.IsLegal(0, 1, successor))
	require.NoError(t, grid.Commit(0, 1, Assignment{ActivityID: "science", InstructorID: "t2", RoomID: "r1"}))
}

func TestIsLegalBreakWindow(t *testing.T) {
	// Eight periods extend the day past noon; periods 7 and 8 overlap lunch.
	grid, err := NewGrid(fiveDayConfig(8))
	require.NoError(t, err)

	act := Activity{ID: "math", InstructorID: "t1", RoomID: "r1"}
	assert.True(t, grid.IsLegal(0, 5, act))
	assert.False(t, grid.IsLegal(0, 6, act))
	assert.False(t, grid.IsLegal(0, 7, act))
}

func TestIsLegalMultiPeriodSpan(t *testing.T) {
	grid, err := NewGrid(fiveDayConfig(6))
	require.NoError(t, err)

	double := Activity{ID: "lab", InstructorID: "t1", RoomID: "lab", Span: 2}

	// The span must fit inside the day.
	assert.True(t, grid.IsLegal(0, 4, double))
	assert.False(t, grid.IsLegal(0, 5, double))

	// Occupying the second half of the span blocks the whole placement.
	require.NoError(t, grid.Commit(0, 3, Assignment{ActivityID: "math", InstructorID: "t2", RoomID: "r2"}))
	assert.False(t, grid.IsLegal(0, 2, double))
	assert.False(t, grid.IsLegal(0, 3, double))
	assert.True(t, grid.IsLegal(0, 0, double))
}
