package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/models"
	"github.com/jadwalin/timetable-api/pkg/config"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

func TestTimetableServiceGenerateSuccess(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		activities: []models.Activity{
			{ID: "math", Name: "Mathematics", Code: "MATH", WeeklyPeriods: 3, InstructorID: "ins-1", RoomID: "room-1"},
		},
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		Name: "week-a",
		Grid: threeByThreeGrid(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Len(t, resp.Slots, 3)
	assert.Empty(t, resp.Shortfalls)
	assert.Equal(t, 3, resp.Stats.PlacedPeriods)

	// One period per day: the scorer spreads load before stacking.
	seen := map[int]bool{}
	for _, slot := range resp.Slots {
		assert.False(t, seen[slot.Day], "day %d used twice", slot.Day)
		seen[slot.Day] = true
	}
}

func TestTimetableServiceGenerateShortfall(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		activities: []models.Activity{
			{ID: "math", Code: "MATH", WeeklyPeriods: 2, InstructorID: "shared", RoomID: "room-1"},
			{ID: "phys", Code: "PHYS", WeeklyPeriods: 2, InstructorID: "shared", RoomID: "room-2"},
		},
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		Name: "week-a",
		Grid: &dto.GridSpec{
			Days: []string{"Monday"},
			Periods: []dto.PeriodSpec{
				{Start: "08:00", End: "08:40"},
				{Start: "08:45", End: "09:25"},
			},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Shortfalls)
	assert.LessOrEqual(t, resp.Stats.PlacedPeriods, 2)
}

func TestTimetableServiceGenerateInvalidGrid(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		activities: []models.Activity{{ID: "math", Code: "MATH", WeeklyPeriods: 1, InstructorID: "i", RoomID: "r"}},
	})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		Name: "week-a",
		Grid: &dto.GridSpec{
			Days:    []string{"Monday"},
			Periods: []dto.PeriodSpec{{Start: "09:00", End: "08:00"}},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidConfiguration)
}

func TestTimetableServiceGenerateUnknownActivity(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		activities: []models.Activity{{ID: "math", Code: "MATH", WeeklyPeriods: 1, InstructorID: "i", RoomID: "r"}},
	})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		Name:        "week-a",
		ActivityIDs: []string{"math", "missing"},
		Grid:        threeByThreeGrid(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceSaveDraft(t *testing.T) {
	txProv, mock := newTimetableTxMock(t)
	repo := &timetableRepoStub{}
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		activities: []models.Activity{{ID: "math", Code: "MATH", WeeklyPeriods: 2, InstructorID: "i", RoomID: "r"}},
		timetables: repo,
		tx:         txProv,
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		Name: "week-a",
		Grid: threeByThreeGrid(),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, repo.items, 1)
	assert.Equal(t, models.TimetableStatusDraft, repo.items[0].Status)
	assert.Len(t, repo.slots[id], 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	// A saved proposal is consumed.
	_, err = svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{})
	_, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceGetServesFromCache(t *testing.T) {
	cached := TimetableDetail{Timetable: models.Timetable{ID: "tt-1", Name: "week-a"}}
	repo := &timetableRepoStub{failFind: true}
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		timetables: repo,
		cache:      &cacheStub{values: map[string]any{"timetables:detail:tt-1": cached}},
	})

	detail, err := svc.Get(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, "week-a", detail.Timetable.Name)
}

func TestTimetableServiceGetPopulatesCache(t *testing.T) {
	repo := &timetableRepoStub{
		items: []models.Timetable{{ID: "tt-1", Name: "week-a", Status: models.TimetableStatusDraft}},
	}
	cache := &cacheStub{values: map[string]any{}}
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{timetables: repo, cache: cache})

	detail, err := svc.Get(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, "tt-1", detail.Timetable.ID)
	assert.Contains(t, cache.sets, "timetables:detail:tt-1")
}

func TestTimetableServiceGetNotFound(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{timetables: &timetableRepoStub{}})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServicePublish(t *testing.T) {
	repo := &timetableRepoStub{
		items: []models.Timetable{{ID: "tt-1", Status: models.TimetableStatusDraft}},
	}
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{timetables: repo})

	require.NoError(t, svc.Publish(context.Background(), "tt-1"))
	assert.Equal(t, models.TimetableStatusPublished, repo.items[0].Status)

	err := svc.Publish(context.Background(), "tt-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestTimetableServiceDeleteOnlyDrafts(t *testing.T) {
	repo := &timetableRepoStub{
		items: []models.Timetable{
			{ID: "draft", Status: models.TimetableStatusDraft},
			{ID: "live", Status: models.TimetableStatusPublished},
		},
	}
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{timetables: repo})

	require.NoError(t, svc.Delete(context.Background(), "draft"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "live"), appErrors.ErrConflict)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), appErrors.ErrNotFound)
}

// --- Fixtures ---

type timetableFixtureConfig struct {
	activities []models.Activity
	timetables *timetableRepoStub
	cache      timetableCache
	tx         txProvider
}

func newTimetableServiceFixture(t *testing.T, cfg timetableFixtureConfig) *TimetableService {
	t.Helper()
	repo := cfg.timetables
	if repo == nil {
		repo = &timetableRepoStub{}
	}
	return NewTimetableService(
		activityReaderStub{items: cfg.activities},
		repo,
		cfg.cache,
		cfg.tx,
		nil,
		validator.New(),
		zap.NewNop(),
		testTimetableConfig(),
	)
}

func testTimetableConfig() config.TimetableConfig {
	return config.TimetableConfig{
		Days:          []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		DayStart:      "07:30",
		PeriodLength:  40 * time.Minute,
		PeriodsPerDay: 8,
		LunchStart:    "12:30",
		LunchEnd:      "13:30",
		BreakDuration: 15 * time.Minute,
		ProposalTTL:   time.Hour,
		CacheTTL:      time.Minute,
	}
}

func threeByThreeGrid() *dto.GridSpec {
	return &dto.GridSpec{
		Days: []string{"Monday", "Tuesday", "Wednesday"},
		Periods: []dto.PeriodSpec{
			{Start: "08:00", End: "08:40"},
			{Start: "08:45", End: "09:25"},
			{Start: "09:30", End: "10:10"},
		},
	}
}

type activityReaderStub struct {
	items []models.Activity
}

func (s activityReaderStub) ListAll(ctx context.Context) ([]models.Activity, error) {
	return s.items, nil
}

func (s activityReaderStub) ListByIDs(ctx context.Context, ids []string) ([]models.Activity, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Activity
	for _, act := range s.items {
		if wanted[act.ID] {
			out = append(out, act)
		}
	}
	return out, nil
}

type timetableRepoStub struct {
	items    []models.Timetable
	slots    map[string][]models.TimetableSlot
	failFind bool
}

func (s *timetableRepoStub) List(ctx context.Context, status string, page, size int) ([]models.Timetable, int, error) {
	return s.items, len(s.items), nil
}

func (s *timetableRepoStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if s.failFind {
		return nil, fmt.Errorf("unexpected repository access")
	}
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *timetableRepoStub) NextVersion(ctx context.Context, name string) (int, error) {
	count := 0
	for _, item := range s.items {
		if item.Name == name {
			count++
		}
	}
	return count + 1, nil
}

func (s *timetableRepoStub) CreateWithTx(ctx context.Context, tx *sqlx.Tx, tt *models.Timetable) error {
	tt.ID = fmt.Sprintf("tt-%d", len(s.items)+1)
	s.items = append(s.items, *tt)
	return nil
}

func (s *timetableRepoStub) BulkCreateSlotsWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.TimetableSlot) error {
	if s.slots == nil {
		s.slots = make(map[string][]models.TimetableSlot)
	}
	for _, slot := range slots {
		s.slots[slot.TimetableID] = append(s.slots[slot.TimetableID], slot)
	}
	return nil
}

func (s *timetableRepoStub) ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	return s.slots[timetableID], nil
}

func (s *timetableRepoStub) UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error {
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *timetableRepoStub) DeleteDraft(ctx context.Context, id string) (bool, error) {
	for idx, item := range s.items {
		if item.ID == id {
			if item.Status != models.TimetableStatusDraft {
				return false, nil
			}
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type cacheStub struct {
	values map[string]any
	sets   []string
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	detail, ok := value.(TimetableDetail)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	target, ok := dest.(*TimetableDetail)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*target = detail
	return nil
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets = append(c.sets, key)
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

type timetableTxMock struct {
	db *sqlx.DB
}

func newTimetableTxMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &timetableTxMock{db: sqlxdb}, mock
}

func (m *timetableTxMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}
