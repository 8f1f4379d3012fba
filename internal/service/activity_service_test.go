package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/models"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

func newActivityFixture() (*ActivityService, *activityRepoStub) {
	repo := &activityRepoStub{}
	svc := NewActivityService(
		repo,
		labelRepoStub[models.Instructor]{known: map[string]bool{"ins-1": true}},
		labelRepoStub[models.Room]{known: map[string]bool{"room-1": true}},
		validator.New(),
		zap.NewNop(),
	)
	return svc, repo
}

func TestActivityServiceCreate(t *testing.T) {
	svc, repo := newActivityFixture()

	act, err := svc.Create(context.Background(), dto.CreateActivityRequest{
		Name:          "Mathematics",
		Code:          "MATH",
		WeeklyPeriods: 4,
		InstructorID:  "ins-1",
		RoomID:        "room-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, act.ID)
	assert.Equal(t, 1, act.Span)
	assert.Len(t, repo.items, 1)
}

func TestActivityServiceCreateUnknownReferences(t *testing.T) {
	svc, _ := newActivityFixture()

	_, err := svc.Create(context.Background(), dto.CreateActivityRequest{
		Name:          "Mathematics",
		Code:          "MATH",
		WeeklyPeriods: 4,
		InstructorID:  "ghost",
		RoomID:        "room-1",
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), dto.CreateActivityRequest{
		Name:          "Mathematics",
		Code:          "MATH",
		WeeklyPeriods: 4,
		InstructorID:  "ins-1",
		RoomID:        "ghost",
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestActivityServiceCreateValidation(t *testing.T) {
	svc, _ := newActivityFixture()

	_, err := svc.Create(context.Background(), dto.CreateActivityRequest{Name: "Mathematics"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestActivityServiceUpdate(t *testing.T) {
	svc, repo := newActivityFixture()
	repo.items = []models.Activity{{ID: "act-1", Name: "Maths", Code: "MATH", WeeklyPeriods: 3, InstructorID: "ins-1", RoomID: "room-1", Span: 1}}

	act, err := svc.Update(context.Background(), "act-1", dto.UpdateActivityRequest{
		Name:          "Mathematics",
		Code:          "MATH",
		WeeklyPeriods: 5,
		InstructorID:  "ins-1",
		RoomID:        "room-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, act.WeeklyPeriods)
	assert.Equal(t, 5, repo.items[0].WeeklyPeriods)
}

func TestActivityServiceDelete(t *testing.T) {
	svc, repo := newActivityFixture()
	repo.items = []models.Activity{{ID: "act-1", InstructorID: "ins-1", RoomID: "room-1"}}

	require.NoError(t, svc.Delete(context.Background(), "act-1"))
	assert.Empty(t, repo.items)

	assert.ErrorIs(t, svc.Delete(context.Background(), "act-1"), appErrors.ErrNotFound)
}

// --- Fixtures ---

type activityRepoStub struct {
	items []models.Activity
}

func (s *activityRepoStub) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	return s.items, len(s.items), nil
}

func (s *activityRepoStub) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *activityRepoStub) Create(ctx context.Context, act *models.Activity) error {
	act.ID = "act-1"
	s.items = append(s.items, *act)
	return nil
}

func (s *activityRepoStub) Update(ctx context.Context, act *models.Activity) error {
	for idx := range s.items {
		if s.items[idx].ID == act.ID {
			s.items[idx] = *act
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *activityRepoStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type labelRepoStub[T any] struct {
	known map[string]bool
}

func (s labelRepoStub[T]) List(ctx context.Context) ([]T, error) {
	return nil, nil
}

func (s labelRepoStub[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	var zero T
	return &zero, nil
}

func (s labelRepoStub[T]) Create(ctx context.Context, item *T) error {
	return nil
}
