package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/models"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, act *models.Activity) error
	Update(ctx context.Context, act *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type instructorRepository interface {
	List(ctx context.Context) ([]models.Instructor, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, ins *models.Instructor) error
}

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
}

// ActivityService manages the teaching activities fed into the scheduler.
type ActivityService struct {
	activities  activityRepository
	instructors instructorRepository
	rooms       roomRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewActivityService wires activity dependencies.
func NewActivityService(
	activities activityRepository,
	instructors instructorRepository,
	rooms roomRepository,
	validate *validator.Validate,
	logger *zap.Logger,
) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities:  activities,
		instructors: instructors,
		rooms:       rooms,
		validator:   validate,
		logger:      logger,
	}
}

// List returns activities with pagination.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	list, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return list, total, nil
}

// Get loads a single activity.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity id is required")
	}
	act, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return act, nil
}

// Create registers a new activity after checking its references.
func (s *ActivityService) Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if err := s.ensureReferences(ctx, req.InstructorID, req.RoomID); err != nil {
		return nil, err
	}

	act := &models.Activity{
		Name:          req.Name,
		Code:          req.Code,
		WeeklyPeriods: req.WeeklyPeriods,
		InstructorID:  req.InstructorID,
		RoomID:        req.RoomID,
		Span:          req.Span,
	}
	if act.Span < 1 {
		act.Span = 1
	}
	if err := s.activities.Create(ctx, act); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return act, nil
}

// Update modifies an existing activity.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	act, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, req.InstructorID, req.RoomID); err != nil {
		return nil, err
	}

	act.Name = req.Name
	act.Code = req.Code
	act.WeeklyPeriods = req.WeeklyPeriods
	act.InstructorID = req.InstructorID
	act.RoomID = req.RoomID
	act.Span = req.Span
	if act.Span < 1 {
		act.Span = 1
	}
	if err := s.activities.Update(ctx, act); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return act, nil
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}

// ListInstructors returns all registered instructors.
func (s *ActivityService) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	list, err := s.instructors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return list, nil
}

// ListRooms returns all registered rooms.
func (s *ActivityService) ListRooms(ctx context.Context) ([]models.Room, error) {
	list, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return list, nil
}

// CreateInstructor registers an instructor label.
func (s *ActivityService) CreateInstructor(ctx context.Context, label string) (*models.Instructor, error) {
	if label == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor label is required")
	}
	ins := &models.Instructor{Label: label}
	if err := s.instructors.Create(ctx, ins); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return ins, nil
}

// CreateRoom registers a room label.
func (s *ActivityService) CreateRoom(ctx context.Context, label string) (*models.Room, error) {
	if label == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room label is required")
	}
	room := &models.Room{Label: label}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

func (s *ActivityService) ensureReferences(ctx context.Context, instructorID, roomID string) error {
	if s.instructors != nil {
		if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}
	if s.rooms != nil {
		if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "room not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
	}
	return nil
}
