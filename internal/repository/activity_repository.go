package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jadwalin/timetable-api/internal/models"
)

// ActivityRepository provides persistence for teaching activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns activities with optional filtering and pagination.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	base := "FROM activities WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, code, weekly_periods, instructor_id, room_id, span, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", base, size, offset)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	return activities, total, nil
}

// ListAll returns every activity in stable code order.
func (r *ActivityRepository) ListAll(ctx context.Context) ([]models.Activity, error) {
	const query = `SELECT id, name, code, weekly_periods, instructor_id, room_id, span, created_at, updated_at FROM activities ORDER BY code ASC`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list all activities: %w", err)
	}
	return activities, nil
}

// ListByIDs loads the given activities, in stable code order.
func (r *ActivityRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, code, weekly_periods, instructor_id, room_id, span, created_at, updated_at FROM activities WHERE id IN (?) ORDER BY code ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build activity id query: %w", err)
	}
	query = r.db.Rebind(query)

	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("list activities by ids: %w", err)
	}
	return activities, nil
}

// FindByID loads an activity by id.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT id, name, code, weekly_periods, instructor_id, room_id, span, created_at, updated_at FROM activities WHERE id = $1`
	var act models.Activity
	if err := r.db.GetContext(ctx, &act, query, id); err != nil {
		return nil, err
	}
	return &act, nil
}

// Create stores a new activity record.
func (r *ActivityRepository) Create(ctx context.Context, act *models.Activity) error {
	if act.ID == "" {
		act.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if act.CreatedAt.IsZero() {
		act.CreatedAt = now
	}
	act.UpdatedAt = now

	const query = `INSERT INTO activities (id, name, code, weekly_periods, instructor_id, room_id, span, created_at, updated_at) VALUES (:id, :name, :code, :weekly_periods, :instructor_id, :room_id, :span, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, act); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update modifies an activity record.
func (r *ActivityRepository) Update(ctx context.Context, act *models.Activity) error {
	act.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET name = :name, code = :code, weekly_periods = :weekly_periods, instructor_id = :instructor_id, room_id = :room_id, span = :span, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, act); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// Delete removes an activity by id.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
