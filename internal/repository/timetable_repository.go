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

// TimetableRepository provides persistence for stored timetables and their slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// BeginTx starts a transaction for multi-table writes.
func (r *TimetableRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin timetable tx: %w", err)
	}
	return tx, nil
}

// List returns timetables with optional status filtering and pagination.
func (r *TimetableRepository) List(ctx context.Context, status string, page, size int) ([]models.Timetable, int, error) {
	base := "FROM timetables WHERE 1=1"
	var conditions []string
	var args []interface{}

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, version, status, meta, created_at, updated_at %s ORDER BY name ASC, version DESC LIMIT %d OFFSET %d", base, size, offset)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	return timetables, total, nil
}

// FindByID loads a timetable by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, name, version, status, meta, created_at, updated_at FROM timetables WHERE id = $1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// NextVersion computes the next version number for a timetable name.
func (r *TimetableRepository) NextVersion(ctx context.Context, name string) (int, error) {
	const query = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE name = $1`
	var version int
	if err := r.db.GetContext(ctx, &version, query, name); err != nil {
		return 0, fmt.Errorf("next timetable version: %w", err)
	}
	return version, nil
}

// CreateWithTx stores a timetable header using an existing transaction.
func (r *TimetableRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, tt *models.Timetable) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now

	const query = `INSERT INTO timetables (id, name, version, status, meta, created_at, updated_at) VALUES (:id, :name, :version, :status, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, tt); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// BulkCreateSlotsWithTx inserts timetable slots using an existing transaction.
func (r *TimetableRepository) BulkCreateSlotsWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.TimetableSlot) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertSlots(ctx, tx, slots)
}

func (r *TimetableRepository) bulkInsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	now := time.Now().UTC()
	for i := range slots {
		payload := slots[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_slots (id, timetable_id, day, period, activity_id, kind, starts_at, ends_at, created_at) VALUES (:id, :timetable_id, :day, :period, :activity_id, :kind, :starts_at, :ends_at, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable slot: %w", err)
		}
		slots[i] = payload
	}
	return nil
}

// ListSlots returns a timetable's slots in day/period order.
func (r *TimetableRepository) ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, timetable_id, day, period, activity_id, kind, starts_at, ends_at, created_at FROM timetable_slots WHERE timetable_id = $1 ORDER BY day ASC, period ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// UpdateStatus transitions a timetable's lifecycle status.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	return nil
}

// DeleteDraft removes a timetable and its slots if still in draft.
func (r *TimetableRepository) DeleteDraft(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete draft: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE timetable_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete timetable slots: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1 AND status = $2`, id, models.TimetableStatusDraft)
	if err != nil {
		return false, fmt.Errorf("delete draft timetable: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete draft rows affected: %w", err)
	}
	if affected == 0 {
		err = tx.Rollback()
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete draft: %w", err)
	}
	return true, nil
}
