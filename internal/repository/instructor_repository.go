package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jadwalin/timetable-api/internal/models"
)

// InstructorRepository provides persistence for instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns all instructors ordered by label.
func (r *InstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT id, label, created_at FROM instructors ORDER BY label ASC`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, label, created_at FROM instructors WHERE id = $1`
	var ins models.Instructor
	if err := r.db.GetContext(ctx, &ins, query, id); err != nil {
		return nil, err
	}
	return &ins, nil
}

// Create stores a new instructor record.
func (r *InstructorRepository) Create(ctx context.Context, ins *models.Instructor) error {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO instructors (id, label, created_at) VALUES (:id, :label, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ins); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}
