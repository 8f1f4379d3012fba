package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for generated timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable captures a versioned weekly schedule.
type Timetable struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Version   int             `db:"version" json:"version"`
	Status    TimetableStatus `db:"status" json:"status"`
	Meta      types.JSONText  `db:"meta" json:"meta"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableSlot is one committed cell inside a stored timetable.
type TimetableSlot struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	Day         int       `db:"day" json:"day"`
	Period      int       `db:"period" json:"period"`
	ActivityID  *string   `db:"activity_id" json:"activity_id,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	StartsAt    string    `db:"starts_at" json:"starts_at"`
	EndsAt      string    `db:"ends_at" json:"ends_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TimetableShortfall records unplaced demand persisted with a timetable.
type TimetableShortfall struct {
	ActivityID string `json:"activity_id"`
	Missing    int    `json:"missing"`
}
