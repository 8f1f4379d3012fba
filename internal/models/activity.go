package models

import "time"

// Activity is a subject taught by one instructor in one room for a fixed
// number of weekly periods.
type Activity struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	WeeklyPeriods int       `db:"weekly_periods" json:"weekly_periods"`
	InstructorID  string    `db:"instructor_id" json:"instructor_id"`
	RoomID        string    `db:"room_id" json:"room_id"`
	Span          int       `db:"span" json:"span"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ActivityFilter describes query params for listing activities.
type ActivityFilter struct {
	InstructorID string
	RoomID       string
	Page         int
	PageSize     int
}

// Instructor is an opaque teaching resource referenced by activities.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Room is an opaque room resource referenced by activities.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
