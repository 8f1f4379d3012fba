package dto

// CreateActivityRequest registers a new teaching activity.
type CreateActivityRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	WeeklyPeriods int    `json:"weeklyPeriods" validate:"required,min=1,max=40"`
	InstructorID  string `json:"instructorId" validate:"required"`
	RoomID        string `json:"roomId" validate:"required"`
	Span          int    `json:"span" validate:"omitempty,min=1,max=4"`
}

// UpdateActivityRequest modifies an existing activity.
type UpdateActivityRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	WeeklyPeriods int    `json:"weeklyPeriods" validate:"required,min=1,max=40"`
	InstructorID  string `json:"instructorId" validate:"required"`
	RoomID        string `json:"roomId" validate:"required"`
	Span          int    `json:"span" validate:"omitempty,min=1,max=4"`
}
