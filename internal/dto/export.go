package dto

// ExportTimetableRequest enqueues an export rendering job.
type ExportTimetableRequest struct {
	TimetableID string `json:"timetableId" validate:"required"`
	Format      string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobPayload reports the state of an export job.
type ExportJobPayload struct {
	JobID       string `json:"jobId"`
	TimetableID string `json:"timetableId"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	Filename    string `json:"filename,omitempty"`
	Error       string `json:"error,omitempty"`
}
