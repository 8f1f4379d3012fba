package dto

// PeriodSpec is one base period boundary pair in "HH:MM" notation.
type PeriodSpec struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// BreakSpec declares a protected window. The window named "lunch" drives the
// manual placement driver's auto-insertion.
type BreakSpec struct {
	Name  string `json:"name" validate:"required"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// GridSpec overrides the configured grid defaults for one generation run.
type GridSpec struct {
	Days    []string     `json:"days" validate:"omitempty,min=1"`
	Periods []PeriodSpec `json:"periods" validate:"omitempty,min=1,dive"`
	Breaks  []BreakSpec  `json:"breaks" validate:"omitempty,dive"`
}

// GenerateTimetableRequest instructs the engine to build a proposal.
type GenerateTimetableRequest struct {
	Name        string   `json:"name" validate:"required"`
	ActivityIDs []string `json:"activityIds"`
	Grid        *GridSpec `json:"grid"`
}

// SlotProposal represents one generated cell.
type SlotProposal struct {
	Day        int     `json:"day"`
	DayName    string  `json:"dayName"`
	Period     int     `json:"period"`
	ActivityID *string `json:"activityId,omitempty"`
	Kind       string  `json:"kind"`
	StartsAt   string  `json:"startsAt"`
	EndsAt     string  `json:"endsAt"`
}

// ShortfallPayload reports unplaced weekly demand for one activity.
type ShortfallPayload struct {
	ActivityID string `json:"activityId"`
	Missing    int    `json:"missing"`
}

// GenerateTimetableStats summarises a generation run.
type GenerateTimetableStats struct {
	PlacedPeriods int `json:"placedPeriods"`
	OpenCells     int `json:"openCells"`
	Activities    int `json:"activities"`
}

// GenerateTimetableResponse returns the built proposal.
type GenerateTimetableResponse struct {
	ProposalID string                 `json:"proposalId"`
	Slots      []SlotProposal         `json:"slots"`
	Shortfalls []ShortfallPayload     `json:"shortfalls"`
	Stats      GenerateTimetableStats `json:"stats"`
}

// SaveTimetableRequest persists a proposal as a timetable version.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	Status   string `form:"status" json:"status"`
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"pageSize" json:"pageSize"`
}
