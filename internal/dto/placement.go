package dto

// StartPlacementRequest opens a manual placement session on an empty grid.
type StartPlacementRequest struct {
	Grid *GridSpec `json:"grid"`
}

// StartPlacementResponse identifies the opened session.
type StartPlacementResponse struct {
	SessionID string `json:"sessionId"`
	Days      int    `json:"days"`
	Periods   int    `json:"periods"`
}

// NextWindowRequest asks for the next contiguous time window on a day.
type NextWindowRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	Day       int    `json:"day" validate:"min=0"`
	Kind      string `json:"kind" validate:"required,oneof=class break lunch"`
	Periods   int    `json:"periods" validate:"omitempty,min=1,max=8"`
}

// WindowPayload is a computed placement window.
type WindowPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Order int    `json:"order"`
}

// NextWindowResponse returns the window plus any lunch cell that was
// auto-committed while computing it.
type NextWindowResponse struct {
	Window        WindowPayload `json:"window"`
	LunchInserted *SlotProposal `json:"lunchInserted,omitempty"`
}

// PlaceSlotRequest commits one activity slot inside a session.
type PlaceSlotRequest struct {
	SessionID  string `json:"sessionId" validate:"required"`
	Day        int    `json:"day" validate:"min=0"`
	ActivityID string `json:"activityId" validate:"required"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
}

// ClearSlotRequest empties one committed cell.
type ClearSlotRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	Day       int    `json:"day" validate:"min=0"`
	Period    int    `json:"period" validate:"min=0"`
}
