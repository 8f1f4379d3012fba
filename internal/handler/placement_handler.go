package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/service"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
	"github.com/jadwalin/timetable-api/pkg/response"
)

type slotPlacer interface {
	Start(req dto.StartPlacementRequest) (*dto.StartPlacementResponse, error)
	NextWindow(req dto.NextWindowRequest) (*dto.NextWindowResponse, error)
	PlaceSlot(req dto.PlaceSlotRequest) (*dto.SlotProposal, error)
	ClearSlot(req dto.ClearSlotRequest) error
	Slots(sessionID string) ([]dto.SlotProposal, error)
	Close(sessionID string)
}

// PlacementHandler exposes the interactive slot placement endpoints.
type PlacementHandler struct {
	service slotPlacer
}

// NewPlacementHandler constructs the handler.
func NewPlacementHandler(svc *service.PlacementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// Start godoc
// @Summary Open a manual placement session
// @Tags Placement
// @Accept json
// @Produce json
// @Param payload body dto.StartPlacementRequest false "Optional grid overrides"
// @Success 201 {object} response.Envelope
// @Router /placement/sessions [post]
func (h *PlacementHandler) Start(c *gin.Context) {
	var req dto.StartPlacementRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
			return
		}
	}
	resp, err := h.service.Start(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// NextWindow godoc
// @Summary Compute the next slot window for a day
// @Tags Placement
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.NextWindowRequest true "Window request"
// @Success 200 {object} response.Envelope
// @Router /placement/sessions/{id}/next-window [post]
func (h *PlacementHandler) NextWindow(c *gin.Context) {
	var req dto.NextWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window payload"))
		return
	}
	req.SessionID = c.Param("id")
	resp, err := h.service.NextWindow(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// PlaceSlot godoc
// @Summary Commit one slot inside a session
// @Tags Placement
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.PlaceSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /placement/sessions/{id}/slots [post]
func (h *PlacementHandler) PlaceSlot(c *gin.Context) {
	var req dto.PlaceSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	req.SessionID = c.Param("id")
	slot, err := h.service.PlaceSlot(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Slots godoc
// @Summary List committed slots of a session
// @Tags Placement
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /placement/sessions/{id}/slots [get]
func (h *PlacementHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ClearSlot godoc
// @Summary Clear one committed cell
// @Tags Placement
// @Accept json
// @Param id path string true "Session ID"
// @Param payload body dto.ClearSlotRequest true "Cell coordinates"
// @Success 204
// @Router /placement/sessions/{id}/slots [delete]
func (h *PlacementHandler) ClearSlot(c *gin.Context) {
	var req dto.ClearSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clear payload"))
		return
	}
	req.SessionID = c.Param("id")
	if err := h.service.ClearSlot(req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Close godoc
// @Summary Discard a placement session
// @Tags Placement
// @Param id path string true "Session ID"
// @Success 204
// @Router /placement/sessions/{id} [delete]
func (h *PlacementHandler) Close(c *gin.Context) {
	h.service.Close(c.Param("id"))
	response.NoContent(c)
}
