package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/models"
	"github.com/jadwalin/timetable-api/internal/service"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
	"github.com/jadwalin/timetable-api/pkg/response"
)

type activityManager interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	Get(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error)
	Update(ctx context.Context, id string, req dto.UpdateActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, id string) error
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateInstructor(ctx context.Context, label string) (*models.Instructor, error)
	CreateRoom(ctx context.Context, label string) (*models.Room, error)
}

// ActivityHandler exposes activity and resource catalogue endpoints.
type ActivityHandler struct {
	service activityManager
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param instructorId query string false "Filter by instructor"
// @Param roomId query string false "Filter by room"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	filter := models.ActivityFilter{
		InstructorID: c.Query("instructorId"),
		RoomID:       c.Query("roomId"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "pageSize", 20),
	}
	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, models.NewPagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get one activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	act, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, act, nil)
}

// Create godoc
// @Summary Register an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}
	act, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, act)
}

// Update godoc
// @Summary Update an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.UpdateActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req dto.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}
	act, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, act, nil)
}

// Delete godoc
// @Summary Delete an activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type labelRequest struct {
	Label string `json:"label" binding:"required"`
}

// ListInstructors godoc
// @Summary List instructors
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *ActivityHandler) ListInstructors(c *gin.Context) {
	list, err := h.service.ListInstructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// CreateInstructor godoc
// @Summary Register an instructor
// @Tags Resources
// @Accept json
// @Produce json
// @Param payload body handler.labelRequest true "Instructor label"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *ActivityHandler) CreateInstructor(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instructor payload"))
		return
	}
	ins, err := h.service.CreateInstructor(c.Request.Context(), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ins)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *ActivityHandler) ListRooms(c *gin.Context) {
	list, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// CreateRoom godoc
// @Summary Register a room
// @Tags Resources
// @Accept json
// @Produce json
// @Param payload body handler.labelRequest true "Room label"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *ActivityHandler) CreateRoom(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}
