package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/models"
	"github.com/jadwalin/timetable-api/internal/service"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

type timetableSchedulerMock struct {
	captured   dto.GenerateTimetableRequest
	saveErr    error
	deleteErr  error
	publishErr error
}

func (m *timetableSchedulerMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.captured = req
	return &dto.GenerateTimetableResponse{ProposalID: "proposal-1"}, nil
}

func (m *timetableSchedulerMock) Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	return "tt-1", nil
}

func (m *timetableSchedulerMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, int, error) {
	return []models.Timetable{{ID: "tt-1"}}, 1, nil
}

func (m *timetableSchedulerMock) Get(ctx context.Context, id string) (*service.TimetableDetail, error) {
	if id != "tt-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &service.TimetableDetail{Timetable: models.Timetable{ID: id}}, nil
}

func (m *timetableSchedulerMock) Publish(ctx context.Context, id string) error {
	return m.publishErr
}

func (m *timetableSchedulerMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func TestTimetableHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableSchedulerMock{}
	handler := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"name":"week-a","activityIds":["math"]}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "week-a", mockSvc.captured.Name)
	require.Equal(t, []string{"math"}, mockSvc.captured.ActivityIDs)
}

func TestTimetableHandlerGenerateMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"name":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/timetables", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "tt-1", envelope.Data["timetableId"])
}

func TestTimetableHandlerSaveExpiredProposal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{
		saveErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired"),
	}}

	req, _ := http.NewRequest(http.MethodPost, "/timetables", bytes.NewReader([]byte(`{"proposalId":"stale"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{}}
	router := gin.New()
	router.GET("/timetables/:id", handler.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables/tt-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/timetables/missing", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerDeleteConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{
		deleteErr: appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted"),
	}}
	router := gin.New()
	router.DELETE("/timetables/:id", handler.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/timetables/tt-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableSchedulerMock{}}
	router := gin.New()
	router.GET("/timetables", handler.List)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables?status=DRAFT&page=2", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	require.Equal(t, 2, envelope.Pagination.Page)
}
