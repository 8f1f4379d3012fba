package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jadwalin/timetable-api/internal/dto"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

type timetableExporterMock struct {
	enqueued dto.ExportTimetableRequest
}

func (m *timetableExporterMock) Enqueue(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportJobPayload, error) {
	m.enqueued = req
	return &dto.ExportJobPayload{JobID: "job-1", TimetableID: req.TimetableID, Format: req.Format, Status: "pending"}, nil
}

func (m *timetableExporterMock) Status(jobID string) (*dto.ExportJobPayload, error) {
	if jobID != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &dto.ExportJobPayload{JobID: jobID, Status: "done", Filename: "timetable_week-a_v1_job-1.csv"}, nil
}

func (m *timetableExporterMock) Open(jobID string) (io.ReadCloser, string, error) {
	if jobID != "job-1" {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export job is not finished")
	}
	return io.NopCloser(strings.NewReader("Period,Monday\n1,MATH 08:00-08:40\n")), "timetable_week-a_v1_job-1.csv", nil
}

func TestExportHandlerEnqueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableExporterMock{}
	handler := &ExportHandler{service: mockSvc}

	payload := []byte(`{"timetableId":"tt-1","format":"csv"}`)
	req, _ := http.NewRequest(http.MethodPost, "/exports", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Enqueue(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, "tt-1", mockSvc.enqueued.TimetableID)
	require.Equal(t, "csv", mockSvc.enqueued.Format)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{service: &timetableExporterMock{}}
	router := gin.New()
	router.GET("/exports/:id", handler.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/job-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/exports/missing", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{service: &timetableExporterMock{}}
	router := gin.New()
	router.GET("/exports/:id/download", handler.Download)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/job-1/download", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "timetable_week-a_v1_job-1.csv")
	require.Contains(t, w.Body.String(), "MATH 08:00-08:40")
}

func TestExportHandlerDownloadNotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{service: &timetableExporterMock{}}
	router := gin.New()
	router.GET("/exports/:id/download", handler.Download)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/pending-job/download", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}
