package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
	"github.com/jadwalin/timetable-api/pkg/export"
	"github.com/jadwalin/timetable-api/pkg/jobs"
)

const (
	exportStatusPending  = "pending"
	exportStatusRetrying = "retrying"
	exportStatusDone     = "done"
	exportStatusFailed   = "failed"
)

type timetableDetailReader interface {
	Get(ctx context.Context, id string) (*TimetableDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (io.ReadCloser, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportMetrics interface {
	ObserveExportJob(status string)
}

// ExportConfig tunes export rendering behaviour.
type ExportConfig struct {
	ArtifactTTL       time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportService renders stored timetables to CSV or PDF artifacts through a
// background worker queue.
type ExportService struct {
	timetables timetableDetailReader
	activities activityReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	metrics    exportMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ExportConfig

	queue *jobs.Queue

	mu          sync.RWMutex
	statuses    map[string]dto.ExportJobPayload
	cleanupStop chan struct{}
}

type exportJobParams struct {
	JobID       string
	TimetableID string
	Format      string
}

// NewExportService constructs an ExportService and its worker queue.
func NewExportService(
	timetables timetableDetailReader,
	activities activityReader,
	storage fileStorage,
	metrics exportMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExportConfig,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ArtifactTTL <= 0 {
		cfg.ArtifactTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &ExportService{
		timetables:  timetables,
		activities:  activities,
		storage:     storage,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		statuses:    make(map[string]dto.ExportJobPayload),
		cleanupStop: make(chan struct{}),
	}
	s.queue = jobs.NewQueue("timetable-exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the artifact cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.cleanupLoop()
}

// Stop drains workers and halts cleanup.
func (s *ExportService) Stop() {
	close(s.cleanupStop)
	s.queue.Stop()
}

// Enqueue validates the request and schedules a rendering job.
func (s *ExportService) Enqueue(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportJobPayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if _, err := s.timetables.Get(ctx, req.TimetableID); err != nil {
		return nil, err
	}

	payload := dto.ExportJobPayload{
		JobID:       uuid.NewString(),
		TimetableID: req.TimetableID,
		Format:      req.Format,
		Status:      exportStatusPending,
	}
	s.setStatus(payload)

	job := jobs.Job{
		ID:      payload.JobID,
		Type:    "timetable-export",
		Payload: exportJobParams{JobID: payload.JobID, TimetableID: req.TimetableID, Format: req.Format},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.mu.Lock()
		delete(s.statuses, payload.JobID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &payload, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*dto.ExportJobPayload, error) {
	s.mu.RLock()
	payload, ok := s.statuses[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &payload, nil
}

// Open returns a handle to a finished artifact.
func (s *ExportService) Open(jobID string) (io.ReadCloser, string, error) {
	payload, err := s.Status(jobID)
	if err != nil {
		return nil, "", err
	}
	if payload.Status != exportStatusDone || payload.Filename == "" {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export artifact not ready")
	}
	file, err := s.storage.Open(payload.Filename)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export artifact missing")
	}
	return file, payload.Filename, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	params, ok := job.Payload.(exportJobParams)
	if !ok {
		s.logger.Sugar().Errorw("export job carries unexpected payload", "job_id", job.ID)
		return nil
	}

	filename, err := s.render(ctx, params)
	if err != nil {
		// Failed is terminal; while the queue still holds retry attempts the
		// job is merely retrying and may yet finish.
		final := job.Attempt >= s.queue.MaxRetries()
		s.updateStatus(params.JobID, func(p *dto.ExportJobPayload) {
			if final {
				p.Status = exportStatusFailed
			} else {
				p.Status = exportStatusRetrying
			}
			p.Error = err.Error()
		})
		if final && s.metrics != nil {
			s.metrics.ObserveExportJob(exportStatusFailed)
		}
		return err
	}

	s.updateStatus(params.JobID, func(p *dto.ExportJobPayload) {
		p.Status = exportStatusDone
		p.Filename = filename
		p.Error = ""
	})
	if s.metrics != nil {
		s.metrics.ObserveExportJob(exportStatusDone)
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, params exportJobParams) (string, error) {
	detail, err := s.timetables.Get(ctx, params.TimetableID)
	if err != nil {
		return "", err
	}
	dataset, title, err := s.buildDataset(ctx, detail)
	if err != nil {
		return "", err
	}

	var payload []byte
	switch params.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported export format %s", params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("timetable_%s_v%d_%s.%s",
		sanitizeFilename(detail.Timetable.Name),
		detail.Timetable.Version,
		time.Now().UTC().Format("20060102_150405"),
		params.Format,
	)
	return s.storage.Save(filename, payload)
}

// buildDataset lays the stored slots out as a weekly grid: one row per base
// period, one column per day.
func (s *ExportService) buildDataset(ctx context.Context, detail *TimetableDetail) (export.Dataset, string, error) {
	days := metaDays(detail)
	maxDay, maxPeriod := -1, -1
	for _, slot := range detail.Slots {
		if slot.Day > maxDay {
			maxDay = slot.Day
		}
		if slot.Period > maxPeriod {
			maxPeriod = slot.Period
		}
	}
	if len(days) <= maxDay {
		for d := len(days); d <= maxDay; d++ {
			days = append(days, fmt.Sprintf("Day %d", d+1))
		}
	}

	labels, err := s.activityLabels(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := append([]string{"Period"}, days...)
	rows := make([][]string, 0, maxPeriod+1)
	for p := 0; p <= maxPeriod; p++ {
		row := make([]string, len(headers))
		row[0] = fmt.Sprintf("%d", p+1)
		rows = append(rows, row)
	}
	for _, slot := range detail.Slots {
		text := strings.ToLower(slot.Kind)
		if slot.ActivityID != nil {
			if label, ok := labels[*slot.ActivityID]; ok {
				text = label
			} else {
				text = *slot.ActivityID
			}
		}
		rows[slot.Period][slot.Day+1] = fmt.Sprintf("%s %s-%s", text, slot.StartsAt, slot.EndsAt)
	}

	title := fmt.Sprintf("Timetable %s v%d", detail.Timetable.Name, detail.Timetable.Version)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) activityLabels(ctx context.Context) (map[string]string, error) {
	if s.activities == nil {
		return map[string]string{}, nil
	}
	all, err := s.activities.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity labels")
	}
	labels := make(map[string]string, len(all))
	for _, act := range all {
		labels[act.ID] = act.Code
	}
	return labels, nil
}

func (s *ExportService) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.cleanupStop:
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(s.cfg.ArtifactTTL)
			if err != nil {
				s.logger.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				s.logger.Sugar().Infow("expired export artifacts removed", "count", len(deleted))
			}
		}
	}
}

func (s *ExportService) setStatus(payload dto.ExportJobPayload) {
	s.mu.Lock()
	s.statuses[payload.JobID] = payload
	s.mu.Unlock()
}

func (s *ExportService) updateStatus(jobID string, apply func(*dto.ExportJobPayload)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.statuses[jobID]
	if !ok {
		return
	}
	apply(&payload)
	s.statuses[jobID] = payload
}

func metaDays(detail *TimetableDetail) []string {
	if len(detail.Timetable.Meta) == 0 {
		return nil
	}
	var meta struct {
		Days []string `json:"days"`
	}
	if err := json.Unmarshal(detail.Timetable.Meta, &meta); err != nil {
		return nil
	}
	return meta.Days
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
