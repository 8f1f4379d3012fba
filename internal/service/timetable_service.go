package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/engine"
	"github.com/jadwalin/timetable-api/internal/models"
	"github.com/jadwalin/timetable-api/pkg/config"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

type activityReader interface {
	ListAll(ctx context.Context) ([]models.Activity, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Activity, error)
}

type timetableRepository interface {
	List(ctx context.Context, status string, page, size int) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	NextVersion(ctx context.Context, name string) (int, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, tt *models.Timetable) error
	BulkCreateSlotsWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.TimetableSlot) error
	ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
	UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error
	DeleteDraft(ctx context.Context, id string) (bool, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type schedulerMetrics interface {
	ObserveGeneration(duration time.Duration, placed, shortfall int)
}

const timetableCachePrefix = "timetables"

// TimetableDetail bundles a stored timetable with its slots.
type TimetableDetail struct {
	Timetable models.Timetable       `json:"timetable"`
	Slots     []models.TimetableSlot `json:"slots"`
}

// TimetableService builds weekly timetable proposals and persists accepted
// versions.
type TimetableService struct {
	activities activityReader
	timetables timetableRepository
	cache      timetableCache
	tx         txProvider
	metrics    schedulerMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        config.TimetableConfig
	store      *proposalStore
}

// NewTimetableService wires scheduler dependencies.
func NewTimetableService(
	activities activityReader,
	timetables timetableRepository,
	cache timetableCache,
	tx txProvider,
	metrics schedulerMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		activities: activities,
		timetables: timetables,
		cache:      cache,
		tx:         tx,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		store:      newProposalStore(cfg.ProposalTTL),
	}
}

// Generate runs the greedy scheduling engine over the requested activities and
// caches the resulting proposal until it is saved or expires.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	gridCfg, err := buildGridConfig(s.cfg, req.Grid)
	if err != nil {
		return nil, err
	}

	activities, err := s.loadActivities(ctx, req.ActivityIDs)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no activities available to schedule")
	}

	engineActs := make([]engine.Activity, 0, len(activities))
	for _, act := range activities {
		engineActs = append(engineActs, engine.Activity{
			ID:            act.ID,
			Name:          act.Name,
			Code:          act.Code,
			WeeklyPeriods: act.WeeklyPeriods,
			InstructorID:  act.InstructorID,
			RoomID:        act.RoomID,
			Span:          act.Span,
		})
	}

	started := time.Now()
	result, err := engine.Generate(gridCfg, engineActs)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)

	days := result.Grid.Config().Days
	slots := make([]dto.SlotProposal, 0)
	committed := 0
	for _, cell := range result.Grid.Cells() {
		if cell.Assignment == nil {
			continue
		}
		committed++
		slots = append(slots, slotProposalFromCell(cell, days))
	}

	shortfalls := make([]dto.ShortfallPayload, 0, len(result.Shortfalls))
	for _, sf := range result.Shortfalls {
		shortfalls = append(shortfalls, dto.ShortfallPayload{ActivityID: sf.ActivityID, Missing: sf.Missing})
	}

	stats := dto.GenerateTimetableStats{
		PlacedPeriods: result.Placed(),
		OpenCells:     result.Grid.DayCount()*result.Grid.PeriodCount() - committed,
		Activities:    len(activities),
	}
	if s.metrics != nil {
		missing := 0
		for _, sf := range shortfalls {
			missing += sf.Missing
		}
		s.metrics.ObserveGeneration(elapsed, stats.PlacedPeriods, missing)
	}

	proposal := timetableProposal{
		ProposalID:  uuid.NewString(),
		Name:        req.Name,
		Days:        days,
		Slots:       slots,
		Shortfalls:  shortfalls,
		Stats:       stats,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Sugar().Infow("timetable proposal generated",
		"proposal_id", proposal.ProposalID,
		"placed", stats.PlacedPeriods,
		"shortfalls", len(shortfalls),
		"duration", elapsed,
	)

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		Slots:      slots,
		Shortfalls: shortfalls,
		Stats:      stats,
	}, nil
}

// Save persists a cached proposal as a new timetable version.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	version, err := s.timetables.NextVersion(ctx, proposal.Name)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve timetable version")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"shortfalls": proposal.Shortfalls,
		"stats":      proposal.Stats,
		"generated":  proposal.RequestedAt,
		"days":       proposal.Days,
		"algorithm":  "greedy_v1",
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return "", err
	}

	status := models.TimetableStatusDraft
	if req.Publish {
		status = models.TimetableStatusPublished
	}
	record := &models.Timetable{
		Name:    proposal.Name,
		Version: version,
		Status:  status,
		Meta:    types.JSONText(metaBytes),
	}
	if err = s.timetables.CreateWithTx(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return "", err
	}

	slotModels := make([]models.TimetableSlot, 0, len(proposal.Slots))
	for _, slot := range proposal.Slots {
		slotModels = append(slotModels, models.TimetableSlot{
			TimetableID: record.ID,
			Day:         slot.Day,
			Period:      slot.Period,
			ActivityID:  slot.ActivityID,
			Kind:        slot.Kind,
			StartsAt:    slot.StartsAt,
			EndsAt:      slot.EndsAt,
		})
	}
	if err = s.timetables.BulkCreateSlotsWithTx(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	s.invalidateCache(ctx)
	return record.ID, nil
}

// List returns stored timetables.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, int, error) {
	list, total, err := s.timetables.List(ctx, query.Status, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, total, nil
}

// Get loads one timetable with its slots, serving from cache when warm.
func (s *TimetableService) Get(ctx context.Context, id string) (*TimetableDetail, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}

	cacheKey := fmt.Sprintf("%s:detail:%s", timetableCachePrefix, id)
	if s.cache != nil {
		var cached TimetableDetail
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("timetable cache read failed", "key", cacheKey, "error", err)
		}
	}

	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	slots, err := s.timetables.ListSlots(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}

	detail := &TimetableDetail{Timetable: *record, Slots: slots}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, detail, s.cfg.CacheTTL); err != nil {
			s.logger.Sugar().Warnw("timetable cache write failed", "key", cacheKey, "error", err)
		}
	}
	return detail, nil
}

// Publish transitions a draft timetable to published.
func (s *TimetableService) Publish(ctx context.Context, id string) error {
	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be published")
	}
	if err := s.timetables.UpdateStatus(ctx, id, models.TimetableStatusPublished); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	s.invalidateCache(ctx)
	return nil
}

// Delete removes a draft timetable version.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	deleted, err := s.timetables.DeleteDraft(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	if !deleted {
		if _, findErr := s.timetables.FindByID(ctx, id); findErr != nil {
			if errors.Is(findErr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
			}
			return appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
		}
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TimetableService) loadActivities(ctx context.Context, ids []string) ([]models.Activity, error) {
	if len(ids) == 0 {
		activities, err := s.activities.ListAll(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
		}
		return activities, nil
	}

	activities, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
	}
	if len(activities) != len(ids) {
		found := make(map[string]bool, len(activities))
		for _, act := range activities {
			found[act.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("activity %s not found", id))
			}
		}
	}
	return activities, nil
}

func (s *TimetableService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timetableCachePrefix+":*"); err != nil {
		s.logger.Sugar().Warnw("timetable cache invalidation failed", "error", err)
	}
}

func slotProposalFromCell(cell engine.Cell, days []string) dto.SlotProposal {
	a := cell.Assignment
	slot := dto.SlotProposal{
		Day:      cell.Day,
		Period:   cell.Period,
		Kind:     strings.ToLower(string(a.Kind)),
		StartsAt: a.Start.String(),
		EndsAt:   a.End.String(),
	}
	if cell.Day >= 0 && cell.Day < len(days) {
		slot.DayName = days[cell.Day]
	}
	if a.ActivityID != "" {
		id := a.ActivityID
		slot.ActivityID = &id
	}
	return slot
}

// --- Proposal cache ---

type timetableProposal struct {
	ProposalID  string
	Name        string
	Days        []string
	Slots       []dto.SlotProposal
	Shortfalls  []dto.ShortfallPayload
	Stats       dto.GenerateTimetableStats
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
