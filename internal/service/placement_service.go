package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/engine"
	"github.com/jadwalin/timetable-api/pkg/config"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

// PlacementService drives interactive slot-by-slot timetable editing. Each
// session owns one grid; the engine driver itself performs no locking, so all
// access goes through the session mutex.
type PlacementService struct {
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.TimetableConfig
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*placementSession
}

type placementSession struct {
	mu      sync.Mutex
	driver  *engine.Driver
	days    []string
	touched time.Time
}

// NewPlacementService constructs the manual placement service.
func NewPlacementService(validate *validator.Validate, logger *zap.Logger, cfg config.TimetableConfig) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.ProposalTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PlacementService{
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		ttl:       ttl,
		sessions:  make(map[string]*placementSession),
	}
}

// Start opens a placement session over an empty grid.
func (s *PlacementService) Start(req dto.StartPlacementRequest) (*dto.StartPlacementResponse, error) {
	gridCfg, err := buildGridConfig(s.cfg, req.Grid)
	if err != nil {
		return nil, err
	}
	grid, err := engine.NewGrid(gridCfg)
	if err != nil {
		return nil, err
	}

	session := &placementSession{
		driver:  engine.NewDriver(grid),
		days:    grid.Config().Days,
		touched: time.Now(),
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.evictExpiredLocked()
	s.sessions[id] = session
	s.mu.Unlock()

	s.logger.Sugar().Infow("placement session opened", "session_id", id, "days", grid.DayCount(), "periods", grid.PeriodCount())
	return &dto.StartPlacementResponse{
		SessionID: id,
		Days:      grid.DayCount(),
		Periods:   grid.PeriodCount(),
	}, nil
}

// NextWindow computes the next slot window for a day, committing a lunch cell
// first when the window would straddle the lunch start.
func (s *PlacementService) NextWindow(req dto.NextWindowRequest) (*dto.NextWindowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid next window payload")
	}
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	window, inserted, err := session.driver.NextWindow(req.Day, engine.WindowKind(req.Kind), req.Periods)
	if err != nil {
		return nil, err
	}

	resp := &dto.NextWindowResponse{
		Window: dto.WindowPayload{
			Start: window.Start.String(),
			End:   window.End.String(),
			Order: window.Order,
		},
	}
	if inserted != nil {
		resp.LunchInserted = &dto.SlotProposal{
			Day:      req.Day,
			DayName:  s.dayName(session, req.Day),
			Period:   inserted.Period,
			Kind:     string(engine.WindowLunch),
			StartsAt: inserted.Assignment.Start.String(),
			EndsAt:   inserted.Assignment.End.String(),
		}
	}
	return resp, nil
}

// PlaceSlot commits one activity slot and returns its position in the day.
func (s *PlacementService) PlaceSlot(req dto.PlaceSlotRequest) (*dto.SlotProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid place slot payload")
	}
	start, err := engine.ParseClock(req.Start)
	if err != nil {
		return nil, err
	}
	end, err := engine.ParseClock(req.End)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("slot end %s is not after start %s", req.End, req.Start))
	}

	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	order, err := session.driver.Commit(req.Day, engine.Assignment{
		ActivityID: req.ActivityID,
		Kind:       engine.KindClass,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return nil, err
	}

	activityID := req.ActivityID
	return &dto.SlotProposal{
		Day:        req.Day,
		DayName:    s.dayName(session, req.Day),
		Period:     order - 1,
		ActivityID: &activityID,
		Kind:       string(engine.WindowClass),
		StartsAt:   start.String(),
		EndsAt:     end.String(),
	}, nil
}

// ClearSlot empties a committed cell so it can be placed again.
func (s *PlacementService) ClearSlot(req dto.ClearSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clear slot payload")
	}
	session, err := s.session(req.SessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	grid := session.driver.Grid()
	if _, ok := grid.Cell(req.Day, req.Period); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell (%d,%d) outside grid", req.Day, req.Period))
	}
	grid.Clear(req.Day, req.Period)
	return nil
}

// Slots returns all committed cells of a session in day order.
func (s *PlacementService) Slots(sessionID string) ([]dto.SlotProposal, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	grid := session.driver.Grid()
	out := make([]dto.SlotProposal, 0)
	for _, cell := range grid.Cells() {
		if cell.Assignment == nil {
			continue
		}
		out = append(out, slotProposalFromCell(cell, session.days))
	}
	return out, nil
}

// Close discards a session.
func (s *PlacementService) Close(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *PlacementService) session(id string) (*placementSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement session not found or expired")
	}
	if time.Since(session.touched) > s.ttl {
		delete(s.sessions, id)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement session not found or expired")
	}
	session.touched = time.Now()
	return session, nil
}

func (s *PlacementService) evictExpiredLocked() {
	for id, session := range s.sessions {
		if time.Since(session.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *PlacementService) dayName(session *placementSession, day int) string {
	if day >= 0 && day < len(session.days) {
		return session.days[day]
	}
	return ""
}
