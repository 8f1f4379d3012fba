package service

import (
	"fmt"

	"github.com/jadwalin/timetable-api/internal/dto"
	"github.com/jadwalin/timetable-api/internal/engine"
	"github.com/jadwalin/timetable-api/pkg/config"
	appErrors "github.com/jadwalin/timetable-api/pkg/errors"
)

// buildGridConfig resolves the engine grid configuration for one run, merging
// the configured defaults with any per-request overrides. Validation itself is
// the engine's job; this only translates clock notation.
func buildGridConfig(cfg config.TimetableConfig, spec *dto.GridSpec) (engine.Config, error) {
	days := cfg.Days
	if spec != nil && len(spec.Days) > 0 {
		days = spec.Days
	}

	var periods []engine.PeriodTiming
	if spec != nil && len(spec.Periods) > 0 {
		for i, p := range spec.Periods {
			start, err := parseGridClock(p.Start, fmt.Sprintf("period %d start", i+1))
			if err != nil {
				return engine.Config{}, err
			}
			end, err := parseGridClock(p.End, fmt.Sprintf("period %d end", i+1))
			if err != nil {
				return engine.Config{}, err
			}
			periods = append(periods, engine.PeriodTiming{Start: start, End: end})
		}
	} else {
		start, err := parseGridClock(cfg.DayStart, "day start")
		if err != nil {
			return engine.Config{}, err
		}
		length := int(cfg.PeriodLength.Minutes())
		cursor := start
		for i := 0; i < cfg.PeriodsPerDay; i++ {
			end, err := cursor.Add(length)
			if err != nil {
				return engine.Config{}, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, fmt.Sprintf("period %d crosses the day boundary", i+1))
			}
			periods = append(periods, engine.PeriodTiming{Start: cursor, End: end})
			cursor = end
		}
	}

	var breaks []engine.BreakWindow
	if spec != nil && len(spec.Breaks) > 0 {
		for _, b := range spec.Breaks {
			start, err := parseGridClock(b.Start, fmt.Sprintf("break %q start", b.Name))
			if err != nil {
				return engine.Config{}, err
			}
			end, err := parseGridClock(b.End, fmt.Sprintf("break %q end", b.Name))
			if err != nil {
				return engine.Config{}, err
			}
			breaks = append(breaks, engine.BreakWindow{Name: b.Name, Start: start, End: end})
		}
	} else if cfg.LunchStart != "" && cfg.LunchEnd != "" {
		start, err := parseGridClock(cfg.LunchStart, "lunch start")
		if err != nil {
			return engine.Config{}, err
		}
		end, err := parseGridClock(cfg.LunchEnd, "lunch end")
		if err != nil {
			return engine.Config{}, err
		}
		breaks = append(breaks, engine.BreakWindow{Name: engine.LunchName, Start: start, End: end})
	}

	dayStart, err := parseGridClock(cfg.DayStart, "day start")
	if err != nil {
		return engine.Config{}, err
	}

	return engine.Config{
		Days:         days,
		Periods:      periods,
		Breaks:       breaks,
		DayStart:     dayStart,
		PeriodLength: int(cfg.PeriodLength.Minutes()),
		BreakLength:  int(cfg.BreakDuration.Minutes()),
	}, nil
}

func parseGridClock(raw, field string) (engine.TimeOfDay, error) {
	t, err := engine.ParseClock(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, fmt.Sprintf("invalid %s %q", field, raw))
	}
	return t, nil
}
