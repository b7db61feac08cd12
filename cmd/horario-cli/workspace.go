package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"github.com/noah-isme/horario-api/internal/timetable"
)

// level holds the requirement tables of one level.
type level struct {
	Hours        []timetable.SubjectHours    `json:"horasBase"`
	Distribution []timetable.DistributionRow `json:"distribucion"`
	Fixed        []timetable.FixedBlock      `json:"fijos"`
}

// workspace is the offline counterpart of the database: every table the
// engine reads plus the stored schedules.
type workspace struct {
	Days         []string                      `json:"dias,omitempty"`
	Periods      []string                      `json:"horas,omitempty"`
	Levels       map[string]level              `json:"niveles"`
	Restrictions map[string][]string           `json:"restricciones"`
	Rules        []timetable.Rule              `json:"reglas"`
	Schedules    map[string][]timetable.Block  `json:"horarios"`
	Unassigned   map[string][]timetable.Lesson `json:"sinAsignar"`
}

// loadWorkspace reads a workspace file. Hour counts may be numbers or strings
// and booleans may be written as "true"/"1".
func loadWorkspace(path string) (*workspace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	return decodeWorkspace(raw)
}

func decodeWorkspace(raw []byte) (*workspace, error) {
	var loose map[string]interface{}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}

	ws := &workspace{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           ws,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(loose); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	ws.normalize()
	return ws, nil
}

func (w *workspace) normalize() {
	if w.Levels == nil {
		w.Levels = map[string]level{}
	}
	if w.Restrictions == nil {
		w.Restrictions = map[string][]string{}
	}
	if w.Schedules == nil {
		w.Schedules = map[string][]timetable.Block{}
	}
	if w.Unassigned == nil {
		w.Unassigned = map[string][]timetable.Lesson{}
	}
}

func (w *workspace) grid() (timetable.Grid, error) {
	if len(w.Days) == 0 && len(w.Periods) == 0 {
		return timetable.DefaultGrid(), nil
	}
	days, periods := w.Days, w.Periods
	if len(days) == 0 {
		days = timetable.DefaultDays
	}
	if len(periods) == 0 {
		periods = timetable.DefaultPeriods
	}
	grid := timetable.NewGrid(days, periods)
	return grid, grid.Validate()
}

func (w *workspace) scheduleMap() timetable.ScheduleMap {
	return timetable.ScheduleMap(w.Schedules).Clone()
}

// commit stores the engine's view of one group back into the workspace.
func (w *workspace) commit(groupKey string, schedules timetable.ScheduleMap, unassigned []timetable.Lesson) {
	w.Schedules = map[string][]timetable.Block(schedules)
	if len(unassigned) == 0 {
		delete(w.Unassigned, groupKey)
		return
	}
	w.Unassigned[groupKey] = unassigned
}

func (w *workspace) restrictions() timetable.Restrictions {
	return timetable.NewRestrictions(lo.PickBy(w.Restrictions, func(_ string, keys []string) bool {
		return len(keys) > 0
	}))
}

func (w *workspace) save(path string) error {
	payload, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	return nil
}
