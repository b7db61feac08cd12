package timetable

import (
	"fmt"
	"strings"
)

// DefaultDays are the teaching days of the week in iteration order.
var DefaultDays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}

// DefaultPeriods are the institution's non-recess periods in iteration order.
// The 09:30-10:00 recess is not part of the assignable grid.
var DefaultPeriods = []string{
	"07:00-07:50", "07:50-08:40", "08:40-09:30",
	"10:00-10:50", "10:50-11:40", "11:40-12:30", "12:30-13:20",
}

// Slot identifies one (day, period) cell of the weekly grid.
type Slot struct {
	Day    string `json:"dia"`
	Period string `json:"hora"`
}

// Key renders the slot in the "day_period" form used by teacher restrictions.
func (s Slot) Key() string {
	return s.Day + "_" + s.Period
}

// ParseSlotKey is the inverse of Slot.Key. Days never contain an underscore.
func ParseSlotKey(key string) (Slot, bool) {
	day, period, ok := strings.Cut(key, "_")
	if !ok || day == "" || period == "" {
		return Slot{}, false
	}
	return Slot{Day: day, Period: period}, true
}

// Grid is the ordered set of assignable cells.
type Grid struct {
	Days    []string
	Periods []string
}

// DefaultGrid returns a five day grid with the seven default periods.
func DefaultGrid() Grid {
	return NewGrid(DefaultDays, DefaultPeriods)
}

// NewGrid copies the provided days and periods into a Grid.
func NewGrid(days, periods []string) Grid {
	g := Grid{
		Days:    make([]string, len(days)),
		Periods: make([]string, len(periods)),
	}
	copy(g.Days, days)
	copy(g.Periods, periods)
	return g
}

// Validate rejects empty grids and duplicated days or periods.
func (g Grid) Validate() error {
	if len(g.Days) == 0 {
		return fmt.Errorf("grid requires at least one day")
	}
	if len(g.Periods) == 0 {
		return fmt.Errorf("grid requires at least one period")
	}
	if err := checkUnique("day", g.Days); err != nil {
		return err
	}
	return checkUnique("period", g.Periods)
}

// Cells returns every slot in fixed iteration order: days first, then periods.
func (g Grid) Cells() []Slot {
	cells := make([]Slot, 0, len(g.Days)*len(g.Periods))
	for _, day := range g.Days {
		for _, period := range g.Periods {
			cells = append(cells, Slot{Day: day, Period: period})
		}
	}
	return cells
}

// Contains reports whether the slot belongs to the grid.
func (g Grid) Contains(slot Slot) bool {
	return g.DayIndex(slot.Day) >= 0 && g.PeriodIndex(slot.Period) >= 0
}

// DayIndex returns the position of day in the grid or -1.
func (g Grid) DayIndex(day string) int {
	return indexOf(g.Days, day)
}

// PeriodIndex returns the position of period in the grid or -1.
func (g Grid) PeriodIndex(period string) int {
	return indexOf(g.Periods, period)
}

// Compare orders two cells by day then period position in the grid. Cells
// outside the grid sort first.
func (g Grid) Compare(a, b Slot) int {
	if da, db := g.DayIndex(a.Day), g.DayIndex(b.Day); da != db {
		if da < db {
			return -1
		}
		return 1
	}
	pa, pb := g.PeriodIndex(a.Period), g.PeriodIndex(b.Period)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	}
	return 0
}

func indexOf(items []string, value string) int {
	for i, item := range items {
		if item == value {
			return i
		}
	}
	return -1
}

func checkUnique(label string, items []string) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			return fmt.Errorf("%s names must not be empty", label)
		}
		if _, ok := seen[trimmed]; ok {
			return fmt.Errorf("duplicated %s %q", label, trimmed)
		}
		seen[trimmed] = struct{}{}
	}
	return nil
}
