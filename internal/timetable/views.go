package timetable

import (
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// TeacherBlock is a block seen from a teacher's weekly view.
type TeacherBlock struct {
	GroupKey string `json:"grupoKey"`
	Block
}

// TeacherTimetable collects every block a teacher has across all groups,
// ordered by the grid's day and period order and then by group key.
func TeacherTimetable(schedules ScheduleMap, grid Grid, teacherID string) []TeacherBlock {
	result := make([]TeacherBlock, 0)
	for groupKey, blocks := range schedules {
		for _, b := range blocks {
			if b.TeacherID == teacherID {
				result = append(result, TeacherBlock{GroupKey: groupKey, Block: b})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if c := grid.Compare(a.Slot(), b.Slot()); c != 0 {
			return c < 0
		}
		return a.GroupKey < b.GroupKey
	})
	return result
}

// SortBlocks orders blocks in place by the grid's day and period order.
func SortBlocks(blocks []Block, grid Grid) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return grid.Compare(blocks[i].Slot(), blocks[j].Slot()) < 0
	})
}

// MoveBlock relocates one non-fixed block of a group to an empty cell. It is
// the engine side of manual drag-and-drop: hard constraints are not checked,
// so the move may introduce conflicts that DetectConflicts will report.
// The input map is not modified.
func MoveBlock(schedules ScheduleMap, grid Grid, groupKey, blockID string, target Slot) (ScheduleMap, error) {
	if !grid.Contains(target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell %s is outside the timetable grid", target.Key()))
	}
	blocks, ok := schedules[groupKey]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group schedule not found")
	}
	pos := -1
	for i, b := range blocks {
		if b.ID == blockID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
	}
	if blocks[pos].Fixed {
		return nil, appErrors.ErrFixedBlock
	}
	if blocks[pos].Slot() == target {
		return schedules.Clone(), nil
	}
	if occupied(blocks, target) {
		return nil, appErrors.ErrCellOccupied
	}

	result := schedules.Clone()
	result[groupKey][pos].Day = target.Day
	result[groupKey][pos].Period = target.Period
	return result, nil
}
