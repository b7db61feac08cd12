package timetable

import (
	"fmt"

	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// OptimizeInput is the snapshot an optimizer run works on.
type OptimizeInput struct {
	LevelID      string
	Group        string
	Grid         Grid
	Restrictions Restrictions
	Rules        Rules
	Schedules    ScheduleMap
	Unassigned   []Lesson
	NewID        func() string
}

// OptimizeResult carries the updated map and the lessons still without a cell.
type OptimizeResult struct {
	GroupKey     string
	Schedules    ScheduleMap
	Unassigned   []Lesson
	DirectPlaced int
	Swapped      int
	Passes       int
}

// Optimize tries to place a group's unassigned lessons, first into free valid
// cells and then by relocating one existing non-fixed block per lesson. Passes
// repeat until one places nothing, so calling Optimize again on its own result
// makes no further progress. The residual list preserves input order and only
// ever shrinks.
func Optimize(in OptimizeInput) (result OptimizeResult, err error) {
	groupKey := GroupKey(in.LevelID, in.Group)
	defer func() {
		if r := recover(); r != nil {
			result = OptimizeResult{GroupKey: groupKey, Schedules: in.Schedules, Unassigned: in.Unassigned}
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable optimization failed")
		}
	}()

	if err := ValidateGroup(in.Group); err != nil {
		return OptimizeResult{GroupKey: groupKey, Schedules: in.Schedules, Unassigned: in.Unassigned}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group")
	}
	if err := in.Grid.Validate(); err != nil {
		return OptimizeResult{GroupKey: groupKey, Schedules: in.Schedules, Unassigned: in.Unassigned}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid timetable grid")
	}

	newID := in.NewID
	if newID == nil {
		newID = defaultID
	}

	schedules := in.Schedules.Clone()
	opt := &optimizer{
		cells:  in.Grid.Cells(),
		blocks: schedules[groupKey],
		index:  NewAvailabilityIndex(schedules, groupKey),
	}
	for _, b := range opt.blocks {
		opt.index.Reserve(b.TeacherID, b.Slot())
	}
	opt.validator = NewValidator(in.Restrictions, opt.index, in.Rules)

	pending := make([]Lesson, 0, len(in.Unassigned))
	for _, lesson := range in.Unassigned {
		if lesson.ID == "" {
			lesson.ID = newID()
		}
		lesson.GroupKey = groupKey
		pending = append(pending, lesson)
	}

	res := OptimizeResult{GroupKey: groupKey}
	for len(pending) > 0 {
		res.Passes++
		before := len(pending)

		remaining := make([]Lesson, 0, len(pending))
		for _, lesson := range pending {
			if opt.directFill(lesson) {
				res.DirectPlaced++
				continue
			}
			remaining = append(remaining, lesson)
		}
		pending = remaining

		remaining = make([]Lesson, 0, len(pending))
		for _, lesson := range pending {
			if opt.swapIn(lesson) {
				res.Swapped++
				continue
			}
			remaining = append(remaining, lesson)
		}
		pending = remaining

		if len(pending) == before {
			break
		}
	}

	if _, ok := schedules[groupKey]; ok || len(opt.blocks) > 0 {
		schedules[groupKey] = opt.blocks
	}
	res.Schedules = schedules
	res.Unassigned = pending
	return res, nil
}

type optimizer struct {
	cells     []Slot
	blocks    []Block
	index     *AvailabilityIndex
	validator Validator
}

func (o *optimizer) directFill(lesson Lesson) bool {
	for _, cell := range o.cells {
		if o.validator.Valid(lesson, cell, o.blocks) {
			o.place(lesson, cell)
			return true
		}
	}
	return false
}

// swapIn moves the first non-fixed block that both frees a valid cell for
// lesson and has a valid new home of its own.
func (o *optimizer) swapIn(lesson Lesson) bool {
	for i := range o.blocks {
		moved := o.blocks[i]
		if moved.Fixed {
			continue
		}
		origin := moved.Slot()
		without := make([]Block, 0, len(o.blocks)-1)
		without = append(without, o.blocks[:i]...)
		without = append(without, o.blocks[i+1:]...)

		o.index.Release(moved.TeacherID, origin)
		if !o.validator.Valid(lesson, origin, without) {
			o.index.Reserve(moved.TeacherID, origin)
			continue
		}

		// The moved block must also fit next to the incoming lesson: the origin
		// cell is taken and the subject-per-day rule sees both.
		withIncoming := append(without, lesson.At(origin))
		movedLesson := lessonOf(moved, lesson.GroupKey)
		for _, cell := range o.cells {
			if cell == origin || !o.validator.Valid(movedLesson, cell, withIncoming) {
				continue
			}
			o.blocks[i].Day = cell.Day
			o.blocks[i].Period = cell.Period
			o.index.Reserve(moved.TeacherID, cell)
			o.place(lesson, origin)
			return true
		}
		o.index.Reserve(moved.TeacherID, origin)
	}
	return false
}

func (o *optimizer) place(lesson Lesson, cell Slot) {
	o.blocks = append(o.blocks, lesson.At(cell))
	o.index.Reserve(lesson.TeacherID, cell)
}
