package timetable

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// Options tunes a generator run.
type Options struct {
	// Shuffle randomizes requirement order with Seed. Runs with the same seed
	// and input produce the same schedule.
	Shuffle bool
	Seed    int64
	// NewID overrides block identifier generation.
	NewID func() string
}

// GenerateInput is the snapshot a generator run works on.
type GenerateInput struct {
	LevelID      string
	Group        string
	Grid         Grid
	Hours        []SubjectHours
	Distribution []DistributionRow
	Fixed        []FixedBlock
	Restrictions Restrictions
	Rules        Rules
	Schedules    ScheduleMap
	Options      Options
}

// GenerateResult carries the updated map and the lessons that found no cell.
type GenerateResult struct {
	GroupKey   string
	Schedules  ScheduleMap
	Unassigned []Lesson
	Seeded     int
	Placed     int
}

// Generate builds the weekly schedule of one group. The input map is never
// modified; the result holds a copy in which only the group's entry differs.
// On a fault the original map is returned together with the error so callers
// can tell a failed run from one with nothing to place.
func Generate(in GenerateInput) (result GenerateResult, err error) {
	groupKey := GroupKey(in.LevelID, in.Group)
	defer func() {
		if r := recover(); r != nil {
			result = GenerateResult{GroupKey: groupKey, Schedules: in.Schedules}
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
		}
	}()

	if err := ValidateGroup(in.Group); err != nil {
		return GenerateResult{GroupKey: groupKey, Schedules: in.Schedules}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group")
	}
	if err := in.Grid.Validate(); err != nil {
		return GenerateResult{GroupKey: groupKey, Schedules: in.Schedules}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid timetable grid")
	}

	newID := in.Options.NewID
	if newID == nil {
		newID = defaultID
	}
	blocks, lessons := DeriveRequirements(RequirementInput{
		LevelID:      in.LevelID,
		Group:        in.Group,
		Hours:        in.Hours,
		Distribution: in.Distribution,
		Fixed:        in.Fixed,
		NewID:        newID,
	})
	seeded := len(blocks)

	if in.Options.Shuffle && len(lessons) > 1 {
		rng := rand.New(rand.NewSource(in.Options.Seed))
		rng.Shuffle(len(lessons), func(i, j int) {
			lessons[i], lessons[j] = lessons[j], lessons[i]
		})
	}

	index := NewAvailabilityIndex(in.Schedules, groupKey)
	validator := NewValidator(in.Restrictions, index, in.Rules)

	free := make([]Slot, 0, len(in.Grid.Days)*len(in.Grid.Periods))
	for _, cell := range in.Grid.Cells() {
		if !occupied(blocks, cell) {
			free = append(free, cell)
		}
	}

	unassigned := make([]Lesson, 0)
	for _, lesson := range lessons {
		best := -1
		bestScore := math.MinInt
		for i, cell := range free {
			if !validator.Valid(lesson, cell, blocks) {
				continue
			}
			score := -teacherLoadOnDay(blocks, lesson.TeacherID, cell.Day)
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			unassigned = append(unassigned, lesson)
			continue
		}
		cell := free[best]
		blocks = append(blocks, lesson.At(cell))
		index.Reserve(lesson.TeacherID, cell)
		free = append(free[:best], free[best+1:]...)
	}

	schedules := in.Schedules.Clone()
	schedules[groupKey] = blocks
	return GenerateResult{
		GroupKey:   groupKey,
		Schedules:  schedules,
		Unassigned: unassigned,
		Seeded:     seeded,
		Placed:     len(blocks) - seeded,
	}, nil
}

func teacherLoadOnDay(blocks []Block, teacherID, day string) int {
	count := 0
	for _, b := range blocks {
		if b.TeacherID == teacherID && b.Day == day {
			count++
		}
	}
	return count
}

func defaultID() string {
	return uuid.NewString()
}
