package service

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
)

func scheduleMapFromModels(rows []models.ScheduleBlock) timetable.ScheduleMap {
	schedules := timetable.ScheduleMap{}
	for _, row := range rows {
		schedules[row.GroupKey] = append(schedules[row.GroupKey], timetable.Block{
			ID:        row.ID,
			Subject:   row.Subject,
			TeacherID: row.TeacherID,
			Day:       row.Day,
			Period:    row.Period,
			Fixed:     row.Fixed,
		})
	}
	return schedules
}

func blocksToModels(blocks []timetable.Block) []models.ScheduleBlock {
	return lo.Map(blocks, func(b timetable.Block, _ int) models.ScheduleBlock {
		return models.ScheduleBlock{
			ID:        b.ID,
			Day:       b.Day,
			Period:    b.Period,
			Subject:   b.Subject,
			TeacherID: b.TeacherID,
			Fixed:     b.Fixed,
		}
	})
}

func lessonsToModels(lessons []timetable.Lesson) []models.UnassignedLesson {
	return lo.Map(lessons, func(l timetable.Lesson, _ int) models.UnassignedLesson {
		return models.UnassignedLesson{ID: l.ID, Subject: l.Subject, TeacherID: l.TeacherID}
	})
}

func lessonsFromModels(groupKey string, rows []models.UnassignedLesson) []timetable.Lesson {
	return lo.Map(rows, func(r models.UnassignedLesson, _ int) timetable.Lesson {
		return timetable.Lesson{ID: r.ID, Subject: r.Subject, TeacherID: r.TeacherID, GroupKey: groupKey}
	})
}

func subjectHoursFromModels(rows []models.SubjectHours) []timetable.SubjectHours {
	return lo.Map(rows, func(r models.SubjectHours, _ int) timetable.SubjectHours {
		return timetable.SubjectHours{Subject: r.Subject, Hours: r.Hours}
	})
}

func subjectHoursToModels(rows []timetable.SubjectHours) []models.SubjectHours {
	return lo.Map(rows, func(r timetable.SubjectHours, _ int) models.SubjectHours {
		return models.SubjectHours{Subject: r.Subject, Hours: r.Hours}
	})
}

func distributionFromModels(rows []models.DistributionRow) []timetable.DistributionRow {
	return lo.Map(rows, func(r models.DistributionRow, _ int) timetable.DistributionRow {
		return timetable.DistributionRow{Subject: r.Subject, Hours: r.Hours, Teachers: r.Teachers()}
	})
}

func fixedBlocksFromModels(rows []models.FixedBlock) []timetable.FixedBlock {
	return lo.Map(rows, func(r models.FixedBlock, _ int) timetable.FixedBlock {
		return timetable.FixedBlock{
			Day:       r.Day,
			Period:    r.Period,
			LevelID:   r.LevelID,
			Group:     r.Group,
			Subject:   r.Subject,
			TeacherID: r.TeacherID,
			Locked:    r.Locked,
		}
	})
}

// restrictionsFromModels decodes each teacher's key list. A malformed entry is
// logged and treated as "no restriction" for that teacher.
func restrictionsFromModels(rows []models.TeacherRestriction, logger *zap.Logger) timetable.Restrictions {
	keys := make(map[string][]string, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.TeacherID) == "" || len(row.Unavailable) == 0 {
			continue
		}
		var slots []string
		if err := json.Unmarshal(row.Unavailable, &slots); err != nil {
			logger.Warn("skipping malformed teacher restriction", zap.String("teacher_id", row.TeacherID), zap.Error(err))
			continue
		}
		keys[row.TeacherID] = append(keys[row.TeacherID], slots...)
	}
	return timetable.NewRestrictions(keys)
}

func rulesFromModels(rows []models.ScheduleRule) timetable.Rules {
	return lo.Map(rows, func(r models.ScheduleRule, _ int) timetable.Rule {
		return timetable.Rule{ID: r.ID, Active: r.Active}
	})
}

func conflictsForGroup(set timetable.ConflictSet, grid timetable.Grid, groupKey string) []timetable.Conflict {
	return lo.Filter(set.List(grid), func(c timetable.Conflict, _ int) bool {
		return c.GroupKey == groupKey
	})
}
