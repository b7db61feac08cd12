package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

func TestTeacherTimetableOrdersByGrid(t *testing.T) {
	schedules := ScheduleMap{
		"g1_B": {
			{ID: "1", Subject: "Arte", TeacherID: "T1", Day: "Martes", Period: "07:00-07:50"},
			{ID: "2", Subject: "Lengua", TeacherID: "T2", Day: "Lunes", Period: "07:00-07:50"},
		},
		"g1_A": {
			{ID: "3", Subject: "Arte", TeacherID: "T1", Day: "Lunes", Period: "10:00-10:50"},
			{ID: "4", Subject: "Arte", TeacherID: "T1", Day: "Lunes", Period: "07:00-07:50"},
		},
	}
	view := TeacherTimetable(schedules, DefaultGrid(), "T1")
	require.Len(t, view, 3)
	assert.Equal(t, "4", view[0].ID)
	assert.Equal(t, "g1_A", view[0].GroupKey)
	assert.Equal(t, "3", view[1].ID)
	assert.Equal(t, "1", view[2].ID)
	assert.Empty(t, TeacherTimetable(schedules, DefaultGrid(), "nobody"))
}

func TestMoveBlock(t *testing.T) {
	schedules := ScheduleMap{
		"g1_A": {
			{ID: "free", Subject: "Arte", TeacherID: "T1", Day: "Lunes", Period: "07:00-07:50"},
			{ID: "pinned", Subject: "Lengua", TeacherID: "T2", Day: "Lunes", Period: "07:50-08:40", Fixed: true},
		},
	}
	grid := DefaultGrid()

	moved, err := MoveBlock(schedules, grid, "g1_A", "free", Slot{Day: "Viernes", Period: "12:30-13:20"})
	require.NoError(t, err)
	assert.Equal(t, Slot{Day: "Viernes", Period: "12:30-13:20"}, moved["g1_A"][0].Slot())
	assert.Equal(t, Slot{Day: "Lunes", Period: "07:00-07:50"}, schedules["g1_A"][0].Slot(), "input map is not modified")

	_, err = MoveBlock(schedules, grid, "g1_A", "pinned", Slot{Day: "Martes", Period: "07:00-07:50"})
	assert.Equal(t, appErrors.ErrFixedBlock.Code, appErrors.FromError(err).Code)

	_, err = MoveBlock(schedules, grid, "g1_A", "free", Slot{Day: "Lunes", Period: "07:50-08:40"})
	assert.Equal(t, appErrors.ErrCellOccupied.Code, appErrors.FromError(err).Code)

	_, err = MoveBlock(schedules, grid, "g1_A", "free", Slot{Day: "Sábado", Period: "07:00-07:50"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = MoveBlock(schedules, grid, "g1_A", "missing", Slot{Day: "Martes", Period: "07:00-07:50"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = MoveBlock(schedules, grid, "g9_A", "free", Slot{Day: "Martes", Period: "07:00-07:50"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMoveBlockCanCreateConflicts(t *testing.T) {
	schedules := ScheduleMap{
		"g1_A": {{ID: "a", Subject: "Arte", TeacherID: "T1", Day: "Lunes", Period: "07:00-07:50"}},
		"g1_B": {{ID: "b", Subject: "Arte", TeacherID: "T1", Day: "Martes", Period: "07:00-07:50"}},
	}
	moved, err := MoveBlock(schedules, DefaultGrid(), "g1_B", "b", Slot{Day: "Lunes", Period: "07:00-07:50"})
	require.NoError(t, err)
	conflicts := DetectConflicts(moved)
	assert.True(t, conflicts.Conflicted("g1_A", Slot{Day: "Lunes", Period: "07:00-07:50"}))
	assert.True(t, conflicts.Conflicted("g1_B", Slot{Day: "Lunes", Period: "07:00-07:50"}))
}

func TestRulesAndRestrictions(t *testing.T) {
	rules := Rules{{ID: "R1", Active: true}, {ID: RuleNoRepeatSubject, Active: false}}
	assert.False(t, rules.Active(RuleNoRepeatSubject))
	assert.True(t, rules.Active("R1"))

	var none Restrictions
	assert.False(t, none.Unavailable("T1", Slot{Day: "Lunes", Period: "p1"}))
	r := NewRestrictions(map[string][]string{"T1": {"Lunes_p1"}})
	assert.True(t, r.Unavailable("T1", Slot{Day: "Lunes", Period: "p1"}))
	assert.False(t, r.Unavailable("T2", Slot{Day: "Lunes", Period: "p1"}))

	assert.Equal(t, "grado-1_A", GroupKey("grado-1", "A"))
	assert.Equal(t, 5, GroupIndex("F"))
	assert.Error(t, ValidateGroup("G"))
}

func TestParseSlotKey(t *testing.T) {
	slot := Slot{Day: "Miércoles", Period: "10:00-10:50"}
	parsed, ok := ParseSlotKey(slot.Key())
	require.True(t, ok)
	assert.Equal(t, slot, parsed)

	for _, bad := range []string{"", "Lunes", "_07:00-07:50", "Lunes_"} {
		_, ok := ParseSlotKey(bad)
		assert.False(t, ok, bad)
	}
}
