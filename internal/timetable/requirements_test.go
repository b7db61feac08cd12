package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSubject(t *testing.T) {
	cases := map[string]string{
		"MathMath":               "Math",
		"MatemáticasMatemáticas": "Matemáticas",
		"  ArteArte ":            "Arte",
		"Arte Arte":              "Arte Arte",
		"Matemáticas":            "Matemáticas",
		"aa":                     "a",
		"":                       "",
		"   ":                    "",
		"Inglés I":               "Inglés I",
		"abab":                   "ab",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeSubject(input), "input %q", input)
	}
}

func TestCleanSubjectHours(t *testing.T) {
	rows := []SubjectHours{
		{Subject: "MathMath", Hours: "5"},
		{Subject: "math", Hours: "3"},
		{Subject: "Arte ", Hours: "2"},
		{Subject: "", Hours: "1"},
		{Subject: "Lengua", Hours: "4"},
		{Subject: "LENGUA", Hours: "4"},
	}
	cleaned, report := CleanSubjectHours(rows)
	require.Len(t, cleaned, 4)
	assert.Equal(t, []SubjectHours{
		{Subject: "Math", Hours: "5"},
		{Subject: "Arte", Hours: "2"},
		{Subject: "", Hours: "1"},
		{Subject: "Lengua", Hours: "4"},
	}, cleaned)
	assert.Equal(t, CleanReport{Renamed: 2, Duplicates: 2}, report)
	assert.Equal(t, "MathMath", rows[0].Subject, "input rows are not modified")
}

func TestParseHours(t *testing.T) {
	cases := map[string]int{
		"5":   5,
		" 3 ": 3,
		"4h":  4,
		"abc": 0,
		"-2":  0,
		"":    0,
		"12":  12,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseHours(input), "input %q", input)
	}
}

func TestDeriveRequirements(t *testing.T) {
	seeded, lessons := DeriveRequirements(RequirementInput{
		LevelID: "sem-1",
		Group:   "B",
		Hours: []SubjectHours{
			{Subject: "Matemáticas", Hours: "3"},
			{Subject: "ArteArte", Hours: "2"},
			{Subject: "Física", Hours: "1"},
		},
		Distribution: []DistributionRow{
			{Subject: "MatemáticasMatemáticas", Teachers: [6]string{"T9", "T1"}},
			{Subject: "Arte", Teachers: [6]string{"T2", "  "}},
			{Subject: "Física", Teachers: [6]string{"", "T3"}},
		},
		Fixed: []FixedBlock{
			{Day: "Lunes", Period: "p1", LevelID: "sem-1", Group: "B", Subject: "Física", TeacherID: "T3", Locked: true},
			{Day: "Lunes", Period: "p2", LevelID: "sem-1", Group: "B", Subject: "Física", TeacherID: "T3", Locked: true},
			{Day: "Lunes", Period: "p2", LevelID: "sem-1", Group: "B", Subject: "Arte", TeacherID: "T2", Locked: true},
			{Day: "Martes", Period: "p1", LevelID: "sem-1", Group: "B", Subject: "Matemáticas", TeacherID: "T1", Locked: true},
		},
		NewID: sequentialIDs("id"),
	})

	require.Len(t, seeded, 3, "a second fixed block on Lunes/p2 is dropped")
	for _, b := range seeded {
		assert.True(t, b.Fixed)
		assert.NotEmpty(t, b.ID)
	}

	require.Len(t, lessons, 2, "matemáticas needs 3-1, física is over-covered")
	for _, l := range lessons {
		assert.Equal(t, "Matemáticas", l.Subject)
		assert.Equal(t, "T1", l.TeacherID)
		assert.Equal(t, "sem-1_B", l.GroupKey)
	}
	assert.NotEqual(t, lessons[0].ID, lessons[1].ID)
}

func TestDeriveRequirementsUnknownGroup(t *testing.T) {
	seeded, lessons := DeriveRequirements(RequirementInput{
		LevelID:      "sem-1",
		Group:        "Q",
		Hours:        []SubjectHours{{Subject: "Arte", Hours: "2"}},
		Distribution: []DistributionRow{{Subject: "Arte", Teachers: [6]string{"T1"}}},
	})
	assert.Empty(t, seeded)
	assert.Empty(t, lessons)
}

func TestGridValidate(t *testing.T) {
	require.NoError(t, DefaultGrid().Validate())
	assert.Error(t, NewGrid(nil, DefaultPeriods).Validate())
	assert.Error(t, NewGrid(DefaultDays, nil).Validate())
	assert.Error(t, NewGrid([]string{"Lunes", "Lunes"}, DefaultPeriods).Validate())
	assert.Error(t, NewGrid(DefaultDays, []string{"p1", " "}).Validate())

	cells := DefaultGrid().Cells()
	require.Len(t, cells, 35)
	assert.Equal(t, Slot{Day: "Lunes", Period: "07:00-07:50"}, cells[0])
	assert.Equal(t, Slot{Day: "Lunes", Period: "07:50-08:40"}, cells[1])
	assert.Equal(t, "Viernes_12:30-13:20", cells[34].Key())
}
