package timetable

import (
	"strconv"
	"strings"
)

// DistributionRow assigns a teacher to a subject for each group slot A..F of a level.
type DistributionRow struct {
	Subject  string    `json:"asignatura" mapstructure:"asignatura"`
	Hours    string    `json:"horas" mapstructure:"horas"`
	Teachers [6]string `json:"grupos" mapstructure:"grupos"`
}

// FixedBlock is a configured, pinned lesson. Only locked entries are seeded.
type FixedBlock struct {
	Day       string `json:"dia" mapstructure:"dia"`
	Period    string `json:"hora" mapstructure:"hora"`
	LevelID   string `json:"nivelId" mapstructure:"nivelId"`
	Group     string `json:"grupo" mapstructure:"grupo"`
	Subject   string `json:"asignatura" mapstructure:"asignatura"`
	TeacherID string `json:"docenteId" mapstructure:"docenteId"`
	Locked    bool   `json:"bloqueado" mapstructure:"bloqueado"`
}

// RequirementInput is everything the deriver needs for one group.
type RequirementInput struct {
	LevelID      string
	Group        string
	Hours        []SubjectHours
	Distribution []DistributionRow
	Fixed        []FixedBlock
	NewID        func() string
}

// DeriveRequirements seeds the group's locked fixed blocks and lists the lesson
// units that still need a cell. A fixed block landing on an already seeded cell
// is dropped so the seeded schedule never double-books a cell.
func DeriveRequirements(in RequirementInput) ([]Block, []Lesson) {
	newID := in.NewID
	if newID == nil {
		newID = defaultID
	}
	groupKey := GroupKey(in.LevelID, in.Group)

	seeded := make([]Block, 0)
	for _, fixed := range in.Fixed {
		if !fixed.Locked || fixed.LevelID != in.LevelID || fixed.Group != in.Group {
			continue
		}
		slot := Slot{Day: fixed.Day, Period: fixed.Period}
		if occupied(seeded, slot) {
			continue
		}
		seeded = append(seeded, Block{
			ID:        newID(),
			Subject:   NormalizeSubject(fixed.Subject),
			TeacherID: fixed.TeacherID,
			Day:       fixed.Day,
			Period:    fixed.Period,
			Fixed:     true,
		})
	}

	slotIndex := GroupIndex(in.Group)
	if slotIndex < 0 {
		return seeded, nil
	}

	weekly := make(map[string]int, len(in.Hours))
	for _, row := range in.Hours {
		subject := NormalizeSubject(row.Subject)
		if _, ok := weekly[subject]; ok {
			continue
		}
		weekly[subject] = ParseHours(row.Hours)
	}

	lessons := make([]Lesson, 0)
	for _, row := range in.Distribution {
		teacherID := strings.TrimSpace(row.Teachers[slotIndex])
		if teacherID == "" {
			continue
		}
		subject := NormalizeSubject(row.Subject)
		hours := weekly[subject]
		if hours <= 0 {
			continue
		}
		required := hours - countSeeded(seeded, subject, teacherID)
		for i := 0; i < required; i++ {
			lessons = append(lessons, Lesson{
				ID:        newID(),
				Subject:   subject,
				TeacherID: teacherID,
				GroupKey:  groupKey,
			})
		}
	}
	return seeded, lessons
}

// ParseHours reads the leading integer of a free-form hour count.
// Anything unparsable or negative counts as zero.
func ParseHours(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	value, err := strconv.Atoi(raw[:end])
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func countSeeded(blocks []Block, subject, teacherID string) int {
	count := 0
	for _, b := range blocks {
		if b.Subject == subject && b.TeacherID == teacherID {
			count++
		}
	}
	return count
}
