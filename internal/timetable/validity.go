package timetable

// Validator decides whether a lesson may legally occupy a cell of a group.
// It holds no mutable state of its own; the availability index it reads is
// owned by the run that created it.
type Validator struct {
	Restrictions    Restrictions
	Index           *AvailabilityIndex
	NoRepeatSubject bool
}

// NewValidator builds a validator for the given rules.
func NewValidator(restrictions Restrictions, index *AvailabilityIndex, rules Rules) Validator {
	return Validator{
		Restrictions:    restrictions,
		Index:           index,
		NoRepeatSubject: rules.Active(RuleNoRepeatSubject),
	}
}

// Valid reports whether lesson can be placed at slot against groupBlocks.
func (v Validator) Valid(lesson Lesson, slot Slot, groupBlocks []Block) bool {
	if occupied(groupBlocks, slot) {
		return false
	}
	if v.Restrictions.Unavailable(lesson.TeacherID, slot) {
		return false
	}
	if v.Index.Busy(lesson.TeacherID, slot) {
		return false
	}
	if v.NoRepeatSubject && subjectOnDay(groupBlocks, lesson.Subject, slot.Day) {
		return false
	}
	return true
}

func subjectOnDay(blocks []Block, subject, day string) bool {
	for _, b := range blocks {
		if b.Day == day && b.Subject == subject {
			return true
		}
	}
	return false
}

func lessonOf(b Block, groupKey string) Lesson {
	return Lesson{ID: b.ID, Subject: b.Subject, TeacherID: b.TeacherID, GroupKey: groupKey}
}
