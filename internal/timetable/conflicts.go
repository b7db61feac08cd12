package timetable

import "sort"

// SubjectOverloadThreshold is the most times a subject may appear on one day
// for a group before the detector flags it. This is looser than the no-repeat
// rule the generator enforces when RuleNoRepeatSubject is active.
const SubjectOverloadThreshold = 2

// ConflictKind is a bit set of the reasons a cell is flagged.
type ConflictKind uint8

const (
	ConflictTeacherDoubleBooked ConflictKind = 1 << iota
	ConflictSubjectOverload
)

// Has reports whether k includes kind.
func (k ConflictKind) Has(kind ConflictKind) bool {
	return k&kind != 0
}

// Reasons lists the kinds set in k as stable strings.
func (k ConflictKind) Reasons() []string {
	reasons := make([]string, 0, 2)
	if k.Has(ConflictTeacherDoubleBooked) {
		reasons = append(reasons, "teacher_double_booked")
	}
	if k.Has(ConflictSubjectOverload) {
		reasons = append(reasons, "subject_overload")
	}
	return reasons
}

// ConflictKey identifies one cell of one group.
type ConflictKey struct {
	GroupKey string `json:"grupoKey"`
	Day      string `json:"dia"`
	Period   string `json:"hora"`
}

// Conflict is the serializable form of one flagged cell.
type Conflict struct {
	ConflictKey
	Reasons []string `json:"reasons"`
}

// ConflictSet maps flagged cells to the reasons they were flagged.
type ConflictSet map[ConflictKey]ConflictKind

// Conflicted reports whether the cell of groupKey is flagged.
func (c ConflictSet) Conflicted(groupKey string, slot Slot) bool {
	return c[ConflictKey{GroupKey: groupKey, Day: slot.Day, Period: slot.Period}] != 0
}

// List returns the flagged cells sorted by group, then by the cell's position
// in grid. Cells outside the grid fall back to name order.
func (c ConflictSet) List(grid Grid) []Conflict {
	list := make([]Conflict, 0, len(c))
	for key, kind := range c {
		list = append(list, Conflict{ConflictKey: key, Reasons: kind.Reasons()})
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.GroupKey != b.GroupKey {
			return a.GroupKey < b.GroupKey
		}
		sa, sb := Slot{Day: a.Day, Period: a.Period}, Slot{Day: b.Day, Period: b.Period}
		if cmp := grid.Compare(sa, sb); cmp != 0 {
			return cmp < 0
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Period < b.Period
	})
	return list
}

type groupDaySubject struct {
	groupKey string
	day      string
	subject  string
}

// DetectConflicts audits the whole schedule map without modifying it. A cell is
// flagged when its teacher also teaches another block at the same day and
// period anywhere, or when its subject appears more than
// SubjectOverloadThreshold times that day in the group.
func DetectConflicts(schedules ScheduleMap) ConflictSet {
	conflicts := make(ConflictSet)

	type located struct {
		groupKey string
		block    Block
	}
	bySlot := make(map[Slot][]located)
	bySubjectDay := make(map[groupDaySubject][]string)

	for _, groupKey := range schedules.GroupKeys() {
		for _, b := range schedules[groupKey] {
			bySlot[b.Slot()] = append(bySlot[b.Slot()], located{groupKey: groupKey, block: b})
			k := groupDaySubject{groupKey: groupKey, day: b.Day, subject: b.Subject}
			bySubjectDay[k] = append(bySubjectDay[k], b.Period)
		}
	}

	for slot, entries := range bySlot {
		teachers := make(map[string]int, len(entries))
		for _, e := range entries {
			if e.block.TeacherID != "" {
				teachers[e.block.TeacherID]++
			}
		}
		for _, e := range entries {
			if teachers[e.block.TeacherID] > 1 {
				key := ConflictKey{GroupKey: e.groupKey, Day: slot.Day, Period: slot.Period}
				conflicts[key] |= ConflictTeacherDoubleBooked
			}
		}
	}

	for k, periods := range bySubjectDay {
		if len(periods) <= SubjectOverloadThreshold {
			continue
		}
		for _, period := range periods {
			key := ConflictKey{GroupKey: k.groupKey, Day: k.day, Period: period}
			conflicts[key] |= ConflictSubjectOverload
		}
	}
	return conflicts
}
