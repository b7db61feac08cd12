package timetable

// AvailabilityIndex records, per teacher, the cells already taken anywhere in
// the institution. It is built from the other groups' schedules and then
// updated as the group being processed places or moves blocks.
type AvailabilityIndex struct {
	occupied map[string]map[Slot]int
}

// NewAvailabilityIndex indexes every teacher-bearing block outside excludeGroupKey.
func NewAvailabilityIndex(schedules ScheduleMap, excludeGroupKey string) *AvailabilityIndex {
	idx := &AvailabilityIndex{occupied: make(map[string]map[Slot]int)}
	for groupKey, blocks := range schedules {
		if groupKey == excludeGroupKey {
			continue
		}
		for _, b := range blocks {
			idx.Reserve(b.TeacherID, b.Slot())
		}
	}
	return idx
}

// Busy reports whether the teacher already teaches at slot.
func (a *AvailabilityIndex) Busy(teacherID string, slot Slot) bool {
	if a == nil || teacherID == "" {
		return false
	}
	return a.occupied[teacherID][slot] > 0
}

// Reserve marks the teacher as teaching at slot.
func (a *AvailabilityIndex) Reserve(teacherID string, slot Slot) {
	if teacherID == "" {
		return
	}
	cells := a.occupied[teacherID]
	if cells == nil {
		cells = make(map[Slot]int)
		a.occupied[teacherID] = cells
	}
	cells[slot]++
}

// Release undoes one Reserve of the teacher at slot.
func (a *AvailabilityIndex) Release(teacherID string, slot Slot) {
	cells := a.occupied[teacherID]
	if cells == nil || cells[slot] == 0 {
		return
	}
	cells[slot]--
	if cells[slot] == 0 {
		delete(cells, slot)
	}
}
