package timetable

import (
	"fmt"
	"sort"
)

// RuleNoRepeatSubject forbids a subject from appearing twice on the same day for a group.
const RuleNoRepeatSubject = "R3"

// Groups lists the class sections of a level in distribution slot order.
var Groups = []string{"A", "B", "C", "D", "E", "F"}

// Block is one weekly lesson occupying exactly one cell of a group's grid.
// The JSON field names match previously exported timetable files.
type Block struct {
	ID        string `json:"id"`
	Subject   string `json:"asignatura"`
	TeacherID string `json:"docenteId"`
	Day       string `json:"dia"`
	Period    string `json:"hora"`
	Fixed     bool   `json:"fijo"`
}

// Slot returns the cell the block occupies.
func (b Block) Slot() Slot {
	return Slot{Day: b.Day, Period: b.Period}
}

// Lesson is one weekly hour-unit still waiting for a cell.
type Lesson struct {
	ID        string `json:"id"`
	Subject   string `json:"asignatura"`
	TeacherID string `json:"docenteId"`
	GroupKey  string `json:"grupoKey"`
}

// At places the lesson into slot, producing a non-fixed block with the lesson's id.
func (l Lesson) At(slot Slot) Block {
	return Block{
		ID:        l.ID,
		Subject:   l.Subject,
		TeacherID: l.TeacherID,
		Day:       slot.Day,
		Period:    slot.Period,
	}
}

// Rule toggles a scheduling policy. Only RuleNoRepeatSubject affects the engine.
type Rule struct {
	ID     string `json:"id"`
	Active bool   `json:"activa"`
}

// Rules is the declared rule list.
type Rules []Rule

// Active reports whether the rule with id is present and active.
func (r Rules) Active(id string) bool {
	for _, rule := range r {
		if rule.ID == id && rule.Active {
			return true
		}
	}
	return false
}

// Restrictions maps a teacher id to the set of unavailable slot keys.
// A teacher without an entry is fully available.
type Restrictions map[string]map[string]bool

// NewRestrictions builds restrictions from teacher -> unavailable "day_period" keys.
func NewRestrictions(raw map[string][]string) Restrictions {
	result := make(Restrictions, len(raw))
	for teacherID, keys := range raw {
		set := make(map[string]bool, len(keys))
		for _, key := range keys {
			set[key] = true
		}
		result[teacherID] = set
	}
	return result
}

// Unavailable reports whether the teacher declared the slot unavailable.
func (r Restrictions) Unavailable(teacherID string, slot Slot) bool {
	if r == nil {
		return false
	}
	return r[teacherID][slot.Key()]
}

// GroupKey builds the composite identifier of a group within a level.
func GroupKey(levelID, group string) string {
	return levelID + "_" + group
}

// GroupIndex returns the distribution slot index of a group label or -1.
func GroupIndex(group string) int {
	return indexOf(Groups, group)
}

// ValidateGroup rejects labels outside A..F.
func ValidateGroup(group string) error {
	if GroupIndex(group) < 0 {
		return fmt.Errorf("unknown group %q", group)
	}
	return nil
}

// ScheduleMap holds every group's schedule keyed by group key.
type ScheduleMap map[string][]Block

// Clone returns a deep copy so callers can mutate the result freely.
func (m ScheduleMap) Clone() ScheduleMap {
	clone := make(ScheduleMap, len(m))
	for key, blocks := range m {
		copied := make([]Block, len(blocks))
		copy(copied, blocks)
		clone[key] = copied
	}
	return clone
}

// GroupKeys returns the map keys in sorted order.
func (m ScheduleMap) GroupKeys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func occupied(blocks []Block, slot Slot) bool {
	for _, b := range blocks {
		if b.Day == slot.Day && b.Period == slot.Period {
			return true
		}
	}
	return false
}
