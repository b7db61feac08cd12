package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SubjectHours is one row of a level's base hour table. Hours stay textual
// because imported sheets carry values such as "4h" or blanks.
type SubjectHours struct {
	ID        string    `db:"id" json:"id"`
	LevelID   string    `db:"level_id" json:"levelId"`
	Position  int       `db:"position" json:"position"`
	Subject   string    `db:"subject" json:"asignatura"`
	Hours     string    `db:"hours" json:"horas"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DistributionRow assigns a teacher to a subject for each group slot A..F.
type DistributionRow struct {
	ID        string    `db:"id" json:"id"`
	LevelID   string    `db:"level_id" json:"levelId"`
	Position  int       `db:"position" json:"position"`
	Subject   string    `db:"subject" json:"asignatura"`
	Hours     string    `db:"hours" json:"horas"`
	TeacherA  string    `db:"teacher_a" json:"docenteA"`
	TeacherB  string    `db:"teacher_b" json:"docenteB"`
	TeacherC  string    `db:"teacher_c" json:"docenteC"`
	TeacherD  string    `db:"teacher_d" json:"docenteD"`
	TeacherE  string    `db:"teacher_e" json:"docenteE"`
	TeacherF  string    `db:"teacher_f" json:"docenteF"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Teachers returns the group slot columns in A..F order.
func (r DistributionRow) Teachers() [6]string {
	return [6]string{r.TeacherA, r.TeacherB, r.TeacherC, r.TeacherD, r.TeacherE, r.TeacherF}
}

// FixedBlock is a manually pinned lesson.
type FixedBlock struct {
	ID        string    `db:"id" json:"id"`
	LevelID   string    `db:"level_id" json:"nivelId"`
	Group     string    `db:"group_label" json:"grupo"`
	Day       string    `db:"day" json:"dia"`
	Period    string    `db:"period" json:"hora"`
	Subject   string    `db:"subject" json:"asignatura"`
	TeacherID string    `db:"teacher_id" json:"docenteId"`
	Locked    bool      `db:"locked" json:"bloqueado"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// TeacherRestriction lists the "day_period" keys a teacher cannot teach.
type TeacherRestriction struct {
	ID          string         `db:"id" json:"id"`
	TeacherID   string         `db:"teacher_id" json:"docenteId"`
	Unavailable types.JSONText `db:"unavailable" json:"noDisponible"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// ScheduleRule toggles a placement rule such as R3.
type ScheduleRule struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"descripcion"`
	Active      bool      `db:"active" json:"activa"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ScheduleBlock is a persisted timetable cell of one group.
type ScheduleBlock struct {
	ID        string    `db:"id" json:"id"`
	GroupKey  string    `db:"group_key" json:"grupoKey"`
	Position  int       `db:"position" json:"position"`
	Day       string    `db:"day" json:"dia"`
	Period    string    `db:"period" json:"hora"`
	Subject   string    `db:"subject" json:"asignatura"`
	TeacherID string    `db:"teacher_id" json:"docenteId"`
	Fixed     bool      `db:"fixed" json:"fijo"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UnassignedLesson is a lesson a generator or optimizer run could not place.
type UnassignedLesson struct {
	ID        string    `db:"id" json:"id"`
	GroupKey  string    `db:"group_key" json:"grupoKey"`
	Position  int       `db:"position" json:"position"`
	Subject   string    `db:"subject" json:"asignatura"`
	TeacherID string    `db:"teacher_id" json:"docenteId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ConflictAudit records the outcome of a background conflict scan.
type ConflictAudit struct {
	ID         string         `db:"id" json:"id"`
	Trigger    string         `db:"trigger" json:"trigger"`
	GroupKey   string         `db:"group_key" json:"grupoKey"`
	Conflicts  int            `db:"conflicts" json:"conflicts"`
	Details    types.JSONText `db:"details" json:"details"`
	ScannedAt  time.Time      `db:"scanned_at" json:"scannedAt"`
	DurationMs int64          `db:"duration_ms" json:"durationMs"`
}
