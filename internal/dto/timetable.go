package dto

import (
	"time"

	"github.com/noah-isme/horario-api/internal/timetable"
)

// GroupRef identifies one group of a level.
type GroupRef struct {
	LevelID string `json:"levelId" validate:"required,max=64"`
	Group   string `json:"group" validate:"required,oneof=A B C D E F"`
}

// GenerateRequest tunes a generator run. An empty body runs deterministically.
type GenerateRequest struct {
	Shuffle bool   `json:"shuffle"`
	Seed    *int64 `json:"seed"`
}

// MoveBlockRequest relocates a block to another cell of the same group.
type MoveBlockRequest struct {
	Day    string `json:"dia" validate:"required"`
	Period string `json:"hora" validate:"required"`
}

// ExportQuery selects the rendered export format.
type ExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=json csv pdf"`
}

// GroupScheduleResponse is the stored state of one group.
type GroupScheduleResponse struct {
	GroupKey   string               `json:"grupoKey"`
	Blocks     []timetable.Block    `json:"bloques"`
	Unassigned []timetable.Lesson   `json:"sinAsignar"`
	Conflicts  []timetable.Conflict `json:"conflictos"`
}

// GenerateResponse reports a generator run.
type GenerateResponse struct {
	GroupScheduleResponse
	Seeded int `json:"fijados"`
	Placed int `json:"colocados"`
}

// OptimizeResponse reports an optimizer run.
type OptimizeResponse struct {
	GroupScheduleResponse
	DirectPlaced int `json:"colocadosDirectos"`
	Swapped      int `json:"intercambios"`
	Passes       int `json:"pasadas"`
}

// ConflictsResponse lists every conflicting cell across all groups.
type ConflictsResponse struct {
	Conflicts []timetable.Conflict `json:"conflictos"`
	Total     int                  `json:"total"`
	ScannedAt time.Time            `json:"scannedAt"`
}

// TeacherScheduleResponse is a teacher's weekly view across groups.
type TeacherScheduleResponse struct {
	TeacherID string                   `json:"docenteId"`
	Blocks    []timetable.TeacherBlock `json:"bloques"`
}

// CleanSubjectHoursResponse reports the hour table after name cleanup.
type CleanSubjectHoursResponse struct {
	LevelID string                   `json:"levelId"`
	Rows    []timetable.SubjectHours `json:"filas"`
	Report  timetable.CleanReport    `json:"reporte"`
}

// ClearResponse reports how many blocks were removed.
type ClearResponse struct {
	Removed int `json:"eliminados"`
}

// UpsertRestrictionRequest replaces a teacher's unavailable cells.
type UpsertRestrictionRequest struct {
	Unavailable []string `json:"noDisponible" validate:"omitempty,dive,required"`
}

// RestrictionResponse lists the "day_period" cells a teacher cannot teach.
type RestrictionResponse struct {
	TeacherID   string     `json:"docenteId"`
	Unavailable []string   `json:"noDisponible"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// AuditQuery bounds the conflict audit listing.
type AuditQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UpdateRuleRequest switches a placement rule on or off.
type UpdateRuleRequest struct {
	Active *bool `json:"activa" validate:"required"`
}

// FixedBlockRequest pins a lesson to one cell of a group. Blocks are locked
// unless bloqueado is sent as false.
type FixedBlockRequest struct {
	Day       string `json:"dia" validate:"required"`
	Period    string `json:"hora" validate:"required"`
	Subject   string `json:"asignatura" validate:"required,max=120"`
	TeacherID string `json:"docenteId" validate:"required,max=64"`
	Locked    *bool  `json:"bloqueado"`
}
