package timetable

import "strings"

// NormalizeSubject strips the duplicated-name artifact left by earlier data entry,
// e.g. "MathMath" becomes "Math". Names that are not an exact doubling are only trimmed.
func NormalizeSubject(name string) string {
	trimmed := strings.TrimSpace(name)
	n := len(trimmed)
	if n == 0 || n%2 != 0 {
		return trimmed
	}
	if trimmed[:n/2] == trimmed[n/2:] {
		return strings.TrimSpace(trimmed[:n/2])
	}
	return trimmed
}

// SubjectHours is one row of a level's base hour table. Hours stays a string
// because it is entered free-form and parsed leniently.
type SubjectHours struct {
	Subject string `json:"asignatura" mapstructure:"asignatura"`
	Hours   string `json:"horas" mapstructure:"horas"`
}

// CleanReport summarizes a CleanSubjectHours pass.
type CleanReport struct {
	Renamed    int `json:"nombresCorregidos"`
	Duplicates int `json:"duplicadosEncontrados"`
}

// CleanSubjectHours normalizes every subject name and drops rows whose name
// repeats an earlier one case-insensitively. Rows with a blank name are kept.
func CleanSubjectHours(rows []SubjectHours) ([]SubjectHours, CleanReport) {
	var report CleanReport
	seen := make(map[string]struct{}, len(rows))
	result := make([]SubjectHours, 0, len(rows))
	for _, row := range rows {
		clean := NormalizeSubject(row.Subject)
		if clean != row.Subject {
			report.Renamed++
		}
		row.Subject = clean
		if clean == "" {
			result = append(result, row)
			continue
		}
		key := strings.ToLower(clean)
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		result = append(result, row)
	}
	return result, report
}
