package models

import "time"

// StudentSubmissionMirror is the per-student denormalized copy of a
// canonical submission, keyed by the same submission id. It exists to
// support student-scoped reads and carries display titles the canonical
// record does not. It may transiently diverge from the canonical
// submission; it is never authoritative.
type StudentSubmissionMirror struct {
	SubmissionID    string  `gorm:"primaryKey;size:36" json:"submission_id"`
	StudentID       string  `gorm:"size:36;not null;index" json:"student_id"`
	AssignmentID    string  `gorm:"size:36" json:"assignment_id"`
	AssignmentTitle string  `gorm:"size:255" json:"assignment_title"`
	ModuleTitle     string  `gorm:"size:255" json:"module_title"`
	MaxPoints       float64 `json:"max_points"`
	Status          string  `gorm:"size:32" json:"status"`

	AIGradeSnapshot

	HasReferenceSolution bool      `json:"has_reference_solution"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ProjectAssignmentRecord is the per-student denormalized record kept
// for project-assignment submissions. For these, the AI score is
// adopted as the final grade by policy.
type ProjectAssignmentRecord struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	StudentID    string `gorm:"size:36;not null;index" json:"student_id"`
	AssignmentID string `gorm:"size:36" json:"assignment_id"`
	SubmissionID string `gorm:"size:36;index" json:"submission_id"`
	Title        string `gorm:"size:255" json:"title"`
	Status       string `gorm:"size:32" json:"status"`

	AIGradeSnapshot

	FinalGrade *float64   `json:"final_grade"`
	IsGraded   bool       `json:"is_graded"`
	GradedAt   *time.Time `json:"graded_at"`
	GradedBy   string     `gorm:"size:36" json:"graded_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
