package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment represents an assignment definition. An assignment either
// lives inside a module (ModuleID set) or at the root scope, and is
// either owned by a single educator (EducatorID set) or acts as a shared
// template any educator may manage.
type Assignment struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	ModuleID             *string   `gorm:"size:36;index" json:"module_id"`
	EducatorID           *string   `gorm:"size:36;index" json:"educator_id"`
	Title                string    `gorm:"size:255;not null" json:"title"`
	Description          string    `gorm:"type:text" json:"description"`
	MaxScore             float64   `json:"max_score"`
	MaxPoints            float64   `json:"max_points"`
	DueDate              time.Time `json:"due_date"`
	IsActive             bool      `gorm:"default:true" json:"is_active"`
	HasReferenceSolution bool      `json:"has_reference_solution"`
	ReferenceSolutionID  *string   `gorm:"size:36" json:"reference_solution_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// BeforeCreate assigns a document identifier when none was supplied.
func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Normalize collapses the legacy max_points column into MaxScore and
// applies the 100-point default. Repositories call this once when an
// assignment leaves the data-access boundary so callers never repeat
// the fallback chain.
func (a *Assignment) Normalize() {
	if a.MaxScore <= 0 {
		a.MaxScore = a.MaxPoints
	}
	if a.MaxScore <= 0 {
		a.MaxScore = 100
	}
}

// OwnedBy reports whether the assignment belongs to the given educator.
// Assignments without an owning educator are shared templates.
func (a Assignment) OwnedBy(educatorID string) bool {
	return a.EducatorID != nil && *a.EducatorID == educatorID
}
