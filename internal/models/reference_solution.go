package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Extraction methods recorded on a reference solution.
const (
	ExtractionMethodAutomatic      = "automatic"
	ExtractionMethodManualRequired = "manual_required"
)

// ReferenceSolution is an educator-supplied exemplar answer for an
// assignment. Multiple may exist per assignment; the one with the
// greatest CreatedAt is current. Records are immutable once created and
// are only superseded by newer uploads.
type ReferenceSolution struct {
	ID                       string         `gorm:"primaryKey;size:36" json:"id"`
	AssignmentID             string         `gorm:"size:36;not null;index" json:"assignment_id"`
	ModuleID                 *string        `gorm:"size:36" json:"module_id"`
	EducatorID               string         `gorm:"size:36;not null" json:"educator_id"`
	ReferenceText            string         `gorm:"type:text" json:"reference_text"`
	AcademicSections         datatypes.JSON `json:"academic_sections"`
	ContentAnalysis          datatypes.JSON `json:"content_analysis"`
	FileName                 string         `gorm:"size:255" json:"file_name"`
	FileSize                 int64          `json:"file_size"`
	FileType                 string         `gorm:"size:128" json:"file_type"`
	FileURL                  string         `gorm:"size:512" json:"file_url"`
	GradingCriteria          string         `gorm:"type:text" json:"grading_criteria"`
	MaxScore                 float64        `json:"max_score"`
	AssignmentTitle          string         `gorm:"size:255" json:"assignment_title"`
	AssignmentDescription    string         `gorm:"type:text" json:"assignment_description"`
	ProcessingCompleted      bool           `json:"processing_completed"`
	ExtractedLength          int            `json:"extracted_length"`
	TextExtractionSuccessful bool           `json:"text_extraction_successful"`
	ExtractionMethod         string         `gorm:"size:32" json:"extraction_method"`
	CreatedAt                time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a document identifier when none was supplied.
func (r *ReferenceSolution) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
