package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission statuses.
const (
	// SubmissionStatusSubmitted indicates the submission has been uploaded but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusAIGraded indicates the submission carries an AI-assigned grade.
	SubmissionStatusAIGraded = "ai_graded"
	// SubmissionStatusGraded indicates the submission has a final grade.
	SubmissionStatusGraded = "graded"
)

// Submission types.
const (
	SubmissionTypeRegular           = "regular"
	SubmissionTypeProjectAssignment = "project_assignment"
)

// AI progress values tracked on the canonical submission.
const (
	AIProgressPending    = "pending"
	AIProgressProcessing = "processing"
	AIProgressCompleted  = "completed"
	AIProgressFailed     = "failed"
)

// ReviewConfidenceThreshold is the confidence floor below which an
// AI-graded submission is flagged for human review.
const ReviewConfidenceThreshold = 0.7

// AIGradeSnapshot holds the AI grading fields mirrored across the
// canonical submission and its denormalized copies.
type AIGradeSnapshot struct {
	AIGrade                   *float64       `json:"ai_grade"`
	AIPercentage              *float64       `gorm:"column:ai_percentage" json:"ai_percentage"`
	AILetterGrade             string         `gorm:"size:4" json:"ai_letter_grade"`
	AIOverallFeedback         string         `gorm:"type:text" json:"ai_overall_feedback"`
	AIDetailedAnalysis        datatypes.JSON `gorm:"column:ai_detailed_analysis" json:"ai_detailed_analysis"`
	AIComparisonWithReference datatypes.JSON `json:"ai_comparison_with_reference"`
	AIStrengths               datatypes.JSON `json:"ai_strengths"`
	AIAreasForImprovement     datatypes.JSON `json:"ai_areas_for_improvement"`
	AISpecificFeedback        datatypes.JSON `json:"ai_specific_feedback"`
	AIRecommendations         datatypes.JSON `json:"ai_recommendations"`
	AIConfidence              *float64       `json:"ai_confidence"`
	AIRubricBreakdown         datatypes.JSON `json:"ai_rubric_breakdown"`
	AIGradedAt                *time.Time     `json:"ai_graded_at"`
	AIGradedBy                string         `gorm:"size:36" json:"ai_graded_by"`
	AIGradingMethod           string         `gorm:"size:64" json:"ai_grading_method"`
}

// Submission is the canonical record of a student's submission and its
// grading state. Mirrors exist for role-scoped reads but are never
// authoritative.
type Submission struct {
	ID                         string  `gorm:"primaryKey;size:36" json:"id"`
	StudentID                  string  `gorm:"size:36;not null;index" json:"student_id"`
	AssignmentID               string  `gorm:"size:36;not null;index" json:"assignment_id"`
	ModuleID                   *string `gorm:"size:36;index" json:"module_id"`
	EducatorID                 string  `gorm:"size:36;index" json:"educator_id"`
	SubmissionText             string  `gorm:"type:text" json:"submission_text"`
	FileURL                    string  `gorm:"size:512" json:"file_url"`
	Status                     string  `gorm:"size:32;not null" json:"status"`
	SubmissionType             string  `gorm:"size:32" json:"submission_type"`
	ProjectAssignmentID        *string `gorm:"size:36" json:"project_assignment_id"`
	AIProgress                 string  `gorm:"column:ai_progress;size:32" json:"ai_progress"`
	HasReferenceSolution       bool    `json:"has_reference_solution"`
	ReferenceSolutionAvailable bool    `json:"reference_solution_available"`

	AIGradeSnapshot

	FinalGrade  *float64  `json:"final_grade"`
	IsGraded    bool      `json:"is_graded"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a document identifier and defaults when missing.
func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SubmissionType == "" {
		s.SubmissionType = SubmissionTypeRegular
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	return nil
}

// HasAIGrade reports whether an AI grade has been recorded.
func (s Submission) HasAIGrade() bool {
	return s.AIGrade != nil
}

// NeedsReview reports whether the AI grade requires human review
// because the grader's confidence is missing or below the threshold.
func (s Submission) NeedsReview() bool {
	if !s.HasAIGrade() {
		return false
	}
	return s.AIConfidence == nil || *s.AIConfidence < ReviewConfidenceThreshold
}

// IsProjectAssignment reports whether the submission mirrors into a
// project-assignment record.
func (s Submission) IsProjectAssignment() bool {
	return s.SubmissionType == SubmissionTypeProjectAssignment && s.ProjectAssignmentID != nil
}

// AIProgressPendingOrUnset reports whether the reference fan-out should
// flip this submission to completed.
func (s Submission) AIProgressPendingOrUnset() bool {
	return s.AIProgress == "" || s.AIProgress == AIProgressPending
}
