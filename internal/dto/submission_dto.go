package dto

import (
	"time"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// SubmissionListFilter describes query string filters for the educator
// submission list.
type SubmissionListFilter struct {
	EducatorID   string `query:"educator_id"`
	ModuleID     string `query:"module_id"`
	AssignmentID string `query:"assignment_id"`
	Status       string `query:"status" validate:"omitempty,oneof=submitted ai_graded graded"`
}

// StudentLite summarizes a student in submission responses.
type StudentLite struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxScore    float64 `json:"max_score"`
}

// ModuleLite summarizes a module in submission responses.
type ModuleLite struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

// ReferenceSummary is the lightweight projection of the current
// reference solution joined onto a submission row.
type ReferenceSummary struct {
	ID                       string    `json:"id"`
	FileName                 string    `json:"file_name"`
	ContentType              string    `json:"content_type"`
	Complexity               string    `json:"complexity"`
	SuggestedScore           float64   `json:"suggested_score"`
	TextExtractionSuccessful bool      `json:"text_extraction_successful"`
	ExtractionMethod         string    `json:"extraction_method"`
	CreatedAt                time.Time `json:"created_at"`
	KeyTopics                []string  `json:"key_topics"`
}

// SubmissionResponse is the canonical submission serialization.
type SubmissionResponse struct {
	ID                   string     `json:"id"`
	StudentID            string     `json:"student_id"`
	AssignmentID         string     `json:"assignment_id"`
	ModuleID             *string    `json:"module_id"`
	EducatorID           string     `json:"educator_id"`
	SubmissionText       string     `json:"submission_text"`
	FileURL              string     `json:"file_url"`
	Status               string     `json:"status"`
	SubmissionType       string     `json:"submission_type"`
	ProjectAssignmentID  *string    `json:"project_assignment_id"`
	AIProgress           string     `json:"ai_progress"`
	HasReferenceSolution bool       `json:"has_reference_solution"`
	AIGrade              *float64   `json:"ai_grade"`
	AIPercentage         *float64   `json:"ai_percentage"`
	AILetterGrade        string     `json:"ai_letter_grade"`
	AIConfidence         *float64   `json:"ai_confidence"`
	AIGradingMethod      string     `json:"ai_grading_method"`
	AIGradedAt           *time.Time `json:"ai_graded_at"`
	FinalGrade           *float64   `json:"final_grade"`
	IsGraded             bool       `json:"is_graded"`
	SubmittedAt          time.Time  `json:"submitted_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// EnrichedSubmission is a submission row joined with its student,
// assignment, module, and current reference solution. Joined fields are
// nil when their lookup failed; a partial row is preferred over an
// aborted list.
type EnrichedSubmission struct {
	SubmissionResponse

	AssignmentTitle string            `json:"assignment_title"`
	ModuleTitle     string            `json:"module_title"`
	MaxPoints       float64           `json:"max_points"`
	Student         *StudentLite      `json:"student"`
	Assignment      *AssignmentLite   `json:"assignment"`
	Module          *ModuleLite       `json:"module"`
	Reference       *ReferenceSummary `json:"reference_solution"`
}

// SubmissionStats aggregates list-level statistics.
type SubmissionStats struct {
	Total              int `json:"total"`
	Pending            int `json:"pending"`
	AIGraded           int `json:"ai_graded"`
	Graded             int `json:"graded"`
	NeedsReview        int `json:"needs_review"`
	AIProcessing       int `json:"ai_processing"`
	AICompleted        int `json:"ai_completed"`
	AIFailed           int `json:"ai_failed"`
	Regular            int `json:"regular"`
	ProjectAssignments int `json:"project_assignments"`
}

// SubmissionListResponse is the educator list payload.
type SubmissionListResponse struct {
	Submissions []EnrichedSubmission `json:"submissions"`
	Stats       SubmissionStats      `json:"stats"`
	Total       int                  `json:"total"`
}

// NewSubmissionResponse maps the canonical model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                   submission.ID,
		StudentID:            submission.StudentID,
		AssignmentID:         submission.AssignmentID,
		ModuleID:             submission.ModuleID,
		EducatorID:           submission.EducatorID,
		SubmissionText:       submission.SubmissionText,
		FileURL:              submission.FileURL,
		Status:               submission.Status,
		SubmissionType:       submission.SubmissionType,
		ProjectAssignmentID:  submission.ProjectAssignmentID,
		AIProgress:           submission.AIProgress,
		HasReferenceSolution: submission.HasReferenceSolution,
		AIGrade:              submission.AIGrade,
		AIPercentage:         submission.AIPercentage,
		AILetterGrade:        submission.AILetterGrade,
		AIConfidence:         submission.AIConfidence,
		AIGradingMethod:      submission.AIGradingMethod,
		AIGradedAt:           submission.AIGradedAt,
		FinalGrade:           submission.FinalGrade,
		IsGraded:             submission.IsGraded,
		SubmittedAt:          submission.SubmittedAt,
		UpdatedAt:            submission.UpdatedAt,
	}
}
