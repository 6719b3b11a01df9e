package dto

import (
	"encoding/json"
	"time"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
)

// AIGradingView serializes the stored AI grading fields of a canonical
// submission for read access.
type AIGradingView struct {
	Score                   *float64        `json:"score"`
	Percentage              *float64        `json:"percentage"`
	Grade                   string          `json:"grade"`
	OverallFeedback         string          `json:"overall_feedback"`
	DetailedAnalysis        json.RawMessage `json:"detailed_analysis,omitempty"`
	ComparisonWithReference json.RawMessage `json:"comparison_with_reference,omitempty"`
	Strengths               json.RawMessage `json:"strengths,omitempty"`
	AreasForImprovement     json.RawMessage `json:"areas_for_improvement,omitempty"`
	SpecificFeedback        json.RawMessage `json:"specific_feedback,omitempty"`
	Recommendations         json.RawMessage `json:"recommendations,omitempty"`
	Confidence              *float64        `json:"confidence"`
	RubricBreakdown         json.RawMessage `json:"rubric_breakdown,omitempty"`
	GradedAt                *time.Time      `json:"graded_at"`
	GradedBy                string          `json:"graded_by"`
	GradingMethod           string          `json:"grading_method"`
	HasReferenceSolution    bool            `json:"has_reference_solution"`
}

// AIGradingDetailResponse is the GET payload for stored AI grading.
type AIGradingDetailResponse struct {
	SubmissionID string        `json:"submission_id"`
	AIGrading    AIGradingView `json:"ai_grading"`
	HasAIGrading bool          `json:"has_ai_grading"`
}

// GradingSummary condenses a grading outcome for the POST response.
type GradingSummary struct {
	Score                float64 `json:"score"`
	Percentage           float64 `json:"percentage"`
	Grade                string  `json:"grade"`
	OverallFeedback      string  `json:"overall_feedback"`
	Confidence           float64 `json:"confidence"`
	HasReferenceSolution bool    `json:"has_reference_solution"`
}

// GradeSubmissionResponse is returned after a successful AI grading run.
type GradeSubmissionResponse struct {
	Message      string             `json:"message"`
	SubmissionID string             `json:"submission_id"`
	Grading      GradingSummary     `json:"grading"`
	Submission   SubmissionResponse `json:"submission"`
}

// NewAIGradingView maps the stored snapshot fields into the read view.
func NewAIGradingView(submission models.Submission) AIGradingView {
	return AIGradingView{
		Score:                   submission.AIGrade,
		Percentage:              submission.AIPercentage,
		Grade:                   submission.AILetterGrade,
		OverallFeedback:         submission.AIOverallFeedback,
		DetailedAnalysis:        json.RawMessage(submission.AIDetailedAnalysis),
		ComparisonWithReference: json.RawMessage(submission.AIComparisonWithReference),
		Strengths:               json.RawMessage(submission.AIStrengths),
		AreasForImprovement:     json.RawMessage(submission.AIAreasForImprovement),
		SpecificFeedback:        json.RawMessage(submission.AISpecificFeedback),
		Recommendations:         json.RawMessage(submission.AIRecommendations),
		Confidence:              submission.AIConfidence,
		RubricBreakdown:         json.RawMessage(submission.AIRubricBreakdown),
		GradedAt:                submission.AIGradedAt,
		GradedBy:                submission.AIGradedBy,
		GradingMethod:           submission.AIGradingMethod,
		HasReferenceSolution:    submission.HasReferenceSolution,
	}
}

// NewGradingSummary condenses a grading outcome.
func NewGradingSummary(outcome ai.GradingOutcome, hasReference bool) GradingSummary {
	return GradingSummary{
		Score:                outcome.Score,
		Percentage:           outcome.Percentage,
		Grade:                outcome.Grade,
		OverallFeedback:      outcome.OverallFeedback,
		Confidence:           outcome.Confidence,
		HasReferenceSolution: hasReference,
	}
}
