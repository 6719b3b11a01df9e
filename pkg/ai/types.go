package ai

import "context"

// GradingInput contains the artefacts needed to grade a student
// submission against an educator's reference solution.
type GradingInput struct {
	StudentSubmission     string
	ReferenceSolution     string
	AssignmentTitle       string
	AssignmentDescription string
	GradingCriteria       string
	MaxScore              float64
	StudentFileURL        string
	ReferenceFileURL      string
}

// CriterionFeedback scores one grading dimension with feedback.
type CriterionFeedback struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// ReferenceComparison summarises how the submission relates to the
// reference solution.
type ReferenceComparison struct {
	Similarities []string `json:"similarities"`
	Differences  []string `json:"differences"`
	Improvements []string `json:"improvements"`
}

// RubricItem is a single rubric entry in the grading breakdown.
type RubricItem struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// GradingOutcome is the structured grade returned by the grading model.
type GradingOutcome struct {
	Score                   float64                      `json:"score"`
	Percentage              float64                      `json:"percentage"`
	Grade                   string                       `json:"grade"`
	OverallFeedback         string                       `json:"overallFeedback"`
	DetailedAnalysis        map[string]CriterionFeedback `json:"detailedAnalysis"`
	ComparisonWithReference ReferenceComparison          `json:"comparisonWithReference"`
	Strengths               []string                     `json:"strengths"`
	AreasForImprovement     []string                     `json:"areasForImprovement"`
	SpecificFeedback        []string                     `json:"specificFeedback"`
	Recommendations         []string                     `json:"recommendations"`
	Confidence              float64                      `json:"confidence"`
	RubricBreakdown         map[string]RubricItem        `json:"rubricBreakdown"`
	GradingMethod           string                       `json:"gradingMethod"`
}

// GradingMethodComparison marks grades produced by reference comparison.
const GradingMethodComparison = "ai_reference_comparison"

// Grader describes an AI model capable of grading submissions against
// a reference solution.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingOutcome, error)
}
