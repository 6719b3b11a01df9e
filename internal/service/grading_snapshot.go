package service

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
)

// newGradeSnapshot converts a grading outcome into the persisted
// snapshot shape shared by the canonical submission and its mirrors.
func newGradeSnapshot(outcome ai.GradingOutcome, gradedBy string, gradedAt time.Time) (models.AIGradeSnapshot, error) {
	detailed, err := marshalJSON(outcome.DetailedAnalysis)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	comparison, err := marshalJSON(outcome.ComparisonWithReference)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	strengths, err := marshalJSON(outcome.Strengths)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	improvements, err := marshalJSON(outcome.AreasForImprovement)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	specific, err := marshalJSON(outcome.SpecificFeedback)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	recommendations, err := marshalJSON(outcome.Recommendations)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}
	rubric, err := marshalJSON(outcome.RubricBreakdown)
	if err != nil {
		return models.AIGradeSnapshot{}, err
	}

	score := outcome.Score
	percentage := outcome.Percentage
	confidence := outcome.Confidence

	return models.AIGradeSnapshot{
		AIGrade:                   &score,
		AIPercentage:              &percentage,
		AILetterGrade:             outcome.Grade,
		AIOverallFeedback:         outcome.OverallFeedback,
		AIDetailedAnalysis:        detailed,
		AIComparisonWithReference: comparison,
		AIStrengths:               strengths,
		AIAreasForImprovement:     improvements,
		AISpecificFeedback:        specific,
		AIRecommendations:         recommendations,
		AIConfidence:              &confidence,
		AIRubricBreakdown:         rubric,
		AIGradedAt:                &gradedAt,
		AIGradedBy:                gradedBy,
		AIGradingMethod:           outcome.GradingMethod,
	}, nil
}

func marshalJSON(value interface{}) (datatypes.JSON, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal grading field: %w", err)
	}
	return datatypes.JSON(payload), nil
}
