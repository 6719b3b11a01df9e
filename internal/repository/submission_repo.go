package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// DefaultSubmissionPageSize bounds how many canonical submissions a
// single list read will fetch.
const DefaultSubmissionPageSize = 500

// SubmissionRepository defines data operations for canonical submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (models.Submission, error)
	ListPage(ctx context.Context, limit int) ([]models.Submission, error)
	ListProjectAssignments(ctx context.Context) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	// MarkReferenceAvailable flips the AI-readiness flags on every
	// submission of the assignment whose aiProgress is unset or
	// pending, as one atomic batch. Returns the number updated.
	MarkReferenceAvailable(ctx context.Context, assignmentID string) (int64, error)
	// ApplyAIGrade writes the grading snapshot and the ai_graded
	// status to the canonical submission in a single atomic update.
	ApplyAIGrade(ctx context.Context, id string, snapshot models.AIGradeSnapshot, hasReference bool) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListPage(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 || limit > DefaultSubmissionPageSize {
		limit = DefaultSubmissionPageSize
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListProjectAssignments(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("submission_type = ?", models.SubmissionTypeProjectAssignment).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) MarkReferenceAvailable(ctx context.Context, assignmentID string) (int64, error) {
	var updated int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("assignment_id = ?", assignmentID).
			Where("ai_progress IS NULL OR ai_progress IN ?", []string{"", models.AIProgressPending}).
			Updates(map[string]interface{}{
				"ai_progress":                  models.AIProgressCompleted,
				"has_reference_solution":       true,
				"reference_solution_available": true,
				"updated_at":                   time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

func (r *submissionRepository) ApplyAIGrade(ctx context.Context, id string, snapshot models.AIGradeSnapshot, hasReference bool) error {
	columns := aiSnapshotColumns(snapshot)
	columns["status"] = models.SubmissionStatusAIGraded
	columns["has_reference_solution"] = hasReference
	columns["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// aiSnapshotColumns expands a grading snapshot into an explicit column
// map so zero values (score 0, empty feedback) are still written.
func aiSnapshotColumns(snapshot models.AIGradeSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"ai_grade":                     snapshot.AIGrade,
		"ai_percentage":                snapshot.AIPercentage,
		"ai_letter_grade":              snapshot.AILetterGrade,
		"ai_overall_feedback":          snapshot.AIOverallFeedback,
		"ai_detailed_analysis":         snapshot.AIDetailedAnalysis,
		"ai_comparison_with_reference": snapshot.AIComparisonWithReference,
		"ai_strengths":                 snapshot.AIStrengths,
		"ai_areas_for_improvement":     snapshot.AIAreasForImprovement,
		"ai_specific_feedback":         snapshot.AISpecificFeedback,
		"ai_recommendations":           snapshot.AIRecommendations,
		"ai_confidence":                snapshot.AIConfidence,
		"ai_rubric_breakdown":          snapshot.AIRubricBreakdown,
		"ai_graded_at":                 snapshot.AIGradedAt,
		"ai_graded_by":                 snapshot.AIGradedBy,
		"ai_grading_method":            snapshot.AIGradingMethod,
	}
}
