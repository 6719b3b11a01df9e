package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// MirrorRepository manages the denormalized submission copies: the
// per-student submission mirror and the project-assignment record.
// Writes here are best-effort from the caller's perspective; the
// canonical submission remains authoritative.
type MirrorRepository interface {
	GetMirror(ctx context.Context, submissionID string) (models.StudentSubmissionMirror, error)
	CreateMirror(ctx context.Context, mirror *models.StudentSubmissionMirror) error
	// ApplyAIGradeToMirror updates the student's submission copy with
	// the grading snapshot. Returns gorm.ErrRecordNotFound when no
	// mirror exists for the submission.
	ApplyAIGradeToMirror(ctx context.Context, submissionID string, snapshot models.AIGradeSnapshot, hasReference bool) error
	CreateProjectRecord(ctx context.Context, record *models.ProjectAssignmentRecord) error
	// ApplyAIGradeToProjectRecord updates the student's
	// project-assignment record, adopting the AI score as final grade.
	ApplyAIGradeToProjectRecord(ctx context.Context, recordID string, snapshot models.AIGradeSnapshot, finalGrade float64, gradedBy string) error
}

type mirrorRepository struct {
	db *gorm.DB
}

// NewMirrorRepository instantiates the repository.
func NewMirrorRepository(db *gorm.DB) MirrorRepository {
	return &mirrorRepository{db: db}
}

func (r *mirrorRepository) GetMirror(ctx context.Context, submissionID string) (models.StudentSubmissionMirror, error) {
	var mirror models.StudentSubmissionMirror
	if err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&mirror).Error; err != nil {
		return models.StudentSubmissionMirror{}, err
	}

	return mirror, nil
}

func (r *mirrorRepository) CreateMirror(ctx context.Context, mirror *models.StudentSubmissionMirror) error {
	return r.db.WithContext(ctx).Create(mirror).Error
}

func (r *mirrorRepository) ApplyAIGradeToMirror(ctx context.Context, submissionID string, snapshot models.AIGradeSnapshot, hasReference bool) error {
	columns := aiSnapshotColumns(snapshot)
	columns["status"] = models.SubmissionStatusAIGraded
	columns["has_reference_solution"] = hasReference
	columns["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.StudentSubmissionMirror{}).
		Where("submission_id = ?", submissionID).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *mirrorRepository) CreateProjectRecord(ctx context.Context, record *models.ProjectAssignmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *mirrorRepository) ApplyAIGradeToProjectRecord(ctx context.Context, recordID string, snapshot models.AIGradeSnapshot, finalGrade float64, gradedBy string) error {
	now := time.Now()

	columns := aiSnapshotColumns(snapshot)
	columns["status"] = models.SubmissionStatusAIGraded
	columns["final_grade"] = finalGrade
	columns["is_graded"] = true
	columns["graded_at"] = now
	columns["graded_by"] = gradedBy
	columns["updated_at"] = now

	result := r.db.WithContext(ctx).
		Model(&models.ProjectAssignmentRecord{}).
		Where("id = ?", recordID).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
