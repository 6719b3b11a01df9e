package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
// Resolve encapsulates the two-location lookup: module-scoped first,
// then the root scope, so callers never duplicate the fallback.
type AssignmentRepository interface {
	Resolve(ctx context.Context, id string, moduleID *string) (models.Assignment, error)
	LinkReferenceSolution(ctx context.Context, assignmentID, referenceID string) error
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Resolve(ctx context.Context, id string, moduleID *string) (models.Assignment, error) {
	var assignment models.Assignment

	if moduleID != nil && *moduleID != "" {
		err := r.db.WithContext(ctx).
			Where("id = ? AND module_id = ?", id, *moduleID).
			First(&assignment).Error
		if err == nil {
			assignment.Normalize()
			return assignment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, err
		}
	}

	err := r.db.WithContext(ctx).
		Where("id = ? AND module_id IS NULL", id).
		First(&assignment).Error
	if err != nil {
		return models.Assignment{}, err
	}

	assignment.Normalize()
	return assignment, nil
}

func (r *assignmentRepository) LinkReferenceSolution(ctx context.Context, assignmentID, referenceID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"has_reference_solution": true,
			"reference_solution_id":  referenceID,
			"updated_at":             time.Now(),
		}).Error
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}
