package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// ReferenceSolutionRepository persists educator reference solutions.
// Records are append-only: a newer upload supersedes older ones by
// CreatedAt, with the document id as a deterministic tie-break.
type ReferenceSolutionRepository interface {
	Create(ctx context.Context, reference *models.ReferenceSolution) error
	// Latest returns the current reference solution for an assignment.
	Latest(ctx context.Context, assignmentID string) (models.ReferenceSolution, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.ReferenceSolution, error)
}

type referenceSolutionRepository struct {
	db *gorm.DB
}

// NewReferenceSolutionRepository instantiates the repository.
func NewReferenceSolutionRepository(db *gorm.DB) ReferenceSolutionRepository {
	return &referenceSolutionRepository{db: db}
}

func (r *referenceSolutionRepository) Create(ctx context.Context, reference *models.ReferenceSolution) error {
	return r.db.WithContext(ctx).Create(reference).Error
}

func (r *referenceSolutionRepository) Latest(ctx context.Context, assignmentID string) (models.ReferenceSolution, error) {
	var reference models.ReferenceSolution
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC, id DESC").
		First(&reference).Error
	if err != nil {
		return models.ReferenceSolution{}, err
	}

	return reference, nil
}

func (r *referenceSolutionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.ReferenceSolution, error) {
	var references []models.ReferenceSolution
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC, id DESC").
		Find(&references).Error
	if err != nil {
		return nil, err
	}

	return references, nil
}
