package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
)

// ModuleRepository provides access to module records.
type ModuleRepository interface {
	GetByID(ctx context.Context, id string) (models.Module, error)
}

type moduleRepository struct {
	db *gorm.DB
}

// NewModuleRepository constructs a module repository.
func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) GetByID(ctx context.Context, id string) (models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return models.Module{}, err
	}

	return module, nil
}
