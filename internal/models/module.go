package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module groups assignments under a course unit.
type Module struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Name      string    `gorm:"size:255" json:"name"`
	Code      string    `gorm:"size:64" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a document identifier when none was supplied.
func (m *Module) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// DisplayTitle prefers the human readable title over the short name.
func (m Module) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}
