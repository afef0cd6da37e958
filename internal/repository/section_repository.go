package repository

import (
	"fmt"

	"gorm.io/gorm"

	"documet/internal/model"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) Create(section *model.Section) error {
	if err := r.db.Create(section).Error; err != nil {
		return fmt.Errorf("create section failed: %w", err)
	}
	return nil
}

func (r *SectionRepository) ListByDocumentID(documentID uint) ([]model.Section, error) {
	var sections []model.Section
	if err := r.db.Where("document_id = ?", documentID).Order("id ASC").Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("list sections failed: %w", err)
	}
	return sections, nil
}
