package repository

import (
	"fmt"

	"gorm.io/gorm"

	"documet/internal/model"
)

type SubsectionRepository struct {
	db *gorm.DB
}

func NewSubsectionRepository(db *gorm.DB) *SubsectionRepository {
	return &SubsectionRepository{db: db}
}

func (r *SubsectionRepository) Create(sub *model.Subsection) error {
	if err := r.db.Create(sub).Error; err != nil {
		return fmt.Errorf("create subsection failed: %w", err)
	}
	return nil
}

func (r *SubsectionRepository) CreateBatch(subs []model.Subsection) error {
	if len(subs) == 0 {
		return nil
	}
	if err := r.db.Create(&subs).Error; err != nil {
		return fmt.Errorf("create subsections batch failed: %w", err)
	}
	return nil
}

func (r *SubsectionRepository) UpdateEmbedding(id uint, embedding string) error {
	if err := r.db.Model(&model.Subsection{}).Where("id = ?", id).Update("embedding", embedding).Error; err != nil {
		return fmt.Errorf("update subsection embedding failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns all subsections of a document joined with their
// section names, in insertion order.
func (r *SubsectionRepository) ListByDocumentID(documentID uint) ([]model.RetrievedChunk, error) {
	var chunks []model.RetrievedChunk
	err := r.db.Table("subsections").
		Select("subsections.id, subsections.section_id, sections.name AS section_name, subsections.title, subsections.content, subsections.embedding, subsections.created_at").
		Joins("JOIN sections ON sections.id = subsections.section_id").
		Where("sections.document_id = ?", documentID).
		Order("subsections.id ASC").
		Scan(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list subsections by document failed: %w", err)
	}
	return chunks, nil
}
