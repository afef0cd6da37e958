package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"documet/internal/model"
)

type WaitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) Create(entry *model.WaitlistEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create waitlist entry failed: %w", err)
	}
	return nil
}

func (r *WaitlistRepository) GetByEmail(email string) (*model.WaitlistEntry, error) {
	var entry model.WaitlistEntry
	if err := r.db.Where("email = ?", email).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query waitlist entry failed: %w", err)
	}
	return &entry, nil
}
