package model

import "time"

// Section is a named region of a document's text ("Experience", "Skills",
// "Main Content"). The name is free text assigned at segmentation time.
type Section struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}
