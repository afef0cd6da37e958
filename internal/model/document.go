package model

import "time"

// Document is one uploaded artifact. FullText is the extracted plain text;
// FileKey points at the stored original binary in object storage (optional).
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Slug      string    `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	FileKey   string    `gorm:"size:512" json:"file_key,omitempty"`
	FullText  string    `gorm:"type:longtext" json:"-"`
	Resume    bool      `json:"resume"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"created_at"`
}
