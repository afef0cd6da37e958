package model

import (
	"encoding/json"
	"time"
)

// Subsection is the atomic embeddable and retrievable unit. Content is
// bounded to the embedding size budget before persistence; the embedding
// corresponds to the content at write time and is never recomputed on read.
// Embedding is stored as a JSON array of float32 for portability.
type Subsection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SectionID uint      `gorm:"not null;index" json:"section_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Embedding string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// SectionName travels with the row through ingestion so the vector
	// record metadata can carry it; it is not a persisted column.
	SectionName string `gorm:"-" json:"section_name,omitempty"`
}

// EmbeddingVector returns the parsed embedding slice; nil on parse error.
func (s *Subsection) EmbeddingVector() []float32 {
	return ParseEmbedding(s.Embedding)
}

// SetEmbedding stores the embedding as JSON.
func (s *Subsection) SetEmbedding(vec []float32) {
	s.Embedding = EncodeEmbedding(vec)
}

// RetrievedChunk is a Subsection joined with its section name, as returned
// by the retrieval query. A malformed stored embedding parses to nil and
// scores zero rather than failing the request.
type RetrievedChunk struct {
	ID          uint      `json:"id"`
	SectionID   uint      `json:"section_id"`
	SectionName string    `json:"section_name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Embedding   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; nil on parse error.
func (c *RetrievedChunk) EmbeddingVector() []float32 {
	return ParseEmbedding(c.Embedding)
}

// ParseEmbedding decodes a JSON float32 array; empty or malformed input
// yields nil so scoring can treat it as a zero-effect vector.
func ParseEmbedding(raw string) []float32 {
	if raw == "" {
		return nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}

// EncodeEmbedding encodes a float32 vector as JSON.
func EncodeEmbedding(vec []float32) string {
	if len(vec) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(vec)
	return string(b)
}
