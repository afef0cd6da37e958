// Package vectorstore defines the external vector index capability consumed
// by the ingestion and retrieval pipeline. Records are a derived projection
// of relational subsections and may transiently diverge from them after
// partial failures; callers tolerate the divergence and reconcile later.
package vectorstore

import "context"

// Metadata tags a vector record with enough context to post-filter query
// results and to rebuild or purge a document's records.
type Metadata struct {
	DocumentID   uint   `json:"document_id"`
	SubsectionID uint   `json:"subsection_id"`
	SectionName  string `json:"section_name"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	ChunkIndex   int    `json:"chunk_index"`
}

// Record mirrors one subsection in the vector index.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is one nearest-neighbor query result.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Store is the external vector index. Namespace is a per-tenant partition
// key; all operations are scoped to it.
type Store interface {
	Upsert(ctx context.Context, namespace string, records []Record) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
	IDsByDocument(ctx context.Context, namespace string, documentID uint) ([]string, error)
	DeleteByIDs(ctx context.Context, namespace string, ids []string) error
}
