package model

// Vector sync job operations.
const (
	VectorJobRebuild = "rebuild"
	VectorJobPurge   = "purge"
)

// VectorJob is the queue payload for reconciling the vector index with the
// relational store after a partial failure.
type VectorJob struct {
	Op         string `json:"op"`
	UserID     uint   `json:"user_id"`
	DocumentID uint   `json:"document_id"`
}
