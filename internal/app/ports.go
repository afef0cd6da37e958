package app

import (
	"context"

	"documet/internal/ai"
	"documet/internal/model"
)

// Store interfaces keep the services testable with in-memory fakes; the
// gorm-backed repositories implement them.

type DocumentStore interface {
	Create(doc *model.Document) error
	GetByID(id uint) (*model.Document, error)
	GetBySlug(slug string) (*model.Document, error)
	ListByUserID(userID uint) ([]model.Document, error)
	SetShared(id uint, shared bool) error
	DeleteCascade(id uint) error
}

type SectionStore interface {
	Create(section *model.Section) error
	ListByDocumentID(documentID uint) ([]model.Section, error)
}

type SubsectionStore interface {
	Create(sub *model.Subsection) error
	CreateBatch(subs []model.Subsection) error
	UpdateEmbedding(id uint, embedding string) error
	ListByDocumentID(documentID uint) ([]model.RetrievedChunk, error)
}

type WaitlistStore interface {
	Create(entry *model.WaitlistEntry) error
	GetByEmail(email string) (*model.WaitlistEntry, error)
}

// Embedder is the external embedding capability.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer is the external generative completion capability.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error)
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions, onChunk func(string) error) (string, error)
}

// VectorJobQueue enqueues reconcile work after a partial vector-store
// failure; publishing is itself best-effort.
type VectorJobQueue interface {
	Publish(ctx context.Context, job model.VectorJob) error
}

// AnswerCache memoizes generated summaries and suggested questions per
// document. Advisory: entries may be discarded and recomputed at any time.
type AnswerCache interface {
	GetSummary(ctx context.Context, documentID uint) (string, bool, error)
	SetSummary(ctx context.Context, documentID uint, summary string) error
	GetQuestions(ctx context.Context, documentID uint) ([]string, bool, error)
	SetQuestions(ctx context.Context, documentID uint, questions []string) error
	Invalidate(ctx context.Context, documentID uint) error
}
