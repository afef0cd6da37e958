package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"documet/internal/model"
	"documet/internal/segment"
	"documet/internal/vectorstore"
)

const (
	defaultMaxChunkSize        = segment.DefaultMaxChunkSize
	defaultEmbeddingBatchSize  = 10 // many providers limit batch input size
	defaultMaxConcurrentEmbeds = 4
	defaultEmbedTimeout        = 30 * time.Second
)

// IngestOptions tune the ingestion pipeline.
type IngestOptions struct {
	MaxChunkSize        int
	EmbeddingBatchSize  int
	MaxConcurrentEmbeds int
	EmbedTimeout        time.Duration
}

func (o *IngestOptions) fillDefaults() {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = defaultMaxChunkSize
	}
	if o.EmbeddingBatchSize <= 0 {
		o.EmbeddingBatchSize = defaultEmbeddingBatchSize
	}
	if o.MaxConcurrentEmbeds <= 0 {
		o.MaxConcurrentEmbeds = defaultMaxConcurrentEmbeds
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = defaultEmbedTimeout
	}
}

// DocumentService runs the write path: extracted text in, segmented and
// embedded subsections out, plus document lifecycle (list, share, delete,
// vector reconciliation).
type DocumentService struct {
	docRepo     DocumentStore
	sectionRepo SectionStore
	chunkRepo   SubsectionStore
	embedder    Embedder
	vectors     vectorstore.Store
	queue       VectorJobQueue
	cache       AnswerCache
	opts        IngestOptions
	log         *slog.Logger
}

func NewDocumentService(
	docRepo DocumentStore,
	sectionRepo SectionStore,
	chunkRepo SubsectionStore,
	embedder Embedder,
	vectors vectorstore.Store,
	queue VectorJobQueue,
	cache AnswerCache,
	opts IngestOptions,
	log *slog.Logger,
) *DocumentService {
	opts.fillDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{
		docRepo:     docRepo,
		sectionRepo: sectionRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectors:     vectors,
		queue:       queue,
		cache:       cache,
		opts:        opts,
		log:         log,
	}
}

type IngestInput struct {
	UserID  uint
	Title   string
	Content string
	FileKey string
	Resume  bool
}

type IngestResult struct {
	Document     model.Document `json:"document"`
	SectionCount int            `json:"section_count"`
	ChunkCount   int            `json:"chunk_count"`
	IndexedCount int            `json:"indexed_count"`
}

// pendingChunk carries a chunk through embedding and persistence.
type pendingChunk struct {
	sectionID   uint
	sectionName string
	title       string
	content     string
	embedding   []float32
}

// Ingest segments the extracted text into sections, splits and chunks them,
// embeds every chunk, persists the rows, and upserts the vector records.
// The relational write is authoritative; vector-store failures are logged
// and queued for reconciliation, never surfaced as ingestion failure.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled"
	}

	doc := &model.Document{
		UserID:   input.UserID,
		Title:    title,
		Slug:     newSlug(),
		FileKey:  input.FileKey,
		FullText: content,
		Resume:   input.Resume,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	var sections []segment.Section
	if input.Resume {
		sections = segment.SegmentResume(content)
	} else {
		sections = segment.Segment(content)
	}
	if len(sections) == 0 {
		sections = []segment.Section{{Name: segment.DefaultSectionName, Content: content}}
	}

	var pending []pendingChunk
	sectionCount := 0
	for _, sec := range sections {
		row := &model.Section{DocumentID: doc.ID, Name: sec.Name}
		if err := s.sectionRepo.Create(row); err != nil {
			s.log.Error("create section failed", "document_id", doc.ID, "section", sec.Name, "err", err)
			continue
		}
		sectionCount++

		entries := segment.ChunkEntries(segment.Split(sec.Name, sec.Content), s.opts.MaxChunkSize)
		for _, e := range entries {
			pending = append(pending, pendingChunk{
				sectionID:   row.ID,
				sectionName: sec.Name,
				title:       e.Title,
				content:     e.Content,
			})
		}
	}

	s.embedPending(ctx, pending)

	persisted := s.persistChunks(doc.ID, pending)
	indexed := s.upsertVectors(ctx, doc, persisted)

	return &IngestResult{
		Document:     *doc,
		SectionCount: sectionCount,
		ChunkCount:   len(persisted),
		IndexedCount: indexed,
	}, nil
}

// embedPending computes embeddings batch-first; when a batch call fails it
// degrades to isolated per-chunk embeds with bounded fan-out so one bad
// chunk cannot sink its siblings. Chunks that still fail keep a nil
// embedding and remain text-only.
func (s *DocumentService) embedPending(ctx context.Context, pending []pendingChunk) {
	for start := 0; start < len(pending); start += s.opts.EmbeddingBatchSize {
		end := start + s.opts.EmbeddingBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].content
		}

		embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
		vecs, err := s.embedder.EmbedBatch(embedCtx, texts)
		cancel()
		if err == nil && len(vecs) == len(batch) {
			for i := range batch {
				batch[i].embedding = vecs[i]
			}
			continue
		}
		if err != nil {
			s.log.Warn("batch embedding failed, retrying per chunk", "err", err)
		}
		s.embedEach(ctx, batch)
	}
}

func (s *DocumentService) embedEach(ctx context.Context, batch []pendingChunk) {
	sem := make(chan struct{}, s.opts.MaxConcurrentEmbeds)
	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *pendingChunk) {
			defer wg.Done()
			defer func() { <-sem }()
			embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
			defer cancel()
			vec, err := s.embedder.Embed(embedCtx, c.content)
			if err != nil {
				s.log.Warn("chunk embedding failed, keeping text-only", "title", c.title, "err", err)
				return
			}
			c.embedding = vec
		}(&batch[i])
	}
	wg.Wait()
}

// persistChunks writes subsection rows, isolating per-chunk failures: a
// failed batch insert degrades to per-row inserts and a failed row is
// dropped from the result rather than aborting the document.
func (s *DocumentService) persistChunks(documentID uint, pending []pendingChunk) []model.Subsection {
	subs := make([]model.Subsection, len(pending))
	for i, c := range pending {
		subs[i] = model.Subsection{
			SectionID:   c.sectionID,
			Title:       c.title,
			Content:     c.content,
			SectionName: c.sectionName,
		}
		if len(c.embedding) > 0 {
			subs[i].SetEmbedding(c.embedding)
		}
	}

	err := s.chunkRepo.CreateBatch(subs)
	if err == nil {
		return subs
	}
	s.log.Warn("batch subsection insert failed, retrying per chunk", "document_id", documentID, "err", err)

	persisted := make([]model.Subsection, 0, len(subs))
	for i := range subs {
		subs[i].ID = 0
		if err := s.chunkRepo.Create(&subs[i]); err != nil {
			s.log.Error("subsection insert failed, chunk dropped", "document_id", documentID, "title", subs[i].Title, "err", err)
			continue
		}
		persisted = append(persisted, subs[i])
	}
	return persisted
}

// upsertVectors projects persisted subsections into the vector index. The
// write is best-effort: on failure a rebuild job is queued and ingestion
// still succeeds with a text-only document.
func (s *DocumentService) upsertVectors(ctx context.Context, doc *model.Document, subs []model.Subsection) int {
	if s.vectors == nil {
		return 0
	}
	records := s.buildRecords(doc.ID, subs)
	if len(records) == 0 {
		return 0
	}
	if err := s.vectors.Upsert(ctx, vectorNamespace(doc.UserID), records); err != nil {
		s.log.Error("vector upsert failed, queueing rebuild", "document_id", doc.ID, "err", err)
		s.enqueue(ctx, model.VectorJob{Op: model.VectorJobRebuild, UserID: doc.UserID, DocumentID: doc.ID})
		return 0
	}
	return len(records)
}

func (s *DocumentService) buildRecords(documentID uint, subs []model.Subsection) []vectorstore.Record {
	records := make([]vectorstore.Record, 0, len(subs))
	for i, sub := range subs {
		vec := sub.EmbeddingVector()
		if len(vec) == 0 {
			continue
		}
		records = append(records, vectorstore.Record{
			ID:     uuid.NewString(),
			Vector: vec,
			Metadata: vectorstore.Metadata{
				DocumentID:   documentID,
				SubsectionID: sub.ID,
				SectionName:  sub.SectionName,
				Title:        sub.Title,
				Text:         sub.Content,
				ChunkIndex:   i,
			},
		})
	}
	return records
}

func (s *DocumentService) enqueue(ctx context.Context, job model.VectorJob) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, job); err != nil {
		s.log.Error("vector job enqueue failed", "op", job.Op, "document_id", job.DocumentID, "err", err)
	}
}

// List returns the user's documents, newest first.
func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(userID)
}

// Get returns a document the requester may read: the owner always, anyone
// when the document is shared.
func (s *DocumentService) Get(userID, documentID uint) (*model.Document, error) {
	return s.resolve(userID, documentID)
}

// GetShared resolves a public sharing slug.
func (s *DocumentService) GetShared(slug string) (*model.Document, error) {
	doc, err := s.docRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if !doc.Shared {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

// SetShared toggles a document's public sharing flag. Owner only.
func (s *DocumentService) SetShared(userID, documentID uint, shared bool) (*model.Document, error) {
	doc, err := s.requireOwner(userID, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.docRepo.SetShared(doc.ID, shared); err != nil {
		return nil, err
	}
	doc.Shared = shared
	return doc, nil
}

// Delete removes a document and its sections and subsections transactionally,
// then best-effort deletes the matching vector records. A vector-store
// failure is logged and queued for reconciliation; it never reverses the
// relational delete.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.requireOwner(userID, documentID)
	if err != nil {
		return err
	}
	if err := s.docRepo.DeleteCascade(doc.ID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, doc.ID); err != nil {
			s.log.Warn("cache invalidate failed", "document_id", doc.ID, "err", err)
		}
	}
	if err := s.purgeVectors(ctx, doc.UserID, doc.ID); err != nil {
		s.log.Error("vector delete failed, queueing purge", "document_id", doc.ID, "err", err)
		s.enqueue(ctx, model.VectorJob{Op: model.VectorJobPurge, UserID: doc.UserID, DocumentID: doc.ID})
	}
	return nil
}

// RebuildVectors recomputes a document's vector records from its relational
// subsections: the explicit recovery path for cross-store divergence.
// Subsections missing an embedding are re-embedded and updated in place.
func (s *DocumentService) RebuildVectors(ctx context.Context, userID, documentID uint) error {
	if s.vectors == nil {
		return nil
	}
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil || doc.UserID != userID {
		return ErrNotFound
	}

	chunks, err := s.chunkRepo.ListByDocumentID(documentID)
	if err != nil {
		return err
	}

	subs := make([]model.Subsection, 0, len(chunks))
	for _, c := range chunks {
		sub := model.Subsection{
			ID:          c.ID,
			SectionID:   c.SectionID,
			Title:       c.Title,
			Content:     c.Content,
			Embedding:   c.Embedding,
			SectionName: c.SectionName,
		}
		if len(sub.EmbeddingVector()) == 0 {
			embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
			vec, embErr := s.embedder.Embed(embedCtx, sub.Content)
			cancel()
			if embErr != nil {
				s.log.Warn("re-embed failed during rebuild", "subsection_id", sub.ID, "err", embErr)
				continue
			}
			sub.SetEmbedding(vec)
			if err := s.chunkRepo.UpdateEmbedding(sub.ID, sub.Embedding); err != nil {
				s.log.Warn("embedding update failed during rebuild", "subsection_id", sub.ID, "err", err)
			}
		}
		subs = append(subs, sub)
	}

	if err := s.purgeVectors(ctx, userID, documentID); err != nil {
		return err
	}
	return s.vectors.Upsert(ctx, vectorNamespace(userID), s.buildRecords(documentID, subs))
}

// PurgeVectors removes every vector record tagged with the document id.
// Used by the reconcile worker after a relational delete already succeeded.
func (s *DocumentService) PurgeVectors(ctx context.Context, userID, documentID uint) error {
	return s.purgeVectors(ctx, userID, documentID)
}

func (s *DocumentService) purgeVectors(ctx context.Context, userID, documentID uint) error {
	if s.vectors == nil {
		return nil
	}
	ns := vectorNamespace(userID)
	ids, err := s.vectors.IDsByDocument(ctx, ns, documentID)
	if err != nil {
		return err
	}
	return s.vectors.DeleteByIDs(ctx, ns, ids)
}

func (s *DocumentService) resolve(userID, documentID uint) (*model.Document, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.UserID != userID && !doc.Shared {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

func (s *DocumentService) requireOwner(userID, documentID uint) (*model.Document, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.UserID != userID {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

func vectorNamespace(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

func newSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
