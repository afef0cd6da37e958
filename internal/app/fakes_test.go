package app

import (
	"context"
	"errors"
	"sync"

	"documet/internal/ai"
	"documet/internal/model"
	"documet/internal/vectorstore"
)

type fakeDocStore struct {
	docs    map[uint]*model.Document
	nextID  uint
	deleted []uint
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[uint]*model.Document{}}
}

func (f *fakeDocStore) Create(doc *model.Document) error {
	f.nextID++
	doc.ID = f.nextID
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocStore) GetByID(id uint) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocStore) GetBySlug(slug string) (*model.Document, error) {
	for _, doc := range f.docs {
		if doc.Slug == slug {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDocStore) ListByUserID(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) SetShared(id uint, shared bool) error {
	doc, ok := f.docs[id]
	if !ok {
		return errors.New("document not found")
	}
	doc.Shared = shared
	return nil
}

func (f *fakeDocStore) DeleteCascade(id uint) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSectionStore struct {
	sections []model.Section
	nextID   uint
}

func (f *fakeSectionStore) Create(section *model.Section) error {
	f.nextID++
	section.ID = f.nextID
	f.sections = append(f.sections, *section)
	return nil
}

func (f *fakeSectionStore) ListByDocumentID(documentID uint) ([]model.Section, error) {
	var out []model.Section
	for _, s := range f.sections {
		if s.DocumentID == documentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeChunkStore struct {
	mu     sync.Mutex
	chunks []model.RetrievedChunk
	nextID uint

	failBatch    bool
	failContents map[string]bool
	listErr      error
	updated      map[uint]string
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{updated: map[uint]string{}}
}

func (f *fakeChunkStore) Create(sub *model.Subsection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failContents[sub.Content] {
		return errors.New("insert failed")
	}
	f.nextID++
	sub.ID = f.nextID
	f.chunks = append(f.chunks, model.RetrievedChunk{
		ID:          sub.ID,
		SectionID:   sub.SectionID,
		SectionName: sub.SectionName,
		Title:       sub.Title,
		Content:     sub.Content,
		Embedding:   sub.Embedding,
	})
	return nil
}

func (f *fakeChunkStore) CreateBatch(subs []model.Subsection) error {
	if f.failBatch {
		return errors.New("batch insert failed")
	}
	for i := range subs {
		if err := f.Create(&subs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChunkStore) UpdateEmbedding(id uint, embedding string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = embedding
	for i := range f.chunks {
		if f.chunks[i].ID == id {
			f.chunks[i].Embedding = embedding
		}
	}
	return nil
}

func (f *fakeChunkStore) ListByDocumentID(documentID uint) ([]model.RetrievedChunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.RetrievedChunk, len(f.chunks))
	copy(out, f.chunks)
	return out, nil
}

type fakeEmbedder struct {
	mu        sync.Mutex
	vec       []float32
	vecByText map[string][]float32
	batchErr  error
	embedErr  map[string]error
	calls     int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.embedErr[text]; err != nil {
		return nil, err
	}
	if v, ok := f.vecByText[text]; ok {
		return v, nil
	}
	return f.vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type fakeCompleter struct {
	answer string
	err    error
	chunks []string
	// captured
	messages []ai.ChatMessage
	opts     ai.CompletionOptions
}

func (f *fakeCompleter) Complete(_ context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error) {
	f.messages = messages
	f.opts = opts
	return f.answer, f.err
}

func (f *fakeCompleter) StreamComplete(_ context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions, onChunk func(string) error) (string, error) {
	f.messages = messages
	f.opts = opts
	if f.err != nil {
		return "", f.err
	}
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return "", err
		}
	}
	return f.answer, nil
}

type fakeVectorStore struct {
	mu        sync.Mutex
	upserts   map[string][]vectorstore.Record
	upsertErr error
	matches   []vectorstore.Match
	queryErr  error
	idsErr    error
	deleted   map[string][]string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		upserts: map[string][]vectorstore.Record{},
		deleted: map[string][]string{},
	}
}

func (f *fakeVectorStore) Upsert(_ context.Context, namespace string, records []vectorstore.Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[namespace] = append(f.upserts[namespace], records...)
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, _ string, _ []float32, _ int) ([]vectorstore.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) IDsByDocument(_ context.Context, namespace string, documentID uint) ([]string, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, r := range f.upserts[namespace] {
		if r.Metadata.DocumentID == documentID {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (f *fakeVectorStore) DeleteByIDs(_ context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[namespace] = append(f.deleted[namespace], ids...)
	kept := f.upserts[namespace][:0]
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	for _, r := range f.upserts[namespace] {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	f.upserts[namespace] = kept
	return nil
}

type fakeJobQueue struct {
	mu   sync.Mutex
	jobs []model.VectorJob
	err  error
}

func (f *fakeJobQueue) Publish(_ context.Context, job model.VectorJob) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeAnswerCache struct {
	summaries   map[uint]string
	questions   map[uint][]string
	invalidated []uint
}

func newFakeAnswerCache() *fakeAnswerCache {
	return &fakeAnswerCache{
		summaries: map[uint]string{},
		questions: map[uint][]string{},
	}
}

func (f *fakeAnswerCache) GetSummary(_ context.Context, documentID uint) (string, bool, error) {
	s, ok := f.summaries[documentID]
	return s, ok, nil
}

func (f *fakeAnswerCache) SetSummary(_ context.Context, documentID uint, summary string) error {
	f.summaries[documentID] = summary
	return nil
}

func (f *fakeAnswerCache) GetQuestions(_ context.Context, documentID uint) ([]string, bool, error) {
	q, ok := f.questions[documentID]
	return q, ok, nil
}

func (f *fakeAnswerCache) SetQuestions(_ context.Context, documentID uint, questions []string) error {
	f.questions[documentID] = questions
	return nil
}

func (f *fakeAnswerCache) Invalidate(_ context.Context, documentID uint) error {
	delete(f.summaries, documentID)
	delete(f.questions, documentID)
	f.invalidated = append(f.invalidated, documentID)
	return nil
}

func embeddingJSON(vec []float32) string {
	return model.EncodeEmbedding(vec)
}
