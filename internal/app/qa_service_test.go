package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documet/internal/model"
	"documet/internal/vectorstore"
)

func TestCosineSimilarity(t *testing.T) {
	v := []float32{1, 2, 3}

	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity(v, []float32{-1, -2, -3}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func newQATestService(docs *fakeDocStore, chunks *fakeChunkStore, emb *fakeEmbedder, comp *fakeCompleter, vecs *fakeVectorStore, cache *fakeAnswerCache) *QAService {
	var store vectorstore.Store
	if vecs != nil {
		store = vecs
	}
	var ac AnswerCache
	if cache != nil {
		ac = cache
	}
	return NewQAService(docs, chunks, emb, comp, store, ac, QAOptions{}, nil)
}

func seedDoc(docs *fakeDocStore, userID uint, resume, shared bool) *model.Document {
	doc := &model.Document{UserID: userID, Title: "doc", Slug: "abc123def456", FullText: "full text of the document", Resume: resume, Shared: shared}
	_ = docs.Create(doc)
	return doc
}

func seedChunk(chunks *fakeChunkStore, sectionName, title, content string, vec []float32) {
	chunks.nextID++
	chunks.chunks = append(chunks.chunks, model.RetrievedChunk{
		ID:          chunks.nextID,
		SectionID:   1,
		SectionName: sectionName,
		Title:       title,
		Content:     content,
		Embedding:   embeddingJSON(vec),
	})
}

func TestAskRanksByCosineSimilarity(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "low relevance", []float32{0, 1})
	seedChunk(chunks, "Main Content", "Main Content", "high relevance", []float32{1, 0.1})
	seedChunk(chunks, "Main Content", "Main Content", "medium relevance", []float32{1, 1})

	emb := &fakeEmbedder{vec: []float32{1, 0}}
	comp := &fakeCompleter{answer: "the answer"}
	svc := newQATestService(docs, chunks, emb, comp, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "anything relevant"})

	require.NoError(t, err)
	require.Len(t, answer.Chunks, 3)
	assert.Equal(t, "high relevance", answer.Chunks[0].Content)
	assert.Equal(t, "medium relevance", answer.Chunks[1].Content)
	assert.Equal(t, "low relevance", answer.Chunks[2].Content)
	assert.Equal(t, answer.Chunks[0].Score, answer.Confidence)
	assert.Equal(t, "the answer", answer.Answer)
}

func TestAskTopKBoundedByAvailableChunks(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "only chunk", []float32{1, 0})

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q", TopK: 5})

	require.NoError(t, err)
	assert.Len(t, answer.Chunks, 1)
}

func TestAskStableTieOrdering(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "first tied", []float32{1, 0})
	seedChunk(chunks, "Main Content", "Main Content", "second tied", []float32{1, 0})
	seedChunk(chunks, "Main Content", "Main Content", "third tied", []float32{1, 0})

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	for i := 0; i < 5; i++ {
		answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, "first tied", answer.Chunks[0].Content)
		assert.Equal(t, "second tied", answer.Chunks[1].Content)
		assert.Equal(t, "third tied", answer.Chunks[2].Content)
	}
}

func TestAskMalformedEmbeddingScoresZero(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "good chunk", []float32{1, 0})
	chunks.chunks = append(chunks.chunks, model.RetrievedChunk{
		ID: 99, SectionID: 1, SectionName: "Main Content", Title: "Main Content",
		Content: "broken chunk", Embedding: "not-json",
	})

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	require.NoError(t, err)
	require.Len(t, answer.Chunks, 2)
	assert.Equal(t, "good chunk", answer.Chunks[0].Content)
	assert.Zero(t, answer.Chunks[1].Score)
}

func TestAskVectorPathFiltersOtherDocuments(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()

	vecs := newFakeVectorStore()
	vecs.matches = []vectorstore.Match{
		{ID: "a", Score: 0.95, Metadata: vectorstore.Metadata{DocumentID: doc.ID + 1, Text: "someone else's chunk"}},
		{ID: "b", Score: 0.9, Metadata: vectorstore.Metadata{DocumentID: doc.ID, SubsectionID: 7, SectionName: "Skills", Text: "my chunk"}},
	}

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, vecs, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	require.NoError(t, err)
	require.Len(t, answer.Chunks, 1)
	assert.Equal(t, "my chunk", answer.Chunks[0].Content)
	assert.InDelta(t, 0.9, float64(answer.Confidence), 1e-6)
	assert.Equal(t, []string{"Skills"}, answer.Sections)
}

func TestAskFallsBackToCosineWhenVectorQueryFails(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "relational chunk", []float32{1, 0})

	vecs := newFakeVectorStore()
	vecs.queryErr = errors.New("index down")

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, vecs, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	require.NoError(t, err)
	require.Len(t, answer.Chunks, 1)
	assert.Equal(t, "relational chunk", answer.Chunks[0].Content)
}

func TestAskCurrentRoleBoost(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, true, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Experience", "Engineer at Initech", "older role text", []float32{0.2, 1})
	seedChunk(chunks, "Experience", "Senior Engineer at Acme Corp", "current role text", []float32{0.1, 1})
	seedChunk(chunks, "Skills", "Skills", "go, python, sql", []float32{1, 0})

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "What is your current role?"})

	require.NoError(t, err)
	// The most recently indexed experience chunk outranks the cosine winner.
	assert.Equal(t, "Senior Engineer at Acme Corp", answer.Chunks[0].Title)
	assert.Equal(t, "Skills", answer.Chunks[1].Title)
}

func TestAskCurrentRoleBoostSkippedForNonResume(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Experience", "Engineer at Initech", "role text", []float32{0, 1})
	seedChunk(chunks, "Skills", "Skills", "go, python", []float32{1, 0})

	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "What is your current role?"})

	require.NoError(t, err)
	assert.Equal(t, "Skills", answer.Chunks[0].Title)
}

func TestAskGenerationFailureUsesFallbackAnswer(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "some content", []float32{1, 0})

	comp := &fakeCompleter{err: errors.New("model down")}
	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, comp, nil, nil)

	answer, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer.Answer)
	assert.NotZero(t, answer.Confidence)
}

func TestAskNoChunks(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	svc := newQATestService(docs, newFakeChunkStore(), &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	assert.ErrorIs(t, err, ErrNoChunks)
}

func TestAskEmbedFailureIsExternalServiceError(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	emb := &fakeEmbedder{embedErr: map[string]error{"q": errors.New("embedding down")}}
	svc := newQATestService(docs, newFakeChunkStore(), emb, &fakeCompleter{}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"})

	assert.ErrorIs(t, err, ErrExternalService)
}

func TestAskAccessControl(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "private content", []float32{1, 0})
	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 2, DocumentID: doc.ID, Question: "q"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID + 10, Question: "q"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Ask(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAskBySlugRequiresSharedFlag(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "shared content", []float32{1, 0})
	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, &fakeCompleter{answer: "ok"}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{Slug: doc.Slug, Question: "q"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, docs.SetShared(doc.ID, true))
	answer, err := svc.Ask(context.Background(), AskInput{Slug: doc.Slug, Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Answer)
}

func TestStreamAskDeliversChunks(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	chunks := newFakeChunkStore()
	seedChunk(chunks, "Main Content", "Main Content", "content", []float32{1, 0})

	comp := &fakeCompleter{answer: "hello world", chunks: []string{"hello ", "world"}}
	svc := newQATestService(docs, chunks, &fakeEmbedder{vec: []float32{1, 0}}, comp, nil, nil)

	var received []string
	answer, err := svc.StreamAsk(context.Background(), AskInput{UserID: 1, DocumentID: doc.ID, Question: "q"}, func(chunk string) error {
		received = append(received, chunk)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hello ", "world"}, received)
	assert.Equal(t, "hello world", answer.Answer)
}

func TestSummaryMemoized(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	cache := newFakeAnswerCache()
	comp := &fakeCompleter{answer: "generated summary"}
	svc := newQATestService(docs, newFakeChunkStore(), &fakeEmbedder{}, comp, nil, cache)

	summary, err := svc.Summary(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated summary", summary)
	assert.Equal(t, "generated summary", cache.summaries[doc.ID])

	comp.answer = "different on second call"
	summary, err = svc.Summary(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated summary", summary)
}

func TestSummaryFallbackNotCached(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	cache := newFakeAnswerCache()
	svc := newQATestService(docs, newFakeChunkStore(), &fakeEmbedder{}, &fakeCompleter{err: errors.New("down")}, nil, cache)

	summary, err := svc.Summary(context.Background(), 1, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, fallbackSummary, summary)
	assert.Empty(t, cache.summaries)
}

func TestSuggestedQuestionsParsesLines(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, false, false)
	cache := newFakeAnswerCache()
	comp := &fakeCompleter{answer: "1. What is this about?\n- Who wrote it?\n\n  Why does it matter?"}
	svc := newQATestService(docs, newFakeChunkStore(), &fakeEmbedder{}, comp, nil, cache)

	questions, err := svc.SuggestedQuestions(context.Background(), 1, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{"What is this about?", "Who wrote it?", "Why does it matter?"}, questions)
	assert.Equal(t, questions, cache.questions[doc.ID])
}

func TestSuggestedQuestionsResumeFallback(t *testing.T) {
	docs := newFakeDocStore()
	doc := seedDoc(docs, 1, true, false)
	svc := newQATestService(docs, newFakeChunkStore(), &fakeEmbedder{}, &fakeCompleter{err: errors.New("down")}, nil, nil)

	questions, err := svc.SuggestedQuestions(context.Background(), 1, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, defaultResumeQuestions, questions)
	assert.Contains(t, questions, "What is your current role?")
}
