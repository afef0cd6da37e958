package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"documet/internal/ai"
	"documet/internal/model"
	"documet/internal/segment"
	"documet/internal/vectorstore"
)

const (
	defaultTopK            = 5
	defaultVectorOverfetch = 10
	maxSummaryInput        = 12000

	fallbackAnswer  = "I couldn't generate an answer for that question right now. Please try again."
	fallbackSummary = "A summary is not available for this document right now."
)

// currentRoleRe matches the "current role" question intent that forces the
// most recent experience entry to rank 1.
var currentRoleRe = regexp.MustCompile(`(?i)\b(current|present)\s+(role|position|job|title|responsibilit(?:y|ies)|employer|work)\b|\bwork(?:ing)?\s+(?:now|currently|at\s+the\s+moment)\b`)

var defaultResumeQuestions = []string{
	"What is your current role?",
	"What are your key skills?",
	"Tell me about your work experience.",
	"What is your educational background?",
	"What projects have you worked on?",
}

var defaultDocumentQuestions = []string{
	"What is this document about?",
	"What are the key points?",
	"Can you summarize this document?",
}

// QAOptions tune retrieval and generation.
type QAOptions struct {
	TopK               int
	VectorOverfetch    int
	AnswerMaxTokens    int
	SummaryMaxTokens   int
	QATemperature      float32
	SummaryTemperature float32
	EmbedTimeout       time.Duration
}

func (o *QAOptions) fillDefaults() {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.VectorOverfetch <= 0 {
		o.VectorOverfetch = defaultVectorOverfetch
	}
	if o.AnswerMaxTokens <= 0 {
		o.AnswerMaxTokens = 512
	}
	if o.SummaryMaxTokens <= 0 {
		o.SummaryMaxTokens = 300
	}
	if o.QATemperature <= 0 {
		o.QATemperature = 0.7
	}
	if o.SummaryTemperature <= 0 {
		o.SummaryTemperature = 0.2
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = defaultEmbedTimeout
	}
}

// QAService runs the read path: embed the question, rank the document's
// chunks by similarity, and compose a grounded answer. Retrieval prefers
// the vector index and falls back to in-process cosine scoring over the
// relational copy.
type QAService struct {
	docRepo   DocumentStore
	chunkRepo SubsectionStore
	embedder  Embedder
	completer Completer
	vectors   vectorstore.Store
	cache     AnswerCache
	opts      QAOptions
	log       *slog.Logger
}

func NewQAService(
	docRepo DocumentStore,
	chunkRepo SubsectionStore,
	embedder Embedder,
	completer Completer,
	vectors vectorstore.Store,
	cache AnswerCache,
	opts QAOptions,
	log *slog.Logger,
) *QAService {
	opts.fillDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &QAService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		completer: completer,
		vectors:   vectors,
		cache:     cache,
		opts:      opts,
		log:       log,
	}
}

type AskInput struct {
	UserID     uint
	DocumentID uint
	Slug       string // public share path when set
	Question   string
	TopK       int
}

// ScoredChunk is one retrieved chunk with its similarity score.
type ScoredChunk struct {
	SubsectionID uint    `json:"subsection_id"`
	SectionName  string  `json:"section_name"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Score        float32 `json:"score"`
}

type Answer struct {
	Answer     string        `json:"answer"`
	Confidence float32       `json:"confidence"`
	Sections   []string      `json:"sections"`
	Chunks     []ScoredChunk `json:"chunks"`
}

// Ask retrieves the top chunks for the question and composes a grounded
// answer. Generation failures degrade to a fixed fallback answer instead of
// erroring the request.
func (s *QAService) Ask(ctx context.Context, input AskInput) (*Answer, error) {
	doc, question, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	top, err := s.retrieve(ctx, doc, question, s.topK(input.TopK))
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, ErrNoChunks
	}

	answer, err := s.completer.Complete(ctx, s.buildMessages(doc, top, question), ai.CompletionOptions{
		MaxTokens:   s.opts.AnswerMaxTokens,
		Temperature: s.opts.QATemperature,
	})
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		if err != nil {
			s.log.Error("answer generation failed, using fallback", "document_id", doc.ID, "err", err)
		}
		answer = fallbackAnswer
	}

	return s.buildAnswer(answer, top), nil
}

// StreamAsk is Ask with incremental delivery of the generated answer.
func (s *QAService) StreamAsk(ctx context.Context, input AskInput, onChunk func(string) error) (*Answer, error) {
	doc, question, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	top, err := s.retrieve(ctx, doc, question, s.topK(input.TopK))
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, ErrNoChunks
	}

	full, err := s.completer.StreamComplete(ctx, s.buildMessages(doc, top, question), ai.CompletionOptions{
		MaxTokens:   s.opts.AnswerMaxTokens,
		Temperature: s.opts.QATemperature,
	}, onChunk)
	full = strings.TrimSpace(full)
	if err != nil || full == "" {
		if err != nil {
			s.log.Error("streamed answer generation failed, using fallback", "document_id", doc.ID, "err", err)
		}
		full = fallbackAnswer
	}

	return s.buildAnswer(full, top), nil
}

// Summary returns a short generated summary of the document, memoized in
// the answer cache.
func (s *QAService) Summary(ctx context.Context, userID, documentID uint) (string, error) {
	doc, err := s.resolve(userID, documentID)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if cached, hit, cacheErr := s.cache.GetSummary(ctx, doc.ID); cacheErr == nil && hit {
			return cached, nil
		}
	}

	persona := "You are a helpful document assistant."
	task := "Summarize the following document in a short paragraph."
	if doc.Resume {
		persona = "You are a career assistant summarizing a candidate's resume."
		task = "Summarize this candidate's background in a short paragraph."
	}
	summary, err := s.completer.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: persona},
		{Role: "user", Content: task + "\n\n" + truncate(doc.FullText, maxSummaryInput)},
	}, ai.CompletionOptions{
		MaxTokens:   s.opts.SummaryMaxTokens,
		Temperature: s.opts.SummaryTemperature,
	})
	summary = strings.TrimSpace(summary)
	if err != nil || summary == "" {
		if err != nil {
			s.log.Error("summary generation failed, using fallback", "document_id", doc.ID, "err", err)
		}
		return fallbackSummary, nil
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, doc.ID, summary); err != nil {
			s.log.Warn("summary cache set failed", "document_id", doc.ID, "err", err)
		}
	}
	return summary, nil
}

// SuggestedQuestions generates questions a reader might ask about the
// document, memoized in the answer cache. Falls back to a fixed set when
// generation fails.
func (s *QAService) SuggestedQuestions(ctx context.Context, userID, documentID uint) ([]string, error) {
	doc, err := s.resolve(userID, documentID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, hit, cacheErr := s.cache.GetQuestions(ctx, doc.ID); cacheErr == nil && hit {
			return cached, nil
		}
	}

	prompt := "Suggest 5 short questions a reader might ask about the following document. Return one question per line, no numbering.\n\n"
	if doc.Resume {
		prompt = "Suggest 5 short questions an interviewer might ask the candidate described in this resume. Return one question per line, no numbering.\n\n"
	}
	raw, err := s.completer.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are a helpful document assistant."},
		{Role: "user", Content: prompt + truncate(doc.FullText, maxSummaryInput)},
	}, ai.CompletionOptions{
		MaxTokens:   s.opts.SummaryMaxTokens,
		Temperature: s.opts.QATemperature,
	})

	questions := parseQuestionLines(raw)
	if err != nil || len(questions) == 0 {
		if err != nil {
			s.log.Error("question generation failed, using fallback set", "document_id", doc.ID, "err", err)
		}
		if doc.Resume {
			return defaultResumeQuestions, nil
		}
		return defaultDocumentQuestions, nil
	}

	if s.cache != nil {
		if err := s.cache.SetQuestions(ctx, doc.ID, questions); err != nil {
			s.log.Warn("questions cache set failed", "document_id", doc.ID, "err", err)
		}
	}
	return questions, nil
}

func (s *QAService) prepare(input AskInput) (*model.Document, string, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, "", ErrInvalidInput
	}
	var (
		doc *model.Document
		err error
	)
	if input.Slug != "" {
		doc, err = s.resolveSlug(input.Slug)
	} else {
		if input.UserID == 0 || input.DocumentID == 0 {
			return nil, "", ErrInvalidInput
		}
		doc, err = s.resolve(input.UserID, input.DocumentID)
	}
	if err != nil {
		return nil, "", err
	}
	return doc, question, nil
}

// retrieve embeds the question once, ranks candidates, applies the current
// role boost for resume documents, and truncates to k.
func (s *QAService) retrieve(ctx context.Context, doc *model.Document, question string, k int) ([]ScoredChunk, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	queryEmb, err := s.embedder.Embed(embedCtx, question)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %v", ErrExternalService, err)
	}

	candidates := s.vectorCandidates(ctx, doc, queryEmb)
	if candidates == nil {
		candidates, err = s.cosineCandidates(doc.ID, queryEmb)
		if err != nil {
			return nil, err
		}
	}

	if doc.Resume && currentRoleRe.MatchString(question) {
		candidates = s.boostCurrentRole(doc.ID, queryEmb, candidates)
	}

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// vectorCandidates queries the external index with over-fetch and filters to
// the target document. Returns nil when the vector path is unavailable or
// empty so the caller falls back to cosine scoring.
func (s *QAService) vectorCandidates(ctx context.Context, doc *model.Document, queryEmb []float32) []ScoredChunk {
	if s.vectors == nil {
		return nil
	}
	matches, err := s.vectors.Query(ctx, vectorNamespace(doc.UserID), queryEmb, s.opts.VectorOverfetch)
	if err != nil {
		s.log.Warn("vector query failed, falling back to cosine scoring", "document_id", doc.ID, "err", err)
		return nil
	}
	var candidates []ScoredChunk
	for _, m := range matches {
		// The namespace is shared across the user's documents, so the
		// over-fetched results must be filtered down.
		if m.Metadata.DocumentID != doc.ID {
			continue
		}
		candidates = append(candidates, ScoredChunk{
			SubsectionID: m.Metadata.SubsectionID,
			SectionName:  m.Metadata.SectionName,
			Title:        m.Metadata.Title,
			Content:      m.Metadata.Text,
			Score:        m.Score,
		})
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates
}

// cosineCandidates scores every subsection of the document in process.
// Malformed embeddings parse to nil and score zero instead of erroring the
// request. Ties keep their original relative order.
func (s *QAService) cosineCandidates(documentID uint, queryEmb []float32) ([]ScoredChunk, error) {
	chunks, err := s.chunkRepo.ListByDocumentID(documentID)
	if err != nil {
		return nil, err
	}
	candidates := make([]ScoredChunk, len(chunks))
	for i := range chunks {
		candidates[i] = ScoredChunk{
			SubsectionID: chunks[i].ID,
			SectionName:  chunks[i].SectionName,
			Title:        chunks[i].Title,
			Content:      chunks[i].Content,
			Score:        cosineSimilarity(queryEmb, chunks[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// boostCurrentRole forces the most recently indexed experience-family chunk
// to rank 1, overriding pure similarity for this one intent class.
func (s *QAService) boostCurrentRole(documentID uint, queryEmb []float32, candidates []ScoredChunk) []ScoredChunk {
	best := -1
	for i, c := range candidates {
		if segment.KindOf(c.SectionName) != segment.KindExperience {
			continue
		}
		if best == -1 || c.SubsectionID > candidates[best].SubsectionID {
			best = i
		}
	}
	if best > 0 {
		boosted := candidates[best]
		candidates = append(candidates[:best], candidates[best+1:]...)
		return append([]ScoredChunk{boosted}, candidates...)
	}
	if best == 0 {
		return candidates
	}

	// No experience entry among the candidates; look one up in the
	// relational copy so the boost still applies on the vector path.
	chunks, err := s.chunkRepo.ListByDocumentID(documentID)
	if err != nil {
		return candidates
	}
	var latest *model.RetrievedChunk
	for i := range chunks {
		if segment.KindOf(chunks[i].SectionName) != segment.KindExperience {
			continue
		}
		if latest == nil || chunks[i].ID > latest.ID {
			latest = &chunks[i]
		}
	}
	if latest == nil {
		return candidates
	}
	return append([]ScoredChunk{{
		SubsectionID: latest.ID,
		SectionName:  latest.SectionName,
		Title:        latest.Title,
		Content:      latest.Content,
		Score:        cosineSimilarity(queryEmb, latest.EmbeddingVector()),
	}}, candidates...)
}

func (s *QAService) buildMessages(doc *model.Document, top []ScoredChunk, question string) []ai.ChatMessage {
	persona := "You are a helpful document assistant. Answer the user's question based only on the provided document excerpts. If the excerpts do not contain enough information, say so. Do not make up facts."
	if doc.Resume {
		persona = "You are the candidate described in this resume. Answer questions about your background in the first person, based only on the resume excerpts provided. If the excerpts do not contain the answer, say so."
	}

	var sb strings.Builder
	sb.WriteString("Context:\n\n")
	for _, c := range top {
		sb.WriteString(c.SectionName)
		sb.WriteString(": ")
		sb.WriteString(c.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)

	return []ai.ChatMessage{
		{Role: "system", Content: persona},
		{Role: "user", Content: sb.String()},
	}
}

func (s *QAService) buildAnswer(text string, top []ScoredChunk) *Answer {
	confidence := float32(0)
	if len(top) > 0 {
		confidence = top[0].Score
	}
	var sections []string
	seen := map[string]bool{}
	for _, c := range top {
		if !seen[c.SectionName] {
			seen[c.SectionName] = true
			sections = append(sections, c.SectionName)
		}
	}
	return &Answer{
		Answer:     text,
		Confidence: confidence,
		Sections:   sections,
		Chunks:     top,
	}
}

func (s *QAService) topK(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.opts.TopK
}

func (s *QAService) resolve(userID, documentID uint) (*model.Document, error) {
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

func (s *QAService) resolveSlug(slug string) (*model.Document, error) {
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

// cosineSimilarity is NaN safe: empty, mismatched, or zero-norm vectors
// score zero.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func parseQuestionLines(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. )")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
