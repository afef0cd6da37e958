package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"documet/internal/app"
	"documet/internal/transport/http/middleware"
	"documet/internal/transport/http/response"
)

type QAHandler struct {
	qa *app.QAService
}

type AskRequest struct {
	DocumentID uint   `json:"document_id" binding:"required,gt=0"`
	Question   string `json:"question" binding:"required"`
	TopK       int    `json:"top_k" binding:"omitempty,gt=0,lte=50"`
}

func NewQAHandler(qa *app.QAService) *QAHandler {
	return &QAHandler{qa: qa}
}

func (h *QAHandler) Ask(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.qa.Ask(c.Request.Context(), app.AskInput{
		UserID:     userID,
		DocumentID: req.DocumentID,
		Question:   req.Question,
		TopK:       req.TopK,
	})
	if err != nil {
		writeAskError(c, err)
		return
	}
	response.OK(c, answer)
}

// AskStream delivers the generated answer over SSE, then emits the full
// answer payload in the final done event.
func (h *QAHandler) AskStream(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	answer, err := h.qa.StreamAsk(c.Request.Context(), app.AskInput{
		UserID:     userID,
		DocumentID: req.DocumentID,
		Question:   req.Question,
		TopK:       req.TopK,
	}, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + chunk + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if _, writeErr := c.Writer.Write([]byte(fmt.Sprintf("event: error\ndata: %s\n\n", sanitizeSSE(err.Error())))); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(answer.Answer) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *QAHandler) Summary(c *gin.Context) {
	userID, documentID, ok := identifyDocument(c)
	if !ok {
		return
	}

	summary, err := h.qa.Summary(c.Request.Context(), userID, documentID)
	if err != nil {
		writeAskError(c, err)
		return
	}
	response.OK(c, gin.H{"summary": summary})
}

func (h *QAHandler) Questions(c *gin.Context) {
	userID, documentID, ok := identifyDocument(c)
	if !ok {
		return
	}

	questions, err := h.qa.SuggestedQuestions(c.Request.Context(), userID, documentID)
	if err != nil {
		writeAskError(c, err)
		return
	}
	response.OK(c, gin.H{"questions": questions})
}

func identifyDocument(c *gin.Context) (userID, documentID uint, ok bool) {
	userID, tokenOK := getUserIDFromContext(c)
	if !tokenOK {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return 0, 0, false
	}

	documentID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || documentID64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return 0, 0, false
	}
	return userID, uint(documentID64), true
}

func writeAskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
	case errors.Is(err, app.ErrAccessDenied):
		response.Error(c, http.StatusForbidden, response.CodeAccessDenied, "access denied")
	case errors.Is(err, app.ErrNoChunks):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeBadRequest, "document has no indexed content")
	case errors.Is(err, app.ErrExternalService):
		response.Error(c, http.StatusBadGateway, response.CodeExternalService, "dependent service failed")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "answer failed")
	}
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
