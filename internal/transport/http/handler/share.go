package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"documet/internal/app"
	"documet/internal/transport/http/response"
)

// ShareHandler serves documents over their public share slug. No auth:
// possession of the slug is the credential, and the service rejects
// documents whose share flag is off.
type ShareHandler struct {
	documents *app.DocumentService
	qa        *app.QAService
}

type SharedAskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k" binding:"omitempty,gt=0,lte=50"`
}

func NewShareHandler(documents *app.DocumentService, qa *app.QAService) *ShareHandler {
	return &ShareHandler{documents: documents, qa: qa}
}

func (h *ShareHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	doc, err := h.documents.GetShared(slug)
	if err != nil {
		writeAskError(c, err)
		return
	}

	response.OK(c, gin.H{
		"title":      doc.Title,
		"slug":       doc.Slug,
		"resume":     doc.Resume,
		"created_at": doc.CreatedAt,
	})
}

func (h *ShareHandler) Ask(c *gin.Context) {
	var req SharedAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.qa.Ask(c.Request.Context(), app.AskInput{
		Slug:     c.Param("slug"),
		Question: req.Question,
		TopK:     req.TopK,
	})
	if err != nil {
		writeAskError(c, err)
		return
	}
	response.OK(c, answer)
}
