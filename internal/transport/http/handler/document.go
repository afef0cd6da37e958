package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"documet/internal/app"
	"documet/internal/pkg/extract"
	"documet/internal/transport/http/response"
)

// 20 MiB upload cap.
const maxUploadBytes = 20 << 20

type DocumentHandler struct {
	documents *app.DocumentService
}

func NewDocumentHandler(documents *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type ShareRequest struct {
	Shared bool `json:"shared"`
}

// Upload accepts a multipart file, extracts its text, and runs the full
// ingestion pipeline. The optional "resume" form field switches on the
// resume-aware segmentation and splitting heuristics.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "open upload failed")
		return
	}
	defer file.Close()

	content, err := extract.Text(file, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "text extraction failed")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}
	resume := c.PostForm("resume") == "true"

	result, err := h.documents.Ingest(c.Request.Context(), app.IngestInput{
		UserID:  userID,
		Title:   title,
		Content: content,
		FileKey: fileHeader.Filename,
		Resume:  resume,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrExternalService):
			response.Error(c, http.StatusBadGateway, response.CodeExternalService, "document processing failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.documents.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, documentID, ok := h.identify(c)
	if !ok {
		return
	}

	doc, err := h.documents.Get(userID, documentID)
	if err != nil {
		h.writeDocumentError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, documentID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), userID, documentID); err != nil {
		h.writeDocumentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": documentID})
}

// Share toggles the public share flag and returns the document with its
// stable share slug.
func (h *DocumentHandler) Share(c *gin.Context) {
	userID, documentID, ok := h.identify(c)
	if !ok {
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.documents.SetShared(userID, documentID, req.Shared)
	if err != nil {
		h.writeDocumentError(c, err, "update share flag failed")
		return
	}
	response.OK(c, gin.H{
		"id":     doc.ID,
		"shared": doc.Shared,
		"slug":   doc.Slug,
	})
}

// Reindex re-embeds any chunks with missing vectors and replays the
// document into the vector index.
func (h *DocumentHandler) Reindex(c *gin.Context) {
	userID, documentID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.documents.RebuildVectors(c.Request.Context(), userID, documentID); err != nil {
		h.writeDocumentError(c, err, "reindex failed")
		return
	}
	response.OK(c, gin.H{"reindexed_document_id": documentID})
}

func (h *DocumentHandler) identify(c *gin.Context) (userID, documentID uint, ok bool) {
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

func (h *DocumentHandler) writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
	case errors.Is(err, app.ErrAccessDenied):
		response.Error(c, http.StatusForbidden, response.CodeAccessDenied, "access denied")
	case errors.Is(err, app.ErrExternalService):
		response.Error(c, http.StatusBadGateway, response.CodeExternalService, "dependent service failed")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
