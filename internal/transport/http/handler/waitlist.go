package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"documet/internal/app"
	"documet/internal/transport/http/response"
)

type WaitlistHandler struct {
	waitlist *app.WaitlistService
}

type JoinWaitlistRequest struct {
	Email string `json:"email" binding:"required,email,max=128"`
}

func NewWaitlistHandler(waitlist *app.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

func (h *WaitlistHandler) Join(c *gin.Context) {
	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	entry, err := h.waitlist.Join(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "join waitlist failed")
		}
		return
	}

	response.OK(c, gin.H{
		"id":    entry.ID,
		"email": entry.Email,
	})
}
