package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// AccessChatController starts or fetches the direct chat with another user
// (one controller per endpoint).
type AccessChatController struct {
	directory *service.DirectoryService
}

func NewAccessChatController(directory *service.DirectoryService) *AccessChatController {
	return &AccessChatController{directory: directory}
}

type accessChatRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *AccessChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accessChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		chat, err := h.directory.GetOrCreateDirectChat(ctx, middleware.UserID(c), req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatResponse(chat))
	}
}
