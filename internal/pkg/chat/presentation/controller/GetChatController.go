package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// GetChatController fetches a single chat the requester belongs to.
type GetChatController struct {
	directory *service.DirectoryService
}

func NewGetChatController(directory *service.DirectoryService) *GetChatController {
	return &GetChatController{directory: directory}
}

func (h *GetChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		chat, err := h.directory.GetChat(ctx, middleware.UserID(c), chatID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatResponse(chat))
	}
}
