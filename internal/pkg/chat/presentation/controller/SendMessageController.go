package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// SendMessageController persists a text message and returns it with sender
// and chat context resolved. Live fan-out happens over the realtime channel
// once the client announces the persisted message.
type SendMessageController struct {
	messages *service.MessageService
}

func NewSendMessageController(messages *service.MessageService) *SendMessageController {
	return &SendMessageController{messages: messages}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	ChatID  string `json:"chatId" binding:"required"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content and chatId are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msg, err := h.messages.SendMessage(ctx, middleware.UserID(c), req.ChatID, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, messageResponse(msg))
	}
}
