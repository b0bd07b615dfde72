package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// GetMessagesController returns the full message log for a chat in store
// write order.
type GetMessagesController struct {
	messages *service.MessageService
}

func NewGetMessagesController(messages *service.MessageService) *GetMessagesController {
	return &GetMessagesController{messages: messages}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msgs, err := h.messages.ListMessages(ctx, middleware.UserID(c), chatID)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]gin.H, 0, len(msgs))
		for i := range msgs {
			out = append(out, messageResponse(&msgs[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}
