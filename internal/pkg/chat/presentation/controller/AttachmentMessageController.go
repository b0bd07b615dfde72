package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// AttachmentMessageController accepts a multipart upload and persists a
// message carrying the stored asset's descriptor.
type AttachmentMessageController struct {
	messages *service.MessageService
}

func NewAttachmentMessageController(messages *service.MessageService) *AttachmentMessageController {
	return &AttachmentMessageController{messages: messages}
}

func (h *AttachmentMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.PostForm("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file could not be read"})
			return
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file could not be read"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msg, err := h.messages.SendAttachmentMessage(ctx, middleware.UserID(c), chatID, data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, messageResponse(msg))
	}
}
