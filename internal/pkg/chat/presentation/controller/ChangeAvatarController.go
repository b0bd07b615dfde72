package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// ChangeAvatarController replaces a group's avatar from a multipart upload.
type ChangeAvatarController struct {
	directory *service.DirectoryService
}

func NewChangeAvatarController(directory *service.DirectoryService) *ChangeAvatarController {
	return &ChangeAvatarController{directory: directory}
}

func (h *ChangeAvatarController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.PostForm("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image could not be read"})
			return
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image could not be read"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		updated, err := h.directory.ChangeGroupAvatar(ctx, middleware.UserID(c), chatID, data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatResponse(updated))
	}
}
