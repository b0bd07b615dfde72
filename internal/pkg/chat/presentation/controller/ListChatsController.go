package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// ListChatsController returns the requester's chats, most recent activity
// first, each populated with member summaries and its latest message.
type ListChatsController struct {
	directory *service.DirectoryService
}

func NewListChatsController(directory *service.DirectoryService) *ListChatsController {
	return &ListChatsController{directory: directory}
}

func (h *ListChatsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		chats, err := h.directory.ListChats(ctx, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]gin.H, 0, len(chats))
		for i := range chats {
			out = append(out, chatResponse(&chats[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}
