package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// CreateGroupController creates a named group chat with the requester as
// main admin.
type CreateGroupController struct {
	directory *service.DirectoryService
}

func NewCreateGroupController(directory *service.DirectoryService) *CreateGroupController {
	return &CreateGroupController{directory: directory}
}

type createGroupRequest struct {
	Name  string   `json:"name" binding:"required"`
	Users []string `json:"users" binding:"required"`
}

func (h *CreateGroupController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and users are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		chat, err := h.directory.CreateGroupChat(ctx, middleware.UserID(c), req.Name, req.Users)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, chatResponse(chat))
	}
}
