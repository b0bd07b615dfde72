package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// GroupAdminController serves the admin-gated group mutations. The rename
// endpoint carries {chatId, chatName}; the membership and role endpoints all
// share the {chatId, userId} shape, so they live together here.
type GroupAdminController struct {
	directory *service.DirectoryService
}

func NewGroupAdminController(directory *service.DirectoryService) *GroupAdminController {
	return &GroupAdminController{directory: directory}
}

type renameGroupRequest struct {
	ChatID   string `json:"chatId" binding:"required"`
	ChatName string `json:"chatName" binding:"required"`
}

type groupTargetRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

func (h *GroupAdminController) Rename() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req renameGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and chatName are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		updated, err := h.directory.RenameGroup(ctx, middleware.UserID(c), req.ChatID, req.ChatName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatResponse(updated))
	}
}

func (h *GroupAdminController) SetAdmin() gin.HandlerFunc {
	return h.targetOp(h.directory.SetAdmin)
}

func (h *GroupAdminController) RemoveAdmin() gin.HandlerFunc {
	return h.targetOp(h.directory.RemoveAdmin)
}

func (h *GroupAdminController) AddMember() gin.HandlerFunc {
	return h.targetOp(h.directory.AddMember)
}

func (h *GroupAdminController) RemoveMember() gin.HandlerFunc {
	return h.targetOp(h.directory.RemoveMember)
}

func (h *GroupAdminController) targetOp(op func(ctx context.Context, requesterID, chatID, targetID string) (*chat.Chat, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req groupTargetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and userId are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		updated, err := op(ctx, middleware.UserID(c), req.ChatID, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatResponse(updated))
	}
}
