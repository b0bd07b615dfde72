package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	repository "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/port"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// SearchUsersController matches users by name or email substring, excluding
// the requester, for starting new chats.
type SearchUsersController struct {
	users repository.UserRepository
}

func NewSearchUsersController(users repository.UserRepository) *SearchUsersController {
	return &SearchUsersController{users: users}
}

func (h *SearchUsersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusOK, []gin.H{})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		users, err := h.users.Search(ctx, query, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]chat.UserSummary, 0, len(users))
		for _, u := range users {
			out = append(out, u.Summary())
		}
		c.JSON(http.StatusOK, out)
	}
}
