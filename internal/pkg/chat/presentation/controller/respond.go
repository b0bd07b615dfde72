package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

// requestTimeout bounds each service call behind an endpoint.
const requestTimeout = 5 * time.Second

// respondError maps domain error kinds to stable HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrAuthorization), errors.Is(err, chat.ErrPermanentRole):
		status = http.StatusForbidden
	case errors.Is(err, chat.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrTransport):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func chatResponse(v *chat.Chat) gin.H {
	out := gin.H{
		"id":        v.ID,
		"kind":      v.Kind,
		"users":     v.Members,
		"createdAt": v.CreatedAt,
		"updatedAt": v.UpdatedAt,
	}
	if v.IsGroup() {
		out["chatName"] = v.Name
		out["avatar"] = v.AvatarURL
		out["mainAdmin"] = v.MainAdminID
		out["groupAdmins"] = v.GroupAdminIDs
	}
	if v.LatestMessage != nil {
		out["latestMessage"] = messageResponse(v.LatestMessage)
	}
	return out
}

// messageResponse renders the wire form: content is the serialized tagged
// record for attachments, raw text otherwise; consumers parse-and-fallback.
func messageResponse(m *chat.Message) gin.H {
	out := gin.H{
		"id":        m.ID,
		"chatId":    m.ChatID,
		"content":   m.Content.Encode(),
		"createdAt": m.CreatedAt,
	}
	if m.Sender != nil {
		out["sender"] = m.Sender
	} else {
		out["sender"] = gin.H{"id": m.SenderID}
	}
	if m.Chat != nil {
		out["chat"] = chatResponse(m.Chat)
	}
	return out
}
