package router

import (
	"github.com/gin-gonic/gin"

	httpHandler "github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts the full API surface on the engine. The chat routes
// live under /api and the websocket endpoint at /ws.
func RegisterRoutes(r *gin.Engine, d httpHandler.Deps) {
	root := r.Group("")
	// Pass the shared infrastructure down to the HTTP layer
	httpHandler.RegisterRoutes(root, d)
}
