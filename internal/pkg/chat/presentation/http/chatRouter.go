package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	assetport "github.com/Ahmed3656/iChat/internal/infrastructure/assets/port"
	cacheport "github.com/Ahmed3656/iChat/internal/infrastructure/cache/port"
	"github.com/Ahmed3656/iChat/internal/infrastructure/config"
	qport "github.com/Ahmed3656/iChat/internal/infrastructure/queue/port"
	"github.com/Ahmed3656/iChat/internal/infrastructure/realtime"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/service"
	repoAdapter "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/adapter"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/controller"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/middleware"
)

// Deps carries the shared infrastructure the chat endpoints are built on.
type Deps struct {
	Pool    *pgxpool.Pool
	Cache   cacheport.Cache
	Assets  assetport.Store
	Queue   qport.Client
	Gateway *realtime.Gateway
	Cfg     *config.Config
	Log     *slog.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes; the websocket endpoint skips the JWT middleware and authenticates
// via its setup frame instead.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	chats := repoAdapter.NewPgChatRepository(d.Pool)
	messages := repoAdapter.NewPgMessageRepository(d.Pool)
	users := repoAdapter.NewPgUserRepository(d.Pool)

	directory := service.NewDirectoryService(chats, users, messages, d.Cache, d.Assets, d.Queue, d.Cfg.ChatListTTL, d.Log)
	messaging := service.NewMessageService(messages, chats, users, d.Assets, d.Cache, d.Cfg.AttachmentLimitBytes, d.Log)

	accessCtl := controller.NewAccessChatController(directory)
	listCtl := controller.NewListChatsController(directory)
	getChatCtl := controller.NewGetChatController(directory)
	createGroupCtl := controller.NewCreateGroupController(directory)
	adminCtl := controller.NewGroupAdminController(directory)
	avatarCtl := controller.NewChangeAvatarController(directory)
	sendCtl := controller.NewSendMessageController(messaging)
	attachCtl := controller.NewAttachmentMessageController(messaging)
	getMsgCtl := controller.NewGetMessagesController(messaging)
	searchCtl := controller.NewSearchUsersController(users)
	socketCtl := controller.NewChatSocketController(d.Gateway, d.Log)

	auth := middleware.RequireUser(d.Cfg.JWTSecret)

	api := g.Group("/api", auth)

	api.POST("/chats", accessCtl.Handle())
	api.GET("/chats", listCtl.Handle())
	api.GET("/chats/:chatId", getChatCtl.Handle())
	api.POST("/chats/creategroup", createGroupCtl.Handle())
	api.PATCH("/chats/renamegroup", adminCtl.Rename())
	api.PATCH("/chats/setadmin", adminCtl.SetAdmin())
	api.PATCH("/chats/removeadmin", adminCtl.RemoveAdmin())
	api.PATCH("/chats/groupadd", adminCtl.AddMember())
	api.PATCH("/chats/groupremove", adminCtl.RemoveMember())
	api.PATCH("/chats/changepfp", avatarCtl.Handle())

	api.POST("/messages", sendCtl.Handle())
	api.POST("/messages/attachment", attachCtl.Handle())
	api.GET("/messages/:chatId", getMsgCtl.Handle())

	api.GET("/users/search", searchCtl.Handle())

	g.GET("/ws", socketCtl.Handle())
}
