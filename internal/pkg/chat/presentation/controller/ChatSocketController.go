package controller

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Ahmed3656/iChat/internal/infrastructure/realtime"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The channel is best-effort: events reaching offline users are
// dropped, clients rebuild state from the REST surface on reconnect.
type ChatSocketController struct {
	gateway *realtime.Gateway
	log     *slog.Logger
}

func NewChatSocketController(gateway *realtime.Gateway, log *slog.Logger) *ChatSocketController {
	return &ChatSocketController{gateway: gateway, log: log}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when needed.
		return true
	},
}

// inboundEvent is the envelope every client frame shares. Fields beyond the
// event tag are populated per event kind; unknown or malformed frames are
// dropped without a reply.
type inboundEvent struct {
	Event   string          `json:"event"`
	UserID  string          `json:"userId,omitempty"`
	ChatID  string          `json:"chatId,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// receivedEnvelope wraps a fanned-out message so recipients can distinguish
// it from typing traffic on the same socket.
type receivedEnvelope struct {
	Event   string          `json:"event"`
	Message json.RawMessage `json:"message"`
}

// messageRouting is the slice of a message payload the gateway needs for
// fan-out: who sent it and who belongs to the chat.
type messageRouting struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Chat struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	} `json:"chat"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects. The first useful frame must be a setup event; until
// it arrives the session has no personal channel and every other event is
// ignored.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		var conn *realtime.Connection
		defer func() {
			if conn != nil {
				ctl.gateway.Unregister(conn)
				conn.Close(websocket.CloseNormalClosure, "session closed")
				return
			}
			_ = ws.Close()
		}()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame inboundEvent
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}

			if conn == nil {
				if frame.Event == "setup" && frame.UserID != "" {
					conn = realtime.NewConnection(frame.UserID, ws)
					ctl.gateway.Register(conn)
					_ = conn.Send([]byte(`{"event":"connected"}`))
				}
				continue
			}

			switch frame.Event {
			case "join chat":
				if frame.ChatID != "" {
					ctl.gateway.JoinChatRoom(frame.ChatID, conn)
				}
			case "leave chat":
				if frame.ChatID != "" {
					ctl.gateway.LeaveChatRoom(frame.ChatID, conn)
				}
			case "typing":
				if frame.ChatID != "" {
					ctl.gateway.TypingStarted(frame.ChatID, conn.UserID)
				}
			case "stop typing":
				if frame.ChatID != "" {
					ctl.gateway.TypingStopped(frame.ChatID, conn.UserID)
				}
			case "new message":
				ctl.fanOut(conn, frame.Message)
			}
		}
	}
}

// fanOut relays a freshly persisted message to the personal channels of the
// other chat members. The client already stored the message over REST, so a
// routing payload we cannot parse is dropped rather than bounced.
func (ctl *ChatSocketController) fanOut(conn *realtime.Connection, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var routing messageRouting
	if err := json.Unmarshal(raw, &routing); err != nil || routing.Sender.ID == "" || len(routing.Chat.Users) == 0 {
		ctl.log.Debug("dropping unroutable message frame", slog.String("user_id", conn.UserID))
		return
	}

	payload, err := json.Marshal(receivedEnvelope{Event: "message received", Message: raw})
	if err != nil {
		return
	}

	memberIDs := make([]string, 0, len(routing.Chat.Users))
	for _, u := range routing.Chat.Users {
		memberIDs = append(memberIDs, u.ID)
	}
	ctl.gateway.DeliverMessage(memberIDs, routing.Sender.ID, payload)
}
