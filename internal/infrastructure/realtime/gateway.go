package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// DefaultTypingDebounce is how long a typing indicator survives without a
// refreshing signal before the gateway resolves it to stopped.
const DefaultTypingDebounce = 3 * time.Second

// Gateway coordinates websocket sessions, per-user personal channels and
// per-chat rooms. A personal channel is addressed by user id and covers every
// device that user has registered; rooms carry typing presence. The gateway
// owns only this ephemeral state; authoritative data lives in the store, so
// events for offline users are simply dropped.
type Gateway struct {
	mu           sync.RWMutex
	log          *slog.Logger
	debounce     time.Duration
	sessions     map[string]*Connection            // sessionID -> connection
	channels     map[string]map[string]*Connection // userID -> sessionID -> connection
	rooms        map[string]map[string]*Connection // chatID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of chatIDs
	typing       map[string]*time.Timer            // chatID+"/"+userID -> debounce timer
}

// NewGateway constructs an initialized Gateway. A non-positive debounce falls
// back to the default window.
func NewGateway(debounce time.Duration, log *slog.Logger) *Gateway {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	return &Gateway{
		log:          log,
		debounce:     debounce,
		sessions:     make(map[string]*Connection),
		channels:     make(map[string]map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Register binds a connection to its user's personal channel and starts its
// write loop. Multiple devices for one user register independently and share
// the channel.
func (g *Gateway) Register(conn *Connection) {
	g.mu.Lock()
	g.sessions[conn.ID] = conn
	channel := g.channels[conn.UserID]
	if channel == nil {
		channel = make(map[string]*Connection)
		g.channels[conn.UserID] = channel
	}
	channel[conn.ID] = conn
	g.sessionRooms[conn.ID] = make(map[string]struct{})
	g.mu.Unlock()

	conn.Start()

	g.log.Debug("session registered", slog.String("user_id", conn.UserID), slog.String("session_id", conn.ID))
}

// Unregister removes a connection and drops all its room memberships.
func (g *Gateway) Unregister(conn *Connection) {
	g.mu.Lock()
	g.unregisterLocked(conn.ID)
	g.mu.Unlock()
}

// JoinChatRoom adds the connection to a per-chat room. This confers no
// authorization; the services already checked membership before any event
// reaches the gateway.
func (g *Gateway) JoinChatRoom(chatID string, conn *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[conn.ID]; !ok {
		return
	}

	room := g.rooms[chatID]
	if room == nil {
		room = make(map[string]*Connection)
		g.rooms[chatID] = room
	}
	room[conn.ID] = conn

	memberships := g.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		g.sessionRooms[conn.ID] = memberships
	}
	memberships[chatID] = struct{}{}
}

// LeaveChatRoom removes the connection from the chat room.
func (g *Gateway) LeaveChatRoom(chatID string, conn *Connection) {
	g.mu.Lock()
	g.leaveLocked(chatID, conn.ID)
	g.mu.Unlock()
}

// Online reports whether the user currently holds any live connection.
func (g *Gateway) Online(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.channels[userID]) > 0
}

// NotifyUser delivers payload to every device on the user's personal channel.
// Returns true if at least one device accepted it.
func (g *Gateway) NotifyUser(userID string, payload []byte) bool {
	g.mu.RLock()
	channel := g.channels[userID]
	conns := make([]*Connection, 0, len(channel))
	for _, conn := range channel {
		conns = append(conns, conn)
	}
	g.mu.RUnlock()

	delivered := false
	for _, conn := range conns {
		if conn.Send(payload) == nil {
			delivered = true
		}
	}
	return delivered
}

// DeliverMessage fans a persisted message out to the personal channel of
// every chat member except the sender. Members without a live connection are
// skipped; they catch up on their next history fetch. Returns the number of
// members reached.
func (g *Gateway) DeliverMessage(memberIDs []string, senderID string, payload []byte) int {
	reached := 0
	for _, userID := range memberIDs {
		if userID == senderID {
			continue
		}
		if g.NotifyUser(userID, payload) {
			reached++
		}
	}
	return reached
}

// TypingStarted relays a typing indicator to the other room participants and
// arms the debounce timer: without a refreshing signal the indicator
// auto-resolves to stopped, so it can never stick.
func (g *Gateway) TypingStarted(chatID, userID string) {
	g.broadcastRoom(chatID, userID, typingPayload("typing", chatID, userID))

	key := chatID + "/" + userID
	g.mu.Lock()
	if g.typing == nil {
		g.typing = make(map[string]*time.Timer)
	}
	if t, ok := g.typing[key]; ok {
		t.Stop()
	}
	g.typing[key] = time.AfterFunc(g.debounce, func() {
		g.resolveTyping(chatID, userID)
	})
	g.mu.Unlock()
}

// TypingStopped relays an explicit stop signal and disarms the debounce.
func (g *Gateway) TypingStopped(chatID, userID string) {
	key := chatID + "/" + userID
	g.mu.Lock()
	if t, ok := g.typing[key]; ok {
		t.Stop()
		delete(g.typing, key)
	}
	g.mu.Unlock()

	g.broadcastRoom(chatID, userID, typingPayload("stop typing", chatID, userID))
}

// Close terminates all tracked connections and clears gateway state.
func (g *Gateway) Close() {
	g.mu.Lock()
	sessions := make([]*Connection, 0, len(g.sessions))
	for _, conn := range g.sessions {
		sessions = append(sessions, conn)
	}
	for _, t := range g.typing {
		t.Stop()
	}
	g.sessions = make(map[string]*Connection)
	g.channels = make(map[string]map[string]*Connection)
	g.rooms = make(map[string]map[string]*Connection)
	g.sessionRooms = make(map[string]map[string]struct{})
	g.typing = nil
	g.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "gateway shutdown")
	}
}

func (g *Gateway) resolveTyping(chatID, userID string) {
	key := chatID + "/" + userID
	g.mu.Lock()
	delete(g.typing, key)
	g.mu.Unlock()

	g.broadcastRoom(chatID, userID, typingPayload("stop typing", chatID, userID))
}

// broadcastRoom writes payload to all room members except the origin user.
func (g *Gateway) broadcastRoom(chatID, excludeUserID string, payload []byte) {
	g.mu.RLock()
	room := g.rooms[chatID]
	conns := make([]*Connection, 0, len(room))
	for _, conn := range room {
		if conn.UserID == excludeUserID {
			continue
		}
		conns = append(conns, conn)
	}
	g.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Send(payload)
	}
}

func (g *Gateway) unregisterLocked(sessionID string) {
	conn, ok := g.sessions[sessionID]
	if !ok {
		return
	}
	delete(g.sessions, sessionID)

	if channel, ok := g.channels[conn.UserID]; ok {
		delete(channel, sessionID)
		if len(channel) == 0 {
			delete(g.channels, conn.UserID)
		}
	}

	for chatID := range g.sessionRooms[sessionID] {
		g.leaveLocked(chatID, sessionID)
	}
	delete(g.sessionRooms, sessionID)
}

func (g *Gateway) leaveLocked(chatID string, sessionID string) {
	room := g.rooms[chatID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(g.rooms, chatID)
	}
	if memberships, ok := g.sessionRooms[sessionID]; ok {
		delete(memberships, chatID)
	}
}

func typingPayload(event, chatID, userID string) []byte {
	payload, _ := json.Marshal(struct {
		Event  string `json:"event"`
		ChatID string `json:"chatId"`
		UserID string `json:"userId"`
	}{Event: event, ChatID: chatID, UserID: userID})
	return payload
}
