package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// connect registers a ws-less connection; the buffered send channel stands in
// for the wire.
func connect(g *Gateway, userID string) *Connection {
	conn := NewConnection(userID, nil)
	g.Register(conn)
	return conn
}

func drain(conn *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-conn.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func waitFrame(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case msg := <-conn.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestDeliverMessageSkipsSenderAndOffline(t *testing.T) {
	g := NewGateway(0, testLogger())
	defer g.Close()

	sender := connect(g, "alice")
	peer := connect(g, "bob")
	// "carol" is a member but holds no connection.

	payload := []byte(`{"event":"message received"}`)
	reached := g.DeliverMessage([]string{"alice", "bob", "carol"}, "alice", payload)

	require.Equal(t, 1, reached)
	require.Equal(t, payload, waitFrame(t, peer))
	require.Empty(t, drain(sender))
}

func TestDeliverMessageReachesEveryDevice(t *testing.T) {
	g := NewGateway(0, testLogger())
	defer g.Close()

	phone := connect(g, "bob")
	laptop := connect(g, "bob")

	payload := []byte(`{"event":"message received"}`)
	reached := g.DeliverMessage([]string{"alice", "bob"}, "alice", payload)

	require.Equal(t, 1, reached, "one member reached, however many devices")
	require.Equal(t, payload, waitFrame(t, phone))
	require.Equal(t, payload, waitFrame(t, laptop))
}

func TestTypingRelayExcludesOrigin(t *testing.T) {
	g := NewGateway(time.Hour, testLogger())
	defer g.Close()

	typist := connect(g, "alice")
	watcher := connect(g, "bob")
	g.JoinChatRoom("c1", typist)
	g.JoinChatRoom("c1", watcher)

	g.TypingStarted("c1", "alice")

	var evt struct {
		Event  string `json:"event"`
		ChatID string `json:"chatId"`
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(waitFrame(t, watcher), &evt))
	require.Equal(t, "typing", evt.Event)
	require.Equal(t, "c1", evt.ChatID)
	require.Equal(t, "alice", evt.UserID)
	require.Empty(t, drain(typist))

	g.TypingStopped("c1", "alice")
	require.NoError(t, json.Unmarshal(waitFrame(t, watcher), &evt))
	require.Equal(t, "stop typing", evt.Event)
}

func TestTypingAutoResolvesAfterDebounce(t *testing.T) {
	g := NewGateway(20*time.Millisecond, testLogger())
	defer g.Close()

	typist := connect(g, "alice")
	watcher := connect(g, "bob")
	g.JoinChatRoom("c1", typist)
	g.JoinChatRoom("c1", watcher)

	g.TypingStarted("c1", "alice")
	_ = waitFrame(t, watcher) // the typing frame

	// No stop signal: the debounce resolves the indicator on its own.
	var evt struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(waitFrame(t, watcher), &evt))
	require.Equal(t, "stop typing", evt.Event)
}

func TestTypingRefreshExtendsDebounce(t *testing.T) {
	g := NewGateway(40*time.Millisecond, testLogger())
	defer g.Close()

	typist := connect(g, "alice")
	watcher := connect(g, "bob")
	g.JoinChatRoom("c1", typist)
	g.JoinChatRoom("c1", watcher)

	g.TypingStarted("c1", "alice")
	_ = waitFrame(t, watcher)
	time.Sleep(25 * time.Millisecond)
	g.TypingStarted("c1", "alice") // refresh before expiry
	_ = waitFrame(t, watcher)
	time.Sleep(25 * time.Millisecond)

	// The first timer was disarmed; only one auto-stop arrives, later.
	require.Empty(t, drain(watcher))
	var evt struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(waitFrame(t, watcher), &evt))
	require.Equal(t, "stop typing", evt.Event)
}

func TestLeaveChatRoomStopsTypingRelay(t *testing.T) {
	g := NewGateway(time.Hour, testLogger())
	defer g.Close()

	typist := connect(g, "alice")
	watcher := connect(g, "bob")
	g.JoinChatRoom("c1", typist)
	g.JoinChatRoom("c1", watcher)

	g.TypingStarted("c1", "alice")
	_ = waitFrame(t, watcher)

	g.LeaveChatRoom("c1", watcher)
	g.TypingStarted("c1", "alice")
	require.Empty(t, drain(watcher))

	// Leaving a room does not touch the personal channel.
	require.Equal(t, 1, g.DeliverMessage([]string{"alice", "bob"}, "alice", []byte("x")))
}

func TestUnregisterDropsRoomsAndChannel(t *testing.T) {
	g := NewGateway(0, testLogger())
	defer g.Close()

	conn := connect(g, "alice")
	g.JoinChatRoom("c1", conn)
	require.True(t, g.Online("alice"))

	g.Unregister(conn)
	require.False(t, g.Online("alice"))

	watcher := connect(g, "bob")
	g.JoinChatRoom("c1", watcher)
	g.TypingStarted("c1", "bob")
	// Nothing is routed to the unregistered session.
	require.Empty(t, drain(conn))

	require.Equal(t, 0, g.DeliverMessage([]string{"alice", "bob"}, "bob", []byte("x")))
}

func TestJoinRequiresRegisteredSession(t *testing.T) {
	g := NewGateway(0, testLogger())
	defer g.Close()

	stray := NewConnection("alice", nil)
	g.JoinChatRoom("c1", stray)

	member := connect(g, "bob")
	g.JoinChatRoom("c1", member)
	g.TypingStarted("c1", "bob")
	require.Empty(t, drain(stray))
}
