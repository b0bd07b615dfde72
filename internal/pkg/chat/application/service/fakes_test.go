package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	cacheport "github.com/Ahmed3656/iChat/internal/infrastructure/cache/port"
	queueport "github.com/Ahmed3656/iChat/internal/infrastructure/queue/port"
	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

// In-memory fakes mirroring the Postgres adapters' error semantics, so the
// services can be exercised without a database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memChats struct {
	mu         sync.Mutex
	nextID     int
	chats      map[string]*chat.Chat
	directKeys map[string]string
}

func newMemChats() *memChats {
	return &memChats{chats: make(map[string]*chat.Chat), directKeys: make(map[string]string)}
}

func (r *memChats) newID() string {
	r.nextID++
	return fmt.Sprintf("chat-%d", r.nextID)
}

func copyChat(c *chat.Chat) *chat.Chat {
	out := *c
	out.MemberIDs = append([]string(nil), c.MemberIDs...)
	out.GroupAdminIDs = append([]string(nil), c.GroupAdminIDs...)
	out.Members = nil
	out.LatestMessage = nil
	return &out
}

func (r *memChats) GetChat(_ context.Context, chatID string) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: chat", chat.ErrNotFound)
	}
	return copyChat(c), nil
}

func (r *memChats) CreateDirectChat(_ context.Context, userA, userB string) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := chat.DirectKey(userA, userB)
	if id, ok := r.directKeys[key]; ok {
		return copyChat(r.chats[id]), nil
	}
	c := &chat.Chat{
		ID:        r.newID(),
		Kind:      chat.KindDirect,
		MemberIDs: []string{userA, userB},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.chats[c.ID] = c
	r.directKeys[key] = c.ID
	return copyChat(c), nil
}

func (r *memChats) CreateGroupChat(_ context.Context, g *chat.Chat) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := copyChat(g)
	c.ID = r.newID()
	c.GroupAdminIDs = []string{g.MainAdminID}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	r.chats[c.ID] = c
	return copyChat(c), nil
}

func (r *memChats) ListChatsByMember(_ context.Context, userID string) ([]chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Chat
	for _, c := range r.chats {
		for _, id := range c.MemberIDs {
			if id == userID {
				out = append(out, *copyChat(c))
				break
			}
		}
	}
	return out, nil
}

func (r *memChats) RenameGroup(_ context.Context, chatID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	c.Name = name
	return nil
}

func (r *memChats) SetAvatar(_ context.Context, chatID, locator string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return "", fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	previous := c.AvatarURL
	c.AvatarURL = locator
	return previous, nil
}

func (r *memChats) AddAdmin(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	for _, id := range c.GroupAdminIDs {
		if id == userID {
			return fmt.Errorf("%w: user %s is already an admin", chat.ErrConflict, userID)
		}
	}
	c.GroupAdminIDs = append(c.GroupAdminIDs, userID)
	return nil
}

func (r *memChats) RemoveAdmin(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	for i, id := range c.GroupAdminIDs {
		if id == userID {
			c.GroupAdminIDs = append(c.GroupAdminIDs[:i], c.GroupAdminIDs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: user %s is not an admin", chat.ErrConflict, userID)
}

func (r *memChats) AddMember(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	for _, id := range c.MemberIDs {
		if id == userID {
			return fmt.Errorf("%w: user %s is already a member", chat.ErrConflict, userID)
		}
	}
	c.MemberIDs = append(c.MemberIDs, userID)
	return nil
}

func (r *memChats) RemoveMember(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	found := false
	for i, id := range c.MemberIDs {
		if id == userID {
			c.MemberIDs = append(c.MemberIDs[:i], c.MemberIDs[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: user %s is not a member", chat.ErrConflict, userID)
	}
	for i, id := range c.GroupAdminIDs {
		if id == userID {
			c.GroupAdminIDs = append(c.GroupAdminIDs[:i], c.GroupAdminIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memChats) SetLatestMessage(_ context.Context, chatID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	c.LatestMsgID = messageID
	return nil
}

func (r *memChats) IsMember(_ context.Context, chatID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return false, nil
	}
	for _, id := range c.MemberIDs {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type memUsers struct {
	users map[string]chat.User
}

func newMemUsers(users ...chat.User) *memUsers {
	m := &memUsers{users: make(map[string]chat.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (r *memUsers) FindByID(_ context.Context, id string) (*chat.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", chat.ErrNotFound, id)
	}
	return &u, nil
}

func (r *memUsers) FindByIDs(_ context.Context, ids []string) (map[string]chat.User, error) {
	out := make(map[string]chat.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *memUsers) Search(_ context.Context, query, excludeID string) ([]chat.User, error) {
	q := strings.ToLower(query)
	var out []chat.User
	for _, u := range r.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

type memMessages struct {
	mu   sync.Mutex
	seq  int64
	msgs []chat.Message
}

func (r *memMessages) SaveMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.Seq = r.seq
	m.ID = fmt.Sprintf("msg-%d", r.seq)
	m.CreatedAt = time.Now()
	r.msgs = append(r.msgs, m)
	return &m, nil
}

func (r *memMessages) ListByChat(_ context.Context, chatID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Message
	for _, m := range r.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessages) FindByIDs(_ context.Context, ids []string) (map[string]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]chat.Message, len(ids))
	for _, m := range r.msgs {
		for _, id := range ids {
			if m.ID == id {
				out[id] = m
			}
		}
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	values  map[string]string
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			n++
		}
		delete(c.values, k)
		c.deleted = append(c.deleted, k)
	}
	return n, nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

type memAssets struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
	removed []string
}

func newMemAssets() *memAssets {
	return &memAssets{objects: make(map[string][]byte)}
}

func (s *memAssets) Put(_ context.Context, key, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("store unreachable")
	}
	s.objects[key] = data
	return nil
}

func (s *memAssets) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *memAssets) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memQueue struct {
	mu    sync.Mutex
	tasks []queueport.Task
}

func (q *memQueue) Enqueue(_ context.Context, t queueport.Task, _ ...queueport.EnqueueOption) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return fmt.Sprintf("task-%d", len(q.tasks)), nil
}

func (q *memQueue) Close() error { return nil }
