package chat

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Kind discriminates direct threads from named groups.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Chat is the conversation aggregate.
//
// Invariants enforced here and by the repository layer:
//   - direct chats hold exactly two members and never carry admin fields
//   - MainAdmin is a member and is fixed once the group is created
//   - GroupAdmins is always a subset of Members
type Chat struct {
	ID            string    `db:"id"`
	Kind          Kind      `db:"kind"`
	Name          string    `db:"name"`
	AvatarURL     string    `db:"avatar_url"`
	MainAdminID   string    `db:"main_admin"`
	LatestMsgID   string    `db:"latest_message"`
	MemberIDs     []string  `db:"-"`
	GroupAdminIDs []string  `db:"-"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`

	// Hydrated projections, filled by the application layer.
	Members       []UserSummary `db:"-"`
	LatestMessage *Message      `db:"-"`
}

func (c *Chat) IsGroup() bool { return c != nil && c.Kind == KindGroup }

// HasMember tells whether userID belongs to this chat.
func (c *Chat) HasMember(userID string) bool {
	return c != nil && lo.Contains(c.MemberIDs, userID)
}

// IsAdmin reports whether userID may perform group administration, i.e. it is
// the main admin or one of the group admins.
func (c *Chat) IsAdmin(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	return c.MainAdminID == userID || lo.Contains(c.GroupAdminIDs, userID)
}

// DirectKey builds the canonical identity of a direct chat from its unordered
// user pair. The persistence layer keeps a unique index on it so a concurrent
// create from both sides still yields a single row.
func DirectKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// NewGroupChat validates group creation input and shapes the aggregate.
// The creator becomes main admin and is added to the member set if absent.
func NewGroupChat(name string, creatorID string, memberIDs []string) (*Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("group name is required")
	}
	if creatorID == "" {
		return nil, errValidation("creator id is required")
	}
	members := lo.Uniq(lo.Filter(memberIDs, func(id string, _ int) bool { return id != "" && id != creatorID }))
	if len(members) == 0 {
		return nil, errValidation("at least one other member is required")
	}
	members = append(members, creatorID)
	return &Chat{
		Kind:        KindGroup,
		Name:        name,
		MainAdminID: creatorID,
		MemberIDs:   members,
	}, nil
}
