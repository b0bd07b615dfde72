package chat

import "time"

// User is the durable profile record. The credential hash is owned by the
// identity service and is never loaded into this struct.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	AvatarURL string    `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
}

// UserSummary is the member projection embedded in chat and message payloads.
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"profilePicture,omitempty"`
}

// DeletedUserSummary stands in for a sender or member whose account no longer
// exists. Chats and messages keep referencing the id; display falls back to a
// tombstone instead of breaking.
func DeletedUserSummary(id string) UserSummary {
	return UserSummary{ID: id, Name: "Deleted user"}
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}
