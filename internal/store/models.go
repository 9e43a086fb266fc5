package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a user's conversation. Rows are append-only and
// ordered by creation time; chat turns always append a user/assistant pair.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
