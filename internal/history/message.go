package history

import (
	"time"

	"github.com/google/uuid"
)

// Roles a message can carry. They mirror the usual chat-completion roles but
// are store-level concepts: adapters persist them verbatim.
const (
	RoleHuman  = "human"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// Message is a single conversation turn. Messages are immutable once stored;
// stores never rewrite or reorder them.
type Message struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage builds a message with a fresh id and the current timestamp.
func NewMessage(sessionID, role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
