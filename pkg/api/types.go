package api

import "fmt"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single conversation turn. Content is usually a string but
// may be a structured payload (for example a list of content parts), which
// is forwarded to the backend untouched.
type Message struct {
	Role    Role `json:"role"`
	Content any  `json:"content"`
}

// NewMessage creates a text message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Conversation is an ordered sequence of messages, oldest first.
type Conversation []Message

// Validate checks that every message carries a known role.
func (c Conversation) Validate() error {
	for i, m := range c {
		if !m.Role.Valid() {
			return fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
	}
	return nil
}
