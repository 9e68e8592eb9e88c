package conversation

import (
	"errors"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle is the placeholder title of a conversation nobody named yet.
const DefaultTitle = "Novo chat"

// TempKeyPrefix marks keys generated locally before the backend assigns an id.
const TempKeyPrefix = "temp_"

var (
	// ErrNotFound is returned when a key is not present in the store.
	ErrNotFound = errors.New("conversation: not found")
	// ErrBackendIDAssigned is returned when a conversation already carries a
	// different backend id.
	ErrBackendIDAssigned = errors.New("conversation: backend id already assigned")
	// ErrEmptyBackendID is returned when attaching an empty backend id.
	ErrEmptyBackendID = errors.New("conversation: empty backend id")
	// ErrDuplicateKey is returned when adding a record whose key already exists.
	ErrDuplicateKey = errors.New("conversation: duplicate key")
)

// Message is a single turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is one chat thread as held by the UI.
type Conversation struct {
	Key       string    `json:"key"`
	BackendID string    `json:"backend_id,omitempty"` // empty until the first successful exchange
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// HasBackendID reports whether the backend already persisted this conversation.
func (c Conversation) HasBackendID() bool {
	return c.BackendID != ""
}

// IsTemporary reports whether the key was generated locally.
func (c Conversation) IsTemporary() bool {
	return len(c.Key) > len(TempKeyPrefix) && c.Key[:len(TempKeyPrefix)] == TempKeyPrefix
}

// UserTurns counts the user messages in the conversation.
func (c Conversation) UserTurns() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}
