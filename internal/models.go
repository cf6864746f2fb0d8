package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

const (
	// DefaultTitle is the placeholder title assigned to a conversation at
	// creation time, replaced by the first user message.
	DefaultTitle = "New Conversation"

	// TitleMaxLen is the number of characters of the first message kept as
	// the conversation title before an ellipsis is appended.
	TitleMaxLen = 30
)

// Conversation is a titled container for a message log, scoped to one user.
// ID and CreatedAt are immutable; only Title changes after creation.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Message is a single entry in a conversation's append-only log. Sender is
// one of SenderUser, SenderAssistant, SenderSystem. ID is assigned by the
// message log at append time and reflects append order; Timestamp is
// informational only.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Sender    string    `json:"sender" yaml:"sender"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// User is the account record kept by the auth gate. Only ID matters to the
// conversation core; it namespaces all persisted state.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// NewConversation creates a conversation with a fresh ID and placeholder title.
func NewConversation(now time.Time) Conversation {
	return Conversation{
		ID:        "conv_" + uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: now,
	}
}

// NewUserID generates a stable identifier for a new user account.
func NewUserID() string {
	return "user_" + uuid.NewString()
}

// MessageID formats the ID for the seq-th message of a log (1-based).
// Sequence numbers never decrease because individual messages are never
// deleted, so lexicographic order matches append order.
func MessageID(seq int) string {
	return fmt.Sprintf("msg_%06d", seq)
}

// TruncateTitle derives a conversation title from the first user message:
// the first TitleMaxLen characters, with a trailing ellipsis if truncated.
func TruncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxLen {
		return content
	}
	return string(runes[:TitleMaxLen]) + "..."
}

// Transcript pairs a conversation with its full ordered message log. It is
// the unit the exporters operate on.
type Transcript struct {
	Conversation Conversation `json:"conversation" yaml:"conversation"`
	Messages     []Message    `json:"messages" yaml:"messages"`
}

// Preview returns the first line of a message, shortened for list output.
func (m Message) Preview(max int) string {
	line := m.Content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) > max && max > 3 {
		line = string(runes[:max-3]) + "..."
	}
	return line
}
