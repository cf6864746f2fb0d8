package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer is the notify boundary between the session controller and
// whatever surface displays the chat. Implementations receive the full
// ordered state each time and must not panic; display failures are theirs
// to swallow.
type Renderer interface {
	RenderMessages(conversation Conversation, messages []Message)
	RenderConversations(conversations []Conversation, currentID string)
}

// NopRenderer discards all notifications. Used where no surface is attached.
type NopRenderer struct{}

func (NopRenderer) RenderMessages(Conversation, []Message)     {}
func (NopRenderer) RenderConversations([]Conversation, string) {}

var (
	convHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	systemLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true).
				Padding(0, 1)

	messageBodyStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	activeConvStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	convIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// TermRenderer renders the conversation to a terminal.
type TermRenderer struct {
	out io.Writer
}

// NewTermRenderer creates a renderer writing to out.
func NewTermRenderer(out io.Writer) *TermRenderer {
	return &TermRenderer{out: out}
}

// RenderMessages prints the full transcript of the displayed conversation.
func (r *TermRenderer) RenderMessages(conversation Conversation, messages []Message) {
	fmt.Fprintln(r.out, convHeaderStyle.Render("💬 "+conversation.Title))
	fmt.Fprintln(r.out)

	if len(messages) == 0 {
		fmt.Fprintln(r.out, messageBodyStyle.Render("How can I help you today? Type a message to start a conversation."))
		return
	}

	for _, msg := range messages {
		fmt.Fprintln(r.out, labelFor(msg.Sender))
		fmt.Fprintln(r.out, messageBodyStyle.Render(msg.Content))
	}
}

// RenderConversations prints the sidebar list, newest first.
func (r *TermRenderer) RenderConversations(conversations []Conversation, currentID string) {
	fmt.Fprintln(r.out, convHeaderStyle.Render(fmt.Sprintf("📋 %d conversation(s)", len(conversations))))

	for _, conv := range conversations {
		marker := "  "
		title := conv.Title
		if conv.ID == currentID {
			marker = activeConvStyle.Render("> ")
			title = activeConvStyle.Render(title)
		}
		fmt.Fprintf(r.out, "%s%s %s\n", marker, title, convIDStyle.Render(shortID(conv.ID)))
	}
}

func labelFor(sender string) string {
	switch sender {
	case SenderUser:
		return userLabelStyle.Render("You")
	case SenderSystem:
		return systemLabelStyle.Render("System")
	default:
		return assistantLabelStyle.Render("Assistant")
	}
}

// shortID trims a conversation id for display, keeping the conv_ prefix and
// the first chunk of the uuid.
func shortID(id string) string {
	trimmed := strings.TrimPrefix(id, "conv_")
	if len(trimmed) > 8 {
		trimmed = trimmed[:8]
	}
	return trimmed
}
