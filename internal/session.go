package internal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// SessionController orchestrates the chat session for one user: it owns the
// current-conversation selection, runs the send-message protocol and drives
// the render boundary. All collaborators are injected; there is no ambient
// global state.
type SessionController struct {
	userID   string
	repo     *ConversationRepository
	log      *MessageLog
	client   ResponseGenerator
	renderer Renderer
	now      func() time.Time

	mu       sync.Mutex
	current  *Conversation
	inFlight map[string]bool
}

// NewSessionController builds a controller for userID and restores the
// previous session state: if no conversations exist one is created, and if
// the persisted current selection is missing or points at a deleted
// conversation the head of the list is selected instead. The user always
// ends up with exactly one current conversation.
func NewSessionController(store Store, userID string, client ResponseGenerator, renderer Renderer) (*SessionController, error) {
	if renderer == nil {
		renderer = NopRenderer{}
	}

	c := &SessionController{
		userID:   userID,
		repo:     NewConversationRepository(store, userID),
		log:      NewMessageLog(store, userID),
		client:   client,
		renderer: renderer,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}

	conversations, err := c.repo.List()
	if err != nil {
		return nil, err
	}

	if len(conversations) == 0 {
		conv := c.repo.Create()
		c.current = &conv
		if err := c.repo.SetCurrent(conv); err != nil {
			LogWarn("Failed to persist current conversation: %v", err)
		}
	} else {
		current, err := c.repo.Current()
		if err != nil {
			LogWarn("Failed to restore current conversation: %v", err)
		}
		if current == nil || !containsConversation(conversations, current.ID) {
			current = &conversations[0]
			if err := c.repo.SetCurrent(*current); err != nil {
				LogWarn("Failed to persist current conversation: %v", err)
			}
		}
		c.current = current
	}

	c.notifyConversations()
	c.notifyMessages()

	return c, nil
}

// Current returns the current conversation.
func (c *SessionController) Current() Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.current
}

// Conversations returns the ordered conversation list, newest first.
func (c *SessionController) Conversations() ([]Conversation, error) {
	return c.repo.List()
}

// Messages returns the current conversation's ordered message log.
func (c *SessionController) Messages() ([]Message, error) {
	return c.log.Get(c.Current().ID)
}

// NewConversation creates a fresh conversation and makes it current.
func (c *SessionController) NewConversation() Conversation {
	conv := c.repo.Create()
	c.setCurrent(conv)
	c.notifyConversations()
	c.notifyMessages()
	return conv
}

// Select makes an existing conversation current. Unknown ids are a silent
// no-op. Switching never touches any message log, including logs with a
// send still in flight.
func (c *SessionController) Select(id string) error {
	conv, err := c.repo.Get(id)
	if err != nil {
		return err
	}
	if conv == nil {
		LogDebug("Select: conversation %s not found", id)
		return nil
	}

	c.setCurrent(*conv)
	c.notifyConversations()
	c.notifyMessages()
	return nil
}

// Rename retitles a conversation. Unknown ids are a silent no-op. A refused
// store write is absorbed: the in-memory title still changes and stays
// authoritative for the session.
func (c *SessionController) Rename(id, title string) error {
	if err := c.repo.Rename(id, title); err != nil {
		var writeErr *WriteError
		if !errors.As(err, &writeErr) {
			return err
		}
		LogWarn("Failed to persist rename: %v", err)
	}

	c.mu.Lock()
	if c.current.ID == id {
		c.current.Title = title
	}
	c.mu.Unlock()

	c.notifyConversations()
	return nil
}

// Delete removes a conversation and its message log. When the current
// conversation is deleted the head of the remaining list becomes current;
// when nothing remains a fresh conversation is created. The user is never
// left without a current conversation.
func (c *SessionController) Delete(id string) error {
	wasCurrent, err := c.repo.Delete(id)
	if err != nil {
		return err
	}

	if wasCurrent {
		conversations, err := c.repo.List()
		if err != nil {
			return err
		}
		if len(conversations) > 0 {
			c.setCurrent(conversations[0])
		} else {
			conv := c.repo.Create()
			c.setCurrent(conv)
		}
	}

	c.notifyConversations()
	c.notifyMessages()
	return nil
}

// Send runs the send-message protocol for the current conversation:
//
//  1. empty input (after trimming) is a silent no-op
//  2. the user message is appended and persisted before any remote call
//  3. the first message of a conversation becomes its title
//  4. the response client is invoked (the only suspension point)
//  5. the reply, success or absorbed failure, is appended
//  6. the renderer is notified after 2 (optimistic) and after 5 (final)
//
// A send for a conversation that already has one in flight is a no-op; the
// surface is expected to disable input, so getting here is a precondition
// violation, not a queueing request. Sends for different conversations may
// overlap, and each append re-reads its own log, so a background reply can
// never corrupt the foreground conversation.
func (c *SessionController) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	conv := *c.current
	if c.inFlight[conv.ID] {
		c.mu.Unlock()
		LogDebug("Send rejected: conversation %s already has a send in flight", conv.ID)
		return nil
	}
	c.inFlight[conv.ID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, conv.ID)
		c.mu.Unlock()
	}()

	userMsg := Message{
		Content:   text,
		Sender:    SenderUser,
		Timestamp: c.now(),
	}

	// The user's message is durable before the remote call; a failed or
	// abandoned generation never loses it.
	_, messages, err := c.log.Append(conv.ID, userMsg)
	if err != nil {
		LogWarn("Failed to persist user message: %v", err)
	}

	if len(messages) == 1 {
		if err := c.Rename(conv.ID, TruncateTitle(text)); err != nil {
			LogWarn("Failed to set conversation title: %v", err)
		}
	}

	c.notifyMessages()

	reply := c.client.Generate(ctx, text, c.userID, conv.ID)

	if _, _, err := c.log.Append(conv.ID, reply); err != nil {
		LogWarn("Failed to persist reply: %v", err)
	}

	c.notifyMessages()
	return nil
}

// EmitSystemMessage appends an externally produced system message to the
// current conversation's log and notifies the renderer. No remote call is
// made and the first-message title rule never fires; titles come only from
// genuine user input.
func (c *SessionController) EmitSystemMessage(content string) {
	conv := c.Current()

	msg := Message{
		Content:   content,
		Sender:    SenderSystem,
		Timestamp: c.now(),
	}
	if _, _, err := c.log.Append(conv.ID, msg); err != nil {
		LogWarn("Failed to persist system message: %v", err)
	}

	c.notifyMessages()
}

func (c *SessionController) setCurrent(conv Conversation) {
	c.mu.Lock()
	c.current = &conv
	c.mu.Unlock()

	if err := c.repo.SetCurrent(conv); err != nil {
		LogWarn("Failed to persist current conversation: %v", err)
	}
}

// notifyMessages renders the log of whatever conversation is displayed right
// now. A reply landing for a background conversation therefore refreshes the
// foreground view, not the background one.
func (c *SessionController) notifyMessages() {
	conv := c.Current()
	messages, err := c.log.Get(conv.ID)
	if err != nil {
		LogWarn("Failed to load messages for render: %v", err)
		messages = []Message{}
	}
	c.renderer.RenderMessages(conv, messages)
}

func (c *SessionController) notifyConversations() {
	conversations, err := c.repo.List()
	if err != nil {
		LogWarn("Failed to load conversations for render: %v", err)
		return
	}
	c.renderer.RenderConversations(conversations, c.Current().ID)
}

func containsConversation(conversations []Conversation, id string) bool {
	for i := range conversations {
		if conversations[i].ID == id {
			return true
		}
	}
	return false
}
