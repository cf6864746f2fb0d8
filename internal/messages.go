package internal

import (
	"encoding/json"
	"sync"
)

// MessageLog is the append-only, per-conversation ordered message store.
// Each conversation's log lives under its own key, so appends for different
// conversations never touch each other's state. The log does not check that
// the conversation still exists in the repository; that is the session
// controller's job.
//
// A refused persist does not lose messages: the full sequence is retained in
// memory and stays authoritative for this log handle until a later write
// succeeds. Loss is only possible across a restart.
type MessageLog struct {
	store  Store
	userID string

	mu      sync.Mutex
	pending map[string][]Message
}

// NewMessageLog creates a message log scoped to userID.
func NewMessageLog(store Store, userID string) *MessageLog {
	return &MessageLog{
		store:   store,
		userID:  userID,
		pending: make(map[string][]Message),
	}
}

// Get returns the ordered message sequence for a conversation. A missing log
// is an empty sequence, never an error. When the last persist for the
// conversation was refused, the retained in-memory sequence is returned
// instead of the stale stored one.
func (l *MessageLog) Get(conversationID string) ([]Message, error) {
	if messages, ok := l.retained(conversationID); ok {
		return messages, nil
	}

	data, ok, err := l.store.Read(messagesKey(l.userID, conversationID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Message{}, nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, &ParseError{Key: messagesKey(l.userID, conversationID), Err: err}
	}
	if messages == nil {
		messages = []Message{}
	}

	return messages, nil
}

// Append adds msg to the end of the conversation's log, assigns its ID from
// the append position and persists the full sequence. The log is re-read
// immediately before appending, never cached across a remote call, so an
// append landing after a conversation switch still sees every entry written
// in the meantime. The stored message is returned along with the full
// updated sequence; a failed persist still returns both, retains the
// sequence for later reads, and the next append tries to persist the whole
// sequence again.
func (l *MessageLog) Append(conversationID string, msg Message) (Message, []Message, error) {
	messages, err := l.Get(conversationID)
	if err != nil {
		LogWarn("Failed to load message log for %s, starting fresh: %v", conversationID, err)
		messages = []Message{}
	}

	if msg.ID == "" {
		msg.ID = MessageID(len(messages) + 1)
	}
	messages = append(messages, msg)

	data, err := json.Marshal(messages)
	if err != nil {
		return msg, messages, err
	}
	if err := l.store.Write(messagesKey(l.userID, conversationID), data); err != nil {
		l.retain(conversationID, messages)
		return msg, messages, err
	}

	l.release(conversationID)
	return msg, messages, nil
}

// Clear removes the entire log for a conversation. Only the conversation
// deletion cascade calls this.
func (l *MessageLog) Clear(conversationID string) error {
	l.release(conversationID)
	return l.store.Remove(messagesKey(l.userID, conversationID))
}

func (l *MessageLog) retained(conversationID string) ([]Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	messages, ok := l.pending[conversationID]
	if !ok {
		return nil, false
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out, true
}

func (l *MessageLog) retain(conversationID string, messages []Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	retained := make([]Message, len(messages))
	copy(retained, messages)
	l.pending[conversationID] = retained
}

func (l *MessageLog) release(conversationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, conversationID)
}
