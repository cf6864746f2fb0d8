package internal

import (
	"encoding/json"
	"time"
)

// ConversationRepository owns the ordered conversation list for one user.
// The list is stored as a single JSON array under conversations_<userID>,
// newest-first. Every operation re-reads the persisted list before mutating
// it so concurrent in-flight sends never clobber each other's writes.
type ConversationRepository struct {
	store  Store
	userID string
	now    func() time.Time
}

// NewConversationRepository creates a repository scoped to userID.
func NewConversationRepository(store Store, userID string) *ConversationRepository {
	return &ConversationRepository{store: store, userID: userID, now: time.Now}
}

// List returns the persisted conversations, newest-first. A missing or
// unreadable list is an empty list.
func (r *ConversationRepository) List() ([]Conversation, error) {
	data, ok, err := r.store.Read(conversationsKey(r.userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Conversation{}, nil
	}

	var conversations []Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, &ParseError{Key: conversationsKey(r.userID), Err: err}
	}
	if conversations == nil {
		conversations = []Conversation{}
	}

	return conversations, nil
}

// Create generates a conversation with the placeholder title, inserts it at
// the head of the list and persists. The conversation is returned even when
// the persist fails; the write failure is logged and the session carries on
// with its in-memory state.
func (r *ConversationRepository) Create() Conversation {
	conversation := NewConversation(r.now())

	conversations, err := r.List()
	if err != nil {
		LogWarn("Failed to load conversation list, starting fresh: %v", err)
		conversations = []Conversation{}
	}

	conversations = append([]Conversation{conversation}, conversations...)
	if err := r.save(conversations); err != nil {
		LogWarn("Failed to persist conversation list: %v", err)
	}

	return conversation
}

// Rename sets the title of the conversation with the given id. Unknown ids
// are a silent no-op. The persisted current-conversation copy is updated too
// when it is the one being renamed.
func (r *ConversationRepository) Rename(id, title string) error {
	conversations, err := r.List()
	if err != nil {
		return err
	}

	found := false
	for i := range conversations {
		if conversations[i].ID == id {
			conversations[i].Title = title
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	if err := r.save(conversations); err != nil {
		return err
	}

	// Keep the persisted current-conversation copy consistent.
	current, err := r.Current()
	if err == nil && current != nil && current.ID == id {
		current.Title = title
		if err := r.SetCurrent(*current); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes the conversation with the given id from the list and
// cascades deletion of its message log. It reports whether the deleted
// conversation was the current one, i.e. whether the caller must select a
// new current conversation. Unknown ids are a silent no-op.
func (r *ConversationRepository) Delete(id string) (wasCurrent bool, err error) {
	conversations, err := r.List()
	if err != nil {
		return false, err
	}

	index := -1
	for i := range conversations {
		if conversations[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return false, nil
	}

	conversations = append(conversations[:index], conversations[index+1:]...)
	if err := r.save(conversations); err != nil {
		return false, err
	}

	// Cascade: the message log goes with the conversation, atomically from
	// the caller's point of view.
	log := NewMessageLog(r.store, r.userID)
	if err := log.Clear(id); err != nil {
		LogWarn("Failed to remove message log for %s: %v", id, err)
	}

	current, err := r.Current()
	if err != nil {
		return false, err
	}
	if current != nil && current.ID == id {
		if err := r.store.Remove(currentConversationKey(r.userID)); err != nil {
			LogWarn("Failed to clear current conversation: %v", err)
		}
		return true, nil
	}

	return false, nil
}

// Get returns the conversation with the given id, or nil if absent.
func (r *ConversationRepository) Get(id string) (*Conversation, error) {
	conversations, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		if conversations[i].ID == id {
			return &conversations[i], nil
		}
	}
	return nil, nil
}

// Current returns the persisted current-conversation selection, or nil when
// none is recorded.
func (r *ConversationRepository) Current() (*Conversation, error) {
	data, ok, err := r.store.Read(currentConversationKey(r.userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var conversation Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, &ParseError{Key: currentConversationKey(r.userID), Err: err}
	}

	return &conversation, nil
}

// SetCurrent persists conversation as the current selection.
func (r *ConversationRepository) SetCurrent(conversation Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return err
	}
	return r.store.Write(currentConversationKey(r.userID), data)
}

func (r *ConversationRepository) save(conversations []Conversation) error {
	data, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	return r.store.Write(conversationsKey(r.userID), data)
}
