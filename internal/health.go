package internal

import (
	"fmt"
	"strings"
)

// HealthReport is the result of checking one user's persisted state against
// the store invariants.
type HealthReport struct {
	UserID            string
	ConversationCount int
	MessageCount      int
	Problems          []string
}

// OK reports whether no invariant violations were found.
func (r *HealthReport) OK() bool {
	return len(r.Problems) == 0
}

// CheckHealth verifies a user's persisted state:
//   - the conversation list parses
//   - every conversation's message log parses
//   - the persisted current conversation is a member of the list
//   - no orphaned message logs exist (every messages_ key maps back to a
//     live conversation; deletes cascade, so an orphan means a broken one)
func CheckHealth(store Store, userID string) (*HealthReport, error) {
	report := &HealthReport{UserID: userID}

	repo := NewConversationRepository(store, userID)
	log := NewMessageLog(store, userID)

	conversations, err := repo.List()
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("conversation list unreadable: %v", err))
		return report, nil
	}
	report.ConversationCount = len(conversations)

	known := make(map[string]bool, len(conversations))
	for _, conv := range conversations {
		known[conv.ID] = true

		messages, err := log.Get(conv.ID)
		if err != nil {
			report.Problems = append(report.Problems,
				fmt.Sprintf("message log for %s unreadable: %v", conv.ID, err))
			continue
		}
		report.MessageCount += len(messages)
	}

	current, err := repo.Current()
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("current conversation unreadable: %v", err))
	} else if current != nil && !known[current.ID] {
		report.Problems = append(report.Problems,
			fmt.Sprintf("current conversation %s is not in the conversation list", current.ID))
	}

	keys, err := store.Keys(messagesKeyPrefix(userID))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		conversationID := strings.TrimPrefix(key, messagesKeyPrefix(userID))
		if !known[conversationID] {
			report.Problems = append(report.Problems,
				fmt.Sprintf("orphaned message log for deleted conversation %s", conversationID))
		}
	}

	return report, nil
}
