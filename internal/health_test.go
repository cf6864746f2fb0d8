package internal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zaynchat/zaynchat-cli/testutil"
)

func TestCheckHealth_CleanState(t *testing.T) {
	store := testutil.NewMemStore()
	controller := newTestController(t, store, "reply")

	if err := controller.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	report, err := CheckHealth(store, "u1")
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if !report.OK() {
		t.Errorf("CheckHealth() found problems in a clean state: %v", report.Problems)
	}
	if report.ConversationCount != 1 {
		t.Errorf("ConversationCount = %d, want 1", report.ConversationCount)
	}
	if report.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", report.MessageCount)
	}
}

func TestCheckHealth_DetectsOrphanedLog(t *testing.T) {
	store := testutil.NewMemStore()
	newTestController(t, store)

	// A message log without a conversation: the cascade-delete invariant
	// says this never happens under correct operation.
	if err := store.Write("messages_u1_conv_ghost", []byte(`[{"id":"msg_000001","content":"boo","sender":"user"}]`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	report, err := CheckHealth(store, "u1")
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if report.OK() {
		t.Fatal("CheckHealth() missed the orphaned log")
	}
	if !strings.Contains(report.Problems[0], "conv_ghost") {
		t.Errorf("Problems = %v, want mention of conv_ghost", report.Problems)
	}
}

func TestCheckHealth_DetectsDanglingCurrent(t *testing.T) {
	store := testutil.NewMemStore()
	repo := NewConversationRepository(store, "u1")
	repo.Create()

	ghost := NewConversation(time.Now())
	if err := repo.SetCurrent(ghost); err != nil {
		t.Fatalf("SetCurrent() error = %v", err)
	}

	report, err := CheckHealth(store, "u1")
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if report.OK() {
		t.Fatal("CheckHealth() missed the dangling current conversation")
	}
}

func TestCheckHealth_UnparseableList(t *testing.T) {
	store := testutil.NewMemStore()
	if err := store.Write("conversations_u1", []byte("not json")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	report, err := CheckHealth(store, "u1")
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if report.OK() {
		t.Error("CheckHealth() missed the unparseable conversation list")
	}
}
