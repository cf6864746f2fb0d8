package internal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zaynchat/zaynchat-cli/testutil"
)

// scriptedGenerator replies without a network. Reply can block on Gate to
// simulate an in-flight remote call.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	calls   int

	// Gate, when non-nil, is received from before each reply is returned.
	Gate chan struct{}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt, userID, conversationID string) Message {
	if g.Gate != nil {
		<-g.Gate
	}

	g.mu.Lock()
	reply := "scripted reply"
	if g.calls < len(g.replies) {
		reply = g.replies[g.calls]
	}
	g.calls++
	g.mu.Unlock()

	return Message{Content: reply, Sender: SenderAssistant, Timestamp: time.Now()}
}

// recordingRenderer captures every notify so tests can assert the two-phase
// protocol without a terminal attached.
type recordingRenderer struct {
	mu            sync.Mutex
	messageCalls  [][]Message
	conversations [][]Conversation
}

func (r *recordingRenderer) RenderMessages(conv Conversation, messages []Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]Message, len(messages))
	copy(snapshot, messages)
	r.messageCalls = append(r.messageCalls, snapshot)
}

func (r *recordingRenderer) RenderConversations(conversations []Conversation, currentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]Conversation, len(conversations))
	copy(snapshot, conversations)
	r.conversations = append(r.conversations, snapshot)
}

func (r *recordingRenderer) messageCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messageCalls)
}

func newTestController(t *testing.T, store Store, replies ...string) *SessionController {
	t.Helper()
	controller, err := NewSessionController(store, "u1", &scriptedGenerator{replies: replies}, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}
	return controller
}

func TestSessionController_FreshUserGetsAConversation(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore())

	conversations, err := controller.Conversations()
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("fresh user has %d conversation(s), want 1", len(conversations))
	}
	if controller.Current().ID != conversations[0].ID {
		t.Error("current conversation is not the freshly created one")
	}
	if controller.Current().Title != DefaultTitle {
		t.Errorf("Title = %q, want placeholder %q", controller.Current().Title, DefaultTitle)
	}
}

func TestSessionController_RestoresPersistedSelection(t *testing.T) {
	store := testutil.NewMemStore()

	first := newTestController(t, store)
	created := first.NewConversation()
	older, err := first.Conversations()
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if err := first.Select(older[len(older)-1].ID); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	restored := newTestController(t, store)
	if restored.Current().ID != older[len(older)-1].ID {
		t.Errorf("restored current = %s, want the previously selected %s", restored.Current().ID, older[len(older)-1].ID)
	}
	if restored.Current().ID == created.ID {
		t.Error("restored selection fell back to the newest conversation")
	}
}

func TestSessionController_SendAppendsUserThenAssistant(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore(), "Hi there")

	if err := controller.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("log has %d message(s), want 2", len(messages))
	}
	if messages[0].Sender != SenderUser || messages[0].Content != "Hello" {
		t.Errorf("first entry = %+v, want the user message", messages[0])
	}
	if messages[1].Sender != SenderAssistant || messages[1].Content != "Hi there" {
		t.Errorf("second entry = %+v, want the assistant reply", messages[1])
	}
	if controller.Current().Title != "Hello" {
		t.Errorf("Title = %q, want %q", controller.Current().Title, "Hello")
	}
}

func TestSessionController_SendEmptyInputIsNoop(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore())

	for _, input := range []string{"", "   ", "\n\t "} {
		if err := controller.Send(context.Background(), input); err != nil {
			t.Fatalf("Send(%q) error = %v", input, err)
		}
	}

	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("log has %d message(s) after empty sends, want 0", len(messages))
	}
	conversations, _ := controller.Conversations()
	if len(conversations) != 1 {
		t.Errorf("conversation list changed by empty sends: %d entries", len(conversations))
	}
}

func TestSessionController_FirstSendSetsTitleOnce(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore(), "r1", "r2")

	long := strings.Repeat("x", 40)
	if err := controller.Send(context.Background(), long); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	wantTitle := strings.Repeat("x", 30) + "..."
	if controller.Current().Title != wantTitle {
		t.Errorf("Title = %q, want %q", controller.Current().Title, wantTitle)
	}

	if err := controller.Send(context.Background(), "second message"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if controller.Current().Title != wantTitle {
		t.Errorf("Title changed by a later send: %q", controller.Current().Title)
	}
}

func TestSessionController_RemoteFailureKeepsUserMessage(t *testing.T) {
	store := testutil.NewMemStore()
	// A client pointed at a dead endpoint absorbs the failure into ErrorReply.
	client := NewResponseClient("http://127.0.0.1:1/", 100*time.Millisecond)
	controller, err := NewSessionController(store, "u1", client, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}

	if err := controller.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("log has %d message(s), want 2", len(messages))
	}
	if messages[0].Sender != SenderUser || messages[0].Content != "Hello" {
		t.Errorf("user message lost on remote failure: %+v", messages[0])
	}
	if messages[1].Sender != SenderAssistant || messages[1].Content != ErrorReply {
		t.Errorf("second entry = %+v, want absorbed error reply", messages[1])
	}
}

func TestSessionController_TwoPhaseNotify(t *testing.T) {
	renderer := &recordingRenderer{}
	controller, err := NewSessionController(testutil.NewMemStore(), "u1", &scriptedGenerator{replies: []string{"pong"}}, renderer)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}

	before := renderer.messageCallCount()
	if err := controller.Send(context.Background(), "ping"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	calls := renderer.messageCalls[before:]
	if len(calls) != 2 {
		t.Fatalf("Send() produced %d message notifications, want 2 (optimistic + final)", len(calls))
	}
	if len(calls[0]) != 1 || calls[0][0].Sender != SenderUser {
		t.Errorf("optimistic notify carried %+v, want just the user message", calls[0])
	}
	if len(calls[1]) != 2 || calls[1][1].Sender != SenderAssistant {
		t.Errorf("final notify carried %+v, want user + assistant", calls[1])
	}
}

func TestSessionController_DeleteCurrentSelectsHead(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore())

	first := controller.Current()
	second := controller.NewConversation()
	third := controller.NewConversation()

	if err := controller.Delete(third.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// List is newest-first: second is now the head.
	if controller.Current().ID != second.ID {
		t.Errorf("current = %s, want new head %s", controller.Current().ID, second.ID)
	}

	conversations, _ := controller.Conversations()
	if len(conversations) != 2 {
		t.Fatalf("list has %d conversation(s), want 2", len(conversations))
	}
	if conversations[0].ID != second.ID || conversations[1].ID != first.ID {
		t.Errorf("list order = [%s, %s], want [%s, %s]", conversations[0].ID, conversations[1].ID, second.ID, first.ID)
	}
}

func TestSessionController_DeletedLogIsUnreachable(t *testing.T) {
	store := testutil.NewMemStore()
	controller := newTestController(t, store, "reply")

	doomed := controller.Current()
	if err := controller.Send(context.Background(), "to be deleted"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	controller.NewConversation()

	if err := controller.Delete(doomed.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	messages, err := NewMessageLog(store, "u1").Get(doomed.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("deleted conversation's log still has %d message(s)", len(messages))
	}
}

func TestSessionController_DeleteLastCreatesFresh(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore())

	only := controller.Current()
	if err := controller.Delete(only.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	conversations, err := controller.Conversations()
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("list has %d conversation(s) after deleting the last one, want exactly 1", len(conversations))
	}
	if conversations[0].ID == only.ID {
		t.Error("the deleted conversation came back")
	}
	if controller.Current().ID != conversations[0].ID {
		t.Error("current selection does not point at the fresh conversation")
	}
	if controller.Current().Title != DefaultTitle {
		t.Errorf("fresh conversation title = %q, want placeholder", controller.Current().Title)
	}
}

func TestSessionController_SelectUnknownIsNoop(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore())
	current := controller.Current()

	if err := controller.Select("conv_missing"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if controller.Current().ID != current.ID {
		t.Error("Select() of unknown id changed the current conversation")
	}
}

func TestSessionController_SendWhileInFlightIsRejected(t *testing.T) {
	gate := make(chan struct{})
	generator := &scriptedGenerator{replies: []string{"slow reply"}, Gate: gate}
	controller, err := NewSessionController(testutil.NewMemStore(), "u1", generator, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = controller.Send(context.Background(), "first")
	}()

	// Wait for the first send to reach its suspension point, then try again.
	deadline := time.After(2 * time.Second)
	for {
		messages, _ := controller.Messages()
		if len(messages) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first send never appended the user message")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := controller.Send(context.Background(), "second while busy"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	gate <- struct{}{}
	<-done

	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("log has %d message(s), want 2 (second send must be a no-op)", len(messages))
	}
	if messages[0].Content != "first" {
		t.Errorf("first entry = %q", messages[0].Content)
	}
}

func TestSessionController_SwitchDuringBackgroundSend(t *testing.T) {
	gate := make(chan struct{})
	generator := &scriptedGenerator{replies: []string{"background reply"}, Gate: gate}
	store := testutil.NewMemStore()
	controller, err := NewSessionController(store, "u1", generator, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}

	background := controller.Current()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = controller.Send(context.Background(), "sent from background")
	}()

	deadline := time.After(2 * time.Second)
	for {
		messages, _ := NewMessageLog(store, "u1").Get(background.ID)
		if len(messages) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background send never appended the user message")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Switch to a new conversation while the first send is suspended.
	foreground := controller.NewConversation()
	gate <- struct{}{}
	<-done

	backgroundLog, err := NewMessageLog(store, "u1").Get(background.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(backgroundLog) != 2 {
		t.Fatalf("background log has %d message(s), want 2", len(backgroundLog))
	}
	if backgroundLog[1].Content != "background reply" {
		t.Errorf("background reply = %q", backgroundLog[1].Content)
	}

	foregroundLog, err := NewMessageLog(store, "u1").Get(foreground.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(foregroundLog) != 0 {
		t.Errorf("foreground log has %d message(s), want 0 (reply leaked across conversations)", len(foregroundLog))
	}
}

func TestSessionController_EmitSystemMessage(t *testing.T) {
	controller := newTestController(t, testutil.NewMemStore(), "real reply")

	controller.EmitSystemMessage(UploadMessage("notes.pdf"))

	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("log has %d message(s), want 1", len(messages))
	}
	if messages[0].Sender != SenderSystem {
		t.Errorf("Sender = %q, want %q", messages[0].Sender, SenderSystem)
	}
	if controller.Current().Title != DefaultTitle {
		t.Errorf("system message changed the title to %q", controller.Current().Title)
	}

	// The next user message is entry 2, so it still must not set the title...
	if err := controller.Send(context.Background(), "question about the PDF"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if controller.Current().Title != DefaultTitle {
		t.Errorf("title was derived from a non-first message: %q", controller.Current().Title)
	}
}

func TestSessionController_RenameKeepsStateConsistent(t *testing.T) {
	store := testutil.NewMemStore()
	controller := newTestController(t, store)

	if err := controller.Rename(controller.Current().ID, "My project"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if controller.Current().Title != "My project" {
		t.Errorf("in-memory title = %q", controller.Current().Title)
	}

	repo := NewConversationRepository(store, "u1")
	current, err := repo.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current == nil || current.Title != "My project" {
		t.Errorf("persisted current copy = %+v, want renamed title", current)
	}
}

func TestSessionController_UserIsolation(t *testing.T) {
	store := testutil.NewMemStore()

	controllerU1, err := NewSessionController(store, "u1", &scriptedGenerator{replies: []string{"to u1"}}, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}
	controllerU2, err := NewSessionController(store, "u2", &scriptedGenerator{}, nil)
	if err != nil {
		t.Fatalf("NewSessionController() error = %v", err)
	}

	if err := controllerU1.Send(context.Background(), "u1's secret"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	u2Conversations, _ := controllerU2.Conversations()
	for _, conv := range u2Conversations {
		if conv.ID == controllerU1.Current().ID {
			t.Error("u2 lists u1's conversation")
		}
	}
	u2Messages, err := controllerU2.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(u2Messages) != 0 {
		t.Errorf("u2 observes %d message(s), want 0", len(u2Messages))
	}
}

func TestSessionController_PersistenceFailureKeepsSessionState(t *testing.T) {
	store := testutil.NewMemStore()
	controller := newTestController(t, store, "still replied")

	store.FailWrites(&WriteError{Key: "any"})

	if err := controller.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send() error = %v, persistence failures must not surface", err)
	}

	// The current conversation object still reflects the send in memory.
	if controller.Current().Title != "Hello" {
		t.Errorf("in-memory title = %q, want %q", controller.Current().Title, "Hello")
	}

	// The full exchange stays readable for the session even though nothing
	// reached the store.
	messages, err := controller.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("in-session log has %d message(s) after refused persists, want 2", len(messages))
	}
	if messages[0].Sender != SenderUser || messages[0].Content != "Hello" {
		t.Errorf("first entry = %+v, want the user message", messages[0])
	}
	if messages[1].Sender != SenderAssistant || messages[1].Content != "still replied" {
		t.Errorf("second entry = %+v, want the assistant reply", messages[1])
	}

	// Loss is only possible across a restart: a fresh session sees the store.
	fresh := NewMessageLog(store, "u1")
	persisted, err := fresh.Get(controller.Current().ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("store holds %d message(s), want 0 (writes were refused)", len(persisted))
	}
}
