package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/codelane/agentdeck/internal/protocol"
)

func turns(n int) []protocol.Turn {
	out := make([]protocol.Turn, n)
	for i := range out {
		out[i] = protocol.Turn{
			ID:        fmt.Sprintf("m%d", i),
			Role:      "assistant",
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: time.Now().UTC(),
		}
	}
	return out
}

func TestApplySnapshotCreatesSession(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{
		ID: "s1", Name: "fix bug", Cwd: "/work", State: "busy", ExecutionMode: ModeLocal,
		Messages: turns(2),
	})

	sess, ok := reg.Session("s1")
	if !ok {
		t.Fatal("session s1 not registered")
	}
	if sess.Name != "fix bug" || sess.Cwd != "/work" {
		t.Errorf("metadata not applied: %+v", sess)
	}
	if sess.State != StateBusy {
		t.Errorf("expected busy, got %s", sess.State)
	}
	if len(sess.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(sess.Messages))
	}
}

func TestApplySnapshotUpsertsByID(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", Name: "first", State: "idle"})
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", Name: "renamed", State: "busy"})

	if got := len(reg.SessionIDs()); got != 1 {
		t.Fatalf("expected 1 session after replayed list, got %d", got)
	}
	sess, _ := reg.Session("s1")
	if sess.Name != "renamed" || sess.State != StateBusy {
		t.Errorf("upsert did not apply latest metadata: %+v", sess)
	}
}

func TestReconciliationKeepsLongerTranscript(t *testing.T) {
	tests := []struct {
		name        string
		local, push int
		want        int
	}{
		{"both empty", 0, 0, 0},
		{"server ahead", 1, 4, 4},
		{"local ahead after server restart", 5, 2, 5},
		{"equal lengths keep local", 3, 3, 3},
		{"fresh session", 0, 7, 7},
		{"empty push", 6, 0, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "idle", Messages: turns(tt.local)})
			local, _ := reg.Session("s1")

			reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "idle", Messages: turns(tt.push)})

			sess, _ := reg.Session("s1")
			if len(sess.Messages) != tt.want {
				t.Fatalf("transcript length = %d, want max(%d, %d) = %d",
					len(sess.Messages), tt.local, tt.push, tt.want)
			}
			if tt.local >= tt.push && tt.local > 0 {
				// The locally-known history must survive untouched.
				for i, turn := range local.Messages {
					if sess.Messages[i].ID != turn.ID {
						t.Fatalf("local message %d replaced by push", i)
					}
				}
			}
		})
	}
}

func TestDrainOnePerIdleTransition(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "busy"})

	reg.EnqueueInput("s1", "a")
	reg.EnqueueInput("s1", "b")

	// First idle transition: "a" drains.
	reg.SetSessionState("s1", StateIdle)
	turn, ok := reg.DrainOne("s1")
	if !ok {
		t.Fatal("expected a drained message")
	}
	if turn.Content != "a" {
		t.Errorf("drained %q, want FIFO head \"a\"", turn.Content)
	}

	sess, _ := reg.Session("s1")
	if len(sess.Queued) != 1 || sess.Queued[0].Content != "b" {
		t.Errorf("queue after first drain = %+v, want [b]", sess.Queued)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Content != "a" {
		t.Errorf("transcript missing optimistic echo: %+v", sess.Messages)
	}
	if sess.Messages[0].Role != "user" {
		t.Errorf("echoed turn role = %q, want user", sess.Messages[0].Role)
	}

	// Second idle transition: "b" drains, queue empties.
	turn, ok = reg.DrainOne("s1")
	if !ok || turn.Content != "b" {
		t.Fatalf("second drain got (%q, %v), want (b, true)", turn.Content, ok)
	}
	sess, _ = reg.Session("s1")
	if len(sess.Queued) != 0 {
		t.Errorf("queue not empty after second drain: %+v", sess.Queued)
	}

	// Nothing left: a further idle transition is a no-op.
	if _, ok := reg.DrainOne("s1"); ok {
		t.Error("drain on empty queue should report nothing to send")
	}
}

func TestDrainReusesQueuedID(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "busy"})

	qm, ok := reg.EnqueueInput("s1", "hello")
	if !ok {
		t.Fatal("enqueue failed")
	}
	turn, ok := reg.DrainOne("s1")
	if !ok {
		t.Fatal("drain failed")
	}
	if turn.ID != qm.ID {
		t.Errorf("echo id %q differs from queued id %q", turn.ID, qm.ID)
	}
}

func TestMarkAllDisconnected(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "busy", Messages: turns(3)})
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s2", State: "waiting"})
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s3", State: "error"})

	reg.MarkAllDisconnected()

	for _, sess := range reg.Sessions() {
		if sess.State != StateDisconnected {
			t.Errorf("session %s state = %s, want disconnected", sess.ID, sess.State)
		}
	}
	// History survives the disconnect.
	sess, _ := reg.Session("s1")
	if len(sess.Messages) != 3 {
		t.Errorf("transcript truncated on disconnect: %d messages", len(sess.Messages))
	}
}

func TestCloseSessionRetainsRecord(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "idle", Messages: turns(2)})

	reg.CloseSession("s1")

	sess, ok := reg.Session("s1")
	if !ok {
		t.Fatal("closed session must remain visible")
	}
	if sess.State != StateDisconnected {
		t.Errorf("closed session state = %s, want disconnected", sess.State)
	}
	if len(sess.Messages) != 2 {
		t.Errorf("final transcript lost: %d messages", len(sess.Messages))
	}
}

func TestSeedStoredStartsDisconnected(t *testing.T) {
	reg := NewRegistry()
	reg.SeedStored("s1", "old work", "/work", ModeRemote)

	sess, ok := reg.Session("s1")
	if !ok {
		t.Fatal("seeded session missing")
	}
	if sess.State != StateDisconnected {
		t.Errorf("seeded state = %s, want disconnected", sess.State)
	}
	if sess.ExecutionMode != ModeRemote {
		t.Errorf("seeded mode = %s, want remote", sess.ExecutionMode)
	}

	// Seeding never clobbers live state.
	reg.SetSessionState("s1", StateBusy)
	reg.SeedStored("s1", "other", "", "")
	sess, _ = reg.Session("s1")
	if sess.State != StateBusy || sess.Name != "old work" {
		t.Errorf("re-seed overwrote live record: %+v", sess)
	}
}

func TestStateTransitionsFromPeer(t *testing.T) {
	reg := NewRegistry()
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "idle"})

	for _, st := range []SessionState{StateBusy, StateWaiting, StateBusy, StateIdle, StateError} {
		if !reg.SetSessionState("s1", st) {
			t.Fatalf("transition to %s rejected", st)
		}
		sess, _ := reg.Session("s1")
		if sess.State != st {
			t.Fatalf("state = %s, want %s", sess.State, st)
		}
	}

	if reg.SetSessionState("ghost", StateIdle) {
		t.Error("transition for unknown session should be rejected")
	}
}

func TestParseSessionState(t *testing.T) {
	for _, valid := range []string{"idle", "busy", "waiting", "error", "disconnected"} {
		if _, ok := ParseSessionState(valid); !ok {
			t.Errorf("ParseSessionState(%q) rejected a valid state", valid)
		}
	}
	if _, ok := ParseSessionState("sleeping"); ok {
		t.Error("ParseSessionState accepted an unknown state")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	reg := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, _ := reg.Subscribe(ctx)
	reg.ApplySnapshot(protocol.SessionSnapshot{ID: "s1", State: "idle"})

	select {
	case c := <-changes:
		if c.Kind != ChangeSession || c.SessionID != "s1" {
			t.Errorf("unexpected change: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change notification delivered")
	}
}

func TestConversationLifecycle(t *testing.T) {
	reg := NewRegistry()

	conv := reg.EnsureConversation("c1")
	if conv.State != ChatIdle {
		t.Errorf("new conversation state = %s, want idle", conv.State)
	}

	reg.AppendChatTurn("c1", NewLocalTurn("what does this error mean?"))
	reg.SetChatState("c1", ChatBusy)
	reg.AppendChatTurn("c1", protocol.Turn{ID: "r1", Role: "assistant", Content: "it means..."})
	reg.SetChatState("c1", ChatIdle)

	conv, ok := reg.Conversation("c1")
	if !ok {
		t.Fatal("conversation missing")
	}
	if len(conv.Messages) != 2 {
		t.Errorf("conversation transcript = %d turns, want 2", len(conv.Messages))
	}
	if conv.State != ChatIdle {
		t.Errorf("conversation state = %s, want idle", conv.State)
	}

	// Peer pushes for an id we have never seen create the conversation.
	reg.AppendChatTurn("c2", protocol.Turn{ID: "r2", Role: "assistant", Content: "hello"})
	if _, ok := reg.Conversation("c2"); !ok {
		t.Error("push for unknown conversation should create it")
	}
}
