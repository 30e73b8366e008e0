// Package state holds the client-side view of agent sessions and direct-chat
// conversations. The Registry is the single owner of this state: the channel
// layer mutates it from peer events, everything else reads snapshots and
// listens for change notifications.
package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/codelane/agentdeck/internal/protocol"
)

// SessionState is the lifecycle state of one agent session.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateBusy         SessionState = "busy"
	StateWaiting      SessionState = "waiting"
	StateError        SessionState = "error"
	StateDisconnected SessionState = "disconnected"
)

// ParseSessionState validates a peer-reported state string.
func ParseSessionState(s string) (SessionState, bool) {
	switch st := SessionState(s); st {
	case StateIdle, StateBusy, StateWaiting, StateError, StateDisconnected:
		return st, true
	default:
		return "", false
	}
}

// Execution modes. The peer advertises its default in the connected greeting.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// QueuedMessage is user input accepted while a session was not idle. It keeps
// its locally-generated id so the optimistic echo reuses it on drain.
type QueuedMessage struct {
	ID      string
	Content string
}

// Session is the client's record of one long-lived agent work unit.
// Messages is an append-only chronological transcript; Queued is FIFO.
type Session struct {
	ID            string
	Name          string
	Cwd           string
	State         SessionState
	ExecutionMode string
	Messages      []protocol.Turn
	Queued        []QueuedMessage
}

// ChatState is the two-state lifecycle of a direct-chat conversation.
type ChatState string

const (
	ChatIdle ChatState = "idle"
	ChatBusy ChatState = "busy"
)

// Conversation is a stateless-per-turn Q&A dialogue. No execution mode, no
// queue; the UI must not double-send while busy.
type Conversation struct {
	ID       string
	State    ChatState
	Messages []protocol.Turn
}

// NewLocalTurn builds a user-authored transcript entry with a locally
// generated id, distinct from server-assigned ids.
func NewLocalTurn(content string) protocol.Turn {
	return protocol.Turn{
		ID:        uuid.New().String(),
		Role:      "user",
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func (s *Session) clone() Session {
	out := *s
	out.Messages = append([]protocol.Turn(nil), s.Messages...)
	out.Queued = append([]QueuedMessage(nil), s.Queued...)
	return out
}

func (c *Conversation) clone() Conversation {
	out := *c
	out.Messages = append([]protocol.Turn(nil), c.Messages...)
	return out
}
