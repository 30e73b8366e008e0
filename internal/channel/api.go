package channel

import (
	"github.com/google/uuid"

	"github.com/codelane/agentdeck/internal/protocol"
	"github.com/codelane/agentdeck/internal/state"
)

// CreateSessionOptions are the optional fields of a create_session command.
type CreateSessionOptions struct {
	Cwd           string
	Name          string
	Prompt        string
	ExecutionMode string
	WidgetID      string
}

// CreateSession asks the peer to start a new agent session. The peer
// processes asynchronously and answers with a session_created push; there is
// no reply to wait on and no timeout enforced here.
func (c *Channel) CreateSession(opts CreateSessionOptions) {
	c.Send(protocol.NewCreateSessionCommand(
		opts.Cwd, opts.Name, opts.Prompt, opts.ExecutionMode, opts.WidgetID))
}

// SendInput delivers user input to a session. While the session is idle the
// message is echoed into the transcript and transmitted immediately; in any
// other state it is queued FIFO and drained one message per idle transition.
func (c *Channel) SendInput(sessionID, content string) {
	sess, ok := c.reg.Session(sessionID)
	if !ok {
		c.log.Warn("input for unknown session %s", sessionID)
		return
	}

	if sess.State != state.StateIdle {
		c.reg.EnqueueInput(sessionID, content)
		return
	}
	if _, ok := c.reg.AppendLocalEcho(sessionID, content); !ok {
		return
	}
	c.Send(protocol.NewChatCommand(sessionID, content))
}

// Interrupt tells the peer to cancel the session's current agent turn.
func (c *Channel) Interrupt(sessionID string) {
	c.Send(protocol.NewInterruptCommand(sessionID))
}

// SetExecutionMode requests a mode switch. Registry state changes only when
// the peer confirms with execution_mode_changed.
func (c *Channel) SetExecutionMode(sessionID, mode string) {
	c.Send(protocol.NewSetExecutionModeCommand(sessionID, mode))
}

// CloseSession asks the peer to end a session. The local record survives so
// the final transcript stays visible.
func (c *Channel) CloseSession(sessionID string) {
	c.Send(protocol.NewCloseSessionCommand(sessionID))
}

// SendDirectChat sends one turn of a one-shot Q&A conversation. The prior
// history and any images travel with the command; the transport keeps no
// conversation state. An empty conversationID starts a new conversation and
// the assigned id is returned. Fire-and-forget: the UI is responsible for
// not double-sending while the conversation is busy.
func (c *Channel) SendDirectChat(conversationID, content string, images []protocol.Image) string {
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	conv := c.reg.EnsureConversation(conversationID)

	history := conv.Messages
	c.reg.AppendChatTurn(conversationID, state.NewLocalTurn(content))

	c.Send(protocol.NewDirectChatCommand(conversationID, content, history, images))
	return conversationID
}
