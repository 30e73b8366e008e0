package channel

import (
	"github.com/codelane/agentdeck/internal/protocol"
	"github.com/codelane/agentdeck/internal/state"
	"github.com/codelane/agentdeck/internal/store"
)

// handleEvent applies one peer event to the registry. All session state
// transitions originate here; the client never infers state locally except
// for the blanket disconnect marking on socket close.
func (c *Channel) handleEvent(ev protocol.Event) {
	switch e := ev.(type) {
	case *protocol.ConnectedEvent:
		c.mu.Lock()
		c.info.ClientID = e.ClientID
		c.info.DefaultExecutionMode = e.DefaultExecutionMode
		c.info.RemoteAvailable = e.RemoteAvailable
		c.info.LocalAgentAvailable = e.LocalAgentAvailable
		c.mu.Unlock()
		c.log.Info("peer greeting: clientId=%s", e.ClientID)
		c.reg.NotifyConnection()

	case *protocol.AgentStatusEvent:
		c.mu.Lock()
		c.info.Agents = e.Agents
		c.mu.Unlock()
		c.reg.NotifyConnection()

	case *protocol.AgentMetricsEvent:
		c.mu.Lock()
		c.info.Metrics = e.Agents
		c.mu.Unlock()
		c.reg.NotifyConnection()

	case *protocol.ToolQueuedEvent:
		// Advisory only.
		c.log.Debug("tool queued on %s: %s", e.SessionID, e.Tool)

	case *protocol.SessionCreatedEvent:
		c.reg.ApplySnapshot(e.Session)
		c.persist(e.Session.ID)

	case *protocol.SessionsListEvent:
		for _, snap := range e.Sessions {
			c.reg.ApplySnapshot(snap)
			c.persist(snap.ID)
		}

	case *protocol.SessionStateEvent:
		c.reg.ApplySnapshot(e.Session)
		c.persist(e.Session.ID)

	case *protocol.MessageEvent:
		c.reg.AppendMessage(e.SessionID, e.Message)

	case *protocol.StateChangedEvent:
		st, ok := state.ParseSessionState(e.State)
		if !ok {
			c.log.Warn("unknown session state %q for %s", e.State, e.SessionID)
			return
		}
		c.reg.SetSessionState(e.SessionID, st)
		if st == state.StateIdle {
			c.drainOne(e.SessionID)
		}

	case *protocol.ExecutionModeChangedEvent:
		c.reg.SetExecutionMode(e.SessionID, e.ExecutionMode)
		c.persist(e.SessionID)

	case *protocol.SessionClosedEvent:
		c.reg.CloseSession(e.SessionID)
		if c.store != nil {
			if err := c.store.Delete(e.SessionID); err != nil {
				c.log.Warn("dropping %s from store: %v", e.SessionID, err)
			}
		}

	case *protocol.ErrorEvent:
		if e.SessionID != "" {
			c.log.Error("session %s: %v", e.SessionID, e)
			c.reg.SetSessionState(e.SessionID, state.StateError)
		} else {
			c.log.Error("%v", e)
		}

	case *protocol.ChatMessageEvent:
		c.reg.AppendChatTurn(e.ConversationID, e.Message)

	case *protocol.ChatStateChangedEvent:
		switch st := state.ChatState(e.State); st {
		case state.ChatIdle, state.ChatBusy:
			c.reg.SetChatState(e.ConversationID, st)
		default:
			c.log.Warn("unknown chat state %q for %s", e.State, e.ConversationID)
		}
	}
}

// drainOne forwards exactly one queued user message after an idle
// transition: the FIFO head is echoed into the transcript and transmitted.
// A burst of N queued messages drains over N idle transitions.
func (c *Channel) drainOne(sessionID string) {
	turn, ok := c.reg.DrainOne(sessionID)
	if !ok {
		return
	}
	c.log.Debug("draining queued input for %s", sessionID)
	c.Send(protocol.NewChatCommand(sessionID, turn.Content))
}

// persist flushes a session's metadata to the store.
func (c *Channel) persist(sessionID string) {
	if c.store == nil {
		return
	}
	sess, ok := c.reg.Session(sessionID)
	if !ok {
		return
	}
	err := c.store.Save(store.Record{
		ID:            sess.ID,
		Name:          sess.Name,
		Cwd:           sess.Cwd,
		ExecutionMode: sess.ExecutionMode,
	})
	if err != nil {
		c.log.Warn("persisting %s: %v", sessionID, err)
	}
}
