package protocol

import "encoding/json"

// Command is a client-issued frame. Each implementation carries its own type
// tag so that EncodeCommand produces a self-describing object.
type Command interface {
	CommandType() string
}

// EncodeCommand serializes a command to its wire representation.
func EncodeCommand(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}

// ListSessionsCommand asks the peer for its authoritative session list.
type ListSessionsCommand struct {
	Type string `json:"type"`
}

func NewListSessionsCommand() *ListSessionsCommand {
	return &ListSessionsCommand{Type: CmdListSessions}
}

func (c *ListSessionsCommand) CommandType() string { return CmdListSessions }

// SubscribeCommand announces interest in server pushes for one session.
// Duplicate subscribes are harmless on the peer side; the client performs no
// dedup of its own.
type SubscribeCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

func NewSubscribeCommand(sessionID string) *SubscribeCommand {
	return &SubscribeCommand{Type: CmdSubscribe, SessionID: sessionID}
}

func (c *SubscribeCommand) CommandType() string { return CmdSubscribe }

// CreateSessionCommand requests a new agent session. All fields are optional;
// the peer fills in defaults and replies with session_created.
type CreateSessionCommand struct {
	Type          string `json:"type"`
	Cwd           string `json:"cwd,omitempty"`
	Name          string `json:"name,omitempty"`
	Prompt        string `json:"prompt,omitempty"`
	ExecutionMode string `json:"executionMode,omitempty"`
	WidgetID      string `json:"widgetId,omitempty"`
}

func NewCreateSessionCommand(cwd, name, prompt, executionMode, widgetID string) *CreateSessionCommand {
	return &CreateSessionCommand{
		Type:          CmdCreateSession,
		Cwd:           cwd,
		Name:          name,
		Prompt:        prompt,
		ExecutionMode: executionMode,
		WidgetID:      widgetID,
	}
}

func (c *CreateSessionCommand) CommandType() string { return CmdCreateSession }

// ChatCommand delivers one user message to a session's agent.
type ChatCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

func NewChatCommand(sessionID, content string) *ChatCommand {
	return &ChatCommand{Type: CmdChat, SessionID: sessionID, Content: content}
}

func (c *ChatCommand) CommandType() string { return CmdChat }

// InterruptCommand tells the peer to cancel the agent's current turn. It is a
// regular message, not a client-side cancellation of anything in flight.
type InterruptCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

func NewInterruptCommand(sessionID string) *InterruptCommand {
	return &InterruptCommand{Type: CmdInterrupt, SessionID: sessionID}
}

func (c *InterruptCommand) CommandType() string { return CmdInterrupt }

// SetExecutionModeCommand switches a session between execution modes.
type SetExecutionModeCommand struct {
	Type          string `json:"type"`
	SessionID     string `json:"sessionId"`
	ExecutionMode string `json:"executionMode"`
}

func NewSetExecutionModeCommand(sessionID, mode string) *SetExecutionModeCommand {
	return &SetExecutionModeCommand{Type: CmdSetExecutionMode, SessionID: sessionID, ExecutionMode: mode}
}

func (c *SetExecutionModeCommand) CommandType() string { return CmdSetExecutionMode }

// CloseSessionCommand asks the peer to end a session.
type CloseSessionCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

func NewCloseSessionCommand(sessionID string) *CloseSessionCommand {
	return &CloseSessionCommand{Type: CmdCloseSession, SessionID: sessionID}
}

func (c *CloseSessionCommand) CommandType() string { return CmdCloseSession }

// DirectChatCommand is a one-shot Q&A send. The full conversation history and
// any image attachments travel with every send; the transport keeps no
// per-conversation state.
type DirectChatCommand struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversationId"`
	Content        string  `json:"content"`
	History        []Turn  `json:"history"`
	Images         []Image `json:"images,omitempty"`
}

func NewDirectChatCommand(conversationID, content string, history []Turn, images []Image) *DirectChatCommand {
	return &DirectChatCommand{
		Type:           CmdDirectChat,
		ConversationID: conversationID,
		Content:        content,
		History:        history,
		Images:         images,
	}
}

func (c *DirectChatCommand) CommandType() string { return CmdDirectChat }
