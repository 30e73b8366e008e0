// Package protocol defines the JSON wire format spoken between the dashboard
// client and the agent gateway. Every frame is a single flat JSON object with
// a mandatory "type" discriminator; there is no framing beyond the transport's
// own message boundaries.
package protocol

import "time"

// Command type constants (client -> peer)
const (
	CmdListSessions     = "list_sessions"
	CmdSubscribe        = "subscribe"
	CmdCreateSession    = "create_session"
	CmdChat             = "chat"
	CmdInterrupt        = "interrupt"
	CmdSetExecutionMode = "set_execution_mode"
	CmdCloseSession     = "close_session"
	CmdDirectChat       = "direct_chat"
)

// Event type constants (peer -> client)
const (
	EvtConnected            = "connected"
	EvtAgentStatus          = "agent_status"
	EvtAgentMetrics         = "agent_metrics"
	EvtToolQueued           = "tool_queued"
	EvtSessionCreated       = "session_created"
	EvtSessionsList         = "sessions_list"
	EvtSessionState         = "session_state"
	EvtMessage              = "message"
	EvtStateChanged         = "state_changed"
	EvtExecutionModeChanged = "execution_mode_changed"
	EvtSessionClosed        = "session_closed"
	EvtError                = "error"
	EvtChatMessage          = "chat_message"
	EvtChatStateChanged     = "chat_state_changed"
)

// Turn is one entry in a session or conversation transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Image is an inline attachment on a direct chat send.
type Image struct {
	MediaType string `json:"mediaType"`
	Data      string `json:"data"`
}

// SessionSnapshot is the peer's full view of one session, pushed on
// session_created, sessions_list and session_state.
type SessionSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Cwd           string `json:"cwd,omitempty"`
	State         string `json:"state"`
	ExecutionMode string `json:"executionMode,omitempty"`
	Messages      []Turn `json:"messages,omitempty"`
}

// AgentInfo describes one agent in the gateway's roster.
type AgentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

// AgentMetrics carries per-agent usage counters.
type AgentMetrics struct {
	ID             string `json:"id"`
	ActiveSessions int    `json:"activeSessions,omitempty"`
	TokensUsed     int64  `json:"tokensUsed,omitempty"`
}
