package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned by DecodeEvent for type tags this client does
// not understand. Unknown tags are rejected explicitly rather than falling
// through to a generic handler.
var ErrUnknownType = errors.New("unknown message type")

// Event is a peer-pushed frame. DecodeEvent returns exactly one of the
// concrete event structs below.
type Event interface {
	EventType() string
}

// ConnectedEvent is the peer's greeting after the socket opens. It assigns a
// client id and advertises capability flags.
type ConnectedEvent struct {
	Type                 string `json:"type"`
	ClientID             string `json:"clientId"`
	DefaultExecutionMode string `json:"defaultExecutionMode,omitempty"`
	RemoteAvailable      bool   `json:"remoteAvailable,omitempty"`
	LocalAgentAvailable  bool   `json:"localAgentAvailable,omitempty"`
}

func (e *ConnectedEvent) EventType() string { return EvtConnected }

// AgentStatusEvent carries the gateway's agent roster.
type AgentStatusEvent struct {
	Type   string      `json:"type"`
	Agents []AgentInfo `json:"agents"`
}

func (e *AgentStatusEvent) EventType() string { return EvtAgentStatus }

// AgentMetricsEvent carries usage counters for the roster.
type AgentMetricsEvent struct {
	Type   string         `json:"type"`
	Agents []AgentMetrics `json:"agents"`
}

func (e *AgentMetricsEvent) EventType() string { return EvtAgentMetrics }

// ToolQueuedEvent is advisory; the client logs it and mutates nothing.
type ToolQueuedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Tool      string `json:"tool,omitempty"`
}

func (e *ToolQueuedEvent) EventType() string { return EvtToolQueued }

// SessionCreatedEvent announces a session the peer just created.
type SessionCreatedEvent struct {
	Type    string          `json:"type"`
	Session SessionSnapshot `json:"session"`
}

func (e *SessionCreatedEvent) EventType() string { return EvtSessionCreated }

// SessionsListEvent is the reply to list_sessions.
type SessionsListEvent struct {
	Type     string            `json:"type"`
	Sessions []SessionSnapshot `json:"sessions"`
}

func (e *SessionsListEvent) EventType() string { return EvtSessionsList }

// SessionStateEvent is a full per-session snapshot, pushed after subscribe.
// The client reconciles it against locally-held state.
type SessionStateEvent struct {
	Type    string          `json:"type"`
	Session SessionSnapshot `json:"session"`
}

func (e *SessionStateEvent) EventType() string { return EvtSessionState }

// MessageEvent appends one turn to a session transcript.
type MessageEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Message   Turn   `json:"message"`
}

func (e *MessageEvent) EventType() string { return EvtMessage }

// StateChangedEvent reports a session state transition.
type StateChangedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
}

func (e *StateChangedEvent) EventType() string { return EvtStateChanged }

// ExecutionModeChangedEvent reports a mode switch, whether commanded by this
// client or another.
type ExecutionModeChangedEvent struct {
	Type          string `json:"type"`
	SessionID     string `json:"sessionId"`
	ExecutionMode string `json:"executionMode"`
}

func (e *ExecutionModeChangedEvent) EventType() string { return EvtExecutionModeChanged }

// SessionClosedEvent reports that the peer ended a session.
type SessionClosedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

func (e *SessionClosedEvent) EventType() string { return EvtSessionClosed }

// ErrorEvent is a peer-reported failure, optionally scoped to a session.
type ErrorEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return EvtError }

// Error makes a session-scoped or global peer error usable as a Go error.
func (e *ErrorEvent) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("peer error [%s]: %s", e.Code, e.Message)
	}
	return "peer error: " + e.Message
}

// ChatMessageEvent appends one turn to a direct-chat conversation.
type ChatMessageEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Message        Turn   `json:"message"`
}

func (e *ChatMessageEvent) EventType() string { return EvtChatMessage }

// ChatStateChangedEvent flips a conversation between idle and busy.
type ChatStateChangedEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	State          string `json:"state"`
}

func (e *ChatStateChangedEvent) EventType() string { return EvtChatStateChanged }

// envelope probes just the discriminator.
type envelope struct {
	Type string `json:"type"`
}

// DecodeEvent parses one incoming frame into its concrete event struct.
// Frames without a type tag, with an unknown tag, or with a malformed body
// produce an error; the caller logs and discards them.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("message has no type tag")
	}

	var ev Event
	switch env.Type {
	case EvtConnected:
		ev = &ConnectedEvent{}
	case EvtAgentStatus:
		ev = &AgentStatusEvent{}
	case EvtAgentMetrics:
		ev = &AgentMetricsEvent{}
	case EvtToolQueued:
		ev = &ToolQueuedEvent{}
	case EvtSessionCreated:
		ev = &SessionCreatedEvent{}
	case EvtSessionsList:
		ev = &SessionsListEvent{}
	case EvtSessionState:
		ev = &SessionStateEvent{}
	case EvtMessage:
		ev = &MessageEvent{}
	case EvtStateChanged:
		ev = &StateChangedEvent{}
	case EvtExecutionModeChanged:
		ev = &ExecutionModeChangedEvent{}
	case EvtSessionClosed:
		ev = &SessionClosedEvent{}
	case EvtError:
		ev = &ErrorEvent{}
	case EvtChatMessage:
		ev = &ChatMessageEvent{}
	case EvtChatStateChanged:
		ev = &ChatStateChangedEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}
