// Package channel maintains the single WebSocket connection to the agent
// gateway and multiplexes every session and direct-chat conversation over it.
// It owns the socket exclusively: peer events flow in through one read loop
// and are applied to the state registry; commands flow out through Send.
package channel

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codelane/agentdeck/internal/logger"
	"github.com/codelane/agentdeck/internal/protocol"
	"github.com/codelane/agentdeck/internal/state"
	"github.com/codelane/agentdeck/internal/store"
)

// SessionStore persists the known session set across process restarts so
// resubscription works after a cold start.
type SessionStore interface {
	Save(store.Record) error
	Load() ([]store.Record, error)
	Delete(id string) error
}

// Config holds channel settings.
type Config struct {
	// Endpoint is the ws:// or wss:// URL of the gateway.
	Endpoint string
	// ReconnectDelay is the fixed pause before every reconnect attempt.
	// Unconditional, unbounded, no backoff.
	ReconnectDelay time.Duration
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each outgoing write.
	WriteTimeout time.Duration
}

// DefaultConfig returns the stock settings for an endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:         endpoint,
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Info is the connection-level snapshot: the connected flag, the peer's
// greeting, and the agent roster.
type Info struct {
	Connected            bool
	ClientID             string
	DefaultExecutionMode string
	RemoteAvailable      bool
	LocalAgentAvailable  bool
	Agents               []protocol.AgentInfo
	Metrics              []protocol.AgentMetrics
}

// Channel is the multiplexed session channel. One live socket, or actively
// trying to establish one.
type Channel struct {
	cfg    Config
	log    *logger.Logger
	reg    *state.Registry
	store  SessionStore
	dialer websocket.Dialer

	mu             sync.Mutex
	conn           *websocket.Conn
	connected      bool
	dialing        bool
	reconnectArmed bool
	closed         bool
	info           Info

	// writeMu serializes writes; gorilla connections allow one writer.
	writeMu sync.Mutex
}

// New builds a channel over the given registry. st may be nil for callers
// that do not want persistence; when present, the registry is seeded with the
// stored session set so the first connect resubscribes to all of it.
func New(cfg Config, reg *state.Registry, st SessionStore, log *logger.Logger) *Channel {
	if log == nil {
		log = logger.Global()
	}
	c := &Channel{
		cfg:   cfg,
		log:   log.WithPrefix("channel"),
		reg:   reg,
		store: st,
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}

	if st != nil {
		recs, err := st.Load()
		if err != nil {
			c.log.Error("loading persisted sessions: %v", err)
		}
		for _, rec := range recs {
			reg.SeedStored(rec.ID, rec.Name, rec.Cwd, rec.ExecutionMode)
		}
	}
	return c
}

// Registry exposes the state container the channel mutates.
func (c *Channel) Registry() *state.Registry { return c.reg }

// Info returns a copy of the connection-level snapshot.
func (c *Channel) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.info
	out.Agents = append([]protocol.AgentInfo(nil), c.info.Agents...)
	out.Metrics = append([]protocol.AgentMetrics(nil), c.info.Metrics...)
	return out
}

// Connect establishes the socket if none is open. Idempotent: while a socket
// is open or a dial is in flight it does nothing, so no duplicate
// list_sessions or subscribe traffic is produced. Dial failures arm the
// reconnect timer; nothing is returned to the caller.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.closed || c.connected || c.dialing {
		c.mu.Unlock()
		return
	}
	c.dialing = true
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.cfg.Endpoint, nil)
	if err != nil {
		c.log.Warn("dial %s: %v", c.cfg.Endpoint, err)
		c.mu.Lock()
		c.dialing = false
		c.mu.Unlock()
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.connected = true
	c.dialing = false
	c.info.Connected = true
	c.mu.Unlock()

	c.log.Info("connected to %s", c.cfg.Endpoint)
	c.reg.NotifyConnection()

	c.announce()
	go c.readLoop(conn)
}

// announce requests the peer's authoritative session list and re-subscribes
// to every session this client already knows about, whether from a previous
// connection or from persisted storage on a cold load.
func (c *Channel) announce() {
	c.Send(protocol.NewListSessionsCommand())
	for _, id := range c.reg.SessionIDs() {
		c.Send(protocol.NewSubscribeCommand(id))
	}
}

// Send serializes a command and writes it if and only if the socket is open;
// otherwise the command is dropped with a warning. Callers must not assume
// delivery: only session subscriptions are replayed after a reconnect.
func (c *Channel) Send(cmd protocol.Command) {
	c.mu.Lock()
	conn, connected := c.conn, c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.log.Warn("dropping %s: not connected", cmd.CommandType())
		return
	}

	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		c.log.Error("encode %s: %v", cmd.CommandType(), err)
		return
	}

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		// The read loop observes the broken socket and handles teardown.
		c.log.Warn("write %s: %v", cmd.CommandType(), err)
	}
}

// readLoop delivers peer events in transport order until the socket dies.
// Malformed frames are logged and discarded without affecting the loop or
// other sessions.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read: %v", err)
			}
			break
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			c.log.Warn("discarding message: %v", err)
			continue
		}
		c.handleEvent(ev)
	}
	c.handleDisconnect(conn)
}

// handleDisconnect tears down connection state, marks every session
// disconnected (history is preserved for display), and arms one reconnect
// timer. An error event followed by the close lands here exactly once.
func (c *Channel) handleDisconnect(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected = false
	c.info.Connected = false
	closed := c.closed
	c.mu.Unlock()

	c.log.Info("disconnected from %s", c.cfg.Endpoint)
	c.reg.MarkAllDisconnected()
	c.reg.NotifyConnection()

	if !closed {
		c.scheduleReconnect()
	}
}

// scheduleReconnect arms the fixed-delay reconnect timer if one is not
// already armed.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.reconnectArmed {
		c.mu.Unlock()
		return
	}
	c.reconnectArmed = true
	c.mu.Unlock()

	c.log.Info("reconnecting in %s", c.cfg.ReconnectDelay)
	time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		c.reconnectArmed = false
		c.mu.Unlock()
		c.Connect()
	})
}

// Close shuts the channel down for good. No further reconnects are attempted.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
