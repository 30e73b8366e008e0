package state

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/codelane/agentdeck/internal/logger"
	"github.com/codelane/agentdeck/internal/protocol"
)

// subscriberBufferSize is the channel buffer for each change subscriber.
const subscriberBufferSize = 64

// ChangeKind classifies a change notification.
type ChangeKind int

const (
	// ChangeSession means a session record was created or mutated.
	ChangeSession ChangeKind = iota
	// ChangeChat means a conversation was created or mutated.
	ChangeChat
	// ChangeConnection means the connection-level state flipped.
	ChangeConnection
)

// Change is one notification delivered to registry subscribers.
type Change struct {
	Kind           ChangeKind
	SessionID      string
	ConversationID string
}

// Registry owns all session and conversation state. It is constructed
// explicitly and injected where needed; there is no package-level instance.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	chats    map[string]*Conversation
	subs     map[string]chan Change
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		chats:    make(map[string]*Conversation),
		subs:     make(map[string]chan Change),
	}
}

// Subscribe registers a change listener. The returned channel receives
// notifications until ctx is cancelled; notifications are dropped rather than
// blocking when the subscriber falls behind.
func (r *Registry) Subscribe(ctx context.Context) (<-chan Change, string) {
	id := uuid.New().String()
	ch := make(chan Change, subscriberBufferSize)

	r.mu.Lock()
	r.subs[id] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.Unsubscribe(id)
	}()

	return ch, id
}

// Unsubscribe removes a change listener.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subs[id]; ok {
		delete(r.subs, id)
		close(ch)
	}
}

// publish fans out a change without blocking. Callers must not hold r.mu.
func (r *Registry) publish(c Change) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// NotifyConnection publishes a connection-level change on behalf of the
// channel layer, which owns the connection flag itself.
func (r *Registry) NotifyConnection() {
	r.publish(Change{Kind: ChangeConnection})
}

// ApplySnapshot upserts a session from a peer-pushed snapshot. The transcript
// is reconciled by length: whichever side holds more messages wins, so a peer
// restart with a shorter memory never truncates history this client has
// already shown. Divergent histories of equal length are not merged; the
// local one is kept.
func (r *Registry) ApplySnapshot(snap protocol.SessionSnapshot) {
	if snap.ID == "" {
		return
	}

	r.mu.Lock()
	sess, ok := r.sessions[snap.ID]
	if !ok {
		sess = &Session{ID: snap.ID}
		r.sessions[snap.ID] = sess
	}
	if snap.Name != "" {
		sess.Name = snap.Name
	}
	if snap.Cwd != "" {
		sess.Cwd = snap.Cwd
	}
	if snap.ExecutionMode != "" {
		sess.ExecutionMode = snap.ExecutionMode
	}
	if st, ok := ParseSessionState(snap.State); ok {
		sess.State = st
	}
	if len(snap.Messages) > len(sess.Messages) {
		sess.Messages = append([]protocol.Turn(nil), snap.Messages...)
	}
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: snap.ID})
}

// SeedStored registers a session recovered from local storage on a cold
// start. It begins disconnected with an empty transcript; the first
// session_state push after resubscription fills it in.
func (r *Registry) SeedStored(id, name, cwd, executionMode string) {
	if id == "" {
		return
	}

	r.mu.Lock()
	if _, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return
	}
	r.sessions[id] = &Session{
		ID:            id,
		Name:          name,
		Cwd:           cwd,
		ExecutionMode: executionMode,
		State:         StateDisconnected,
	}
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
}

// Session returns a copy of one session record.
func (r *Registry) Session(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// Sessions returns copies of every session record.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess.clone())
	}
	return out
}

// SessionIDs returns every registered session id.
func (r *Registry) SessionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// SetSessionState applies a peer-reported state transition.
func (r *Registry) SetSessionState(id string, st SessionState) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		logger.Warn("state change for unknown session %s", id)
		return false
	}
	sess.State = st
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return true
}

// SetExecutionMode applies a peer-reported mode change.
func (r *Registry) SetExecutionMode(id, mode string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	sess.ExecutionMode = mode
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return true
}

// AppendMessage appends a peer-delivered turn to a session transcript.
func (r *Registry) AppendMessage(id string, turn protocol.Turn) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		logger.Warn("message for unknown session %s", id)
		return false
	}
	sess.Messages = append(sess.Messages, turn)
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return true
}

// AppendLocalEcho appends a user turn with a locally generated id, for sends
// that go straight out while the session is idle.
func (r *Registry) AppendLocalEcho(id, content string) (protocol.Turn, bool) {
	turn := NewLocalTurn(content)

	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return protocol.Turn{}, false
	}
	sess.Messages = append(sess.Messages, turn)
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return turn, true
}

// EnqueueInput buffers user input for a session that is not idle. FIFO.
func (r *Registry) EnqueueInput(id, content string) (QueuedMessage, bool) {
	qm := QueuedMessage{ID: uuid.New().String(), Content: content}

	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return QueuedMessage{}, false
	}
	sess.Queued = append(sess.Queued, qm)
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return qm, true
}

// DrainOne removes the head of the session's queue and appends it to the
// transcript as an optimistically echoed user turn, reusing the queued id.
// It returns the turn to transmit. At most one message drains per call; a
// burst of N queued messages drains over N idle transitions.
func (r *Registry) DrainOne(id string) (protocol.Turn, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok || len(sess.Queued) == 0 {
		r.mu.Unlock()
		return protocol.Turn{}, false
	}
	head := sess.Queued[0]
	sess.Queued = append([]QueuedMessage(nil), sess.Queued[1:]...)
	turn := NewLocalTurn(head.Content)
	turn.ID = head.ID
	sess.Messages = append(sess.Messages, turn)
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeSession, SessionID: id})
	return turn, true
}

// CloseSession marks a session disconnected. The record and its transcript
// are retained so the UI can still show the final state.
func (r *Registry) CloseSession(id string) bool {
	return r.SetSessionState(id, StateDisconnected)
}

// MarkAllDisconnected flips every session to disconnected. Called by the
// channel layer when the socket closes; local history is preserved.
func (r *Registry) MarkAllDisconnected() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sess.State = StateDisconnected
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.publish(Change{Kind: ChangeSession, SessionID: id})
	}
}
