package state

import "github.com/codelane/agentdeck/internal/protocol"

// EnsureConversation creates an idle conversation if one does not exist and
// returns a copy of the record either way.
func (r *Registry) EnsureConversation(id string) Conversation {
	r.mu.Lock()
	conv, ok := r.chats[id]
	if !ok {
		conv = &Conversation{ID: id, State: ChatIdle}
		r.chats[id] = conv
	}
	out := conv.clone()
	r.mu.Unlock()

	if !ok {
		r.publish(Change{Kind: ChangeChat, ConversationID: id})
	}
	return out
}

// Conversation returns a copy of one conversation record.
func (r *Registry) Conversation(id string) (Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.chats[id]
	if !ok {
		return Conversation{}, false
	}
	return conv.clone(), true
}

// Conversations returns copies of every conversation record.
func (r *Registry) Conversations() []Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conversation, 0, len(r.chats))
	for _, conv := range r.chats {
		out = append(out, conv.clone())
	}
	return out
}

// AppendChatTurn appends a turn to a conversation transcript, creating the
// conversation if the peer pushed for an id this client has not seen.
func (r *Registry) AppendChatTurn(id string, turn protocol.Turn) {
	r.mu.Lock()
	conv, ok := r.chats[id]
	if !ok {
		conv = &Conversation{ID: id, State: ChatIdle}
		r.chats[id] = conv
	}
	conv.Messages = append(conv.Messages, turn)
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeChat, ConversationID: id})
}

// SetChatState flips a conversation between idle and busy.
func (r *Registry) SetChatState(id string, st ChatState) {
	r.mu.Lock()
	conv, ok := r.chats[id]
	if !ok {
		conv = &Conversation{ID: id}
		r.chats[id] = conv
	}
	conv.State = st
	r.mu.Unlock()

	r.publish(Change{Kind: ChangeChat, ConversationID: id})
}
