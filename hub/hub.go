// Package hub tracks live socket connections and the conversation each one has joined.
package hub

import (
	"log"
	"sync"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type State int

const (
	Unjoined State = iota
	Joined
	Closed
)

func (s State) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// ErrBufferFull is returned when a session's send buffer cannot take more frames.
var ErrBufferFull = errors.Wrap(apiErrors.ErrDelivery, "send buffer full")

// ErrSessionClosed is returned when enqueueing onto a removed session.
var ErrSessionClosed = errors.Wrap(apiErrors.ErrDelivery, "session closed")

// Session is one live socket. Its fields other than Handle are guarded by the hub.
type Session struct {
	Handle string

	conversationID string
	identity       string
	state          State
	send           chan []byte
}

// Send is drained by the connection's writer. It is closed when the session is removed.
func (s *Session) Send() <-chan []byte {
	return s.send
}

// SessionInfo is a point-in-time copy of a session's routing state.
type SessionInfo struct {
	Handle         string
	ConversationID string
	Identity       string
	State          State
}

// Hub is the process-wide connection registry.
type Hub struct {
	sessions map[string]*Session
	// conversations maps conversation id to the handles joined to it
	conversations map[string]map[string]*Session
	sendBuffer    int

	mu sync.RWMutex
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		sessions:      make(map[string]*Session),
		conversations: make(map[string]map[string]*Session),
		sendBuffer:    sendBuffer,
	}
}

// Open creates and registers a new unjoined session.
func (h *Hub) Open() *Session {
	session := &Session{
		Handle: uuid.New().String(),
		state:  Unjoined,
		send:   make(chan []byte, h.sendBuffer),
	}
	h.mu.Lock()
	h.sessions[session.Handle] = session
	h.mu.Unlock()
	log.Printf("Connection registered: %s", session.Handle)
	return session
}

// Join binds handle to a conversation and identity, replacing any earlier binding.
func (h *Hub) Join(handle, conversationID, identity string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[handle]
	if !ok {
		return errors.Wrapf(apiErrors.ErrNotFound, "connection %s", handle)
	}

	h.unindex(session)
	session.conversationID = conversationID
	session.identity = identity
	session.state = Joined
	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[string]*Session)
	}
	h.conversations[conversationID][handle] = session
	return nil
}

// unindex must be called with the write lock held.
func (h *Hub) unindex(session *Session) {
	if session.conversationID == "" {
		return
	}
	members := h.conversations[session.conversationID]
	delete(members, session.Handle)
	if len(members) == 0 {
		delete(h.conversations, session.conversationID)
	}
}

// Session returns a copy of the session's routing state.
func (h *Hub) Session(handle string) (SessionInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[handle]
	if !ok {
		return SessionInfo{Handle: handle, State: Closed}, false
	}
	return SessionInfo{
		Handle:         session.Handle,
		ConversationID: session.conversationID,
		Identity:       session.identity,
		State:          session.state,
	}, true
}

// DeliverToConversation enqueues payload on every session joined to
// conversationID except excludeHandle. A session that cannot take the frame is
// logged and skipped. Returns how many sessions accepted it.
func (h *Hub) DeliverToConversation(conversationID, excludeHandle string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for handle, session := range h.conversations[conversationID] {
		if handle == excludeHandle {
			continue
		}
		if err := enqueue(session, payload); err != nil {
			log.Printf("Delivery to connection %s (%s) failed: %v", handle, session.identity, err)
			continue
		}
		delivered++
	}
	return delivered
}

// SendTo enqueues payload on a single session.
func (h *Hub) SendTo(handle string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[handle]
	if !ok {
		return ErrSessionClosed
	}
	return enqueue(session, payload)
}

// enqueue never blocks. Callers hold at least the read lock, which keeps
// Remove from closing the channel underneath the send.
func enqueue(session *Session, payload []byte) error {
	if session.state == Closed {
		return ErrSessionClosed
	}
	select {
	case session.send <- payload:
		return nil
	default:
		return ErrBufferFull
	}
}

// Remove drops the session and closes its send buffer. Safe to call more than once.
func (h *Hub) Remove(handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[handle]
	if !ok {
		return
	}
	h.unindex(session)
	delete(h.sessions, handle)
	session.state = Closed
	close(session.send)
	log.Printf("Connection unregistered: %s", handle)
}

// ConnectedIdentities returns the identities with a live session joined to conversationID.
func (h *Hub) ConnectedIdentities(conversationID string) map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	identities := make(map[string]bool)
	for _, session := range h.conversations[conversationID] {
		identities[session.identity] = true
	}
	return identities
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) ConversationCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations)
}

// CloseAll removes every session. Writers see their send buffers close and
// hang up.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	handles := make([]string, 0, len(h.sessions))
	for handle := range h.sessions {
		handles = append(handles, handle)
	}
	h.mu.Unlock()

	for _, handle := range handles {
		h.Remove(handle)
	}
}
