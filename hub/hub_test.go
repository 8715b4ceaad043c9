package hub

import (
	"sync"
	"testing"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func joined(t *testing.T, h *Hub, conversationID, identity string) *Session {
	t.Helper()
	session := h.Open()
	require.NoError(t, h.Join(session.Handle, conversationID, identity))
	return session
}

func pending(session *Session) int {
	return len(session.send)
}

func TestHub_DeliverExcludesSender(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	alice := joined(t, h, "c1", "alice")
	bob := joined(t, h, "c1", "bob")

	delivered := h.DeliverToConversation("c1", alice.Handle, []byte("hi"))

	req.Equal(1, delivered)
	req.Equal(0, pending(alice))
	req.Equal([]byte("hi"), <-bob.Send())
}

func TestHub_DeliverStaysInConversation(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	alice := joined(t, h, "c1", "alice")
	outsider := joined(t, h, "c2", "carol")
	unjoined := h.Open()

	delivered := h.DeliverToConversation("c1", "", []byte("hi"))

	req.Equal(1, delivered)
	req.Equal(1, pending(alice))
	req.Equal(0, pending(outsider))
	req.Equal(0, pending(unjoined))
}

func TestHub_FullBufferDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	h := NewHub(1)
	alice := joined(t, h, "c1", "alice")
	slow := joined(t, h, "c1", "slow")
	bob := joined(t, h, "c1", "bob")

	// Given a recipient whose buffer is already full
	req.NoError(h.SendTo(slow.Handle, []byte("backlog")))
	err := h.SendTo(slow.Handle, []byte("more"))
	req.True(errors.Is(err, ErrBufferFull))
	req.True(errors.Is(err, apiErrors.ErrDelivery))

	// When a message is delivered to the conversation
	delivered := h.DeliverToConversation("c1", alice.Handle, []byte("hi"))

	// Then the other recipient still gets it
	req.Equal(1, delivered)
	req.Equal([]byte("hi"), <-bob.Send())
	req.Equal([]byte("backlog"), <-slow.Send())
}

func TestHub_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	alice := joined(t, h, "c1", "alice")

	h.Remove(alice.Handle)
	h.Remove(alice.Handle)

	_, open := <-alice.Send()
	req.False(open)
	info, ok := h.Session(alice.Handle)
	req.False(ok)
	req.Equal(Closed, info.State)
	req.Equal(0, h.ConnectionCount())
	req.Equal(0, h.ConversationCount())
	req.ErrorIs(h.SendTo(alice.Handle, []byte("late")), ErrSessionClosed)
	req.Equal(0, h.DeliverToConversation("c1", "", []byte("late")))
}

func TestHub_RejoinMovesSession(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	alice := joined(t, h, "c1", "alice")

	req.NoError(h.Join(alice.Handle, "c2", "alice"))

	info, ok := h.Session(alice.Handle)
	req.True(ok)
	req.Equal(Joined, info.State)
	req.Equal("c2", info.ConversationID)
	req.Empty(h.ConnectedIdentities("c1"))
	req.Equal(map[string]bool{"alice": true}, h.ConnectedIdentities("c2"))
	req.Equal(1, h.ConversationCount())
}

func TestHub_JoinUnknownHandle(t *testing.T) {
	h := NewHub(4)
	err := h.Join("missing", "c1", "alice")
	require.True(t, errors.Is(err, apiErrors.ErrNotFound))
}

func TestHub_NewSessionIsUnjoined(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	session := h.Open()

	info, ok := h.Session(session.Handle)
	req.True(ok)
	req.Equal(Unjoined, info.State)
	req.Equal("unjoined", info.State.String())
	req.Equal(1, h.ConnectionCount())
}

func TestHub_ConcurrentDeliverAndRemove(t *testing.T) {
	h := NewHub(8)
	sessions := make([]*Session, 0, 20)
	for i := 0; i < 20; i++ {
		sessions = append(sessions, joined(t, h, "c1", "user"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				h.DeliverToConversation("c1", "", []byte("x"))
			}
		}()
	}
	for _, session := range sessions {
		wg.Add(1)
		go func(handle string) {
			defer wg.Done()
			h.Remove(handle)
		}(session.Handle)
	}
	wg.Wait()

	require.Equal(t, 0, h.ConnectionCount())
}

func TestHub_CloseAll(t *testing.T) {
	req := require.New(t)
	h := NewHub(4)
	alice := joined(t, h, "c1", "alice")
	bob := h.Open()

	h.CloseAll()

	_, open := <-alice.Send()
	req.False(open)
	_, open = <-bob.Send()
	req.False(open)
	req.Equal(0, h.ConnectionCount())
}
