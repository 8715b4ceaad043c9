package server

import (
	"context"
	"log"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// handleSocket upgrades the request and runs the connection until it closes.
// Every connection starts unjoined.
func (s *Server) handleSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Failed to upgrade WebSocket: %v", err)
			return
		}

		session := s.Hub.Open()
		conn.SetReadLimit(s.Config.WSMaxMessageSize)

		go s.writePump(conn, session)
		s.readPump(conn, session)
	}
}

// readPump handles frames one at a time so a connection's messages are
// persisted and delivered in the order they arrived.
func (s *Server) readPump(conn *websocket.Conn, session *hub.Session) {
	defer func() {
		s.Hub.Remove(session.Handle)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.Config.WSReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.Config.WSReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error on %s: %v", session.Handle, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.Config.WSReadTimeout))

		if err := s.FanoutService.HandleFrame(context.Background(), session.Handle, data); err != nil {
			log.Printf("Dropped frame from %s: %v", session.Handle, err)
		}
	}
}

// writePump drains the session's send buffer and keeps the connection alive
// with pings. It exits when the hub closes the buffer or a write fails.
func (s *Server) writePump(conn *websocket.Conn, session *hub.Session) {
	ticker := time.NewTicker(s.Config.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-session.Send():
			conn.SetWriteDeadline(time.Now().Add(s.Config.WSWriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write to %s: %v", session.Handle, err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.Config.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
