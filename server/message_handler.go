package server

import (
	"net/http"
	"strconv"

	errs "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// decode binds the JSON body and reports failures as bad requests.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Wrap(errs.ErrBadRequest, err.Error())
	}
	return nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}

func (s *Server) handleGetMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Query("conversationId")
		if conversationID == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("conversationId is required", http.StatusBadRequest))
			return
		}

		history, err := s.MessageService.History(c.Request.Context(), conversationID,
			queryInt(c, "page", 1), queryInt(c, "limit", 20))
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "messages retrieved successfully", http.StatusOK, history, nil)
	}
}

// handleSendMessage persists a message sent over HTTP and relays it to every
// connection joined to the conversation.
func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var event models.MessageEvent
		if err := decode(c, &event); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if event.ConversationID == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("conversationId is required", http.StatusBadRequest))
			return
		}

		if _, err := s.ConversationService.Get(c.Request.Context(), event.ConversationID); err != nil {
			response.HandleErrors(c, err)
			return
		}

		msg, err := s.FanoutService.Publish(c.Request.Context(), "", event.ConversationID, event)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "message sent successfully", http.StatusOK, gin.H{"message": msg}, nil)
	}
}
