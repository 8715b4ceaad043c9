package server

import (
	"net/http"

	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "ok"
		if s.DB != nil && s.DB.DB != nil {
			if sqlDB, err := s.DB.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				database = "unavailable"
			}
		}
		response.JSON(c, "ok", http.StatusOK, gin.H{
			"connections":   s.Hub.ConnectionCount(),
			"conversations": s.Hub.ConversationCount(),
			"database":      database,
		}, nil)
	}
}
