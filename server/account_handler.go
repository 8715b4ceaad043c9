package server

import (
	"net/http"

	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/gin-gonic/gin"
)

const accountSearchLimit = 50

func (s *Server) handleSearchAccounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		emails, err := s.AccountRepository.Find(c.Request.Context(), c.Query("search"), c.Query("currentUserEmail"), accountSearchLimit)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "accounts retrieved successfully", http.StatusOK, gin.H{"accounts": emails}, nil)
	}
}
