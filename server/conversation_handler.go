package server

import (
	"fmt"
	"net/http"

	errs "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/conghoan1211/v0-app-chat-cute/services"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func (s *Server) handleCreateChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateConversationRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := models.ValidateStruct(&req); err != nil {
			response.HandleErrors(c, err)
			return
		}

		ctx := c.Request.Context()
		for _, identity := range services.NormalizeParticipants(req.Participants, req.CreatedBy) {
			exists, err := s.AccountRepository.Exists(ctx, identity)
			if err != nil {
				response.HandleErrors(c, err)
				return
			}
			if !exists {
				response.JSON(c, "", http.StatusNotFound, nil, errs.New(fmt.Sprintf("user %s not found", identity), http.StatusNotFound))
				return
			}
		}

		conversation, err := s.ConversationService.ResolveOrCreate(ctx, req.Participants, req.CreatedBy, req.ChatType, req.Name, req.Avatar)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "chat ready", http.StatusOK, gin.H{"chat": conversation.Response()}, nil)
	}
}

func (s *Server) handleListChats() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.Query("identity")
		if identity == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("identity is required", http.StatusBadRequest))
			return
		}

		conversations, err := s.ConversationService.ListForIdentity(c.Request.Context(), identity)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		chats := lo.Map(conversations, func(conversation models.Conversation, _ int) models.ConversationResponse {
			return conversation.Response()
		})
		response.JSON(c, "chats retrieved successfully", http.StatusOK, gin.H{"chats": chats}, nil)
	}
}

func (s *Server) handleGetChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversation, err := s.ConversationService.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "chat retrieved successfully", http.StatusOK, gin.H{"chat": conversation.Response()}, nil)
	}
}

func (s *Server) handleUpdateChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update models.ConversationUpdate
		if err := decode(c, &update); err != nil {
			response.HandleErrors(c, err)
			return
		}

		conversation, err := s.ConversationService.Update(c.Request.Context(), c.Param("id"), update)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "chat updated successfully", http.StatusOK, gin.H{"chat": conversation.Response()}, nil)
	}
}
