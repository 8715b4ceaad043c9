package server

import (
	"net/http"

	errs "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SubscribeRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := s.NotificationService.Subscribe(c.Request.Context(), req.UserEmail, req.Token); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "subscription saved", http.StatusOK, gin.H{"success": true}, nil)
	}
}

func (s *Server) handleGetSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userEmail := c.Query("userEmail")
		if userEmail == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("userEmail is required", http.StatusBadRequest))
			return
		}
		ok, err := s.NotificationService.HasSubscription(c.Request.Context(), userEmail)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, gin.H{"hasSubscription": ok}, nil)
	}
}

func (s *Server) handleUnsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userEmail := c.Query("userEmail")
		if userEmail == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("userEmail is required", http.StatusBadRequest))
			return
		}
		if err := s.NotificationService.Unsubscribe(c.Request.Context(), userEmail); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "subscription removed", http.StatusOK, gin.H{"success": true}, nil)
	}
}

func (s *Server) handleSendPush() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PushRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := models.ValidateStruct(&req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if req.Title == "" {
			req.Title = "New notification"
		}

		result := s.NotificationService.Notify(c.Request.Context(), req.UserEmail, models.PushPayload{
			Title: req.Title,
			Body:  req.Body,
			Data:  req.Data,
		})
		response.JSON(c, "", http.StatusOK, gin.H{"result": result}, nil)
	}
}
