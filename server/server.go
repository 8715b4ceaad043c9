package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/conghoan1211/v0-app-chat-cute/services"
	"github.com/gorilla/websocket"
)

// Server holds the wired dependencies of the HTTP and socket endpoints.
type Server struct {
	Config              *config.Config
	DB                  *db.GormDB
	Hub                 *hub.Hub
	AccountRepository   db.AccountRepository
	MessageService      services.MessageService
	ConversationService services.ConversationService
	NotificationService services.NotificationService
	FanoutService       services.FanoutService

	upgrader websocket.Upgrader
}

func (s *Server) Start() {
	r := s.setupRouter()

	PORT := fmt.Sprintf(":%d", s.Config.Port)
	if PORT == ":0" {
		PORT = ":3000"
	}
	srv := &http.Server{
		Addr:    PORT,
		Handler: r,
	}
	go func() {
		log.Printf("Server started on %s\n", PORT)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	s.Hub.CloseAll()
	s.FanoutService.Wait()
	log.Println("Server exiting")
}
