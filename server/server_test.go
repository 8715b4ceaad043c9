package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/conghoan1211/v0-app-chat-cute/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  string          `json:"errors"`
	Status  string          `json:"status"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	conn, err := db.Open(sqlite.Open(dsn), false)
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(conn))
	gormDB := &db.GormDB{DB: conn}
	t.Cleanup(func() { _ = gormDB.Close() })

	conf := &config.Config{
		WSReadBufferSize:   1024,
		WSWriteBufferSize:  1024,
		WSSendBuffer:       16,
		WSMaxMessageSize:   65536,
		WSPingInterval:     time.Second,
		WSReadTimeout:      5 * time.Second,
		WSWriteTimeout:     time.Second,
		PersistTimeout:     time.Second,
		NotifyTimeout:      time.Second,
		HistoryReplayLimit: 50,
		RateLimitPerSecond: 100,
	}

	accounts := db.NewAccountRepo(gormDB)
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		require.NoError(t, accounts.Create(context.Background(), &models.Account{Email: email}))
	}

	connectionHub := hub.NewHub(conf.WSSendBuffer)
	messageService := services.NewMessageService(db.NewMessageRepo(gormDB), conf)
	conversationService := services.NewConversationService(db.NewConversationRepo(gormDB), conf)
	notificationService := services.NewNotificationService(db.NewSubscriptionRepo(gormDB), services.LogSender{})
	fanoutService := services.NewFanoutService(connectionHub, messageService, conversationService, notificationService, conf)
	t.Cleanup(fanoutService.Wait)

	return &Server{
		Config:              conf,
		DB:                  gormDB,
		Hub:                 connectionHub,
		AccountRepository:   accounts,
		MessageService:      messageService,
		ConversationService: conversationService,
		NotificationService: notificationService,
		FanoutService:       fanoutService,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// createChat opens the alice/bob private chat and returns its id.
func createChat(t *testing.T, router http.Handler) string {
	t.Helper()
	status, env := doJSON(t, router, http.MethodPost, "/api/v1/chats", gin.H{
		"name":         "Bob",
		"participants": []string{"bob@example.com"},
		"createdBy":    "alice@example.com",
	})
	require.Equal(t, http.StatusOK, status, env.Errors)
	var data struct {
		Chat models.ConversationResponse `json:"chat"`
	}
	decodeData(t, env, &data)
	return data.Chat.ID
}
