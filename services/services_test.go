package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestDB(t *testing.T) *db.GormDB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gormDB, err := db.Open(sqlite.Open(dsn), false)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gormDB))

	g := &db.GormDB{DB: gormDB}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func testConfig() *config.Config {
	return &config.Config{
		WSSendBuffer:       16,
		PersistTimeout:     time.Second,
		NotifyTimeout:      time.Second,
		HistoryReplayLimit: 50,
	}
}

type mockNotifications struct {
	mock.Mock
}

func (m *mockNotifications) Notify(ctx context.Context, identity string, payload models.PushPayload) NotifyResult {
	args := m.Called(ctx, identity, payload)
	return args.Get(0).(NotifyResult)
}

func (m *mockNotifications) Subscribe(ctx context.Context, identity, target string) error {
	return m.Called(ctx, identity, target).Error(0)
}

func (m *mockNotifications) HasSubscription(ctx context.Context, identity string) (bool, error) {
	args := m.Called(ctx, identity)
	return args.Bool(0), args.Error(1)
}

func (m *mockNotifications) Unsubscribe(ctx context.Context, identity string) error {
	return m.Called(ctx, identity).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, target string, payload models.PushPayload) error {
	return m.Called(ctx, target, payload).Error(0)
}

// nextFrame waits briefly for the next frame queued on session.
func nextFrame(t *testing.T, session *hub.Session) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-session.Send():
		require.True(t, ok, "session closed")
		frame := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		require.FailNow(t, "no frame received")
	}
	return nil
}

func requireNoFrame(t *testing.T, session *hub.Session) {
	t.Helper()
	select {
	case data := <-session.Send():
		require.FailNowf(t, "unexpected frame", "%s", data)
	default:
	}
}
