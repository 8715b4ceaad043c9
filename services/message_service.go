package services

import (
	"context"
	"strings"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
)

const (
	DefaultHistoryPage  = 1
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// MessageService validates and persists messages and serves history pages.
type MessageService interface {
	// Save validates event, stamps conversationID onto it and appends it.
	Save(ctx context.Context, conversationID string, event *models.MessageEvent) (*models.Message, bool, error)
	History(ctx context.Context, conversationID string, page, limit int) (*models.MessageHistoryResponse, error)
	Recent(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

type messageService struct {
	Config      *config.Config
	messageRepo db.MessageRepository
}

func NewMessageService(messageRepo db.MessageRepository, conf *config.Config) MessageService {
	return &messageService{
		Config:      conf,
		messageRepo: messageRepo,
	}
}

func (m *messageService) Save(ctx context.Context, conversationID string, event *models.MessageEvent) (*models.Message, bool, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, false, errors.Wrap(apiErrors.ErrValidation, "conversationId is required")
	}
	event.Normalize(time.Now())
	if err := models.ValidateStruct(event); err != nil {
		return nil, false, err
	}

	if m.Config.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Config.PersistTimeout)
		defer cancel()
	}
	return m.messageRepo.Append(ctx, event.ToMessage(conversationID))
}

// History clamps page and limit to their defaults and bounds before reading.
func (m *messageService) History(ctx context.Context, conversationID string, page, limit int) (*models.MessageHistoryResponse, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, errors.Wrap(apiErrors.ErrValidation, "conversationId is required")
	}
	if page < 1 {
		page = DefaultHistoryPage
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	result, err := m.messageRepo.ListPage(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}
	return &models.MessageHistoryResponse{
		Messages:   result.Messages,
		Pagination: result.Pagination(),
	}, nil
}

// Recent returns up to limit of the newest messages, oldest first.
func (m *messageService) Recent(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit < 1 {
		return []models.Message{}, nil
	}
	result, err := m.messageRepo.ListPage(ctx, conversationID, 1, limit)
	if err != nil {
		return nil, err
	}
	return result.Messages, nil
}
