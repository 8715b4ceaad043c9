package db

import (
	"context"
	"slices"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// Append stores msg keyed by its ID. If the ID is already stored the
	// existing record is returned, nothing is written and created is false.
	Append(ctx context.Context, msg *models.Message) (stored *models.Message, created bool, err error)
	// ListPage returns page (1-based) of a conversation, newest pages first,
	// with the messages inside the page ordered oldest to newest.
	ListPage(ctx context.Context, conversationID string, page, pageSize int) (*models.MessagePage, error)
}

type messageRepo struct {
	DB *gorm.DB
}

func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) Append(ctx context.Context, msg *models.Message) (*models.Message, bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(msg)
	if res.Error != nil && !apiErrors.IsDuplicateKey(res.Error) {
		return nil, false, errors.Wrapf(apiErrors.ErrPersistence, "append message %s: %v", msg.ID, res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return msg, true, nil
	}

	// Lost the race or a retry: hand back the stored record.
	var existing models.Message
	if err := r.DB.WithContext(ctx).Where("id = ?", msg.ID).First(&existing).Error; err != nil {
		return nil, false, errors.Wrapf(apiErrors.ErrPersistence, "load message %s: %v", msg.ID, err)
	}
	return &existing, false, nil
}

func (r *messageRepo) ListPage(ctx context.Context, conversationID string, page, pageSize int) (*models.MessagePage, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error; err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "count messages: %v", err)
	}

	messages := []models.Message{}
	offset := (page - 1) * pageSize
	err := r.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at desc").
		Order("id desc").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "list messages: %v", err)
	}

	slices.Reverse(messages)
	return &models.MessagePage{
		Messages:   messages,
		Page:       page,
		Limit:      pageSize,
		TotalCount: total,
		HasNext:    models.HasNextPage(page, pageSize, total),
		HasPrev:    page > 1,
	}, nil
}
