package db

import (
	"context"
	"time"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConversationRepository is the conversation directory's backing store.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindPrivate(ctx context.Context, participantKey string) (*models.Conversation, error)
	ListByIdentity(ctx context.Context, identity string) ([]models.Conversation, error)
	Participants(ctx context.Context, id string) ([]string, error)
	Update(ctx context.Context, id string, columns map[string]interface{}) (*models.Conversation, error)
	UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error
}

type conversationRepo struct {
	DB *gorm.DB
}

func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// Create inserts the conversation and its participant rows in one
// transaction. A unique violation on the private participant key comes back
// wrapping ErrDuplicateKey.
func (r *conversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(conversation).Error
	})
	if err == nil {
		return nil
	}
	if apiErrors.IsDuplicateKey(err) {
		return errors.Wrapf(apiErrors.ErrDuplicateKey, "create conversation %s", conversation.ID)
	}
	return errors.Wrapf(apiErrors.ErrPersistence, "create conversation: %v", err)
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB.WithContext(ctx).Preload("Participants").Where("id = ?", id).First(&conversation).Error
	if err != nil {
		return nil, lookupError(err, "conversation "+id)
	}
	return &conversation, nil
}

func (r *conversationRepo) FindPrivate(ctx context.Context, participantKey string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB.WithContext(ctx).Preload("Participants").
		Where("kind = ? AND participant_key = ?", models.ConversationPrivate, participantKey).
		First(&conversation).Error
	if err != nil {
		return nil, lookupError(err, "private conversation")
	}
	return &conversation, nil
}

func (r *conversationRepo) ListByIdentity(ctx context.Context, identity string) ([]models.Conversation, error) {
	conversations := []models.Conversation{}
	err := r.DB.WithContext(ctx).Preload("Participants").
		Where("id IN (?)", r.DB.Model(&models.ConversationParticipant{}).
			Select("conversation_id").
			Where("identity = ?", identity)).
		Order("pinned desc").
		Order("last_message_timestamp desc").
		Find(&conversations).Error
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "list conversations: %v", err)
	}
	return conversations, nil
}

func (r *conversationRepo) Participants(ctx context.Context, id string) ([]string, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "find conversation: %v", err)
	}
	if count == 0 {
		return nil, errors.Wrapf(apiErrors.ErrNotFound, "conversation %s", id)
	}

	var identities []string
	err := r.DB.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", id).
		Order("identity").
		Pluck("identity", &identities).Error
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "list participants: %v", err)
	}
	return identities, nil
}

func (r *conversationRepo) Update(ctx context.Context, id string, columns map[string]interface{}) (*models.Conversation, error) {
	if len(columns) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Updates(columns)
		if res.Error != nil {
			return nil, errors.Wrapf(apiErrors.ErrPersistence, "update conversation: %v", res.Error)
		}
	}
	return r.FindByID(ctx, id)
}

func (r *conversationRepo) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND last_message_timestamp <= ?", id, at).
		Updates(map[string]interface{}{
			"last_message":           text,
			"last_message_timestamp": at,
		})
	if res.Error != nil {
		return errors.Wrapf(apiErrors.ErrPersistence, "update last message: %v", res.Error)
	}
	return nil
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(apiErrors.ErrNotFound, "%s", what)
	}
	return errors.Wrapf(apiErrors.ErrPersistence, "find %s: %v", what, err)
}
