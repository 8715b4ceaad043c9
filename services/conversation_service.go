package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ConversationService resolves conversations and their participant sets.
type ConversationService interface {
	ResolveOrCreate(ctx context.Context, participants []string, createdBy string, kind models.ConversationKind, displayName, avatar string) (*models.Conversation, error)
	GetParticipants(ctx context.Context, conversationID string) ([]string, error)
	Get(ctx context.Context, conversationID string) (*models.Conversation, error)
	Update(ctx context.Context, conversationID string, update models.ConversationUpdate) (*models.Conversation, error)
	ListForIdentity(ctx context.Context, identity string) ([]models.Conversation, error)
	TouchLastMessage(ctx context.Context, conversationID, text string, at time.Time) error
}

type conversationService struct {
	Config           *config.Config
	conversationRepo db.ConversationRepository
}

func NewConversationService(conversationRepo db.ConversationRepository, conf *config.Config) ConversationService {
	return &conversationService{
		Config:           conf,
		conversationRepo: conversationRepo,
	}
}

// NormalizeParticipants trims and lower-cases identities, drops blanks and
// duplicates, and makes sure createdBy is a member.
func NormalizeParticipants(participants []string, createdBy string) []string {
	all := append(append([]string{}, participants...), createdBy)
	cleaned := lo.Map(all, func(p string, _ int) string {
		return strings.ToLower(strings.TrimSpace(p))
	})
	return lo.Uniq(lo.Compact(cleaned))
}

func newConversationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (s *conversationService) ResolveOrCreate(ctx context.Context, participants []string, createdBy string, kind models.ConversationKind, displayName, avatar string) (*models.Conversation, error) {
	createdBy = strings.ToLower(strings.TrimSpace(createdBy))
	if createdBy == "" {
		return nil, errors.Wrap(apiErrors.ErrValidation, "createdBy is required")
	}
	if kind == "" {
		kind = models.ConversationPrivate
	}
	members := NormalizeParticipants(participants, createdBy)
	if len(members) < 2 {
		return nil, errors.Wrap(apiErrors.ErrValidation, "a conversation needs at least 2 participants")
	}

	var participantKey *string
	if kind == models.ConversationPrivate {
		if len(members) != 2 {
			return nil, errors.Wrapf(apiErrors.ErrValidation, "a private conversation has exactly 2 participants, got %d", len(members))
		}
		key := models.PrivateKey(members[0], members[1])
		existing, err := s.conversationRepo.FindPrivate(ctx, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, apiErrors.ErrNotFound) {
			return nil, err
		}
		participantKey = &key
	}

	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	now := time.Now().UTC()
	conversation := &models.Conversation{
		ID:                   newConversationID(),
		DisplayName:          displayName,
		Avatar:               avatar,
		ParticipantKey:       participantKey,
		CreatedBy:            createdBy,
		Kind:                 kind,
		LastMessageTimestamp: now,
		Participants: lo.Map(members, func(identity string, _ int) models.ConversationParticipant {
			return models.ConversationParticipant{Identity: identity}
		}),
	}

	err := s.conversationRepo.Create(ctx, conversation)
	if err != nil && errors.Is(err, apiErrors.ErrDuplicateKey) && participantKey != nil {
		// Another request created the same pair first.
		log.Printf("private conversation %s created concurrently, returning existing", *participantKey)
		return s.conversationRepo.FindPrivate(ctx, *participantKey)
	}
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *conversationService) GetParticipants(ctx context.Context, conversationID string) ([]string, error) {
	return s.conversationRepo.Participants(ctx, conversationID)
}

func (s *conversationService) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return s.conversationRepo.FindByID(ctx, conversationID)
}

func (s *conversationService) Update(ctx context.Context, conversationID string, update models.ConversationUpdate) (*models.Conversation, error) {
	if update.DisplayName != nil && strings.TrimSpace(*update.DisplayName) == "" {
		return nil, errors.Wrap(apiErrors.ErrValidation, "displayName cannot be empty")
	}
	return s.conversationRepo.Update(ctx, conversationID, update.Columns())
}

func (s *conversationService) ListForIdentity(ctx context.Context, identity string) ([]models.Conversation, error) {
	return s.conversationRepo.ListByIdentity(ctx, strings.ToLower(strings.TrimSpace(identity)))
}

func (s *conversationService) TouchLastMessage(ctx context.Context, conversationID, text string, at time.Time) error {
	return s.conversationRepo.UpdateLastMessage(ctx, conversationID, text, at.UTC())
}
