package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/conghoan1211/v0-app-chat-cute/db"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
)

// ErrSubscriptionGone is returned by a PushSender when the target will never
// accept deliveries again.
var ErrSubscriptionGone = errors.Wrap(apiErrors.ErrNotification, "subscription gone")

// PushSender delivers a payload to one device target.
type PushSender interface {
	Send(ctx context.Context, target string, payload models.PushPayload) error
}

type NotifyResult string

const (
	NotifySent     NotifyResult = "sent"
	NotifyNoTarget NotifyResult = "no_target"
	NotifyGone     NotifyResult = "gone"
	NotifyFailed   NotifyResult = "failed"
)

const notificationPreviewLength = 50

type NotificationService interface {
	// Notify never fails the caller; the outcome is reported as a NotifyResult.
	Notify(ctx context.Context, identity string, payload models.PushPayload) NotifyResult
	Subscribe(ctx context.Context, identity, target string) error
	HasSubscription(ctx context.Context, identity string) (bool, error)
	Unsubscribe(ctx context.Context, identity string) error
}

type notificationService struct {
	subscriptionRepo db.SubscriptionRepository
	sender           PushSender
}

func NewNotificationService(subscriptionRepo db.SubscriptionRepository, sender PushSender) NotificationService {
	return &notificationService{
		subscriptionRepo: subscriptionRepo,
		sender:           sender,
	}
}

// NewMessageNotification builds the push shown for an incoming chat message.
func NewMessageNotification(msg *models.Message) models.PushPayload {
	return models.PushPayload{
		Title: fmt.Sprintf("New message from %s", msg.Sender),
		Body:  preview(msg),
		Data: map[string]string{
			"conversationId": msg.ConversationID,
			"sender":         msg.Sender,
			"messageId":      msg.ID,
		},
	}
}

func preview(msg *models.Message) string {
	if msg.Text == "" {
		switch msg.Type {
		case models.MessageTypeHeart:
			return "sent a heart"
		case models.MessageTypeStar:
			return "sent a star"
		}
	}
	runes := []rune(msg.Text)
	if len(runes) <= notificationPreviewLength {
		return msg.Text
	}
	return string(runes[:notificationPreviewLength]) + "..."
}

func (s *notificationService) Notify(ctx context.Context, identity string, payload models.PushPayload) NotifyResult {
	sub, err := s.subscriptionRepo.Get(ctx, identity)
	if err != nil {
		log.Printf("Error looking up push subscription for %s: %v", identity, err)
		return NotifyFailed
	}
	if sub == nil {
		return NotifyNoTarget
	}

	err = s.sender.Send(ctx, sub.Target, payload)
	switch {
	case err == nil:
		log.Printf("Push notification sent to %s", identity)
		return NotifySent
	case errors.Is(err, ErrSubscriptionGone):
		log.Printf("Push subscription for %s is gone, removing it", identity)
		if err := s.subscriptionRepo.Delete(ctx, identity); err != nil {
			log.Printf("Error removing push subscription for %s: %v", identity, err)
		}
		return NotifyGone
	default:
		log.Printf("Error sending push notification to %s: %v", identity, err)
		return NotifyFailed
	}
}

func (s *notificationService) Subscribe(ctx context.Context, identity, target string) error {
	identity = strings.ToLower(strings.TrimSpace(identity))
	target = strings.TrimSpace(target)
	if identity == "" || target == "" {
		return errors.Wrap(apiErrors.ErrValidation, "userEmail and token are required")
	}
	return s.subscriptionRepo.Put(ctx, identity, target)
}

func (s *notificationService) HasSubscription(ctx context.Context, identity string) (bool, error) {
	sub, err := s.subscriptionRepo.Get(ctx, strings.ToLower(strings.TrimSpace(identity)))
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, identity string) error {
	return s.subscriptionRepo.Delete(ctx, strings.ToLower(strings.TrimSpace(identity)))
}
