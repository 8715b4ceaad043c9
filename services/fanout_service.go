package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	ErrNotJoined      = errors.Wrap(apiErrors.ErrValidation, "connection has not joined a conversation")
	ErrSenderMismatch = errors.Wrap(apiErrors.ErrValidation, "sender does not match joined identity")
)

// Registry is the part of the connection hub the fan-out engine routes through.
type Registry interface {
	Join(handle, conversationID, identity string) error
	Session(handle string) (hub.SessionInfo, bool)
	DeliverToConversation(conversationID, excludeHandle string, payload []byte) int
	SendTo(handle string, payload []byte) error
	ConnectedIdentities(conversationID string) map[string]bool
}

// FanoutService moves inbound socket frames through persist, broadcast and notify.
type FanoutService interface {
	// HandleFrame processes one raw inbound frame from handle. Frames from a
	// single connection must be handled one at a time, in arrival order.
	HandleFrame(ctx context.Context, handle string, data []byte) error
	Join(ctx context.Context, handle string, event models.JoinEvent) error
	HandleMessage(ctx context.Context, handle string, event models.MessageEvent) (*models.Message, error)
	// Publish persists event into conversationID and delivers it to every joined
	// session except excludeHandle.
	Publish(ctx context.Context, excludeHandle, conversationID string, event models.MessageEvent) (*models.Message, error)
	// Wait stops background work for later messages and blocks until pending
	// summary and notification work has finished.
	Wait()
}

type fanoutService struct {
	Config        *config.Config
	registry      Registry
	messages      MessageService
	conversations ConversationService
	notifications NotificationService

	// mu guards closed and orders wg.Add against Wait.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewFanoutService(registry Registry, messages MessageService, conversations ConversationService, notifications NotificationService, conf *config.Config) FanoutService {
	return &fanoutService{
		Config:        conf,
		registry:      registry,
		messages:      messages,
		conversations: conversations,
		notifications: notifications,
	}
}

func (f *fanoutService) HandleFrame(ctx context.Context, handle string, data []byte) error {
	frame, err := models.DecodeFrame(data)
	if err != nil {
		return errors.Wrapf(apiErrors.ErrValidation, "invalid frame: %v", err)
	}

	if frame.IsJoin() {
		var join models.JoinEvent
		if err := json.Unmarshal(data, &join); err != nil {
			return errors.Wrapf(apiErrors.ErrValidation, "invalid join_chat frame: %v", err)
		}
		return f.Join(ctx, handle, join)
	}

	var event models.MessageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return errors.Wrapf(apiErrors.ErrValidation, "invalid message frame: %v", err)
	}
	_, err = f.HandleMessage(ctx, handle, event)
	return err
}

func (f *fanoutService) Join(ctx context.Context, handle string, event models.JoinEvent) error {
	if err := models.ValidateStruct(&event); err != nil {
		return err
	}
	if err := f.registry.Join(handle, event.ConversationID, event.Identity); err != nil {
		return err
	}
	log.Printf("Connection %s joined conversation %s as %s", handle, event.ConversationID, event.Identity)

	ack, err := json.Marshal(models.JoinAck{
		Type:           models.FrameJoinAck,
		ConversationID: event.ConversationID,
		Identity:       event.Identity,
	})
	if err != nil {
		return err
	}
	if err := f.registry.SendTo(handle, ack); err != nil {
		log.Printf("Failed to send join_ack to %s: %v", handle, err)
		return nil
	}

	f.replayHistory(ctx, handle, event.ConversationID)
	return nil
}

// replayHistory sends the most recent messages to handle only. Failures are logged.
func (f *fanoutService) replayHistory(ctx context.Context, handle, conversationID string) {
	if f.Config.HistoryReplayLimit <= 0 {
		return
	}
	history, err := f.messages.Recent(ctx, conversationID, f.Config.HistoryReplayLimit)
	if err != nil {
		log.Printf("Failed to load history for conversation %s: %v", conversationID, err)
		return
	}
	for i := range history {
		frame, err := json.Marshal(models.MessageEventFrom(&history[i]))
		if err != nil {
			log.Printf("Failed to encode message %s: %v", history[i].ID, err)
			continue
		}
		if err := f.registry.SendTo(handle, frame); err != nil {
			log.Printf("History replay to %s stopped: %v", handle, err)
			return
		}
	}
}

func (f *fanoutService) HandleMessage(ctx context.Context, handle string, event models.MessageEvent) (*models.Message, error) {
	session, ok := f.registry.Session(handle)
	if !ok || session.State != hub.Joined {
		log.Printf("Dropping message %s from connection %s: not joined", event.ID, handle)
		return nil, ErrNotJoined
	}

	sender := strings.ToLower(strings.TrimSpace(event.Sender))
	if sender != "" && sender != session.Identity {
		if f.Config.StrictSender {
			log.Printf("Dropping message %s: sender %s does not match joined identity %s", event.ID, sender, session.Identity)
			return nil, ErrSenderMismatch
		}
		log.Printf("Warning: message %s sender %s differs from joined identity %s", event.ID, sender, session.Identity)
	}

	return f.Publish(ctx, handle, session.ConversationID, event)
}

func (f *fanoutService) Publish(ctx context.Context, excludeHandle, conversationID string, event models.MessageEvent) (*models.Message, error) {
	msg, created, err := f.messages.Save(ctx, conversationID, &event)
	if err != nil {
		log.Printf("Failed to save message %s: %v", event.ID, err)
		return nil, err
	}
	if !created {
		log.Printf("Message %s already stored, skipping delivery", msg.ID)
		return msg, nil
	}

	payload, err := json.Marshal(models.MessageEventFrom(msg))
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrDelivery, "encode message %s: %v", msg.ID, err)
	}
	delivered := f.registry.DeliverToConversation(msg.ConversationID, excludeHandle, payload)
	log.Printf("Message %s delivered to %d connection(s) in %s", msg.ID, delivered, msg.ConversationID)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		log.Printf("Shutting down, skipping summary and notification for message %s", msg.ID)
		return msg, nil
	}
	f.wg.Add(1)
	f.mu.Unlock()

	go func() {
		defer f.wg.Done()
		f.afterDelivery(msg)
	}()
	return msg, nil
}

// afterDelivery refreshes the conversation summary and pushes a notification
// to participants with no live session in the conversation.
func (f *fanoutService) afterDelivery(msg *models.Message) {
	ctx := context.Background()
	if f.Config.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Config.NotifyTimeout)
		defer cancel()
	}

	if err := f.conversations.TouchLastMessage(ctx, msg.ConversationID, lastMessageText(msg), msg.Timestamp); err != nil {
		log.Printf("Failed to update last message of %s: %v", msg.ConversationID, err)
	}

	participants, err := f.conversations.GetParticipants(ctx, msg.ConversationID)
	if err != nil {
		log.Printf("Failed to resolve participants of %s: %v", msg.ConversationID, err)
		return
	}
	online := f.registry.ConnectedIdentities(msg.ConversationID)
	offline := lo.Filter(participants, func(identity string, _ int) bool {
		return identity != msg.Sender && !online[identity]
	})

	payload := NewMessageNotification(msg)
	for _, identity := range offline {
		result := f.notifications.Notify(ctx, identity, payload)
		log.Printf("Notification for message %s to %s: %s", msg.ID, identity, result)
	}
}

func lastMessageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return preview(msg)
}

func (f *fanoutService) Wait() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
}
