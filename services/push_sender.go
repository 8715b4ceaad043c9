package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/conghoan1211/v0-app-chat-cute/config"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// FCMSender delivers pushes through Firebase Cloud Messaging. Targets are
// device registration tokens.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initializes the Firebase app from the configured credentials file.
func NewFCMSender(ctx context.Context, conf *config.Config) (*FCMSender, error) {
	opt := option.WithCredentialsFile(conf.GoogleApplicationCredentials)
	var firebaseConfig *firebase.Config
	if conf.FirebaseProjectID != "" {
		firebaseConfig = &firebase.Config{ProjectID: conf.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, firebaseConfig, opt)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing Firebase app")
	}
	log.Println("Firebase initialized")

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting Messaging client")
	}
	log.Println("Firebase Messaging client initialized")
	return &FCMSender{client: client}, nil
}

func (f *FCMSender) Send(ctx context.Context, target string, payload models.PushPayload) error {
	message := &messaging.Message{
		Token: target,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	_, err := f.client.Send(ctx, message)
	if err == nil {
		return nil
	}
	if messaging.IsRegistrationTokenNotRegistered(err) {
		return errors.Wrapf(ErrSubscriptionGone, "fcm: %v", err)
	}
	return errors.Wrapf(apiErrors.ErrNotification, "fcm: %v", err)
}

// LogSender only logs what it would have sent. Used when Firebase is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, target string, payload models.PushPayload) error {
	log.Printf("push (not delivered, no sender configured) target=%s title=%q body=%q data=%v",
		target, payload.Title, payload.Body, payload.Data)
	return nil
}

// NewPushSender picks FCM when credentials are configured and falls back to LogSender.
func NewPushSender(ctx context.Context, conf *config.Config) PushSender {
	if conf.GoogleApplicationCredentials == "" {
		log.Println("GOOGLE_APPLICATION_CREDENTIALS not set, push notifications will only be logged")
		return LogSender{}
	}
	sender, err := NewFCMSender(ctx, conf)
	if err != nil {
		log.Printf("%v, push notifications will only be logged", err)
		return LogSender{}
	}
	return sender
}
