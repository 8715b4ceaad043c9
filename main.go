package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/db"
	"github.com/conghoan1211/v0-app-chat-cute/hub"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/conghoan1211/v0-app-chat-cute/server"
	"github.com/conghoan1211/v0-app-chat-cute/services"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "chat-cute",
		Short: "Real-time chat server",
		Long:  "chat-cute relays chat messages over websockets, stores history and sends push notifications.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load()
			if err != nil {
				return err
			}
			gormDB := db.GetDB(conf)
			defer gormDB.Close()
			log.Println("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "seed [email...]",
		Short: "Register accounts so they can start chats",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load()
			if err != nil {
				return err
			}
			gormDB := db.GetDB(conf)
			defer gormDB.Close()

			accountRepo := db.NewAccountRepo(gormDB)
			for _, email := range args {
				account := &models.Account{
					Email:    strings.ToLower(strings.TrimSpace(email)),
					Username: username,
				}
				if account.Username == "" {
					account.Username = strings.Split(account.Email, "@")[0]
				}
				if err := accountRepo.Create(cmd.Context(), account); err != nil {
					log.Printf("skipping %s: %v", account.Email, err)
					continue
				}
				log.Printf("account %s created", account.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "display name for the seeded accounts")
	return cmd
}

func serve() error {
	conf, err := config.Load()
	if err != nil {
		return err
	}

	gormDB := db.GetDB(conf)
	defer gormDB.Close()

	messageRepo, closeStore, err := messageStore(conf, gormDB)
	if err != nil {
		return err
	}
	defer closeStore()

	conversationRepo := db.NewConversationRepo(gormDB)
	subscriptionRepo := db.NewSubscriptionRepo(gormDB)
	accountRepo := db.NewAccountRepo(gormDB)

	connectionHub := hub.NewHub(conf.WSSendBuffer)
	sender := services.NewPushSender(context.Background(), conf)

	messageService := services.NewMessageService(messageRepo, conf)
	conversationService := services.NewConversationService(conversationRepo, conf)
	notificationService := services.NewNotificationService(subscriptionRepo, sender)
	fanoutService := services.NewFanoutService(connectionHub, messageService, conversationService, notificationService, conf)

	s := &server.Server{
		Config:              conf,
		DB:                  gormDB,
		Hub:                 connectionHub,
		AccountRepository:   accountRepo,
		MessageService:      messageService,
		ConversationService: conversationService,
		NotificationService: notificationService,
		FanoutService:       fanoutService,
	}
	s.Start()
	return nil
}

// messageStore opens the configured message log backend.
func messageStore(conf *config.Config, gormDB *db.GormDB) (db.MessageRepository, func(), error) {
	if conf.MessageStore != "badger" {
		return db.NewMessageRepo(gormDB), func() {}, nil
	}
	log.Printf("Opening badger message store at %s", conf.BadgerDir)
	badgerDB, err := db.OpenBadger(conf.BadgerDir)
	if err != nil {
		return nil, nil, err
	}
	return db.NewBadgerMessageRepo(badgerDB), func() {
		if err := badgerDB.Close(); err != nil {
			log.Printf("error closing badger: %v", err)
		}
	}, nil
}
