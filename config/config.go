package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug            bool   `envconfig:"debug"`
	Port             int    `envconfig:"port" default:"3000"`
	Env              string `envconfig:"env" default:"dev"`
	DBDriver         string `envconfig:"db_driver" default:"postgres"`
	PostgresHost     string `envconfig:"postgres_host"`
	PostgresUser     string `envconfig:"postgres_user"`
	PostgresDB       string `envconfig:"postgres_db"`
	PostgresPort     int    `envconfig:"postgres_port" default:"5432"`
	PostgresPassword string `envconfig:"postgres_password"`
	PostgresTimeZone string `envconfig:"postgres_timezone" default:"UTC"`
	SQLitePath       string `envconfig:"sqlite_path" default:"chat.db"`

	// MessageStore selects the message log backend: "sql" or "badger".
	MessageStore string `envconfig:"message_store" default:"sql"`
	BadgerDir    string `envconfig:"badger_dir" default:"./data/messages"`

	GoogleApplicationCredentials string `envconfig:"google_application_credentials"`
	FirebaseProjectID            string `envconfig:"firebase_project_id"`
	AccessControlAllowOrigin     string `envconfig:"access_control_allow_origin"`

	WSReadBufferSize  int           `envconfig:"ws_read_buffer_size" default:"1024"`
	WSWriteBufferSize int           `envconfig:"ws_write_buffer_size" default:"1024"`
	WSSendBuffer      int           `envconfig:"ws_send_buffer" default:"256"`
	WSMaxMessageSize  int64         `envconfig:"ws_max_message_size" default:"65536"`
	WSPingInterval    time.Duration `envconfig:"ws_ping_interval" default:"30s"`
	WSReadTimeout     time.Duration `envconfig:"ws_read_timeout" default:"60s"`
	WSWriteTimeout    time.Duration `envconfig:"ws_write_timeout" default:"10s"`

	PersistTimeout     time.Duration `envconfig:"persist_timeout" default:"5s"`
	NotifyTimeout      time.Duration `envconfig:"notify_timeout" default:"10s"`
	HistoryReplayLimit int           `envconfig:"history_replay_limit" default:"50"`
	StrictSender       bool          `envconfig:"strict_sender"`

	RateLimitPerSecond uint `envconfig:"rate_limit_per_second" default:"5"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("relay", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
