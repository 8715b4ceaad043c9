package db

import (
	"fmt"
	"log"

	"github.com/conghoan1211/v0-app-chat-cute/config"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	gormDB, err := Open(dialector(c), c.Env != "prod")
	if err != nil {
		log.Fatal(err)
	}
	g.DB = gormDB

	if err := Migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func dialector(c *config.Config) gorm.Dialector {
	switch c.DBDriver {
	case "sqlite":
		log.Printf("Opening sqlite database at %s", c.SQLitePath)
		return sqlite.Open(c.SQLitePath)
	default:
		log.Printf("Connecting to postgres: host=%s db=%s port=%d", c.PostgresHost, c.PostgresDB, c.PostgresPort)
		postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=%s",
			c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresTimeZone)
		return postgres.New(postgres.Config{
			DSN: postgresDSN,
		})
	}
}

// Open creates the pool. TranslateError makes unique violations surface as
// gorm.ErrDuplicatedKey on every dialect.
func Open(d gorm.Dialector, verbose bool) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}
	if verbose {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}
	return gorm.Open(d, gormConfig)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.PushSubscription{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}
	return nil
}

func (g *GormDB) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
