package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// Service owns the gorm connection. DATABASE_URL selects the backend:
// postgres:// connects to Postgres, anything else is treated as a SQLite
// path (the default, matching small single-node deployments).
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

const defaultSQLitePath = "vaultchat.db"

func NewService(databaseURL string, log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		serviceLog.Info("Connecting to Postgres...")
		dialector = postgres.Open(databaseURL)
	case databaseURL == "":
		serviceLog.Info("No DATABASE_URL set, using SQLite", "path", defaultSQLitePath)
		dialector = sqlite.Open(defaultSQLitePath)
	default:
		serviceLog.Info("Connecting to SQLite", "path", databaseURL)
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Chat{},
		&types.Topic{},
		&types.User{},
		&types.Message{},
		&types.Metric{},
		&types.TurnRecord{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}

	// Message and topic rows cascade with their chat. Metric rows have no
	// foreign key at all: usage history survives chat deletion.
	if s.db.Dialector.Name() == "postgres" {
		if err := s.db.Exec(`
			ALTER TABLE "message"
			ADD CONSTRAINT "fk_message_chat_id"
			FOREIGN KEY ("chat_id")
			REFERENCES "chat"("id")
			ON DELETE CASCADE
		`).Error; err != nil && !isDuplicateConstraint(err) {
			return fmt.Errorf("add fk_message_chat_id: %w", err)
		}
		if err := s.db.Exec(`
			ALTER TABLE "topic"
			ADD CONSTRAINT "fk_topic_chat_id"
			FOREIGN KEY ("chat_id")
			REFERENCES "chat"("id")
			ON DELETE CASCADE
		`).Error; err != nil && !isDuplicateConstraint(err) {
			return fmt.Errorf("add fk_topic_chat_id: %w", err)
		}
	}
	return nil
}

func isDuplicateConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
