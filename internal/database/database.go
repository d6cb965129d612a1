package database

import (
	"fmt"
	"log/slog"

	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.SSLMode == "disable" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying db: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to database", "host", cfg.Host, "database", cfg.Name)

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMemberRequest{},
		&models.Project{},
		&models.ProjectUser{},
		&models.QuestionGroup{},
		&models.Question{},
		&models.Option{},
		&models.StatementTopic{},
		&models.Statement{},
		&models.Mitigation{},
		&models.Opportunity{},
		&models.QuestionStatement{},
		&models.OptionStatement{},
		&models.Survey{},
		&models.SurveyAnswer{},
		&models.SurveyResult{},
		&models.EmailTemplate{},
	)
}
