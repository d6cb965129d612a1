//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sajal/assesshub/internal/auth"
	"github.com/sajal/assesshub/internal/database"
	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/pkg/config"
	"github.com/sajal/assesshub/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	seedModerator(db, cfg)
	seedEmailTemplates(db)
	seedCatalog(db)

	fmt.Println("Seed complete.")
}

func seedModerator(db *gorm.DB, cfg *config.Config) {
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	username := envOr("MODERATOR_USERNAME", "moderator")
	email := envOr("MODERATOR_EMAIL", "moderator@example.com")
	password := envOr("MODERATOR_PASSWORD", "Moderator123")
	name := envOr("MODERATOR_NAME", "Moderator")

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Moderator already exists: %s\n", username)
			return
		}
		log.Fatalf("failed to create moderator: %v", err)
	}

	if err := db.Model(resp.User).Update("is_moderator", true).Error; err != nil {
		log.Fatalf("failed to flag moderator: %v", err)
	}

	fmt.Printf("Moderator created: %s\n", resp.User.Username)
}

func seedEmailTemplates(db *gorm.DB) {
	templates := []models.EmailTemplate{
		{
			Identifier: models.TemplateMemberRequestCreated,
			Subject:    "New member request for {{organization}}",
			Body:       "Hi {{name}},\n\n{{username}} has requested to join {{organization}}. Review the request in your dashboard.",
		},
		{
			Identifier: models.TemplateMemberRequestResolved,
			Subject:    "Your member request for {{organization}} was {{status}}",
			Body:       "Hi {{name}},\n\nYour request to join {{organization}} has been {{status}}.",
		},
		{
			Identifier: models.TemplateOrganizationResolved,
			Subject:    "Your organization {{organization}} was {{status}}",
			Body:       "Hi {{name}},\n\nYour organization {{organization}} has been {{status}}.",
		},
		{
			Identifier: models.TemplateProjectResolved,
			Subject:    "Your project {{project}} was {{status}}",
			Body:       "Hi {{name}},\n\nYour project {{project}} has been {{status}}.",
		},
	}

	for _, tmpl := range templates {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}},
			DoNothing: true,
		}).Create(&tmpl).Error
		if err != nil {
			log.Fatalf("failed to seed email template %s: %v", tmpl.Identifier, err)
		}
	}

	fmt.Println("Email templates seeded.")
}

// seedCatalog loads a small sample question and statement catalog so a fresh
// install has something to survey against.
func seedCatalog(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.QuestionGroup{}).Count(&count).Error; err != nil {
		log.Fatalf("failed to inspect question catalog: %v", err)
	}
	if count > 0 {
		fmt.Println("Catalog already present, skipping.")
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		group := models.QuestionGroup{Code: "site", Title: "Site conditions", Order: 1}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		waterSource := models.Question{
			Code:       "site-water-source",
			Title:      "What is the primary water source?",
			AnswerType: models.AnswerTypeSingleOption,
			GroupID:    &group.ID,
			Order:      1,
		}
		if err := tx.Create(&waterSource).Error; err != nil {
			return err
		}
		options := []models.Option{
			{QuestionID: waterSource.ID, Code: "river", Title: "River", Order: 1},
			{QuestionID: waterSource.ID, Code: "well", Title: "Well", Order: 2},
			{QuestionID: waterSource.ID, Code: "rain", Title: "Rainwater", Order: 3},
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}

		questions := []models.Question{
			{Code: "site-location", Title: "Site location", AnswerType: models.AnswerTypeLocation, GroupID: &group.ID, Order: 2},
			{Code: "site-photo", Title: "Site photo", AnswerType: models.AnswerTypeSingleImage, GroupID: &group.ID, Order: 3},
			{Code: "site-notes", Title: "Additional notes", AnswerType: models.AnswerTypeText, GroupID: &group.ID, Order: 4},
		}
		if err := tx.Create(&questions).Error; err != nil {
			return err
		}

		topic := models.StatementTopic{Title: "Water availability", Order: 1}
		if err := tx.Create(&topic).Error; err != nil {
			return err
		}
		statement := models.Statement{
			Code:    "wa-01",
			Title:   "The site depends on a single seasonal water source",
			TopicID: &topic.ID,
			Order:   1,
		}
		if err := tx.Create(&statement).Error; err != nil {
			return err
		}

		mitigation := models.Mitigation{Code: "wa-01-m1", Title: "Develop a secondary water source", Order: 1}
		if err := tx.Create(&mitigation).Error; err != nil {
			return err
		}
		opportunity := models.Opportunity{Code: "wa-01-o1", Title: "Install rainwater harvesting", Order: 1}
		if err := tx.Create(&opportunity).Error; err != nil {
			return err
		}
		if err := tx.Model(&statement).Association("Mitigations").Append(&mitigation); err != nil {
			return err
		}
		return tx.Model(&statement).Association("Opportunities").Append(&opportunity)
	})
	if err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}

	fmt.Println("Sample catalog seeded.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
