package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// Notifier enqueues templated emails. Delivery failures are logged and
// never surfaced to the request that triggered them.
type Notifier struct {
	db     *gorm.DB
	client *asynq.Client
	logger *slog.Logger
}

func NewNotifier(db *gorm.DB, client *asynq.Client, logger *slog.Logger) *Notifier {
	return &Notifier{db: db, client: client, logger: logger}
}

// SendTemplate renders the stored template and enqueues an email:send task.
func (n *Notifier) SendTemplate(ctx context.Context, to, templateID string, data map[string]string) {
	if n.client == nil || to == "" {
		return
	}
	subject, body, err := n.render(ctx, templateID, data)
	if err != nil {
		n.logger.Error("failed to render email template", "template", templateID, "error", err)
		return
	}
	task, err := NewEmailSendTask(EmailSendPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		n.logger.Error("failed to build email task", "template", templateID, "error", err)
		return
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		n.logger.Error("failed to enqueue email task", "template", templateID, "to", to, "error", err)
		return
	}
	n.logger.Info("email task enqueued", "template", templateID, "to", to)
}

func (n *Notifier) render(ctx context.Context, templateID string, data map[string]string) (subject, body string, err error) {
	var tmpl models.EmailTemplate
	if err := n.db.WithContext(ctx).Where("identifier = ?", templateID).First(&tmpl).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fmt.Errorf("loading template %q: %w", templateID, err)
		}
		// Unseeded installs still notify, just plainly.
		n.logger.Warn("email template missing, using fallback", "template", templateID)
		tmpl = fallbackTemplate(templateID)
	}
	subject, body = tmpl.Subject, tmpl.Body
	for key, value := range data {
		placeholder := "{{" + key + "}}"
		subject = strings.ReplaceAll(subject, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}
	return subject, body, nil
}

// fallbackTemplate turns an identifier like "project_resolved" into a plain
// notification that still carries the substituted values.
func fallbackTemplate(templateID string) models.EmailTemplate {
	title := strings.ReplaceAll(templateID, "_", " ")
	return models.EmailTemplate{
		Identifier: templateID,
		Subject:    "Notification: " + title,
		Body:       "Hi {{name}},\n\nThis is a notification about: " + title + ".",
	}
}
