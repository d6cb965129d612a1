package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sajal/assesshub/internal/mailer"
)

const emailLockTTL = 10 * time.Minute

// Locker guards against concurrent execution of identical tasks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}

// Handler processes background tasks.
type Handler struct {
	mailer mailer.Mailer
	locker Locker
	logger *slog.Logger
}

func NewHandler(m mailer.Mailer, locker Locker, logger *slog.Logger) *Handler {
	return &Handler{mailer: m, locker: locker, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSend, h.HandleEmailSend)
}

func (h *Handler) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var p EmailSendPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshaling email payload: %w", err)
	}

	key := lockKey(t.Type(), t.Payload())
	ok, err := h.locker.Acquire(ctx, key, emailLockTTL)
	if err != nil {
		return fmt.Errorf("acquiring task lock: %w", err)
	}
	if !ok {
		h.logger.Warn("identical email task already in flight, skipping", "to", p.To)
		return nil
	}
	defer func() {
		if err := h.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			h.logger.Error("failed to release task lock", "key", key, "error", err)
		}
	}()

	if err := h.mailer.Send(ctx, p.To, p.Subject, p.Body); err != nil {
		return fmt.Errorf("sending email to %s: %w", p.To, err)
	}
	h.logger.Info("email sent", "to", p.To, "subject", p.Subject)
	return nil
}

func lockKey(taskType string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return "tasklock:" + taskType + ":" + hex.EncodeToString(sum[:])
}
