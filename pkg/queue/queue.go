package queue

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/sajal/assesshub/pkg/config"
)

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}

func NewServer(cfg *config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
		},
		asynq.Config{
			Concurrency:    concurrency,
			RetryDelayFunc: retryDelay,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
}

func NewInspector(cfg *config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}

// retryDelay backs off exponentially from a 30s base: 30s, 60s, 120s, ...
func retryDelay(n int, err error, t *asynq.Task) time.Duration {
	if n < 1 {
		n = 1
	}
	return 30 * time.Second * time.Duration(1<<(n-1))
}
