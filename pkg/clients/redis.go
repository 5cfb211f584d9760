package clients

import (
	"context"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// connectPolicy — повторы первого подключения: зависимости в docker-compose поднимаются не сразу.
var connectPolicy = jitter.Policy{Attempts: 3, Base: 200 * time.Millisecond, Max: 2 * time.Second}

// NewRedisClient подключается к Redis кэша поиска и ждёт первого успешного PING.
// При неудаче клиент закрывается.
func NewRedisClient(ctx context.Context, cfg *cfg.RedisCfg) (*r.Client, error) {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	err := jitter.Retry(ctx, connectPolicy, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, nil)
	if err != nil {
		_ = client.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return client, nil
}
