package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/internal/repository/redis/converter"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// versionKey хранит номер поколения кэша. Invalidate увеличивает его,
// после чего старые ключи перестают читаться и истекают по TTL.
const versionKey = "products:search:version"

// SearchCacheRepo кэширует результаты поиска по каталогу в Redis.
type SearchCacheRepo struct {
	client *r.Client
	conv   converter.ProductSummaryConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSearchCacheRepo(client *r.Client, conv converter.ProductSummaryConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *SearchCacheRepo {
	return &SearchCacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает закэшированный результат поиска. Промах — (nil, false, nil).
func (c *SearchCacheRepo) Get(ctx context.Context, query string) ([]usecase.ProductSummary, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	key := searchKey(version, query)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var models []converter.ProductSummaryRedisModel
	if err := json.Unmarshal(data, &models); err != nil {
		c.logger.Warnf("Redis unmarshal failed, dropping key %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, false, nil
	}

	return c.conv.ToArrUseCase(models), true, nil
}

// Set кэширует результат поиска на SearchTTL.
func (c *SearchCacheRepo) Set(ctx context.Context, query string, products []usecase.ProductSummary) error {
	version, err := c.version(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := json.Marshal(c.conv.ToArrRedisModel(products))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Set(ctx, searchKey(version, query), data, c.cfg.SearchTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Invalidate сбрасывает все закэшированные результаты поиска.
func (c *SearchCacheRepo) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

func (c *SearchCacheRepo) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, r.Nil) {
		return 0, nil
	}
	return v, err
}

// searchKey строит ключ из поколения и нормализованного запроса.
func searchKey(version int64, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("products:search:v%d:%s", version, hex.EncodeToString(sum[:8]))
}
