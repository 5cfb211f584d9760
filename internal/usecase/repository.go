package usecase

import (
	"context"

	"github.com/briannabogos1157/threadtwin/internal/domain"
)

type EmbeddingRepository interface {
	Create(ctx context.Context, rec *domain.EmbeddingRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.EmbeddingRecord, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	Release(ctx context.Context, id int64) error
}

// SearchCacheRepository кэширует результаты поиска по каталогу.
type SearchCacheRepository interface {
	Get(ctx context.Context, query string) ([]ProductSummary, bool, error)
	Set(ctx context.Context, query string, products []ProductSummary) error
	Invalidate(ctx context.Context) error
}

// EmbeddingMirror дублирует эмбеддинги во внешнее векторное хранилище.
type EmbeddingMirror interface {
	Upsert(ctx context.Context, rec *domain.EmbeddingRecord) error
	Delete(ctx context.Context, id string) error
}

type SnapshotRepository interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
