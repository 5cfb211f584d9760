package clients

import (
	"context"
	"fmt"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// NewQdrantClient подключается к Qdrant и готовит коллекцию зеркала эмбеддингов.
func NewQdrantClient(ctx context.Context, cfg *cfg.QdrantCfg) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	err = jitter.Retry(ctx, connectPolicy, func(ctx context.Context) error {
		return ensureCollection(ctx, client, cfg.QdrantCollectionName, cfg.VectorSize)
	}, nil)
	if err != nil {
		_ = client.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return client, nil
}

// ensureCollection создаёт косинусную коллекцию размерности size. Существующая коллекция
// другой размерности — ошибка ErrDimensionMismatch: зеркало не должно молча терять точки.
func ensureCollection(ctx context.Context, client *qdrant.Client, name string, size uint64) error {
	exists, err := client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		if err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     size,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	info, err := client.GetCollectionInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	if got := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize(); got != 0 && got != size {
		return fmt.Errorf("%w: collection %s has size %d, expected %d", e.ErrDimensionMismatch, name, got, size)
	}

	return nil
}
