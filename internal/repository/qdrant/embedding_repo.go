package qdrant

import (
	"context"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingMirror дублирует эмбеддинги в коллекцию Qdrant.
// Источником истины остаётся индекс в памяти и основное хранилище.
type EmbeddingMirror struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingMirror(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingMirror {
	return &EmbeddingMirror{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет или обновляет точку с id записи и её метаданными в payload.
func (q *EmbeddingMirror) Upsert(ctx context.Context, rec *domain.EmbeddingRecord) error {
	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(payload(rec)),
		}},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (q *EmbeddingMirror) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id)),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// payload приводит метаданные к типам, которые понимает qdrant.NewValueMap.
func payload(rec *domain.EmbeddingRecord) map[string]any {
	out := make(map[string]any, len(rec.Metadata)+2)
	for k, v := range rec.Metadata {
		switch val := v.(type) {
		case string, bool, int64, float64, nil:
			out[k] = val
		case int:
			out[k] = int64(val)
		case float32:
			out[k] = float64(val)
		}
	}
	out["seq"] = int64(rec.Seq)
	out["created_at"] = rec.CreatedAt.Unix()
	return out
}
