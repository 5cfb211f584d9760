package converter

import (
	"encoding/json"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingConverter преобразует EmbeddingRecord между domain и моделью PostgreSQL.
type EmbeddingConverter struct{}

func (EmbeddingConverter) ToModel(entity *domain.EmbeddingRecord) (*EmbeddingModel, error) {
	meta, err := json.Marshal(entity.Metadata.Clone())
	if err != nil {
		return nil, err
	}

	return &EmbeddingModel{
		ID:        entity.ID,
		Seq:       int64(entity.Seq),
		Embedding: pgvector.NewVector(entity.Vector),
		Metadata:  meta,
		CreatedAt: entity.CreatedAt,
	}, nil
}

func (EmbeddingConverter) ToEntity(model *EmbeddingModel) (*domain.EmbeddingRecord, error) {
	meta := domain.Metadata{}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &meta); err != nil {
			return nil, err
		}
	}

	return domain.NewEmbeddingRecord(
		model.ID,
		uint64(model.Seq),
		model.Embedding.Slice(),
		meta,
		model.CreatedAt.UTC(),
	), nil
}

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:            entity.ID,
		Title:         entity.Title,
		Name:          entity.Name,
		PriceCents:    entity.PriceCents,
		ImageURL:      entity.ImageURL,
		AffiliateLink: entity.AffiliateLink,
		Brand:         entity.Brand,
		Category:      entity.Category,
		Description:   entity.Description,
		Fabric:        entity.Fabric,
		Source:        entity.Source,
		CreatedAt:     entity.CreatedAt,
	}
}

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:            model.ID,
		Title:         model.Title,
		Name:          model.Name,
		PriceCents:    model.PriceCents,
		ImageURL:      model.ImageURL,
		AffiliateLink: model.AffiliateLink,
		Brand:         model.Brand,
		Category:      model.Category,
		Description:   model.Description,
		Fabric:        model.Fabric,
		Source:        model.Source,
		CreatedAt:     model.CreatedAt,
	}
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		out = append(out, c.ToEntity(m))
	}
	return out
}
