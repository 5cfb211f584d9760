package pgdb

import (
	"context"
	"fmt"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/repository/pgdb/converter"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// EmbeddingRepo хранит эмбеддинги в PostgreSQL (колонка pgvector).
// Поиск по хранилищу не выполняется: он идёт по индексу в памяти.
type EmbeddingRepo struct {
	pool *pgxpool.Pool
	conv converter.EmbeddingConverter
}

func NewEmbeddingRepo(pool *pgxpool.Pool, conv converter.EmbeddingConverter) *EmbeddingRepo {
	return &EmbeddingRepo{
		pool: pool,
		conv: conv,
	}
}

func (r *EmbeddingRepo) Create(ctx context.Context, rec *domain.EmbeddingRecord) error {
	model, err := r.conv.ToModel(rec)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO embeddings (id, seq, embedding, metadata, created_at)
		VALUES ($1, $2, $3::vector, $4, $5)
	`

	_, err = conn(ctx, r.pool).Exec(ctx, query,
		model.ID,
		model.Seq,
		model.Embedding,
		model.Metadata,
		model.CreatedAt,
	)
	if err != nil {
		if postgresDuplicate(err) {
			return fmt.Errorf("%s: embedding %s: %w", whereami.WhereAmI(), rec.ID, e.ErrInvalidArgument)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет запись. Отсутствие записи ошибкой не считается.
func (r *EmbeddingRepo) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM embeddings WHERE id = $1`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// List возвращает все записи в порядке вставки.
func (r *EmbeddingRepo) List(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	query := `
		SELECT id::text, seq, embedding::text, metadata, created_at
		FROM embeddings
		ORDER BY seq
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.EmbeddingRecord, 0)
	for rows.Next() {
		var model converter.EmbeddingModel
		if err := rows.Scan(&model.ID, &model.Seq, &model.Embedding, &model.Metadata, &model.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		rec, err := r.conv.ToEntity(&model)
		if err != nil {
			return nil, fmt.Errorf("%s: embedding %s: %w", whereami.WhereAmI(), model.ID, err)
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
