package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
)

// EmbeddingRepo хранит эмбеддинги в sqlite для локального запуска и тестов.
type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) Create(ctx context.Context, rec *domain.EmbeddingRecord) error {
	meta, err := json.Marshal(rec.Metadata.Clone())
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO embeddings (id, seq, embedding, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, int64(rec.Seq), encodeVector(rec.Vector), string(meta), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *EmbeddingRepo) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

func (r *EmbeddingRepo) List(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, seq, embedding, metadata, created_at FROM embeddings ORDER BY seq`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.EmbeddingRecord, 0)
	for rows.Next() {
		var (
			id        string
			seq       int64
			blob      []byte
			metaJSON  string
			createdAt int64
		)
		if err := rows.Scan(&id, &seq, &blob, &metaJSON, &createdAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%s: embedding %s: %w", whereami.WhereAmI(), id, err)
		}

		meta := domain.Metadata{}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return nil, fmt.Errorf("%s: embedding %s: %w", whereami.WhereAmI(), id, err)
			}
		}

		result = append(result, *domain.NewEmbeddingRecord(id, uint64(seq), vector, meta, time.Unix(0, createdAt).UTC()))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
