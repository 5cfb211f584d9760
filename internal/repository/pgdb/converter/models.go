package converter

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingModel представляет запись таблицы embeddings в PostgreSQL.
type EmbeddingModel struct {
	ID        string          `db:"id"`
	Seq       int64           `db:"seq"`
	Embedding pgvector.Vector `db:"embedding"`
	Metadata  []byte          `db:"metadata"`
	CreatedAt time.Time       `db:"created_at"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID            int64     `db:"id"`
	Title         string    `db:"title"`
	Name          string    `db:"name"`
	PriceCents    int64     `db:"price_cents"`
	ImageURL      string    `db:"image_url"`
	AffiliateLink string    `db:"affiliate_link"`
	Brand         string    `db:"brand"`
	Category      string    `db:"category"`
	Description   string    `db:"description"`
	Fabric        string    `db:"fabric"`
	Source        string    `db:"source"`
	CreatedAt     time.Time `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
