package domain

import "time"

// EmbeddingEventType — тип события об изменении индекса
type EmbeddingEventType string

const (
	EmbeddingCreated EmbeddingEventType = "embedding.created"
	EmbeddingDeleted EmbeddingEventType = "embedding.deleted"
)

// EmbeddingEvent публикуется в Kafka после изменения индекса
type EmbeddingEvent struct {
	EventID     string             `json:"eventId"`
	Type        EmbeddingEventType `json:"type"`
	EmbeddingID string             `json:"embeddingId"`
	Dimension   int                `json:"dimension,omitempty"`
	Metadata    Metadata           `json:"metadata,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

func NewEmbeddingEvent(eventID string, t EmbeddingEventType, embeddingID string, dim int, meta Metadata, at time.Time) *EmbeddingEvent {
	return &EmbeddingEvent{
		EventID:     eventID,
		Type:        t,
		EmbeddingID: embeddingID,
		Dimension:   dim,
		Metadata:    meta,
		OccurredAt:  at,
	}
}
