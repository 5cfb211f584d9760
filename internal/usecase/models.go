package usecase

import (
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
)

// EMBEDDING USECASE

// UploadEmbeddingReq — запрос на сохранение эмбеддинга товара.
type UploadEmbeddingReq struct {
	ImageURL    string
	Brand       string
	Price       *float64
	Material    string
	ProductName string
	Embedding   []float32
}

// Metadata собирает метаданные записи из полей запроса. Пустые необязательные поля не сохраняются.
func (r *UploadEmbeddingReq) Metadata() domain.Metadata {
	meta := domain.Metadata{domain.MetaImageURL: r.ImageURL}
	if r.Brand != "" {
		meta[domain.MetaBrand] = r.Brand
	}
	if r.Price != nil {
		meta[domain.MetaPrice] = *r.Price
	}
	if r.Material != "" {
		meta[domain.MetaMaterial] = r.Material
	}
	if r.ProductName != "" {
		meta[domain.MetaProductName] = r.ProductName
	}
	return meta
}

// UploadEmbeddingRes — сохранённая запись.
type UploadEmbeddingRes struct {
	Record domain.EmbeddingRecord
}

// FindSimilarReq — запрос поиска похожих товаров.
// K == nil означает значение по умолчанию, MinSimilarity == nil означает отсутствие порога.
type FindSimilarReq struct {
	Embedding     []float32
	K             *int
	Metric        string
	MinSimilarity *float64
}

// FindSimilarRes — найденные записи в порядке убывания сходства.
type FindSimilarRes struct {
	Matches []index.Match
	Metric  index.Metric
}

// IndexStats — состояние индекса.
type IndexStats struct {
	Count     int
	Dimension int
}

// ValidationReport — результат проверки сохранённых эмбеддингов.
type ValidationReport struct {
	Total   int
	Valid   int
	Invalid []InvalidEmbedding
}

// InvalidEmbedding описывает запись с некорректным вектором.
type InvalidEmbedding struct {
	ID     string
	Length int
	Reason string
}

// PRODUCT USECASE

// ProductDraft — данные нового товара до сохранения (из CSV, сидов или LLM).
type ProductDraft struct {
	Title         string
	Name          string
	Price         string // цена в исходном виде, например "19.99" или "$19.99"
	ImageURL      string
	AffiliateLink string
	Brand         string
	Category      string
	Description   string
	Fabric        string
	Source        string
}

// ProductSummary — DTO товара для ответа /api/products/search.
type ProductSummary struct {
	ID            int64
	Title         string
	Brand         string
	Price         string
	ImageURL      string
	AffiliateLink string
	Category      string
	Description   string
	Fabric        string
	Source        string
}

// SearchProductsRes — результат поиска по каталогу.
type SearchProductsRes struct {
	Products []ProductSummary
	Cached   bool
}

// BatchSummary — итог пакетной операции: успешные и неудачные элементы.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Errors    []ItemError
}

// ItemError — ошибка обработки одного элемента пакета.
type ItemError struct {
	Item int
	Err  error
}

func (s *BatchSummary) ok() { s.Succeeded++ }

func (s *BatchSummary) fail(item int, err error) {
	s.Failed++
	s.Errors = append(s.Errors, ItemError{Item: item, Err: err})
}

// EXTRACTION USECASE

// ExtractedProduct — структурированные данные товара, извлечённые LLM из текста.
type ExtractedProduct struct {
	ProductName         string   `json:"product_name"`
	Brand               string   `json:"brand"`
	Price               string   `json:"price"`
	MaterialComposition string   `json:"material_composition"`
	KeyFeatures         []string `json:"key_features"`
	StyleDetails        []string `json:"style_details"`
}

// ExtractionResult — результат обработки одного описания.
type ExtractionResult struct {
	Source      string
	Product     *ExtractedProduct
	EmbeddingID string
	Err         error
}

// ExtractBatchRes — результаты пакетного извлечения.
type ExtractBatchRes struct {
	Results []ExtractionResult
	Summary BatchSummary
}

// SearchResult — органический результат веб-поиска.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// Dupe — найденная доступная альтернатива.
type Dupe struct {
	Result  SearchResult
	Product *ExtractedProduct
}

// SNAPSHOT USECASE

// SnapshotInfo описывает сохранённый снимок индекса.
type SnapshotInfo struct {
	Key     string
	Records int
	Size    int
	SavedAt time.Time
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "PENDING"
	Processing OutboxStatus = "PROCESSING"
	Processed  OutboxStatus = "PROCESSED"
)

// OutboxEvent — событие, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	AggregateID string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// WriteRawMessageReq — сообщение для брокера.
type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// MAPPERS

func NewUploadEmbeddingReq(imageURL, brand string, price *float64, material, productName string, embedding []float32) *UploadEmbeddingReq {
	return &UploadEmbeddingReq{
		ImageURL:    imageURL,
		Brand:       brand,
		Price:       price,
		Material:    material,
		ProductName: productName,
		Embedding:   embedding,
	}
}

func NewFindSimilarReq(embedding []float32, k *int, metric string, minSimilarity *float64) *FindSimilarReq {
	return &FindSimilarReq{
		Embedding:     embedding,
		K:             k,
		Metric:        metric,
		MinSimilarity: minSimilarity,
	}
}

func NewOutboxEvent(eventID, eventType, aggregateID string, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   createdAt,
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}
