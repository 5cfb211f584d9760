package usecase

import "context"

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// Extractor извлекает структурированные данные товара из свободного текста.
type Extractor interface {
	Extract(ctx context.Context, text string) (*ExtractedProduct, error)
}

// Embedder строит эмбеддинги текстов.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// WebSearcher ищет доступные альтернативы товара в интернете.
type WebSearcher interface {
	SearchDupes(ctx context.Context, item string, n int) ([]SearchResult, error)
}
