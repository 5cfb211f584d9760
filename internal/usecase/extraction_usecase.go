package usecase

import (
	"context"
	"strings"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
)

// ExtractionUseCase обрабатывает свободные описания товаров через LLM и ищет дешёвые аналоги.
// embedder, embeddings и searcher могут быть nil.
type ExtractionUseCase struct {
	extractor  Extractor
	embedder   Embedder
	embeddings *EmbeddingUseCase
	searcher   WebSearcher
	logger     logger.Logger
}

func NewExtractionUC(
	extractor Extractor,
	embedder Embedder,
	embeddings *EmbeddingUseCase,
	searcher WebSearcher,
	logger logger.Logger,
) *ExtractionUseCase {
	return &ExtractionUseCase{
		extractor:  extractor,
		embedder:   embedder,
		embeddings: embeddings,
		searcher:   searcher,
		logger:     logger,
	}
}

// ExtractBatch извлекает данные из каждого непустого описания.
// Если store == true и настроен Embedder, текст описания векторизуется и добавляется в индекс.
// Ошибка одного описания логируется и учитывается в итоге, обработка продолжается.
func (x *ExtractionUseCase) ExtractBatch(ctx context.Context, descriptions []string, store bool) (*ExtractBatchRes, error) {
	const op = "ExtractionUseCase.ExtractBatch"

	if x.extractor == nil {
		return nil, e.Wrap(op, e.ErrNotConfigured)
	}
	if store && (x.embedder == nil || x.embeddings == nil) {
		return nil, e.Wrap(op, e.Wrap("embedder", e.ErrNotConfigured))
	}

	res := &ExtractBatchRes{}
	for i, raw := range descriptions {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, e.Wrap(op, err)
		}

		item := ExtractionResult{Source: text}
		item.Product, item.Err = x.extractor.Extract(ctx, text)
		if item.Err == nil && store {
			item.EmbeddingID, item.Err = x.indexText(ctx, text, item.Product)
		}

		if item.Err != nil {
			x.logger.Warnf("Failed to process description #%d: %v", i+1, item.Err)
			res.Summary.fail(i, item.Err)
		} else {
			x.logger.Infof("Processed: %s", nonEmpty(item.Product.ProductName, "Unknown product"))
			res.Summary.ok()
		}
		res.Results = append(res.Results, item)
	}

	x.logger.Infof("Extraction finished. succeeded: %d, failed: %d", res.Summary.Succeeded, res.Summary.Failed)
	return res, nil
}

// FindDupes ищет в интернете доступные альтернативы item и извлекает данные каждого найденного товара.
// Результаты, которые не удалось разобрать, возвращаются без Product.
func (x *ExtractionUseCase) FindDupes(ctx context.Context, item string, n int) ([]Dupe, error) {
	const op = "ExtractionUseCase.FindDupes"

	item = strings.TrimSpace(item)
	if item == "" {
		return nil, e.Wrap(op, e.ErrEmptyQuery)
	}
	if x.searcher == nil {
		return nil, e.Wrap(op, e.Wrap("web search", e.ErrNotConfigured))
	}
	if n <= 0 {
		n = 5
	}

	results, err := x.searcher.SearchDupes(ctx, item, n)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	dupes := make([]Dupe, 0, len(results))
	for _, r := range results {
		d := Dupe{Result: r}
		if x.extractor != nil {
			product, err := x.extractor.Extract(ctx, r.Title+"\n"+r.Snippet)
			if err != nil {
				x.logger.Warnf("Failed to extract dupe %s: %v", r.Link, e.Wrap(op, err))
			} else {
				d.Product = product
			}
		}
		dupes = append(dupes, d)
	}

	return dupes, nil
}

func (x *ExtractionUseCase) indexText(ctx context.Context, text string, p *ExtractedProduct) (string, error) {
	vectors, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return "", err
	}
	if len(vectors) != 1 {
		return "", e.Upstream("embedder", e.Wrap("unexpected number of vectors", e.ErrInvalidVector))
	}

	rec, err := x.embeddings.Store(ctx, vectors[0], p.Metadata())
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Metadata переводит извлечённые поля в метаданные эмбеддинга.
func (p *ExtractedProduct) Metadata() domain.Metadata {
	meta := domain.Metadata{}
	if p.ProductName != "" {
		meta[domain.MetaProductName] = p.ProductName
	}
	if p.Brand != "" {
		meta[domain.MetaBrand] = p.Brand
	}
	if p.MaterialComposition != "" {
		meta[domain.MetaMaterial] = p.MaterialComposition
	}
	if cents, err := ParsePriceCents(p.Price); err == nil && p.Price != "" {
		meta[domain.MetaPrice] = float64(cents) / 100
	}
	return meta
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
