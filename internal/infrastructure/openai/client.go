package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	goopenai "github.com/sashabaranov/go-openai"
)

const service = "openai"

const systemPrompt = "You are a helpful assistant that extracts structured product information from text. Always return valid JSON."

const extractPrompt = `Extract the following information from the product description:
- Product name
- Brand
- Price
- Material composition
- Key features
- Style details

Text: %s

Return the information in a structured JSON format with these exact keys:
{
    "product_name": "",
    "brand": "",
    "price": "",
    "material_composition": "",
    "key_features": [],
    "style_details": []
}`

// Client реализует usecase.Extractor и usecase.Embedder поверх OpenAI API.
type Client struct {
	api            *goopenai.Client
	chatModel      string
	embeddingModel goopenai.EmbeddingModel
	retry          jitter.Policy
	logger         logger.Logger
}

func NewClient(cfg *cfg.OpenAICfg, logger logger.Logger) *Client {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:            goopenai.NewClientWithConfig(conf),
		chatModel:      cfg.ChatModel,
		embeddingModel: goopenai.EmbeddingModel(cfg.EmbeddingModel),
		retry:          jitter.Policy{Attempts: cfg.MaxRetries, Base: 500 * time.Millisecond, Max: 10 * time.Second},
		logger:         logger,
	}
}

// Extract просит модель разобрать описание товара и вернуть JSON с фиксированными ключами.
func (c *Client) Extract(ctx context.Context, text string) (*usecase.ExtractedProduct, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: fmt.Sprintf(extractPrompt, text)},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var resp goopenai.ChatCompletionResponse
	err := c.do(ctx, "chat completion", func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, e.Upstream(service, fmt.Errorf("empty completion"))
	}

	var product usecase.ExtractedProduct
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Choices[0].Message.Content)), &product); err != nil {
		return nil, e.Upstream(service, fmt.Errorf("malformed extraction JSON: %w", err))
	}

	return &product, nil
}

// Embed возвращает эмбеддинги в порядке входных текстов.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp goopenai.EmbeddingResponse
	err := c.do(ctx, "embeddings", func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, e.Upstream(service, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i := range resp.Data {
		out[i] = resp.Data[i].Embedding
	}

	return out, nil
}

// do повторяет вызов API при временных ошибках и помечает итоговую ошибку как ErrUpstreamFailure.
func (c *Client) do(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	var permanent error
	err := jitter.Retry(ctx, c.retry, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && !retryable(err) {
			permanent = err
			return nil
		}
		return err
	}, func(attempt int, wait time.Duration, err error) {
		c.logger.Warnf("OpenAI %s failed (attempt %d), retrying in %s: %v", what, attempt, wait, err)
	})
	if permanent != nil {
		return e.Upstream(service, permanent)
	}
	if err != nil {
		return e.Upstream(service, err)
	}
	return nil
}

// retryable: 429, 5xx и сетевые ошибки.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	return true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
