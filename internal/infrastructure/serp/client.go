package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
)

const service = "serpapi"

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// Client ищет доступные альтернативы товара через SerpAPI (Google organic results).
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	sites   []string
	retry   jitter.Policy
	logger  logger.Logger
}

func NewClient(cfg *cfg.SerpCfg, logger logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		sites:   cfg.Sites,
		retry:   jitter.Policy{Attempts: cfg.MaxRetries, Base: 500 * time.Millisecond, Max: 5 * time.Second},
		logger:  logger,
	}
}

// SearchDupes возвращает до n органических результатов по запросу
// "affordable alternative to <item>", ограниченному сайтами из конфигурации.
func (c *Client) SearchDupes(ctx context.Context, item string, n int) ([]usecase.SearchResult, error) {
	params := url.Values{}
	params.Set("q", Query(item, c.sites))
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(n))
	endpoint := c.baseURL + "?" + params.Encode()

	var resp searchResponse
	var permanent error
	err := jitter.Retry(ctx, c.retry, func(ctx context.Context) error {
		err := c.get(ctx, endpoint, &resp)
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			permanent = err
			return nil
		}
		return err
	}, func(attempt int, wait time.Duration, err error) {
		c.logger.Warnf("SerpAPI request failed (attempt %d), retrying in %s: %v", attempt, wait, err)
	})
	if permanent != nil {
		return nil, e.Upstream(service, permanent)
	}
	if err != nil {
		return nil, e.Upstream(service, err)
	}
	if resp.Error != "" {
		return nil, e.Upstream(service, errors.New(resp.Error))
	}

	results := make([]usecase.SearchResult, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if n > 0 && len(results) == n {
			break
		}
		results = append(results, usecase.SearchResult{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}

	return results, nil
}

// Query строит поисковый запрос с оператором site: для каждого магазина.
func Query(item string, sites []string) string {
	q := "affordable alternative to " + strings.TrimSpace(item)
	if len(sites) == 0 {
		return q
	}

	parts := make([]string, 0, len(sites))
	for _, s := range sites {
		parts = append(parts, "site:"+s)
	}
	return q + " " + strings.Join(parts, " OR ")
}

func (c *Client) get(ctx context.Context, endpoint string, out *searchResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
	}

	*out = searchResponse{}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &statusError{code: res.StatusCode, body: fmt.Sprintf("decode response: %v", err)}
	}

	return nil
}

type statusError struct {
	code int
	body string
}

func (s *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", s.code, s.body)
}

func (s *statusError) retryable() bool {
	return s.code == http.StatusTooManyRequests || s.code >= 500
}
