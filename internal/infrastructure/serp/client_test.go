package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(&cfg.SerpCfg{
		APIKey:     "key",
		BaseURL:    srv.URL + "/search.json",
		Sites:      []string{"hm.com", "zara.com"},
		MaxRetries: 3,
		Timeout:    5 * time.Second,
	}, logger.NewNop())
	c.retry = jitter.Policy{Attempts: 3, Base: time.Millisecond, Max: time.Millisecond}
	return c
}

func TestQuery(t *testing.T) {
	assert.Equal(t,
		"affordable alternative to Prada skirt site:hm.com OR site:zara.com",
		Query(" Prada skirt ", []string{"hm.com", "zara.com"}))
	assert.Equal(t, "affordable alternative to bag", Query("bag", nil))
}

func TestSearchDupes(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2", r.URL.Query().Get("num"))
		assert.Contains(t, r.URL.Query().Get("q"), "site:hm.com OR site:zara.com")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"Satin skirt","link":"https://zara.com/1","snippet":"midi"},
			{"title":"Pleated skirt","link":"https://hm.com/2"},
			{"title":"extra","link":"https://hm.com/3"}
		]}`))
	})

	res, err := c.SearchDupes(context.Background(), "Prada skirt", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Satin skirt", res[0].Title)
	assert.Equal(t, "https://hm.com/2", res[1].Link)
	assert.Empty(t, res[1].Snippet)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchDupesFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.SearchDupes(context.Background(), "bag", 5)
	require.ErrorIs(t, err, e.ErrUpstreamFailure)
	assert.Equal(t, int32(1), calls.Load())

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	})
	_, err = c.SearchDupes(context.Background(), "bag", 5)
	require.ErrorIs(t, err, e.ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "Invalid API key")

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	res, err := c.SearchDupes(context.Background(), "bag", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}
