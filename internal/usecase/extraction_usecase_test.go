package usecase

import (
	"context"
	"testing"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBatch(t *testing.T) {
	idx := index.New(4)
	embeddings := NewEmbeddingUC(idx, nil, nil, nil, nil, logger.NewNop(), 0)
	uc := NewExtractionUC(&fakeExtractor{failOn: "broken"}, &fakeEmbedder{dim: 4}, embeddings, nil, logger.NewNop())

	res, err := uc.ExtractBatch(context.Background(), []string{
		"Zara linen shirt, 100% linen, $29.90",
		"   ",
		"broken description",
		"H&M wool coat",
	}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.Succeeded)
	assert.Equal(t, 1, res.Summary.Failed)
	require.Len(t, res.Results, 3)
	assert.ErrorIs(t, res.Results[1].Err, e.ErrUpstreamFailure)
	assert.Equal(t, 2, res.Summary.Errors[0].Item)

	first := res.Results[0]
	require.NoError(t, first.Err)
	require.NotEmpty(t, first.EmbeddingID)
	rec, err := idx.Get(first.EmbeddingID)
	require.NoError(t, err)
	assert.Equal(t, "Zara linen shirt, 100% linen, $29.90", rec.Metadata.String(domain.MetaProductName))
	p, ok := rec.Metadata.Float(domain.MetaPrice)
	require.True(t, ok)
	assert.InDelta(t, 29.9, p, 1e-9)
	assert.Equal(t, 2, idx.Len())
}

func TestExtractBatchWithoutIndexing(t *testing.T) {
	uc := NewExtractionUC(&fakeExtractor{}, nil, nil, nil, logger.NewNop())

	res, err := uc.ExtractBatch(context.Background(), []string{"a", "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Succeeded)
	assert.Empty(t, res.Results[0].EmbeddingID)

	_, err = uc.ExtractBatch(context.Background(), []string{"a"}, true)
	require.ErrorIs(t, err, e.ErrNotConfigured)
}

func TestFindDupes(t *testing.T) {
	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Satin midi skirt", Link: "https://zara.com/1", Snippet: "Affordable"},
		{Title: "broken", Link: "https://hm.com/2", Snippet: "x"},
	}}
	uc := NewExtractionUC(&fakeExtractor{failOn: "broken"}, nil, nil, searcher, logger.NewNop())

	dupes, err := uc.FindDupes(context.Background(), "Prada skirt", 0)
	require.NoError(t, err)
	require.Len(t, dupes, 2)
	require.NotNil(t, dupes[0].Product)
	assert.Equal(t, "Satin midi skirt", dupes[0].Product.ProductName)
	assert.Nil(t, dupes[1].Product)

	_, err = uc.FindDupes(context.Background(), " ", 3)
	require.ErrorIs(t, err, e.ErrEmptyQuery)

	searcher.err = e.Upstream("serpapi", errBoom)
	_, err = uc.FindDupes(context.Background(), "Prada skirt", 3)
	require.ErrorIs(t, err, e.ErrUpstreamFailure)

	_, err = NewExtractionUC(nil, nil, nil, nil, logger.NewNop()).FindDupes(context.Background(), "x", 1)
	require.ErrorIs(t, err, e.ErrNotConfigured)
}
