package usecase

import (
	"context"
	"testing"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCents(t *testing.T) {
	cases := map[string]int64{
		"":          0,
		"19.99":     1999,
		"$19.99":    1999,
		"$1,299.00": 129900,
		"USD 5":     500,
		" 7.5 ":     750,
		"12.340":    1234,
	}
	for in, want := range cases {
		got, err := ParsePriceCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePriceCents("abc")
	require.ErrorIs(t, err, e.ErrInvalidPrice)
	_, err = ParsePriceCents("-3")
	require.ErrorIs(t, err, e.ErrInvalidPrice)
	_, err = ParsePriceCents("1.999")
	require.ErrorIs(t, err, e.ErrPricePrecision)
}

func TestFormatPriceCents(t *testing.T) {
	assert.Equal(t, "19.99", FormatPriceCents(1999))
	assert.Equal(t, "0.00", FormatPriceCents(0))
	assert.Equal(t, "5.00", FormatPriceCents(500))
}

func TestImportIsBestEffort(t *testing.T) {
	repo := &fakeProductRepo{failTitles: map[string]bool{"Broken Dress": true}}
	cache := newFakeCache()
	tx := &recordingTx{}
	uc := NewProductUC(repo, cache, tx, logger.NewNop())

	summary, err := uc.Import(context.Background(), []ProductDraft{
		{Title: "Linen Shirt", Price: "$39.90", Brand: "H&M", Source: "csv"},
		{Title: "", Name: "", Price: "10"},
		{Title: "Silk Scarf", Price: "abc"},
		{Title: "Broken Dress", Price: "20"},
		{Name: "Wool Coat", Price: "129.00", Source: "csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	require.Len(t, summary.Errors, 3)
	assert.ErrorIs(t, summary.Errors[0].Err, e.ErrMissingFields)
	assert.Equal(t, 1, summary.Errors[0].Item)
	assert.ErrorIs(t, summary.Errors[1].Err, e.ErrInvalidPrice)
	assert.ErrorIs(t, summary.Errors[2].Err, errBoom)

	require.Len(t, repo.products, 2)
	assert.Equal(t, int64(3990), repo.products[0].PriceCents)
	assert.Equal(t, "Wool Coat", repo.products[1].DisplayTitle())
	assert.Equal(t, 1, cache.invalidated)
	// по транзакции на каждую строку, дошедшую до хранилища
	assert.Equal(t, 3, tx.calls)
}

func TestSearchUsesCache(t *testing.T) {
	repo := &fakeProductRepo{}
	cache := newFakeCache()
	uc := NewProductUC(repo, cache, nil, logger.NewNop())
	ctx := context.Background()

	_, err := uc.Add(ctx, ProductDraft{Title: "Linen Shirt", Price: "39.90", Brand: "H&M", ImageURL: "https://img"})
	require.NoError(t, err)

	res, err := uc.Search(ctx, "  linen ")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.Len(t, res.Products, 1)
	p := res.Products[0]
	assert.Equal(t, "Linen Shirt", p.Title)
	assert.Equal(t, "39.90", p.Price)
	assert.Equal(t, "https://img", p.ImageURL)
	assert.Equal(t, 1, repo.searchCalls)

	res, err = uc.Search(ctx, "linen")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Len(t, res.Products, 1)
	assert.Equal(t, 1, repo.searchCalls)

	// запись в каталог сбрасывает кэш
	_, err = uc.Add(ctx, ProductDraft{Title: "Linen Pants", Price: "49"})
	require.NoError(t, err)
	res, err = uc.Search(ctx, "linen")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, res.Products, 2)
	assert.Equal(t, "Linen Pants", res.Products[0].Title)
}

func TestSearchWithoutCacheAndEmptyQuery(t *testing.T) {
	repo := &fakeProductRepo{}
	uc := NewProductUC(repo, nil, nil, logger.NewNop())

	_, err := uc.Search(context.Background(), "   ")
	require.ErrorIs(t, err, e.ErrEmptyQuery)

	res, err := uc.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
}

func TestDeleteProducts(t *testing.T) {
	repo := &fakeProductRepo{}
	cache := newFakeCache()
	uc := NewProductUC(repo, cache, nil, logger.NewNop())
	ctx := context.Background()

	for _, d := range []ProductDraft{
		{Title: "a", Source: "ltk"},
		{Title: "b", Source: "ltk"},
		{Title: "c", Source: "csv"},
	} {
		_, err := uc.Add(ctx, d)
		require.NoError(t, err)
	}

	_, err := uc.DeleteBySource(ctx, " ")
	require.ErrorIs(t, err, e.ErrMissingFields)

	n, err := uc.DeleteBySource(ctx, "ltk")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = uc.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 5, cache.invalidated)
}
