package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/clients"
	"github.com/briannabogos1157/threadtwin/pkg/tr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := clients.NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, EnsureSchema(ctx, db))
	return db
}

func TestEmbeddingRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewEmbeddingRepo(newTestDB(t))
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	second := domain.NewEmbeddingRecord("b", 2, []float32{0, 1, -0.5}, domain.Metadata{domain.MetaBrand: "H&M"}, created)
	first := domain.NewEmbeddingRecord("a", 1, []float32{1, 0, 0.25}, domain.Metadata{domain.MetaPrice: 19.99}, created)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, []float32{1, 0, 0.25}, records[0].Vector)
	assert.Equal(t, 19.99, records[0].Metadata[domain.MetaPrice])
	assert.Equal(t, created, records[0].CreatedAt)
	assert.Equal(t, "H&M", records[1].Metadata.String(domain.MetaBrand))

	require.Error(t, repo.Create(ctx, first), "duplicate id")

	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "missing"))
	records, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)
}

func TestEmbeddingRepoRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewEmbeddingRepo(db)
	tx := tr.NewSQLManager(db)

	boom := errors.New("boom")
	err := tx.Do(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, domain.NewEmbeddingRecord("a", 1, []float32{1}, nil, time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, tx.Do(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, domain.NewEmbeddingRecord("a", 1, []float32{1}, nil, time.Now()))
	}))
	records, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProductRepoSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(newTestDB(t))
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	for _, p := range []*domain.Product{
		{Title: "Linen Shirt", Brand: "H&M", PriceCents: 3990, Source: "csv"},
		{Name: "Wool Coat", Fabric: "100% wool", PriceCents: 12900, Source: "csv"},
		{Title: "Silk Scarf", Category: "Accessories", Source: "ltk"},
		{Title: "Linen Pants", Source: "ltk"},
	} {
		created, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
	}

	found, err := repo.Search(ctx, "LINEN", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Linen Pants", found[0].Title)
	assert.Equal(t, "Linen Shirt", found[1].Title)
	assert.Equal(t, int64(3990), found[1].PriceCents)

	found, err = repo.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Wool Coat", found[0].DisplayTitle())

	found, err = repo.Search(ctx, "accessories", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = repo.Search(ctx, "linen", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = repo.Search(ctx, "velvet", 10)
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestProductRepoDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(newTestDB(t))

	for _, src := range []string{"ltk", "ltk", "csv"} {
		_, err := repo.Create(ctx, &domain.Product{Title: "item", Source: src})
		require.NoError(t, err)
	}

	n, err := repo.DeleteBySource(ctx, "ltk")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDecodeVectorRejectsBadBlob(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	require.Error(t, err)

	v, err := decodeVector(encodeVector([]float32{1.5, -2}))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, v)
}
