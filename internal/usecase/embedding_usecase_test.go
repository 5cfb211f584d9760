package usecase

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingFixture struct {
	uc     *EmbeddingUseCase
	idx    *index.Index
	repo   *fakeEmbeddingRepo
	outbox *fakeOutbox
	mirror *fakeMirror
	tx     *recordingTx
}

func newEmbeddingFixture(dim int) *embeddingFixture {
	f := &embeddingFixture{
		idx:    index.New(dim),
		repo:   newFakeEmbeddingRepo(),
		outbox: &fakeOutbox{},
		mirror: &fakeMirror{},
		tx:     &recordingTx{},
	}
	f.uc = NewEmbeddingUC(f.idx, f.repo, f.outbox, f.mirror, f.tx, logger.NewNop(), 0)
	return f
}

func price(v float64) *float64 { return &v }

func count(n int) *int { return &n }

func vec(xs ...float32) []float32 { return xs }

func TestUploadStoresEverywhere(t *testing.T) {
	f := newEmbeddingFixture(3)
	ctx := context.Background()

	res, err := f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img/1.jpg", "Zara", price(29.9), "cotton", "", vec(1, 0, 0)))
	require.NoError(t, err)

	rec := res.Record
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, "https://img/1.jpg", rec.Metadata.String(domain.MetaImageURL))
	assert.Equal(t, "Zara", rec.Metadata.String(domain.MetaBrand))
	assert.Equal(t, "cotton", rec.Metadata.String(domain.MetaMaterial))
	_, hasName := rec.Metadata[domain.MetaProductName]
	assert.False(t, hasName)

	assert.Equal(t, 1, f.idx.Len())
	assert.Contains(t, f.repo.records, rec.ID)
	assert.Equal(t, []string{rec.ID}, f.mirror.upserted)
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.outbox.events, 1)
	ev := f.outbox.events[0]
	assert.Equal(t, string(domain.EmbeddingCreated), ev.EventType)
	assert.Equal(t, rec.ID, ev.AggregateID)
	assert.Equal(t, Pending, ev.Status)

	var payload domain.EmbeddingEvent
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, rec.ID, payload.EmbeddingID)
	assert.Equal(t, 3, payload.Dimension)
	assert.Equal(t, ev.EventID, payload.EventID)
}

func TestUploadValidation(t *testing.T) {
	f := newEmbeddingFixture(3)
	ctx := context.Background()

	_, err := f.uc.Upload(ctx, NewUploadEmbeddingReq("", "Zara", nil, "", "", vec(1, 0, 0)))
	require.ErrorIs(t, err, e.ErrMissingFields)

	_, err = f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "Zara", nil, "", "", nil))
	require.ErrorIs(t, err, e.ErrMissingFields)

	_, err = f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", price(math.Inf(1)), "", "", vec(1, 0, 0)))
	require.ErrorIs(t, err, e.ErrInvalidPrice)

	_, err = f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.ErrorIs(t, err, e.ErrDimensionMismatch)

	_, err = f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, float32(math.NaN()), 0)))
	require.ErrorIs(t, err, e.ErrInvalidVector)

	assert.Equal(t, 0, f.idx.Len())
	assert.Empty(t, f.repo.records)
	assert.Empty(t, f.outbox.events)
}

func TestUploadStorageFailureKeepsIndexUnchanged(t *testing.T) {
	f := newEmbeddingFixture(2)
	f.repo.failWrite = true

	_, err := f.uc.Upload(context.Background(), NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, f.idx.Len())
	assert.Empty(t, f.mirror.upserted)
}

func TestUploadOutboxFailureKeepsIndexUnchanged(t *testing.T) {
	f := newEmbeddingFixture(2)
	f.outbox.fail = true

	_, err := f.uc.Upload(context.Background(), NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, f.idx.Len())
}

func TestUploadMirrorFailureIsNotFatal(t *testing.T) {
	f := newEmbeddingFixture(2)
	f.mirror.fail = true

	res, err := f.uc.Upload(context.Background(), NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, 1, f.idx.Len())
	assert.Contains(t, f.repo.records, res.Record.ID)
}

func TestUploadWithoutStorage(t *testing.T) {
	idx := index.New(2)
	uc := NewEmbeddingUC(idx, nil, nil, nil, nil, logger.NewNop(), 5)

	_, err := uc.Upload(context.Background(), NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestFindSimilar(t *testing.T) {
	f := newEmbeddingFixture(2)
	ctx := context.Background()

	var ids []string
	for _, v := range [][]float32{{1, 0}, {1, 1}, {0, 1}, {-1, 0}} {
		res, err := f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", nil, "", "", v))
		require.NoError(t, err)
		ids = append(ids, res.Record.ID)
	}

	res, err := f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), nil, "", nil))
	require.NoError(t, err)
	assert.Equal(t, index.Cosine, res.Metric)
	require.Len(t, res.Matches, 4)
	assert.Equal(t, ids, []string{res.Matches[0].ID, res.Matches[1].ID, res.Matches[2].ID, res.Matches[3].ID})

	res, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(2), "euclidean", nil))
	require.NoError(t, err)
	assert.Equal(t, index.Euclidean, res.Metric)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, ids[0], res.Matches[0].ID)

	res, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(10), "", price(0.5)))
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	for _, m := range res.Matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.5)
	}
}

func TestFindSimilarErrors(t *testing.T) {
	f := newEmbeddingFixture(2)
	ctx := context.Background()

	_, err := f.uc.FindSimilar(ctx, NewFindSimilarReq(nil, nil, "", nil))
	require.ErrorIs(t, err, e.ErrMissingFields)

	_, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(-1), "", nil))
	require.ErrorIs(t, err, e.ErrInvalidArgument)

	_, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(0), "", nil))
	require.ErrorIs(t, err, e.ErrInvalidArgument)

	_, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(1), "hamming", nil))
	require.ErrorIs(t, err, e.ErrInvalidArgument)

	_, err = f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0, 0), count(1), "", nil))
	require.ErrorIs(t, err, e.ErrDimensionMismatch)

	res, err := f.uc.FindSimilar(ctx, NewFindSimilarReq(vec(1, 0), count(5), "", nil))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestGetAndDeleteEmbedding(t *testing.T) {
	f := newEmbeddingFixture(2)
	ctx := context.Background()

	res, err := f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0)))
	require.NoError(t, err)
	id := res.Record.ID

	got, err := f.uc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.Record.ID)

	require.NoError(t, f.uc.Delete(ctx, id))
	assert.Equal(t, 0, f.idx.Len())
	assert.NotContains(t, f.repo.records, id)
	assert.Equal(t, []string{id}, f.mirror.deleted)
	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, string(domain.EmbeddingDeleted), f.outbox.events[1].EventType)

	_, err = f.uc.Get(ctx, id)
	require.ErrorIs(t, err, e.ErrNotFound)
	require.ErrorIs(t, f.uc.Delete(ctx, id), e.ErrNotFound)
}

func TestWarmupSkipsInvalidRecords(t *testing.T) {
	repo := newFakeEmbeddingRepo()
	ctx := context.Background()
	for _, rec := range []domain.EmbeddingRecord{
		{ID: "a", Seq: 1, Vector: vec(1, 0, 0)},
		{ID: "bad-dim", Seq: 2, Vector: vec(1, 0)},
		{ID: "b", Seq: 3, Vector: vec(0, 1, 0)},
		{ID: "nan", Seq: 4, Vector: vec(float32(math.NaN()), 0, 0)},
	} {
		rec := rec
		require.NoError(t, repo.Create(ctx, &rec))
	}

	idx := index.New(3)
	uc := NewEmbeddingUC(idx, repo, nil, nil, nil, logger.NewNop(), 0)

	n, err := uc.Warmup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, IndexStats{Count: 2, Dimension: 3}, uc.Stats())

	res, err := uc.FindSimilar(ctx, NewFindSimilarReq(vec(0, 1, 0), count(1), "", nil))
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "b", res.Matches[0].ID)

	next, err := uc.Store(ctx, vec(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next.Seq)
}

func TestValidateAndPurgeStored(t *testing.T) {
	repo := newFakeEmbeddingRepo()
	ctx := context.Background()
	for _, rec := range []domain.EmbeddingRecord{
		{ID: "ok", Seq: 1, Vector: vec(1, 0, 0)},
		{ID: "short", Seq: 2, Vector: vec(1, 0)},
		{ID: "empty", Seq: 3, Vector: nil},
		{ID: "inf", Seq: 4, Vector: vec(float32(math.Inf(-1)), 0, 0)},
	} {
		rec := rec
		require.NoError(t, repo.Create(ctx, &rec))
	}

	mirror := &fakeMirror{}
	uc := NewEmbeddingUC(index.New(0), repo, nil, mirror, nil, logger.NewNop(), 0)

	_, err := uc.ValidateStored(ctx, 0)
	require.ErrorIs(t, err, e.ErrInvalidArgument)

	report, err := uc.ValidateStored(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Valid)
	require.Len(t, report.Invalid, 3)
	assert.Equal(t, "short", report.Invalid[0].ID)
	assert.Equal(t, "wrong dimension (2 vs 3)", report.Invalid[0].Reason)
	assert.Equal(t, "empty vector", report.Invalid[1].Reason)
	assert.Equal(t, "non-finite values", report.Invalid[2].Reason)

	_, summary, err := uc.PurgeInvalid(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, repo.records, 1)
	assert.Contains(t, repo.records, "ok")
	assert.ElementsMatch(t, []string{"short", "empty", "inf"}, mirror.deleted)
}

func TestPurgeInvalidKeepsIndexWhenStorageFails(t *testing.T) {
	f := newEmbeddingFixture(3)
	ctx := context.Background()

	res, err := f.uc.Upload(ctx, NewUploadEmbeddingReq("https://img", "", nil, "", "", vec(1, 0, 0)))
	require.NoError(t, err)
	id := res.Record.ID

	f.repo.failWrite = true
	_, summary, err := f.uc.PurgeInvalid(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, f.idx.Len())
	assert.Contains(t, f.repo.records, id)
	assert.Empty(t, f.mirror.deleted)

	f.repo.failWrite = false
	_, summary, err = f.uc.PurgeInvalid(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, f.idx.Len())
	assert.Empty(t, f.repo.records)
	assert.Equal(t, []string{id}, f.mirror.deleted)

	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, string(domain.EmbeddingDeleted), f.outbox.events[1].EventType)
	assert.Equal(t, id, f.outbox.events[1].AggregateID)
}

func TestValidateStoredWithoutStorage(t *testing.T) {
	uc := NewEmbeddingUC(index.New(0), nil, nil, nil, nil, logger.NewNop(), 0)
	_, err := uc.ValidateStored(context.Background(), 3)
	require.ErrorIs(t, err, e.ErrNotConfigured)
}

func TestPersistIndexWritesMissingRecords(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEmbeddingRepo()
	outbox := &fakeOutbox{}
	idx := index.New(2)
	require.NoError(t, idx.Restore([]domain.EmbeddingRecord{
		{ID: "a", Seq: 1, Vector: vec(1, 0)},
		{ID: "b", Seq: 2, Vector: vec(0, 1)},
	}))
	require.NoError(t, repo.Create(ctx, &domain.EmbeddingRecord{ID: "a", Seq: 1, Vector: vec(1, 0)}))

	uc := NewEmbeddingUC(idx, repo, outbox, nil, nil, logger.NewNop(), 0)
	summary, err := uc.PersistIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, []string{"a", "b"}, repo.order)
	assert.Equal(t, uint64(2), repo.records["b"].Seq)
	assert.Len(t, outbox.events, 1)

	_, err = NewEmbeddingUC(idx, nil, nil, nil, nil, logger.NewNop(), 0).PersistIndex(ctx)
	require.ErrorIs(t, err, e.ErrNotConfigured)
}
