package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []*usecase.OutboxEvent
	processed []int64
	released  []int64
}

func (f *fakeOutboxRepo) Create(_ context.Context, ev *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, ev)
	return ev, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	batch := f.pending[:limit]
	f.pending = f.pending[limit:]
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) Release(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	return nil
}

type fakeProducer struct {
	mu    sync.Mutex
	fail  map[string][]error // очередь ошибок по ключу
	sent  []string
	calls map[string]int
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[req.Key]++
	if errs := f.fail[req.Key]; len(errs) > 0 {
		f.fail[req.Key] = errs[1:]
		return errs[0]
	}
	f.sent = append(f.sent, req.Key)
	return nil
}

func newTestWorker(repo *fakeOutboxRepo, producer *fakeProducer, batch int) *OutboxWorker {
	w := NewOutboxWorker(repo, logger.NewNop(), producer, "", batch, 3)
	w.retry = jitter.Policy{Attempts: 3, Base: time.Millisecond, Max: 2 * time.Millisecond}
	return w
}

func events(keys ...string) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, len(keys))
	for i, k := range keys {
		ev := usecase.NewOutboxEvent("ev-"+k, "embedding.created", k, []byte(`{}`), time.Now())
		ev.ID = int64(i + 1)
		out = append(out, ev)
	}
	return out
}

func TestProcessBatchPublishesAll(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events("a", "b", "c")}
	producer := &fakeProducer{}
	w := newTestWorker(repo, producer, 2)

	w.drain(context.Background())

	assert.Equal(t, []string{"a", "b", "c"}, producer.sent)
	assert.Equal(t, []int64{1, 2, 3}, repo.processed)
	assert.Empty(t, repo.released)
}

func TestProcessBatchRetriesTemporaryFailures(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events("a")}
	producer := &fakeProducer{fail: map[string][]error{
		"a": {errors.New("dial tcp: connection refused")},
	}}
	w := newTestWorker(repo, producer, 10)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Equal(t, 2, producer.calls["a"])
	assert.Equal(t, []int64{1}, repo.processed)
}

func TestProcessBatchReleasesFailedEvents(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events("a", "b")}
	producer := &fakeProducer{fail: map[string][]error{
		"a": {errors.New("message too large")},
	}}
	w := newTestWorker(repo, producer, 10)

	_, err := w.processBatch(context.Background())
	require.NoError(t, err)
	// постоянная ошибка не повторяется
	assert.Equal(t, 1, producer.calls["a"])
	assert.Equal(t, []int64{1}, repo.released)
	assert.Equal(t, []int64{2}, repo.processed)
}

func TestProcessBatchStopsWhenBrokerIsDown(t *testing.T) {
	down := errors.New("broker not available")
	repo := &fakeOutboxRepo{pending: events("a", "b", "c")}
	producer := &fakeProducer{fail: map[string][]error{
		"a": {down, down, down},
		"b": {down, down, down},
	}}
	w := newTestWorker(repo, producer, 2)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Equal(t, []int64{1, 2}, repo.released)
	assert.Empty(t, repo.processed)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("read: Connection Reset by peer")))
	assert.False(t, isRetryableError(errors.New("invalid message")))
	assert.False(t, isRetryableError(nil))
}
