package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
)

var errBoom = errors.New("boom")

type fakeEmbeddingRepo struct {
	mu        sync.Mutex
	records   map[string]domain.EmbeddingRecord
	order     []string
	failWrite bool
}

func newFakeEmbeddingRepo() *fakeEmbeddingRepo {
	return &fakeEmbeddingRepo{records: make(map[string]domain.EmbeddingRecord)}
}

func (f *fakeEmbeddingRepo) Create(_ context.Context, rec *domain.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errBoom
	}
	f.records[rec.ID] = *rec
	f.order = append(f.order, rec.ID)
	return nil
}

func (f *fakeEmbeddingRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errBoom
	}
	if _, ok := f.records[id]; !ok {
		return e.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeEmbeddingRepo) List(context.Context) ([]domain.EmbeddingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EmbeddingRecord, 0, len(f.records))
	for _, id := range f.order {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeOutbox struct {
	events []*OutboxEvent
	fail   bool
}

func (f *fakeOutbox) Create(_ context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
	if f.fail {
		return nil, errBoom
	}
	ev.ID = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutbox) Release(context.Context, int64) error { return nil }

type fakeMirror struct {
	upserted []string
	deleted  []string
	fail     bool
}

func (f *fakeMirror) Upsert(_ context.Context, rec *domain.EmbeddingRecord) error {
	if f.fail {
		return errBoom
	}
	f.upserted = append(f.upserted, rec.ID)
	return nil
}

func (f *fakeMirror) Delete(_ context.Context, id string) error {
	if f.fail {
		return errBoom
	}
	f.deleted = append(f.deleted, id)
	return nil
}

// recordingTx имитирует транзакцию: изменения fakeEmbeddingRepo не откатываются,
// но фиксируется количество вызовов.
type recordingTx struct {
	calls int
}

func (r *recordingTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

type fakeProductRepo struct {
	products    []domain.Product
	searchCalls int
	failTitles  map[string]bool
}

func (f *fakeProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if f.failTitles[p.DisplayTitle()] {
		return nil, errBoom
	}
	cp := *p
	cp.ID = int64(len(f.products) + 1)
	f.products = append(f.products, cp)
	return &cp, nil
}

func (f *fakeProductRepo) Search(_ context.Context, query string, limit int) ([]domain.Product, error) {
	f.searchCalls++
	q := strings.ToLower(query)
	var out []domain.Product
	for i := len(f.products) - 1; i >= 0 && len(out) < limit; i-- {
		p := f.products[i]
		if strings.Contains(strings.ToLower(p.Title+" "+p.Name+" "+p.Brand), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) DeleteBySource(_ context.Context, source string) (int64, error) {
	kept := f.products[:0]
	var n int64
	for _, p := range f.products {
		if p.Source == source {
			n++
			continue
		}
		kept = append(kept, p)
	}
	f.products = kept
	return n, nil
}

func (f *fakeProductRepo) DeleteAll(context.Context) (int64, error) {
	n := int64(len(f.products))
	f.products = nil
	return n, nil
}

type fakeCache struct {
	entries     map[string][]ProductSummary
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]ProductSummary)}
}

func (f *fakeCache) Get(_ context.Context, q string) ([]ProductSummary, bool, error) {
	v, ok := f.entries[q]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, q string, p []ProductSummary) error {
	f.entries[q] = p
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidated++
	f.entries = make(map[string][]ProductSummary)
	return nil
}

type fakeSnapshotRepo struct {
	objects map[string][]byte
}

func (f *fakeSnapshotRepo) Put(_ context.Context, key string, data []byte) error {
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeSnapshotRepo) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, e.ErrNotFound
	}
	return data, nil
}

type fakeExtractor struct {
	failOn string
}

func (f *fakeExtractor) Extract(_ context.Context, text string) (*ExtractedProduct, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, e.Upstream("openai", errBoom)
	}
	name, _, _ := strings.Cut(text, "\n")
	return &ExtractedProduct{ProductName: name, Brand: "Zara", Price: "$29.90", MaterialComposition: "100% cotton"}, nil
}

type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = float32(len(t)%7 + j + 1)
		}
		out[i] = v
	}
	return out, nil
}

type fakeSearcher struct {
	results []SearchResult
	err     error
}

func (f *fakeSearcher) SearchDupes(context.Context, string, int) ([]SearchResult, error) {
	return f.results, f.err
}
