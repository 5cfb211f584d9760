// Package index хранит эмбеддинги товаров в памяти и отвечает на top-K запросы точным перебором.
package index

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/google/uuid"
)

// Match — одна запись результата поиска
type Match struct {
	ID         string
	Seq        uint64
	Metadata   domain.Metadata
	CreatedAt  time.Time
	Distance   float64
	Similarity float64
}

type entry struct {
	rec domain.EmbeddingRecord
	n2  float64 // квадрат нормы вектора
}

// Index — потокобезопасный индекс эмбеддингов фиксированной размерности.
// Размерность задаётся при создании или первой вставкой и дальше не меняется.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
	byID    map[string]int
	lastSeq uint64

	pending    map[string]uint64 // id зарезервированных, но ещё не опубликованных записей -> generation
	generation uint64           // растёт при каждой замене содержимого через Restore

	now   func() time.Time
	newID func() string
}

// Option настраивает Index.
type Option func(*Index)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(i *Index) { i.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов (для тестов).
func WithIDGenerator(newID func() string) Option {
	return func(i *Index) { i.newID = newID }
}

// New создаёт пустой индекс. dim == 0 означает, что размерность задаст первая вставка.
func New(dim int, opts ...Option) *Index {
	if dim < 0 {
		dim = 0
	}

	idx := &Index{
		dim:     dim,
		byID:    make(map[string]int),
		pending: make(map[string]uint64),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(idx)
	}

	return idx
}

// Dim возвращает размерность индекса (0, пока она не установлена).
func (i *Index) Dim() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dim
}

// Len возвращает количество записей.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Insert добавляет вектор с метаданными и возвращает созданную запись.
func (i *Index) Insert(vector []float32, metadata domain.Metadata) (domain.EmbeddingRecord, error) {
	return i.InsertWith(vector, metadata, nil)
}

// InsertWith работает как Insert, но перед публикацией записи вызывает persist.
// Если persist вернул ошибку, индекс не меняется. Запись становится видна Search сразу после возврата.
//
// Когда размерность уже задана, persist выполняется без блокировки: id и seq резервируются
// под коротким захватом, поэтому медленное хранилище не задерживает поиск. Первая вставка,
// которая фиксирует размерность, выполняется целиком под блокировкой записи.
func (i *Index) InsertWith(vector []float32, metadata domain.Metadata, persist func(domain.EmbeddingRecord) error) (domain.EmbeddingRecord, error) {
	const op = "Index.Insert"

	if err := checkFinite(vector); err != nil {
		return domain.EmbeddingRecord{}, e.Wrap(op, err)
	}

	i.mu.Lock()
	rec, err := i.reserve(vector, metadata)
	if err != nil {
		i.mu.Unlock()
		return domain.EmbeddingRecord{}, e.Wrap(op, err)
	}

	if i.dim == 0 || persist == nil {
		defer i.mu.Unlock()
		if persist != nil {
			if err := persist(publicCopy(rec)); err != nil {
				i.release(rec)
				return domain.EmbeddingRecord{}, err
			}
		}
		return i.publish(op, rec)
	}
	i.mu.Unlock()

	if err := persist(publicCopy(rec)); err != nil {
		i.mu.Lock()
		i.release(rec)
		i.mu.Unlock()
		return domain.EmbeddingRecord{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.publish(op, rec)
}

// reserve проверяет размерность и занимает id и seq новой записи. Вызывается под блокировкой записи.
func (i *Index) reserve(vector []float32, metadata domain.Metadata) (domain.EmbeddingRecord, error) {
	if i.dim != 0 && len(vector) != i.dim {
		return domain.EmbeddingRecord{}, dimError(len(vector), i.dim)
	}

	id := i.newID()
	if _, exists := i.byID[id]; exists {
		return domain.EmbeddingRecord{}, fmt.Errorf("duplicate id %s", id)
	}
	if _, exists := i.pending[id]; exists {
		return domain.EmbeddingRecord{}, fmt.Errorf("duplicate id %s", id)
	}

	i.lastSeq++
	i.pending[id] = i.generation

	return domain.EmbeddingRecord{
		ID:        id,
		Seq:       i.lastSeq,
		Vector:    append([]float32(nil), vector...),
		Metadata:  metadata.Clone(),
		CreatedAt: i.now().UTC(),
	}, nil
}

// release снимает резерв несохранённой записи. Seq возвращается, если после него ничего не занято.
func (i *Index) release(rec domain.EmbeddingRecord) {
	gen := i.pending[rec.ID]
	delete(i.pending, rec.ID)
	if gen == i.generation && i.lastSeq == rec.Seq {
		i.lastSeq--
	}
}

// publish добавляет сохранённую запись в индекс. Если за время сохранения индекс был заменён
// через Restore, запись получает следующий свободный seq.
func (i *Index) publish(op string, rec domain.EmbeddingRecord) (domain.EmbeddingRecord, error) {
	gen := i.pending[rec.ID]
	delete(i.pending, rec.ID)

	if i.dim == 0 {
		i.dim = len(rec.Vector)
	}
	if len(rec.Vector) != i.dim {
		return domain.EmbeddingRecord{}, e.Wrap(op, dimError(len(rec.Vector), i.dim))
	}
	if _, exists := i.byID[rec.ID]; exists {
		return domain.EmbeddingRecord{}, e.Wrap(op, fmt.Errorf("duplicate id %s", rec.ID))
	}
	if gen != i.generation {
		i.lastSeq++
		rec.Seq = i.lastSeq
	}

	i.byID[rec.ID] = len(i.entries)
	i.entries = append(i.entries, entry{rec: rec, n2: dot(rec.Vector, rec.Vector)})

	return publicCopy(rec), nil
}

// Search возвращает min(k, Len()) ближайших записей, отсортированных по возрастанию расстояния.
// Равные расстояния упорядочиваются по порядку вставки. Пустой индекс даёт пустой результат.
func (i *Index) Search(query []float32, k int, metric Metric) ([]Match, error) {
	const op = "Index.Search"

	if k <= 0 {
		return nil, e.Wrap(op, e.Wrap(fmt.Sprintf("k must be >= 1, got %d", k), e.ErrInvalidArgument))
	}
	if metric == "" {
		metric = Cosine
	}
	if !metric.valid() {
		return nil, e.Wrap(op, e.Wrap(fmt.Sprintf("unknown metric %q", metric), e.ErrInvalidArgument))
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.dim != 0 && len(query) != i.dim {
		return nil, e.Wrap(op, dimError(len(query), i.dim))
	}
	if len(i.entries) == 0 {
		return []Match{}, nil
	}
	if err := checkFinite(query); err != nil {
		return nil, e.Wrap(op, err)
	}

	qn2 := dot(query, query)
	top := newTopK(k, len(i.entries))
	for pos := range i.entries {
		en := &i.entries[pos]
		top.offer(candidate{
			pos:      pos,
			seq:      en.rec.Seq,
			distance: metric.distance(query, qn2, en.rec.Vector, en.n2),
		})
	}

	best := top.sorted()
	matches := make([]Match, len(best))
	for n, c := range best {
		rec := i.entries[c.pos].rec
		matches[n] = Match{
			ID:         rec.ID,
			Seq:        rec.Seq,
			Metadata:   rec.Metadata.Clone(),
			CreatedAt:  rec.CreatedAt,
			Distance:   c.distance,
			Similarity: metric.Similarity(c.distance),
		}
	}

	return matches, nil
}

// Get возвращает запись по идентификатору.
func (i *Index) Get(id string) (domain.EmbeddingRecord, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	pos, ok := i.byID[id]
	if !ok {
		return domain.EmbeddingRecord{}, e.Wrap("Index.Get "+id, e.ErrNotFound)
	}

	return publicCopy(i.entries[pos].rec), nil
}

// Delete удаляет запись по идентификатору.
func (i *Index) Delete(id string) error {
	return i.DeleteWith(id, nil)
}

// DeleteWith удаляет запись, предварительно вызвав persist под блокировкой записи.
// Ошибка persist оставляет индекс без изменений. Размерность после удаления сохраняется.
func (i *Index) DeleteWith(id string, persist func(domain.EmbeddingRecord) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	pos, ok := i.byID[id]
	if !ok {
		return e.Wrap("Index.Delete "+id, e.ErrNotFound)
	}

	if persist != nil {
		if err := persist(publicCopy(i.entries[pos].rec)); err != nil {
			return err
		}
	}

	i.entries = append(i.entries[:pos], i.entries[pos+1:]...)
	delete(i.byID, id)
	for p := pos; p < len(i.entries); p++ {
		i.byID[i.entries[p].rec.ID] = p
	}

	return nil
}

// Records возвращает копии всех записей в порядке вставки.
func (i *Index) Records() []domain.EmbeddingRecord {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.EmbeddingRecord, len(i.entries))
	for n := range i.entries {
		out[n] = publicCopy(i.entries[n].rec)
	}
	return out
}

// Restore заменяет содержимое индекса записями из хранилища.
// Записи упорядочиваются по Seq; записи без Seq получают номера после остальных.
func (i *Index) Restore(records []domain.EmbeddingRecord) error {
	return i.restore("Index.Restore", records, restoreOpts{})
}

// restoreOpts уточняет замену содержимого для загрузки снимка.
type restoreOpts struct {
	onlyEmpty bool   // отказать, если в индексе уже есть записи
	dim       int    // размерность для пустого набора записей
	lastSeq   uint64 // нижняя граница нумерации после загрузки
}

func (i *Index) restore(op string, records []domain.EmbeddingRecord, opts restoreOpts) error {
	sorted := make([]domain.EmbeddingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		sa, sb := sorted[a].Seq, sorted[b].Seq
		if (sa == 0) != (sb == 0) {
			return sb == 0
		}
		if sa != sb {
			return sa < sb
		}
		return sorted[a].CreatedAt.Before(sorted[b].CreatedAt)
	})

	i.mu.Lock()
	defer i.mu.Unlock()

	if opts.onlyEmpty && len(i.entries) > 0 {
		return e.Wrap(op, e.Wrap(fmt.Sprintf("index already holds %d records", len(i.entries)), e.ErrInvalidArgument))
	}

	dim := i.dim
	if dim == 0 {
		dim = opts.dim
	}
	entries := make([]entry, 0, len(sorted))
	byID := make(map[string]int, len(sorted))
	var lastSeq uint64

	for _, rec := range sorted {
		if rec.ID == "" {
			return e.Wrap(op, e.Wrap("record without id", e.ErrInvalidArgument))
		}
		if _, dup := byID[rec.ID]; dup {
			return e.Wrap(op, e.Wrap("duplicate id "+rec.ID, e.ErrInvalidArgument))
		}
		if err := checkFinite(rec.Vector); err != nil {
			return e.Wrap(op, e.Wrap(rec.ID, err))
		}
		if dim == 0 {
			dim = len(rec.Vector)
		}
		if len(rec.Vector) != dim {
			return e.Wrap(op, e.Wrap(rec.ID, dimError(len(rec.Vector), dim)))
		}

		if rec.Seq == 0 || rec.Seq <= lastSeq {
			rec.Seq = lastSeq + 1
		}
		lastSeq = rec.Seq

		rec.Vector = append([]float32(nil), rec.Vector...)
		rec.Metadata = rec.Metadata.Clone()
		byID[rec.ID] = len(entries)
		entries = append(entries, entry{rec: rec, n2: dot(rec.Vector, rec.Vector)})
	}

	if opts.lastSeq > lastSeq {
		lastSeq = opts.lastSeq
	}

	i.dim = dim
	i.entries = entries
	i.byID = byID
	i.generation++
	if lastSeq > i.lastSeq {
		i.lastSeq = lastSeq
	}

	return nil
}

func dimError(got, want int) error {
	return e.Wrap(fmt.Sprintf("got %d, want %d", got, want), e.ErrDimensionMismatch)
}

func publicCopy(rec domain.EmbeddingRecord) domain.EmbeddingRecord {
	rec.Vector = append([]float32(nil), rec.Vector...)
	rec.Metadata = rec.Metadata.Clone()
	return rec
}
