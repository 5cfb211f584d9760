package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/briannabogos1157/threadtwin/pkg/tr"
	"github.com/google/uuid"
)

// DefaultK — количество результатов find-similar, если k не передан
const DefaultK = 10

// EmbeddingUseCase связывает индекс в памяти с хранилищем, outbox-событиями и зеркалом в Qdrant.
// embeddingRepo, outboxRepo и mirror могут быть nil: тогда соответствующий шаг пропускается.
type EmbeddingUseCase struct {
	index         *index.Index
	embeddingRepo EmbeddingRepository
	outboxRepo    OutboxRepository
	mirror        EmbeddingMirror
	txManager     tr.Manager
	logger        logger.Logger
	defaultK      int
	now           func() time.Time
}

func NewEmbeddingUC(
	idx *index.Index,
	embeddingRepo EmbeddingRepository,
	outboxRepo OutboxRepository,
	mirror EmbeddingMirror,
	txManager tr.Manager,
	logger logger.Logger,
	defaultK int,
) *EmbeddingUseCase {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if txManager == nil {
		txManager = tr.NopManager{}
	}

	return &EmbeddingUseCase{
		index:         idx,
		embeddingRepo: embeddingRepo,
		outboxRepo:    outboxRepo,
		mirror:        mirror,
		txManager:     txManager,
		logger:        logger,
		defaultK:      defaultK,
		now:           time.Now,
	}
}

// Upload сохраняет эмбеддинг. Запись попадает в индекс только после успешной записи в хранилище.
func (u *EmbeddingUseCase) Upload(ctx context.Context, req *UploadEmbeddingReq) (*UploadEmbeddingRes, error) {
	const op = "EmbeddingUseCase.Upload"

	if len(req.Embedding) == 0 || strings.TrimSpace(req.ImageURL) == "" {
		return nil, e.Wrap(op, e.Wrap("embedding and imageUrl are required", e.ErrMissingFields))
	}
	if req.Price != nil && (math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0)) {
		return nil, e.Wrap(op, e.ErrInvalidPrice)
	}

	rec, err := u.Store(ctx, req.Embedding, req.Metadata())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &UploadEmbeddingRes{Record: *rec}, nil
}

// Store добавляет вектор с произвольными метаданными: хранилище и outbox в одной транзакции, затем индекс и зеркало.
func (u *EmbeddingUseCase) Store(ctx context.Context, vector []float32, meta domain.Metadata) (*domain.EmbeddingRecord, error) {
	const op = "EmbeddingUseCase.Store"

	rec, err := u.index.InsertWith(vector, meta, func(rec domain.EmbeddingRecord) error {
		return u.persistCreated(ctx, &rec)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.logger.Debugf("Embedding stored. id: %s, seq: %d, dim: %d", rec.ID, rec.Seq, len(rec.Vector))

	if u.mirror != nil {
		if err := u.mirror.Upsert(ctx, &rec); err != nil {
			u.logger.Warnf("Failed to mirror embedding %s: %v", rec.ID, e.Wrap(op, err))
		}
	}

	return &rec, nil
}

// FindSimilar возвращает до k ближайших записей. Порог сходства применяется только если он задан.
func (u *EmbeddingUseCase) FindSimilar(ctx context.Context, req *FindSimilarReq) (*FindSimilarRes, error) {
	const op = "EmbeddingUseCase.FindSimilar"

	if len(req.Embedding) == 0 {
		return nil, e.Wrap(op, e.Wrap("embedding is required", e.ErrMissingFields))
	}

	k := u.defaultK
	if req.K != nil {
		k = *req.K
	}

	metric, err := index.ParseMetric(req.Metric)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.MinSimilarity != nil && math.IsNaN(*req.MinSimilarity) {
		return nil, e.Wrap(op, e.Wrap("minSimilarity is NaN", e.ErrInvalidArgument))
	}

	matches, err := u.index.Search(req.Embedding, k, metric)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.MinSimilarity != nil {
		kept := matches[:0]
		for _, m := range matches {
			if m.Similarity >= *req.MinSimilarity {
				kept = append(kept, m)
			}
		}
		matches = kept
	}

	return &FindSimilarRes{Matches: matches, Metric: metric}, nil
}

// Get возвращает запись по идентификатору.
func (u *EmbeddingUseCase) Get(ctx context.Context, id string) (*UploadEmbeddingRes, error) {
	rec, err := u.index.Get(id)
	if err != nil {
		return nil, e.Wrap("EmbeddingUseCase.Get", err)
	}
	return &UploadEmbeddingRes{Record: rec}, nil
}

// Delete удаляет запись из хранилища и индекса.
func (u *EmbeddingUseCase) Delete(ctx context.Context, id string) error {
	const op = "EmbeddingUseCase.Delete"

	err := u.index.DeleteWith(id, func(rec domain.EmbeddingRecord) error {
		return u.persistDeleted(ctx, &rec)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if u.mirror != nil {
		if err := u.mirror.Delete(ctx, id); err != nil {
			u.logger.Warnf("Failed to delete mirrored embedding %s: %v", id, e.Wrap(op, err))
		}
	}

	return nil
}

// Stats возвращает количество записей и размерность индекса.
func (u *EmbeddingUseCase) Stats() IndexStats {
	return IndexStats{Count: u.index.Len(), Dimension: u.index.Dim()}
}

// Warmup загружает сохранённые эмбеддинги в индекс.
// Записи с некорректным вектором пропускаются с предупреждением; удалить их можно через PurgeInvalid.
func (u *EmbeddingUseCase) Warmup(ctx context.Context) (int, error) {
	const op = "EmbeddingUseCase.Warmup"

	if u.embeddingRepo == nil {
		return 0, nil
	}

	records, err := u.embeddingRepo.List(ctx)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	dim := u.index.Dim()
	valid := make([]domain.EmbeddingRecord, 0, len(records))
	for _, rec := range records {
		if err := index.CheckVector(rec.Vector, dim); err != nil {
			u.logger.Warnf("Skipping stored embedding %s: %v", rec.ID, err)
			continue
		}
		if dim == 0 {
			dim = len(rec.Vector)
		}
		valid = append(valid, rec)
	}

	if err := u.index.Restore(valid); err != nil {
		return 0, e.Wrap(op, err)
	}

	u.logger.Infof("Index warmed up. records: %d, skipped: %d, dimension: %d", len(valid), len(records)-len(valid), u.index.Dim())
	return len(valid), nil
}

// ValidateStored проверяет все сохранённые эмбеддинги на размерность expectedDim и конечность значений.
func (u *EmbeddingUseCase) ValidateStored(ctx context.Context, expectedDim int) (*ValidationReport, error) {
	const op = "EmbeddingUseCase.ValidateStored"

	if expectedDim <= 0 {
		return nil, e.Wrap(op, e.Wrap(fmt.Sprintf("expected dimension must be positive, got %d", expectedDim), e.ErrInvalidArgument))
	}
	if u.embeddingRepo == nil {
		return nil, e.Wrap(op, e.ErrNotConfigured)
	}

	records, err := u.embeddingRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	report := &ValidationReport{Total: len(records)}
	for _, rec := range records {
		if err := index.CheckVector(rec.Vector, expectedDim); err != nil {
			reason := "non-finite values"
			if errors.Is(err, e.ErrDimensionMismatch) {
				reason = fmt.Sprintf("wrong dimension (%d vs %d)", len(rec.Vector), expectedDim)
			} else if len(rec.Vector) == 0 {
				reason = "empty vector"
			}
			report.Invalid = append(report.Invalid, InvalidEmbedding{ID: rec.ID, Length: len(rec.Vector), Reason: reason})
			continue
		}
		report.Valid++
	}

	return report, nil
}

// PurgeInvalid удаляет из хранилища и индекса эмбеддинги, не прошедшие ValidateStored.
// Ошибка удаления одной записи не прерывает обработку остальных.
func (u *EmbeddingUseCase) PurgeInvalid(ctx context.Context, expectedDim int) (*ValidationReport, *BatchSummary, error) {
	const op = "EmbeddingUseCase.PurgeInvalid"

	report, err := u.ValidateStored(ctx, expectedDim)
	if err != nil {
		return nil, nil, e.Wrap(op, err)
	}

	summary := &BatchSummary{}
	for n, inv := range report.Invalid {
		// Запись удаляется из индекса только после успешного удаления из хранилища.
		err := u.index.DeleteWith(inv.ID, func(rec domain.EmbeddingRecord) error {
			return u.persistDeleted(ctx, &rec)
		})
		if errors.Is(err, e.ErrNotFound) {
			// некорректная запись могла не попасть в индекс при прогреве
			err = u.persistDeleted(ctx, &domain.EmbeddingRecord{ID: inv.ID})
		}
		if err != nil {
			u.logger.Warnf("Failed to delete invalid embedding %s: %v", inv.ID, e.Wrap(op, err))
			summary.fail(n, err)
			continue
		}

		if u.mirror != nil {
			if err := u.mirror.Delete(ctx, inv.ID); err != nil {
				u.logger.Warnf("Failed to delete mirrored embedding %s: %v", inv.ID, e.Wrap(op, err))
			}
		}

		u.logger.Infof("Deleted invalid embedding %s (%s)", inv.ID, inv.Reason)
		summary.ok()
	}

	return report, summary, nil
}

// PersistIndex записывает в хранилище записи индекса, которых там ещё нет (например, после восстановления из снимка).
// Идентификаторы и порядок вставки сохраняются.
func (u *EmbeddingUseCase) PersistIndex(ctx context.Context) (*BatchSummary, error) {
	const op = "EmbeddingUseCase.PersistIndex"

	if u.embeddingRepo == nil {
		return nil, e.Wrap(op, e.ErrNotConfigured)
	}

	stored, err := u.embeddingRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	known := make(map[string]struct{}, len(stored))
	for _, rec := range stored {
		known[rec.ID] = struct{}{}
	}

	summary := &BatchSummary{}
	for n, rec := range u.index.Records() {
		if _, ok := known[rec.ID]; ok {
			continue
		}
		if err := u.persistCreated(ctx, &rec); err != nil {
			u.logger.Warnf("Failed to persist embedding %s: %v", rec.ID, e.Wrap(op, err))
			summary.fail(n, err)
			continue
		}
		summary.ok()
	}

	u.logger.Infof("Index persisted. written: %d, failed: %d, already stored: %d", summary.Succeeded, summary.Failed, len(known))
	return summary, nil
}

// persistCreated сохраняет запись и событие о ней в одной транзакции.
func (u *EmbeddingUseCase) persistCreated(ctx context.Context, rec *domain.EmbeddingRecord) error {
	if u.embeddingRepo == nil {
		return nil
	}

	return u.txManager.Do(ctx, func(ctx context.Context) error {
		if err := u.embeddingRepo.Create(ctx, rec); err != nil {
			return err
		}
		return u.publish(ctx, domain.EmbeddingCreated, rec)
	})
}

func (u *EmbeddingUseCase) persistDeleted(ctx context.Context, rec *domain.EmbeddingRecord) error {
	if u.embeddingRepo == nil {
		return nil
	}

	return u.txManager.Do(ctx, func(ctx context.Context) error {
		if err := u.embeddingRepo.Delete(ctx, rec.ID); err != nil {
			return err
		}
		return u.publish(ctx, domain.EmbeddingDeleted, rec)
	})
}

// publish пишет событие в outbox, если события включены.
func (u *EmbeddingUseCase) publish(ctx context.Context, t domain.EmbeddingEventType, rec *domain.EmbeddingRecord) error {
	if u.outboxRepo == nil {
		return nil
	}

	now := u.now().UTC()
	event := domain.NewEmbeddingEvent(uuid.NewString(), t, rec.ID, len(rec.Vector), rec.Metadata, now)
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = u.outboxRepo.Create(ctx, NewOutboxEvent(event.EventID, string(t), rec.ID, payload, now))
	return err
}
