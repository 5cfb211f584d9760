package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	defaultBatchSize = 10
	outboxChannel    = "outbox_pending"
)

// OutboxWorker публикует события из outbox_events в Kafka.
// Будится при старте, по NOTIFY outbox_pending и раз в pollInterval.
type OutboxWorker struct {
	repo         usecase.OutboxRepository
	logger       logger.Logger
	producer     usecase.MessageProducer
	retry        jitter.Policy
	batchSize    int
	pollInterval time.Duration
	dbConnStr    string
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
	batchSize int,
	maxRetries int,
) *OutboxWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &OutboxWorker{
		repo:         repo,
		logger:       logger,
		producer:     producer,
		retry:        jitter.Policy{Attempts: maxRetries, Base: 200 * time.Millisecond, Max: 5 * time.Second},
		batchSize:    batchSize,
		pollInterval: time.Minute,
		dbConnStr:    dbConnStr,
		stop:         make(chan struct{}),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пачки, пока они не кончатся.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Outbox batch failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
			_ = conn.Close(ctx)
			conn = nil
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed: %v", err)
		return
	}
	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		if conn == nil {
			wait := jitter.ExponentialBackoff(time.Second, 30*time.Second, attempt, jitter.DefaultJitter)
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-time.After(wait):
			}
			if err := connect(); err != nil {
				attempt++
				w.logger.Warnf("Reconnect failed: %v", err)
				continue
			}
			attempt = 0
		}

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			_ = conn.Close(context.Background())
			conn = nil
			continue
		}

		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// processBatch забирает пачку событий и публикует их по одному.
// Неопубликованное событие возвращается в PENDING и будет взято следующим проходом.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.batchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed++
			w.logger.Errorf(err, "failed to publish outbox event %s", event.EventID)
			if err := w.repo.Release(ctx, event.ID); err != nil {
				w.logger.Warnf("release failed: %v", err)
			}
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// пачка целиком не ушла: брокер недоступен, ждём следующего пробуждения
	if failed == len(events) {
		return false, nil
	}

	return len(events) == w.batchSize, nil
}

// processEvent публикует событие, повторяя временные ошибки брокера с экспоненциальной паузой.
func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	req := usecase.NewWriteRawMessageReq(event.AggregateID, event.Payload)

	var permanent error
	err := jitter.Retry(ctx, w.retry, func(ctx context.Context) error {
		err := w.producer.WriteRawMessage(ctx, req)
		if err != nil && !isRetryableError(err) {
			permanent = err
			return nil
		}
		return err
	}, func(n int, wait time.Duration, err error) {
		w.logger.Debugf("Temporary Kafka failure for event %s (attempt %d), retrying in %s: %v", event.EventID, n, wait, err)
	})
	if permanent != nil {
		return e.Wrap("Permanent Kafka failure", permanent)
	}
	if err != nil {
		return e.Wrap("Temporary Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
