// Package scheduler запускает периодические задачи (снимки индекса) по cron-расписанию.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Job — задача, выполняемая по расписанию.
type Job func(ctx context.Context) error

// Scheduler — обёртка над robfig/cron с контекстом, таймаутом задачи и логированием.
// Повторный запуск задачи пропускается, пока предыдущий не завершился.
type Scheduler struct {
	cron    *cron.Cron
	logger  logger.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(logger logger.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add регистрирует задачу. Поддерживаются 5-польные выражения и дескрипторы вида @every 1h.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	parsed, err := parse(schedule)
	if err != nil {
		return e.Wrap("Scheduler.Add", fmt.Errorf("%w: schedule %q for %s: %w", e.ErrIncorrectEnvVariable, schedule, name, err))
	}

	s.cron.Schedule(parsed, cron.FuncJob(func() { s.run(name, job) }))
	s.logger.Infof("Scheduled job %s: %s", name, schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает расписание, отменяет текущие задачи и ждёт их завершения или ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(name string, job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Errorf(err, "scheduled job %s failed", name)
		return
	}
	s.logger.Debugf("Scheduled job %s finished in %s", name, time.Since(start))
}

func parse(schedule string) (cron.Schedule, error) {
	return cron.ParseStandard(schedule)
}
