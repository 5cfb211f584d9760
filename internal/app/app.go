package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	config "github.com/briannabogos1157/threadtwin/internal/cfg"
	v1Grpc "github.com/briannabogos1157/threadtwin/internal/delivery/v1/grpc"
	v1Http "github.com/briannabogos1157/threadtwin/internal/delivery/v1/http"
	"github.com/briannabogos1157/threadtwin/internal/infrastructure/scheduler"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 15 * time.Second
	snapshotTimeout = 2 * time.Minute
)

// App — HTTP и gRPC сервер поверх индекса эмбеддингов.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	deps   *Deps
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := BuildDeps(ctx, cfg, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &App{cfg: cfg, logger: logger, deps: deps}, nil
}

// Run прогревает индекс, запускает фоновые задачи и серверы и блокируется до SIGINT/SIGTERM
// или падения одного из серверов.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.warmup(ctx); err != nil {
		a.logger.Errorf(err, "failed to warm up index")
		a.shutdown()
		return err
	}

	grpcSrv := v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	grpcSrv.SetServing(true)

	r := chi.NewRouter()
	metrics := v1Http.NewMetrics("threadtwin", func() float64 { return float64(a.deps.Index.Len()) })
	v1Http.NewRouter(r, a.logger).Init(a.deps.Embeddings, a.deps.Products, metrics, a.cfg.Http.MaxBodyBytes)
	httpSrv := v1Http.NewServer(r, a.cfg.Http)

	if a.deps.Outbox != nil {
		a.deps.Outbox.Start(ctx)
		a.deps.Closer.AddFunc("outbox worker", a.deps.Outbox.Stop)
	}

	if a.cfg.Snapshot.Schedule != "" {
		sched := scheduler.New(a.logger, snapshotTimeout)
		err := sched.Add("index snapshot", a.cfg.Snapshot.Schedule, func(ctx context.Context) error {
			_, err := a.deps.Snapshots.Save(ctx)
			return err
		})
		if err != nil {
			a.logger.Errorf(err, "invalid snapshot schedule")
			a.shutdown()
			return err
		}
		sched.Start()
		a.deps.Closer.Add("scheduler", sched.Stop)
	}

	a.deps.Closer.Add("grpc server", grpcSrv.Stop)
	a.deps.Closer.Add("http server", httpSrv.Stop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := grpcSrv.Start(); err != nil {
			return e.Wrap("grpc server", err)
		}
		return nil
	})
	g.Go(func() error {
		a.logger.Infof("HTTP server starting on %s", httpSrv.Addr())
		if err := httpSrv.Run(); err != nil {
			return e.Wrap("http server", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Infof("Received shutdown signal, stopping gracefully...")
		}
		grpcSrv.SetServing(false)
		a.shutdown()
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Errorf(err, "server fatal error")
		return err
	}

	a.logger.Infof("Application shutdown complete")
	return nil
}

// warmup загружает индекс из хранилища. Если хранилище пусто и включено восстановление,
// индекс поднимается из последнего снимка и записывается обратно в хранилище.
func (a *App) warmup(ctx context.Context) error {
	n, err := a.deps.Embeddings.Warmup(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if n == 0 && a.cfg.Snapshot.OnStart && a.cfg.Minio.Enabled() {
		info, err := a.deps.Snapshots.Restore(ctx, "")
		if err != nil {
			a.logger.Warnf("Snapshot restore skipped: %v", err)
			return nil
		}
		a.logger.Infof("Index restored from snapshot %s (%d records)", info.Key, info.Records)

		if _, err := a.deps.Embeddings.PersistIndex(ctx); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return nil
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.deps.Closer.Close(ctx); err != nil {
		a.logger.Warnf("%v", err)
	}
}
