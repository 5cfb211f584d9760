package app

import (
	"context"
	"time"

	config "github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/internal/infrastructure/kafka"
	"github.com/briannabogos1157/threadtwin/internal/infrastructure/openai"
	"github.com/briannabogos1157/threadtwin/internal/infrastructure/serp"
	s3Repo "github.com/briannabogos1157/threadtwin/internal/repository/minio"
	"github.com/briannabogos1157/threadtwin/internal/repository/pgdb"
	pgdbConv "github.com/briannabogos1157/threadtwin/internal/repository/pgdb/converter"
	qdrantRepo "github.com/briannabogos1157/threadtwin/internal/repository/qdrant"
	"github.com/briannabogos1157/threadtwin/internal/repository/redis"
	redisConv "github.com/briannabogos1157/threadtwin/internal/repository/redis/converter"
	sqliteRepo "github.com/briannabogos1157/threadtwin/internal/repository/sqlite"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/clients"
	"github.com/briannabogos1157/threadtwin/pkg/closer"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/briannabogos1157/threadtwin/pkg/postgres"
	"github.com/briannabogos1157/threadtwin/pkg/tr"
	"github.com/jimlawless/whereami"
)

const initTimeout = 10 * time.Second

// Deps — собранный граф зависимостей. Используется сервером и catalogctl.
// Outbox равен nil, если Kafka не настроена.
type Deps struct {
	Index      *index.Index
	Embeddings *usecase.EmbeddingUseCase
	Products   *usecase.ProductUseCase
	Extraction *usecase.ExtractionUseCase
	Snapshots  *usecase.SnapshotUseCase
	Outbox     *kafka.OutboxWorker
	Closer     *closer.Closer
}

type storage struct {
	embeddings usecase.EmbeddingRepository
	products   usecase.ProductRepository
	outbox     usecase.OutboxRepository
	txManager  tr.Manager
	dsn        string
}

// BuildDeps подключает хранилище и необязательные внешние сервисы и собирает usecase.
// Ресурсы регистрируются в Deps.Closer. При ошибке уже открытые ресурсы закрываются.
func BuildDeps(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *Deps, err error) {
	cl := closer.NewCloser(0)
	defer func() {
		if err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), initTimeout)
			defer cancel()
			if cerr := cl.Close(closeCtx); cerr != nil {
				log.Warnf("Cleanup after failed init: %v", cerr)
			}
		}
	}()

	st, err := initStorage(ctx, cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var cacheRepo usecase.SearchCacheRepository
	if cfg.Redis.Enabled() {
		redisCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		redisClient, err := clients.NewRedisClient(redisCtx, cfg.Redis)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add("redis", func(context.Context) error { return redisClient.Close() })
		cacheRepo = redis.NewSearchCacheRepo(redisClient, redisConv.ProductSummaryConverter{}, cfg.Redis, log)
		log.Infof("Search cache enabled. addr: %s, ttl: %s", cfg.Redis.Addr, cfg.Redis.SearchTTL)
	}

	var mirror usecase.EmbeddingMirror
	if cfg.Qdrant.Enabled() {
		qdrantCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		qdrantClient, err := clients.NewQdrantClient(qdrantCtx, cfg.Qdrant)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add("qdrant", func(context.Context) error { return qdrantClient.Close() })
		mirror = qdrantRepo.NewEmbeddingMirror(qdrantClient, cfg.Qdrant)
		log.Infof("Qdrant mirror enabled. collection: %s", cfg.Qdrant.QdrantCollectionName)
	}

	var snapshotRepo usecase.SnapshotRepository
	if cfg.Minio.Enabled() {
		minioCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		minioClient, err := clients.NewMinIOClient(minioCtx, cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		snapshotRepo = s3Repo.NewSnapshotRepo(minioClient, cfg.Minio)
		log.Infof("Index snapshots enabled. bucket: %s", cfg.Minio.BucketName)
	}

	var (
		extractor usecase.Extractor
		embedder  usecase.Embedder
		searcher  usecase.WebSearcher
	)
	if cfg.OpenAI.Enabled() {
		llm := openai.NewClient(cfg.OpenAI, log)
		extractor, embedder = llm, llm
	}
	if cfg.Serp.Enabled() {
		searcher = serp.NewClient(cfg.Serp, log)
	}

	idx := index.New(cfg.Index.Dimension)
	embUC := usecase.NewEmbeddingUC(idx, st.embeddings, st.outbox, mirror, st.txManager, log, cfg.Index.DefaultK)

	deps := &Deps{
		Index:      idx,
		Embeddings: embUC,
		Products:   usecase.NewProductUC(st.products, cacheRepo, st.txManager, log),
		Extraction: usecase.NewExtractionUC(extractor, embedder, embUC, searcher, log),
		Snapshots:  usecase.NewSnapshotUC(idx, snapshotRepo, log),
		Closer:     cl,
	}

	if st.outbox != nil {
		producer := kafka.NewProducer(log, cfg.Kafka)
		cl.Add("kafka producer", func(context.Context) error { return producer.Close() })

		if err := producer.EnsureTopic(initTimeout); err != nil {
			log.Warnf("Kafka topic check failed, relying on broker auto-create: %v", err)
		}
		deps.Outbox = kafka.NewOutboxWorker(st.outbox, log, producer, st.dsn, cfg.Kafka.BatchSize, cfg.Kafka.MaxRetries)
		log.Infof("Embedding events enabled. topic: %s", cfg.Kafka.Topic)
	}

	return deps, nil
}

func initStorage(ctx context.Context, cfg *config.Config, log logger.Logger, cl *closer.Closer) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := clients.NewSQLiteDB(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add("sqlite", func(context.Context) error { return db.Close() })

		if err := sqliteRepo.EnsureSchema(ctx, db); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		log.Infof("Storage: sqlite %s", cfg.Storage.SQLite.Path)
		return &storage{
			embeddings: sqliteRepo.NewEmbeddingRepo(db),
			products:   sqliteRepo.NewProductRepo(db),
			txManager:  tr.NewSQLManager(db),
		}, nil

	default:
		db, err := initPGDB(ctx, log, cfg.Storage.Pg)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddFunc("postgres", db.Close)

		st := &storage{
			embeddings: pgdb.NewEmbeddingRepo(db.Pool, pgdbConv.EmbeddingConverter{}),
			products:   pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{}),
			txManager:  tr.NewPgxManager(db.Pool),
			dsn:        db.Dsn,
		}
		if cfg.Kafka.Enabled() {
			st.outbox = pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})
		}

		log.Infof("Storage: postgres %s:%s/%s", cfg.Storage.Pg.Host, cfg.Storage.Pg.Port, cfg.Storage.Pg.DBName)
		return st, nil
	}
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger, ""); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
