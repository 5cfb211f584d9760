package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Storage  *StorageCfg
	Index    *IndexCfg
	Minio    *MinIOCfg
	Qdrant   *QdrantCfg
	Redis    *RedisCfg
	Kafka    *KafkaCfg
	OpenAI   *OpenAICfg
	Serp     *SerpCfg
	Snapshot *SnapshotCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

// StorageCfg выбирает хранилище эмбеддингов и каталога: postgres или sqlite.
type StorageCfg struct {
	Driver string
	Pg     *PGDBCfg
	SQLite *SQLiteCfg
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32 // 0 — значение pgxpool по умолчанию
}

// DSN возвращает строку подключения в формате key=value.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type SQLiteCfg struct {
	Path string // путь к файлу или ":memory:"
}

type IndexCfg struct {
	Dimension int // 0 — размерность задаст первая вставка
	DefaultK  int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio, пустой — снимки отключены
	BucketName        string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

func (c *MinIOCfg) Enabled() bool { return c.MinioEndpoint != "" }

type QdrantCfg struct {
	Port                 int
	Host                 string // пустой — зеркало в Qdrant отключено
	ApiKey               string
	QdrantCollectionName string
	UseTLS               bool
	VectorSize           uint64
}

func (c *QdrantCfg) Enabled() bool { return c.Host != "" }

type RedisCfg struct {
	Addr        string // пустой — кэш поиска отключён
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	SearchTTL   time.Duration
}

func (c *RedisCfg) Enabled() bool { return c.Addr != "" }

type KafkaCfg struct {
	Topic             string
	Brokers           []string // пустой список — события отключены
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	BatchSize         int
	MaxRetries        int
}

func (c *KafkaCfg) Enabled() bool { return len(c.Brokers) > 0 }

type OpenAICfg struct {
	APIKey         string // пустой — извлечение и эмбеддинги отключены
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	MaxRetries     int
	Timeout        time.Duration
}

func (c *OpenAICfg) Enabled() bool { return c.APIKey != "" }

type SerpCfg struct {
	APIKey     string
	BaseURL    string
	Sites      []string
	MaxRetries int
	Timeout    time.Duration
}

func (c *SerpCfg) Enabled() bool { return c.APIKey != "" }

type SnapshotCfg struct {
	Schedule string // cron-выражение, пустое — расписание отключено
	OnStart  bool   // восстановить индекс из последнего снимка, если хранилище пусто
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	storage, err := loadStorageCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	index, err := loadIndexCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log, index.Dimension)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if kafka.Enabled() && storage.Driver != DriverPostgres {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: KAFKA_BROKERS requires STORAGE_DRIVER=postgres", e.ErrIncorrectEnvVariable))
	}

	openai, err := loadOpenAICfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	serp, err := loadSerpCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	snapshot, err := loadSnapshotCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:     http,
		Grpc:     loadGRPCConfig(),
		Storage:  storage,
		Index:    index,
		Minio:    minio,
		Qdrant:   qdrant,
		Redis:    redis,
		Kafka:    kafka,
		OpenAI:   openai,
		Serp:     serp,
		Snapshot: snapshot,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
		defaultMaxBodyBytes = 8 << 20
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	maxBody, err := parseIntEnv("HTTP_MAX_BODY_BYTES", defaultMaxBodyBytes)
	if err != nil {
		log.Errorf(err, "invalid HTTP_MAX_BODY_BYTES")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		MaxBodyBytes: int64(maxBody),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadStorageCfg(log logger.Logger) (*StorageCfg, error) {
	const defaultSQLitePath = "threadtwin.db"

	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverPostgres))
	switch driver {
	case DriverPostgres:
		pg, err := loadPGDBCfg(log)
		if err != nil {
			return nil, err
		}
		return &StorageCfg{Driver: driver, Pg: pg}, nil
	case DriverSQLite:
		return &StorageCfg{
			Driver: driver,
			SQLite: &SQLiteCfg{Path: getEnvOrDefault("SQLITE_PATH", defaultSQLitePath)},
		}, nil
	default:
		err := fmt.Errorf("%w: STORAGE_DRIVER=%q", e.ErrIncorrectEnvVariable, driver)
		log.Errorf(err, "invalid STORAGE_DRIVER")
		return nil, err
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	maxConns, err := parseIntEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil || maxConns < 0 {
		err := fmt.Errorf("%w: POSTGRES_MAX_CONNS", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid POSTGRES_MAX_CONNS")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MaxConns: int32(maxConns),
	}, nil
}

func loadIndexCfg(log logger.Logger) (*IndexCfg, error) {
	const (
		defaultDimension = 1536 // размерность text-embedding-ada-002
		defaultK         = 10
	)

	dim, err := parseIntEnv("EMBEDDING_DIMENSION", defaultDimension)
	if err != nil || dim < 0 {
		err = fmt.Errorf("%w: EMBEDDING_DIMENSION", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid EMBEDDING_DIMENSION")
		return nil, err
	}

	k, err := parseIntEnv("DEFAULT_K", defaultK)
	if err != nil || k <= 0 {
		err = fmt.Errorf("%w: DEFAULT_K", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid DEFAULT_K")
		return nil, err
	}

	return &IndexCfg{Dimension: dim, DefaultK: k}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL = false
		defaultBucket = "threadtwin-snapshots"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnv("MINIO_ENDPOINT"),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadQdrantCfg(log logger.Logger, dim int) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = 6334
		defaultUseTLS         = false
		defaultCollection     = "product_embeddings"
	)

	port, err := parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	cfg := &QdrantCfg{
		Host:                 getEnv("QDRANT_HOST"),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           uint64(dim),
	}
	if cfg.Enabled() && dim == 0 {
		err := fmt.Errorf("%w: QDRANT_HOST requires a fixed EMBEDDING_DIMENSION", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid qdrant config")
		return nil, err
	}

	return cfg, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultSearchTTL    = 3 * time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	searchTTL, err := parseDurationEnv("SEARCH_CACHE_TTL", defaultSearchTTL)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_CACHE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnv("REDIS_ADDR"),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		SearchTTL:   searchTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "embedding-events"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultBatchSize         = 10
		defaultMaxRetries        = 5
	)

	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}

	maxRetries, err := parseIntEnv("KAFKA_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("KAFKA_MAX_RETRIES", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		BatchSize:         batchSize,
		MaxRetries:        maxRetries,
	}, nil
}

func loadOpenAICfg() (*OpenAICfg, error) {
	const (
		defaultChatModel      = "gpt-3.5-turbo"
		defaultEmbeddingModel = "text-embedding-ada-002"
		defaultMaxRetries     = 3
		defaultTimeout        = 60 * time.Second
	)

	maxRetries, err := parseIntEnv("OPENAI_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("OPENAI_MAX_RETRIES", err)
	}

	timeout, err := parseDurationEnv("OPENAI_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("OPENAI_TIMEOUT", err)
	}

	return &OpenAICfg{
		APIKey:         getEnv("OPENAI_API_KEY"),
		BaseURL:        getEnv("OPENAI_BASE_URL"),
		ChatModel:      getEnvOrDefault("OPENAI_CHAT_MODEL", defaultChatModel),
		EmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", defaultEmbeddingModel),
		MaxRetries:     maxRetries,
		Timeout:        timeout,
	}, nil
}

func loadSerpCfg() (*SerpCfg, error) {
	const (
		defaultBaseURL    = "https://serpapi.com/search.json"
		defaultSites      = "hm.com,forever21.com,zara.com,asos.com"
		defaultMaxRetries = 3
		defaultTimeout    = 15 * time.Second
	)

	maxRetries, err := parseIntEnv("SERPAPI_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("SERPAPI_MAX_RETRIES", err)
	}

	timeout, err := parseDurationEnv("SERPAPI_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("SERPAPI_TIMEOUT", err)
	}

	var sites []string
	for _, s := range strings.Split(getEnvOrDefault("SERPAPI_SITES", defaultSites), ",") {
		if s = strings.TrimSpace(s); s != "" {
			sites = append(sites, s)
		}
	}

	return &SerpCfg{
		APIKey:     getEnv("SERPAPI_KEY"),
		BaseURL:    getEnvOrDefault("SERPAPI_BASE_URL", defaultBaseURL),
		Sites:      sites,
		MaxRetries: maxRetries,
		Timeout:    timeout,
	}, nil
}

func loadSnapshotCfg() (*SnapshotCfg, error) {
	onStart, err := strconv.ParseBool(getEnvOrDefault("SNAPSHOT_RESTORE_ON_START", "false"))
	if err != nil {
		return nil, e.Wrap("SNAPSHOT_RESTORE_ON_START", err)
	}

	return &SnapshotCfg{
		Schedule: getEnv("SNAPSHOT_SCHEDULE"),
		OnStart:  onStart,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
