package cfg

import (
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPostgresEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "threadtwin")
}

func TestLoadDefaults(t *testing.T) {
	setPostgresEnv(t)

	c, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, int64(8<<20), c.Http.MaxBodyBytes)
	assert.Equal(t, DriverPostgres, c.Storage.Driver)
	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=threadtwin sslmode=disable", c.Storage.Pg.DSN())
	assert.Equal(t, 1536, c.Index.Dimension)
	assert.Equal(t, 10, c.Index.DefaultK)
	assert.False(t, c.Minio.Enabled())
	assert.False(t, c.Qdrant.Enabled())
	assert.False(t, c.Redis.Enabled())
	assert.False(t, c.Kafka.Enabled())
	assert.False(t, c.OpenAI.Enabled())
	assert.False(t, c.Serp.Enabled())
	assert.Equal(t, []string{"hm.com", "forever21.com", "zara.com", "asos.com"}, c.Serp.Sites)
	assert.Equal(t, 3*time.Minute, c.Redis.SearchTTL)
	assert.Empty(t, c.Snapshot.Schedule)
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("EMBEDDING_DIMENSION", "0")
	t.Setenv("KAFKA_BROKERS", "")

	c, err := Load(logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, ":memory:", c.Storage.SQLite.Path)
	assert.Nil(t, c.Storage.Pg)
	assert.Equal(t, 0, c.Index.Dimension)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("missing postgres user", func(t *testing.T) {
		t.Setenv("POSTGRES_USER", "")
		_, err := Load(logger.NewNop())
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		_, err := Load(logger.NewNop())
		require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})

	t.Run("bad dimension", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("EMBEDDING_DIMENSION", "-1")
		_, err := Load(logger.NewNop())
		require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})

	t.Run("bad k", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("DEFAULT_K", "zero")
		_, err := Load(logger.NewNop())
		require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})

	t.Run("kafka needs postgres", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		t.Setenv("KAFKA_BROKERS", "localhost:9092")
		_, err := Load(logger.NewNop())
		require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})

	t.Run("qdrant needs fixed dimension", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		t.Setenv("EMBEDDING_DIMENSION", "0")
		t.Setenv("QDRANT_HOST", "qdrant")
		_, err := Load(logger.NewNop())
		require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})

	t.Run("bad timeout", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("HTTP_READ_TIMEOUT", "soon")
		_, err := Load(logger.NewNop())
		require.Error(t, err)
	})
}

func TestKafkaBrokersAreTrimmed(t *testing.T) {
	setPostgresEnv(t)
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")

	c, err := Load(logger.NewNop())
	require.NoError(t, err)
	assert.True(t, c.Kafka.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "embedding-events", c.Kafka.Topic)
}
