package clients

import (
	"context"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/jitter"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinIOClient создаёт клиента MinIO и бакет для снимков индекса, если его ещё нет.
func NewMinIOClient(ctx context.Context, cfg *cfg.MinIOCfg) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioRootUser, cfg.MinioRootPassword, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	err = jitter.Retry(ctx, connectPolicy, func(ctx context.Context) error {
		exists, err := client.BucketExists(ctx, cfg.BucketName)
		if err != nil || exists {
			return err
		}
		return client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{})
	}, nil)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return client, nil
}
