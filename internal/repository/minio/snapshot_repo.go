package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const snapshotContentType = "application/octet-stream"

// SnapshotRepo хранит бинарные снимки индекса в бакете MinIO.
type SnapshotRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewSnapshotRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *SnapshotRepo {
	return &SnapshotRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Put загружает снимок под ключом key, перезаписывая существующий объект.
func (s *SnapshotRepo) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.mc.PutObject(ctx, s.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: snapshotContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Get читает снимок целиком. Отсутствующий объект — e.ErrNotFound.
func (s *SnapshotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.mc.GetObject(ctx, s.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return data, nil
}

func (s *SnapshotRepo) mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return e.Wrap(whereami.WhereAmI(), e.ErrNotFound)
	}
	return e.Wrap(whereami.WhereAmI(), err)
}
