package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSaveAndRestore(t *testing.T) {
	repo := &fakeSnapshotRepo{objects: map[string][]byte{}}
	src := index.New(2)
	_, err := src.Insert([]float32{1, 0}, domain.Metadata{domain.MetaBrand: "Zara"})
	require.NoError(t, err)
	_, err = src.Insert([]float32{0, 1}, nil)
	require.NoError(t, err)

	saver := NewSnapshotUC(src, repo, logger.NewNop())
	saver.now = func() time.Time { return time.Unix(1700000000, 0) }

	info, err := saver.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/index-1700000000.bin", info.Key)
	assert.Equal(t, 2, info.Records)
	assert.Contains(t, repo.objects, info.Key)
	assert.Contains(t, repo.objects, LatestSnapshotKey)

	dst := index.New(0)
	restorer := NewSnapshotUC(dst, repo, logger.NewNop())
	info, err = restorer.Restore(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, LatestSnapshotKey, info.Key)
	assert.Equal(t, 2, dst.Len())
	assert.Equal(t, src.Records(), dst.Records())

	_, err = restorer.Restore(context.Background(), "")
	require.ErrorIs(t, err, e.ErrInvalidArgument)
}

func TestSnapshotErrors(t *testing.T) {
	_, err := NewSnapshotUC(index.New(0), nil, logger.NewNop()).Save(context.Background())
	require.ErrorIs(t, err, e.ErrNotConfigured)

	uc := NewSnapshotUC(index.New(0), &fakeSnapshotRepo{objects: map[string][]byte{}}, logger.NewNop())
	_, err = uc.Restore(context.Background(), "snapshots/missing.bin")
	require.ErrorIs(t, err, e.ErrNotFound)
}
