package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSchedule(t *testing.T) {
	s := New(logger.NewNop(), time.Second)
	err := s.Add("snapshot", "every tuesday", func(context.Context) error { return nil })
	require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)

	require.NoError(t, s.Add("snapshot", "*/5 * * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("snapshot", "@every 1h", func(context.Context) error { return nil }))
}

func TestRunPassesContextAndSurvivesErrors(t *testing.T) {
	s := New(logger.NewNop(), 50*time.Millisecond)

	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errors.New("boom")
	}

	s.run("snapshot", job)
	s.run("snapshot", job)
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, s.Stop(context.Background()))
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New(logger.NewNop(), 0)

	started := make(chan struct{})
	finished := make(chan error, 1)
	go s.run("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	})

	<-started
	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
}
