package worker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: &bytes.Buffer{}})
}

func TestScheduler_AddValidatesSpec(t *testing.T) {
	s := NewScheduler(time.UTC, testLogger())

	require.NoError(t, s.Add("purge", "0 3 * * *", func(context.Context) {}))
	require.NoError(t, s.Add("warm", "@every 10m", func(context.Context) {}))
	assert.Error(t, s.Add("broken", "every day at three", func(context.Context) {}))
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RunsJobsWithContextAndStops(t *testing.T) {
	s := NewScheduler(time.UTC, testLogger())

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) {
		if ctx.Err() == nil {
			select {
			case ran <- struct{}{}:
			default:
			}
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := NewScheduler(time.UTC, testLogger())
	require.NoError(t, s.Add("boom", "@every 1s", func(context.Context) { panic("boom") }))

	assert.NotPanics(t, func() {
		s.cron.Entries()[0].WrappedJob.Run()
	})
}
