package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTicker struct {
	calls atomic.Int32
	ticks chan time.Time
	err   error
}

func (c *countingTicker) Tick(ctx context.Context, now time.Time) error {
	c.calls.Add(1)
	select {
	case c.ticks <- now:
	default:
	}
	return c.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunTicksUntilCancelled(t *testing.T) {
	job := &countingTicker{ticks: make(chan time.Time, 1)}
	s := New(job, time.Second, discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	select {
	case <-job.ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("no tick within 5s")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	calls := job.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, job.calls.Load(), "no ticks after Run returned")
}

func TestScheduler_TickErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	job := &countingTicker{ticks: make(chan time.Time, 1), err: errors.New("db down")}
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(job, time.Second, log)
	s.now = func() time.Time { return fixed }

	s.tick(context.Background())

	assert.Equal(t, fixed, <-job.ticks)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler tick failed", entry["msg"])
	assert.Equal(t, "db down", entry["error"])
}

func TestCronLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{slog.New(slog.NewJSONHandler(&buf, nil))}

	l.Error(errors.New("panic: boom"), "panic", "stack", "...")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "panic: boom", entry["error"])
	assert.Equal(t, "...", entry["stack"])
}
