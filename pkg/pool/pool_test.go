package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryTask(t *testing.T) {
	p := New(2)
	p.Start()

	var called atomic.Int32
	for range 5 {
		require.NoError(t, p.Submit(context.Background(), func() { called.Add(1) }))
	}

	p.Close()
	require.Equal(t, int32(5), called.Load())
}

func TestPool_SizeIsAtLeastOne(t *testing.T) {
	require.Equal(t, 1, New(0).Size())
	require.Equal(t, 1, New(-3).Size())
	require.Equal(t, 4, New(4).Size())
}

func TestPool_StartIsIdempotent(t *testing.T) {
	p := New(1)
	p.Start()
	p.Start()

	var running, peak atomic.Int32
	for range 3 {
		require.NoError(t, p.Submit(context.Background(), func() {
			n := running.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}))
	}
	p.Close()

	require.Equal(t, int32(1), peak.Load())
}

func TestPool_CloseWaitsForLongTask(t *testing.T) {
	p := New(1)
	p.Start()

	var done atomic.Bool
	require.NoError(t, p.Submit(context.Background(), func() {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
	}))

	p.Close()
	require.True(t, done.Load())
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	p := New(1)
	p.Start()
	defer p.Close()

	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_SubmitAfterClosePanics(t *testing.T) {
	p := New(1)
	p.Start()
	p.Close()

	require.Panics(t, func() {
		p.Submit(context.Background(), func() {})
	})
}
