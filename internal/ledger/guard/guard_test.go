package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundledger/pkg/platform/sentinel"
)

func TestLocal_SecondAcquireFailsFast(t *testing.T) {
	ctx := context.Background()
	g := NewLocal()

	release, err := g.Acquire(ctx)
	require.NoError(t, err)

	_, err = g.Acquire(ctx)
	require.ErrorIs(t, err, sentinel.ErrLocked)

	require.NoError(t, release(ctx))
	release2, err := g.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}

func TestLocal_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewLocal()

	release, err := g.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	// A second release must not free a lock someone else now holds.
	held, err := g.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	_, err = g.Acquire(ctx)
	assert.ErrorIs(t, err, sentinel.ErrLocked)
	require.NoError(t, held(ctx))
}

func TestLocal_ConcurrentAcquireAdmitsOne(t *testing.T) {
	ctx := context.Background()
	g := NewLocal()
	start := make(chan struct{})
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.Acquire(ctx); err == nil {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
