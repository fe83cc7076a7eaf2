package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func (c *counter) Snapshot() func() {
	saved := c.n
	return func() { c.n = saved }
}

func TestMemoryTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit keeps changes", func(t *testing.T) {
		c := &counter{}
		runner := NewMemory(c)
		require.NoError(t, runner.RunInTx(ctx, func(context.Context) error {
			c.n = 3
			return nil
		}))
		assert.Equal(t, 3, c.n)
	})

	t.Run("error restores snapshot and runs compensations in reverse", func(t *testing.T) {
		c := &counter{n: 1}
		runner := NewMemory(c)
		var order []int
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			c.n = 9
			OnRollback(ctx, func(context.Context) { order = append(order, 1) })
			OnRollback(ctx, func(context.Context) { order = append(order, 2) })
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.Equal(t, 1, c.n)
		assert.Equal(t, []int{2, 1}, order)
	})

	t.Run("nested call joins instead of deadlocking", func(t *testing.T) {
		c := &counter{}
		runner := NewMemory(c)
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			assert.True(t, InScope(ctx))
			return runner.RunInTx(ctx, func(context.Context) error {
				c.n++
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, c.n)
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := NewMemory().RunInTx(cctx, func(context.Context) error { return nil })
		require.Error(t, err)
	})

	t.Run("compensations outside a scope are ignored", func(t *testing.T) {
		assert.False(t, OnRollback(ctx, func(context.Context) {}))
	})
}
