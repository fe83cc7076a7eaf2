package tx

import (
	"context"
	"sync"
	"time"

	dErrors "fundledger/pkg/domain-errors"
)

// DefaultTimeout bounds a unit of work when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

// Snapshotter is implemented by in-memory stores that can take part in a
// MemoryTx. Snapshot captures current state and returns a function that
// restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryTx is the in-memory unit of work: a coarse lock plus snapshot and
// restore of every participating store.
type MemoryTx struct {
	mu           sync.Mutex
	participants []Snapshotter
	timeout      time.Duration
}

func NewMemory(participants ...Snapshotter) *MemoryTx {
	return &MemoryTx{participants: participants, timeout: DefaultTimeout}
}

// RunInTx runs fn under the lock. A call made from inside fn with the same
// context joins the running unit of work instead of deadlocking.
func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, scope, joined := Begin(ctx)
	if joined {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restores = append(restores, p.Snapshot())
	}

	if err := fn(ctx); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		scope.Compensate(ctx)
		return err
	}
	return nil
}
