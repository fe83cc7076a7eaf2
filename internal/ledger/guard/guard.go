// Package guard provides the process-wide withdrawal lock. Only one withdrawal,
// for any campaign, may be between its balance update and its payout at a time.
package guard

import (
	"context"
	"sync"

	"fundledger/pkg/platform/sentinel"
)

// Release frees a held guard.
type Release func(ctx context.Context) error

// Local guards withdrawals within one process.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

// Acquire takes the guard without waiting. It returns sentinel.ErrLocked when
// another withdrawal holds it, including a re-entrant call from the holder.
func (g *Local) Acquire(_ context.Context) (Release, error) {
	if !g.mu.TryLock() {
		return nil, sentinel.ErrLocked
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(g.mu.Unlock)
		return nil
	}, nil
}
