package tx

import (
	"context"
	"sync"
)

type scopeKey struct{}

// Scope tracks an open unit of work: nested runners join it, and side effects
// outside the database register compensations that run if it rolls back.
type Scope struct {
	mu            sync.Mutex
	compensations []func(context.Context)
}

// Begin opens a scope on ctx. joined is true when ctx already carries one, in
// which case the caller must not commit or roll back.
func Begin(ctx context.Context) (context.Context, *Scope, bool) {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return ctx, s, true
	}
	s := &Scope{}
	return context.WithValue(ctx, scopeKey{}, s), s, false
}

// InScope reports whether ctx carries an open unit of work.
func InScope(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(*Scope)
	return ok
}

// OnRollback registers fn to run if the enclosing unit of work fails.
// Returns false (and does nothing) outside a scope.
func OnRollback(ctx context.Context, fn func(ctx context.Context)) bool {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.compensations = append(s.compensations, fn)
	s.mu.Unlock()
	return true
}

// Compensate runs registered compensations in reverse order. The context is
// detached from cancellation so compensations run even after a timeout.
func (s *Scope) Compensate(ctx context.Context) {
	s.mu.Lock()
	fns := s.compensations
	s.compensations = nil
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i](ctx)
	}
}
