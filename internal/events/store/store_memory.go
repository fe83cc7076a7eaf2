package store

import (
	"context"
	"sync"
	"time"

	"fundledger/internal/events"
)

// InMemory keeps the event log in a slice. Seq starts at 1.
type InMemory struct {
	mu     sync.RWMutex
	events []events.Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, evs ...events.Event) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, 0, len(evs))
	for _, ev := range evs {
		ev.Seq = int64(len(s.events)) + 1
		s.events = append(s.events, ev)
		out = append(out, ev)
	}
	return out, nil
}

func (s *InMemory) ListAfter(_ context.Context, afterSeq int64, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, ev := range s.events {
		if ev.Seq <= afterSeq {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) ListUnpublished(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, ev := range s.events {
		if ev.PublishedAt != nil {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, seqs []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range seqs {
		if seq < 1 || seq > int64(len(s.events)) {
			continue
		}
		published := at
		s.events[seq-1].PublishedAt = &published
	}
	return nil
}

// Snapshot implements tx.Snapshotter. The log is append-only, so restoring
// truncates back to the saved length.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	n := len(s.events)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.events) > n {
			s.events = s.events[:n]
		}
	}
}
