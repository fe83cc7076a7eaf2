// Package relay publishes committed ledger events from the outbox to Kafka.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fundledger/internal/events"
	"fundledger/internal/platform/kafka"
	"fundledger/pkg/requestcontext"
)

type Store interface {
	ListUnpublished(ctx context.Context, limit int) ([]events.Event, error)
	MarkPublished(ctx context.Context, seqs []int64, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, msgs []kafka.Message) error
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Worker polls the outbox and publishes events in sequence order, keyed by
// campaign id so each campaign's events stay ordered within a partition.
// Delivery is at-least-once: a crash between publish and mark republishes the batch.
type Worker struct {
	store     Store
	publisher Publisher
	tx        StoreTx
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func NewWorker(store Store, publisher Publisher, tx StoreTx, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		publisher: publisher,
		tx:        tx,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Publish failures are logged and retried
// on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := w.RelayOnce(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
					break
				}
				if n < w.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events it published.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	var published int
	err := w.tx.RunInTx(ctx, func(ctx context.Context) error {
		batch, err := w.store.ListUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if w.metrics != nil {
			w.metrics.PendingBacklog.Set(float64(len(batch)))
		}
		if len(batch) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(batch))
		seqs := make([]int64, 0, len(batch))
		for _, ev := range batch {
			msg, err := toMessage(ev)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
			seqs = append(seqs, ev.Seq)
		}

		if err := w.publisher.Publish(ctx, msgs); err != nil {
			if w.metrics != nil {
				w.metrics.PublishFailed.Inc()
			}
			return err
		}
		if err := w.store.MarkPublished(ctx, seqs, requestcontext.Now(ctx)); err != nil {
			return err
		}
		published = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if w.metrics != nil && published > 0 {
		w.metrics.Published.Add(float64(published))
	}
	return published, nil
}

func toMessage(ev events.Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	return kafka.Message{
		Key:   []byte(ev.CampaignID.String()),
		Value: value,
		Headers: map[string]string{
			"event_type": string(ev.Type),
			"event_id":   ev.ID.String(),
		},
	}, nil
}
