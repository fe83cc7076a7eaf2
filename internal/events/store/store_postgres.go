package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fundledger/internal/events"
	"fundledger/pkg/domain"
	txcontext "fundledger/pkg/platform/tx"
)

// Postgres stores the log in ledger_events, which doubles as the Kafka outbox.
// Appends join the transaction carried by ctx so events commit with ledger state.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, evs ...events.Event) ([]events.Event, error) {
	const query = `
		INSERT INTO ledger_events (id, event_type, campaign_id, payload, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`
	exec := txcontext.Exec(ctx, s.db)
	out := make([]events.Event, 0, len(evs))
	for _, ev := range evs {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
		err = exec.QueryRowContext(ctx, query,
			ev.ID,
			string(ev.Type),
			int64(ev.CampaignID),
			payload,
			ev.RequestID,
			ev.OccurredAt,
		).Scan(&ev.Seq)
		if err != nil {
			return nil, fmt.Errorf("insert ledger event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Postgres) ListAfter(ctx context.Context, afterSeq int64, limit int) ([]events.Event, error) {
	const query = `
		SELECT seq, id, event_type, campaign_id, payload, request_id, occurred_at, published_at
		FROM ledger_events
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListUnpublished returns the oldest unpublished events. Inside a transaction
// the rows are locked so concurrent relays skip them.
func (s *Postgres) ListUnpublished(ctx context.Context, limit int) ([]events.Event, error) {
	query := `
		SELECT seq, id, event_type, campaign_id, payload, request_id, occurred_at, published_at
		FROM ledger_events
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`
	if _, ok := txcontext.From(ctx); ok {
		query += " FOR UPDATE SKIP LOCKED"
	}
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Postgres) MarkPublished(ctx context.Context, seqs []int64, at time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	const query = `UPDATE ledger_events SET published_at = $1 WHERE seq = ANY($2)`
	if _, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, at, pq.Array(seqs)); err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	var out []events.Event
	for rows.Next() {
		var (
			ev          events.Event
			eventType   string
			campaignID  int64
			payload     []byte
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&ev.Seq, &ev.ID, &eventType, &campaignID, &payload, &ev.RequestID, &ev.OccurredAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		if err := json.Unmarshal(payload, &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode ledger event payload: %w", err)
		}
		ev.Type = events.Type(eventType)
		ev.CampaignID = domain.CampaignID(campaignID)
		if publishedAt.Valid {
			t := publishedAt.Time
			ev.PublishedAt = &t
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return out, nil
}
