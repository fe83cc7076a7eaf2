package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fundledger/internal/receipt/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
	txcontext "fundledger/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists receipts in the receipts table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create mints a receipt. The id comes from the receipts counter row, which
// rolls back with the insert. Inside a caller's transaction the insert runs
// under a savepoint so a failed mint leaves the surrounding transaction usable.
func (s *Postgres) Create(ctx context.Context, r *models.Receipt) error {
	const query = `
		WITH next_id AS (
			UPDATE id_counters SET next = next + 1
			WHERE name = 'receipts'
			RETURNING next - 1 AS id
		)
		INSERT INTO receipts (id, owner, campaign_id, minted_to, issued_at)
		SELECT id, $1::text, $2::bigint, $3::text, $4::timestamptz FROM next_id
		RETURNING id
	`
	insert := func(exec txcontext.Executor) error {
		var id int64
		err := exec.QueryRowContext(ctx, query,
			r.Owner.Hex(),
			int64(r.CampaignID),
			r.MintedTo.Hex(),
			r.IssuedAt,
		).Scan(&id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert receipt: %w", err)
		}
		r.ID = domain.ReceiptID(id)
		return nil
	}

	tx, ok := txcontext.From(ctx)
	if !ok {
		return insert(s.db)
	}
	if _, err := tx.ExecContext(ctx, "SAVEPOINT receipt_mint"); err != nil {
		return fmt.Errorf("savepoint receipt_mint: %w", err)
	}
	if err := insert(tx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT receipt_mint"); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT receipt_mint"); err != nil {
		return fmt.Errorf("release savepoint receipt_mint: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	const query = `
		SELECT id, owner, campaign_id, minted_to, issued_at
		FROM receipts
		WHERE id = $1
	`
	r, err := scanReceipt(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return r, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Receipt, error) {
	const query = `
		SELECT id, owner, campaign_id, minted_to, issued_at
		FROM receipts
		WHERE owner = $1
		ORDER BY id
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, owner.Hex())
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []*models.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return out, nil
}

func (s *Postgres) UpdateOwner(ctx context.Context, id domain.ReceiptID, from, to domain.Address) error {
	const query = `UPDATE receipts SET owner = $3 WHERE id = $1 AND owner = $2`
	exec := txcontext.Exec(ctx, s.db)
	res, err := exec.ExecContext(ctx, query, int64(id), from.Hex(), to.Hex())
	if err != nil {
		return fmt.Errorf("update receipt owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update receipt owner: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return sentinel.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	var (
		r          models.Receipt
		id         int64
		campaignID int64
		owner      string
		mintedTo   string
	)
	if err := row.Scan(&id, &owner, &campaignID, &mintedTo, &r.IssuedAt); err != nil {
		return nil, err
	}
	var err error
	if r.Owner, err = domain.ParseAddress(owner); err != nil {
		return nil, err
	}
	if r.MintedTo, err = domain.ParseAddress(mintedTo); err != nil {
		return nil, err
	}
	r.ID = domain.ReceiptID(id)
	r.CampaignID = domain.CampaignID(campaignID)
	return &r, nil
}
