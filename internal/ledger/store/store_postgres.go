package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
	txcontext "fundledger/pkg/platform/tx"
)

// Postgres persists the campaign registry in the campaigns and donations tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, c *models.Campaign) error {
	const query = `
		WITH next_id AS (
			UPDATE id_counters SET next = next + 1
			WHERE name = 'campaigns'
			RETURNING next - 1 AS id
		)
		INSERT INTO campaigns (id, owner, name, description, date_goal, price_goal, amount, withdrawn, created_at)
		SELECT id, $1::text, $2::text, $3::text, $4::timestamptz, $5::numeric, $6::numeric, $7::numeric, $8::timestamptz
		FROM next_id
		RETURNING id
	`
	var id int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		c.Owner.Hex(),
		c.Name,
		c.Description,
		c.DateGoal,
		c.PriceGoal,
		c.Amount,
		c.Withdrawn,
		c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	c.ID = domain.CampaignID(id)
	return nil
}

// FindByID loads a campaign. Inside a transaction the row is locked until
// commit so concurrent contributions to one campaign serialize.
func (s *Postgres) FindByID(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	query := `
		SELECT id, owner, name, description, date_goal, price_goal, amount, withdrawn, created_at
		FROM campaigns
		WHERE id = $1
	`
	if _, inTx := txcontext.From(ctx); inTx {
		query += " FOR UPDATE"
	}
	c, err := scanCampaign(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Campaign) error {
	const query = `UPDATE campaigns SET amount = $2, withdrawn = $3 WHERE id = $1`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, int64(c.ID), c.Amount, c.Withdrawn)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, offset, limit int) ([]*models.Campaign, int, error) {
	exec := txcontext.Exec(ctx, s.db)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	const query = `
		SELECT id, owner, name, description, date_goal, price_goal, amount, withdrawn, created_at
		FROM campaigns
		ORDER BY id
		OFFSET $1 LIMIT $2
	`
	rows, err := exec.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	out := []*models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaigns: %w", err)
	}
	return out, total, nil
}

func (s *Postgres) Donation(ctx context.Context, id domain.CampaignID, donor domain.Address) (domain.Amount, error) {
	const query = `
		SELECT c.id, d.total
		FROM campaigns c
		LEFT JOIN donations d ON d.campaign_id = c.id AND d.donor = $2
		WHERE c.id = $1
	`
	// A missing donations row scans as NULL, which Amount reads as zero.
	var (
		found int64
		total domain.Amount
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(id), donor.Hex()).Scan(&found, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Amount{}, sentinel.ErrNotFound
		}
		return domain.Amount{}, fmt.Errorf("find donation: %w", err)
	}
	return total, nil
}

// Held sums the undisbursed amount across all campaigns: what custody must hold.
func (s *Postgres) Held(ctx context.Context) (domain.Amount, error) {
	var held domain.Amount
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM campaigns`).Scan(&held)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("sum campaign amounts: %w", err)
	}
	return held, nil
}

func (s *Postgres) AddDonation(ctx context.Context, id domain.CampaignID, donor domain.Address, amount domain.Amount) (domain.Amount, error) {
	const query = `
		INSERT INTO donations (campaign_id, donor, total, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (campaign_id, donor)
		DO UPDATE SET total = donations.total + EXCLUDED.total, updated_at = now()
		RETURNING total
	`
	var total domain.Amount
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(id), donor.Hex(), amount).Scan(&total)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("add donation: %w", err)
	}
	return total, nil
}

func (s *Postgres) Donations(ctx context.Context, id domain.CampaignID) ([]models.Donation, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	const query = `
		SELECT donor, total
		FROM donations
		WHERE campaign_id = $1
		ORDER BY donor
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()

	out := []models.Donation{}
	for rows.Next() {
		var (
			donor string
			d     = models.Donation{CampaignID: id}
		)
		if err := rows.Scan(&donor, &d.Total); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		if d.Donor, err = domain.ParseAddress(donor); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c     models.Campaign
		id    int64
		owner string
	)
	err := row.Scan(&id, &owner, &c.Name, &c.Description, &c.DateGoal, &c.PriceGoal, &c.Amount, &c.Withdrawn, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.Owner, err = domain.ParseAddress(owner); err != nil {
		return nil, err
	}
	c.ID = domain.CampaignID(id)
	c.DateGoal = c.DateGoal.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
