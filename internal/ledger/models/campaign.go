package models

import (
	"time"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
)

// Goal kinds reported as the reason of a goal_already_reached error.
const (
	GoalDate  = "date"
	GoalPrice = "price"
)

// Campaign is the aggregate root for one funding campaign.
//
// Invariants:
//   - Owner, Name, Description, DateGoal and PriceGoal never change after creation
//   - Amount <= PriceGoal
//   - Amount + Withdrawn equals the sum of every donor total
//   - Amount only decreases through a withdrawal, and then to exactly zero
//
// Donor totals live beside the campaign in the store; the aggregate only
// carries the running sums.
type Campaign struct {
	ID          domain.CampaignID `json:"id"`
	Owner       domain.Address    `json:"owner"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DateGoal    time.Time         `json:"date_goal"`
	PriceGoal   domain.Amount     `json:"price_goal"`
	Amount      domain.Amount     `json:"amount"`
	Withdrawn   domain.Amount     `json:"withdrawn"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Donation is one donor's running total for a campaign.
type Donation struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Donor      domain.Address    `json:"donor"`
	Total      domain.Amount     `json:"total"`
}

// NewCampaign validates creation input. The id is assigned by the store.
// No bounds are placed on the goals.
func NewCampaign(owner domain.Address, name, description string, dateGoal time.Time, priceGoal domain.Amount, now time.Time) (*Campaign, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner must not be the zero address")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if dateGoal.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date goal is required")
	}
	return &Campaign{
		Owner:       owner,
		Name:        name,
		Description: description,
		DateGoal:    dateGoal.UTC(),
		PriceGoal:   priceGoal,
		CreatedAt:   now.UTC(),
	}, nil
}

// IsDateGoalReached reports whether the campaign has closed by date.
func (c *Campaign) IsDateGoalReached(now time.Time) bool {
	return !now.Before(c.DateGoal)
}

// IsPriceGoalReached reports whether the raised amount has hit the target.
func (c *Campaign) IsPriceGoalReached() bool {
	return c.Amount.Cmp(c.PriceGoal) >= 0
}

// CanContribute checks contribution preconditions in order: date goal, price
// goal, then a nonzero offer.
func (c *Campaign) CanContribute(now time.Time, offered domain.Amount) error {
	if c.IsDateGoalReached(now) {
		return dErrors.NewWithReason(dErrors.CodeGoalAlreadyReached, GoalDate, "campaign date goal has passed")
	}
	if c.Amount.Cmp(c.PriceGoal) == 0 {
		return dErrors.NewWithReason(dErrors.CodeGoalAlreadyReached, GoalPrice, "campaign price goal already reached")
	}
	if offered.IsZero() {
		return dErrors.New(dErrors.CodeZeroContribution, "contribution must be greater than zero")
	}
	return nil
}

// Settlement is the split of an offered donation against the remaining room.
type Settlement struct {
	Offered  domain.Amount
	Accepted domain.Amount
	Change   domain.Amount
	// FillsGoal is true when the accepted amount brings Amount to PriceGoal.
	FillsGoal bool
}

// Settle clamps donation to the room left under the price goal.
func (c *Campaign) Settle(donation domain.Amount) (Settlement, error) {
	room, err := c.room()
	if err != nil {
		return Settlement{}, err
	}
	accepted := donation.Min(room)
	change, err := donation.Sub(accepted)
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{
		Offered:   donation,
		Accepted:  accepted,
		Change:    change,
		FillsGoal: accepted.Cmp(room) == 0,
	}, nil
}

// ApplyDonation adds an accepted amount. Call Settle first.
func (c *Campaign) ApplyDonation(accepted domain.Amount) error {
	next, err := c.Amount.Add(accepted)
	if err != nil {
		return err
	}
	if next.Cmp(c.PriceGoal) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "campaign amount would exceed price goal")
	}
	c.Amount = next
	return nil
}

// CanWithdraw checks that caller owns the campaign and there is a balance.
func (c *Campaign) CanWithdraw(caller domain.Address) error {
	if caller != c.Owner {
		return dErrors.New(dErrors.CodeForbidden, "only the campaign owner can withdraw")
	}
	if c.Amount.IsZero() {
		return dErrors.New(dErrors.CodeNothingToWithdraw, "campaign has nothing to withdraw")
	}
	return nil
}

// ApplyWithdrawal zeroes the balance and returns the amount to pay out.
// The balance is cleared before any funds move.
func (c *Campaign) ApplyWithdrawal() (domain.Amount, error) {
	payout := c.Amount
	withdrawn, err := c.Withdrawn.Add(payout)
	if err != nil {
		return domain.Amount{}, err
	}
	c.Amount = domain.Amount{}
	c.Withdrawn = withdrawn
	return payout, nil
}

func (c *Campaign) room() (domain.Amount, error) {
	if c.Amount.Cmp(c.PriceGoal) > 0 {
		return domain.Amount{}, dErrors.New(dErrors.CodeInvariantViolation, "campaign amount exceeds price goal")
	}
	return c.PriceGoal.Sub(c.Amount)
}

// Clone returns a copy safe to mutate.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	return &cp
}
