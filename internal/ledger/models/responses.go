package models

import (
	"time"

	"fundledger/pkg/domain"
)

// ContributionResult reports how a contribution settled.
type ContributionResult struct {
	CampaignID  domain.CampaignID `json:"campaign_id"`
	Contributor domain.Address    `json:"contributor"`
	// Offered is the input amount: settlement units on the native path,
	// token units on the token path.
	Offered domain.Amount `json:"offered"`
	// Donation is the settlement-asset value the contribution realized.
	Donation         domain.Amount     `json:"donation"`
	Accepted         domain.Amount     `json:"accepted"`
	Change           domain.Amount     `json:"change"`
	PriceGoalReached bool              `json:"price_goal_reached"`
	ReceiptID        *domain.ReceiptID `json:"receipt_id,omitempty"`
}

// WithdrawalResult reports a completed payout.
type WithdrawalResult struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Owner      domain.Address    `json:"owner"`
	Amount     domain.Amount     `json:"amount"`
}

// GoalStatus answers both goal queries at one instant.
type GoalStatus struct {
	CampaignID       domain.CampaignID `json:"campaign_id"`
	PriceGoalReached bool              `json:"price_goal_reached"`
	DateGoalReached  bool              `json:"date_goal_reached"`
	Amount           domain.Amount     `json:"amount"`
	PriceGoal        domain.Amount     `json:"price_goal"`
	DateGoal         time.Time         `json:"date_goal"`
}

// DonationResponse is one donor's cumulative contribution.
type DonationResponse struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Donor      domain.Address    `json:"donor"`
	Amount     domain.Amount     `json:"amount"`
}

// DonationList is every donor total for one campaign.
type DonationList struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Donations  []Donation        `json:"donations"`
}

// CampaignList is a page of campaigns.
type CampaignList struct {
	Campaigns []*Campaign `json:"campaigns"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	Total     int         `json:"total"`
}

// CreateCampaignResponse is returned by POST /campaigns.
type CreateCampaignResponse struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Campaign   *Campaign         `json:"campaign"`
}
