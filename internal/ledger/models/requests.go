package models

import (
	"strings"
	"time"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 4000
)

// CreateCampaignRequest is the body of POST /campaigns.
type CreateCampaignRequest struct {
	Owner       string        `json:"owner"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	DateGoal    time.Time     `json:"date_goal"`
	PriceGoal   domain.Amount `json:"price_goal"`
}

func (r *CreateCampaignRequest) Normalize() {
	r.Owner = strings.TrimSpace(r.Owner)
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate checks shape only; goal bounds are the caller's responsibility.
func (r *CreateCampaignRequest) Validate() error {
	if r.Owner == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if len(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	if r.DateGoal.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "date_goal is required")
	}
	return nil
}

// Command converts the request into typed input.
func (r *CreateCampaignRequest) Command() (CreateCampaign, error) {
	owner, err := domain.ParseAddress(r.Owner)
	if err != nil {
		return CreateCampaign{}, dErrors.New(dErrors.CodeValidation, "owner must be a hex address")
	}
	return CreateCampaign{
		Owner:       owner,
		Name:        r.Name,
		Description: r.Description,
		DateGoal:    r.DateGoal,
		PriceGoal:   r.PriceGoal,
	}, nil
}

// CreateCampaign is the typed input of CampaignLedger.CreateCampaign.
type CreateCampaign struct {
	Owner       domain.Address
	Name        string
	Description string
	DateGoal    time.Time
	PriceGoal   domain.Amount
}

// ContributeRequest is the body of a native contribution. Amount is the value
// attached to the call, in settlement-asset units.
type ContributeRequest struct {
	Amount domain.Amount `json:"amount"`
}

// ContributeTokenRequest is the body of a token contribution.
type ContributeTokenRequest struct {
	Token    string        `json:"token"`
	Amount   domain.Amount `json:"amount"`
	Route    string        `json:"route"`
	Deadline time.Time     `json:"deadline"`
}

func (r *ContributeTokenRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
	r.Route = strings.TrimSpace(r.Route)
}

func (r *ContributeTokenRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if r.Deadline.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "deadline is required")
	}
	return nil
}

// Contribution converts the request into typed input.
func (r *ContributeTokenRequest) Contribution() (TokenContribution, error) {
	token, err := domain.ParseAddress(r.Token)
	if err != nil {
		return TokenContribution{}, dErrors.New(dErrors.CodeValidation, "token must be a hex address")
	}
	return TokenContribution{
		Token:    token,
		Amount:   r.Amount,
		Route:    r.Route,
		Deadline: r.Deadline,
	}, nil
}

// TokenContribution is the typed input of CampaignLedger.ContributeToken.
// Route is opaque exchange routing (fee tier or path).
type TokenContribution struct {
	Token    domain.Address
	Amount   domain.Amount
	Route    string
	Deadline time.Time
}
