// Package events holds the append-only ledger event log.
package events

import (
	"time"

	"github.com/google/uuid"

	"fundledger/pkg/domain"
)

// Type names a ledger event.
type Type string

const (
	TypeCampaignCreated  Type = "CampaignCreated"
	TypeDonated          Type = "Donated"
	TypeWithdrawn        Type = "Withdrawn"
	TypePriceGoalReached Type = "PriceGoalReached"
	TypeReceiptIssued    Type = "ReceiptIssued"
)

// Event is one entry of the log. Seq is assigned on append and strictly increases.
type Event struct {
	Seq         int64             `json:"seq"`
	ID          uuid.UUID         `json:"id"`
	Type        Type              `json:"type"`
	CampaignID  domain.CampaignID `json:"campaign_id"`
	Payload     Payload           `json:"payload"`
	RequestID   string            `json:"request_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
}

// Payload carries the typed fields of every event type; unused fields are omitted.
type Payload struct {
	Name      string            `json:"name,omitempty"`
	Owner     *domain.Address   `json:"owner,omitempty"`
	Donor     *domain.Address   `json:"donor,omitempty"`
	Amount    *domain.Amount    `json:"amount,omitempty"`
	PriceGoal *domain.Amount    `json:"price_goal,omitempty"`
	ReceiptID *domain.ReceiptID `json:"receipt_id,omitempty"`
	Recipient *domain.Address   `json:"recipient,omitempty"`
}

func newEvent(t Type, campaignID domain.CampaignID, p Payload) Event {
	return Event{ID: uuid.New(), Type: t, CampaignID: campaignID, Payload: p}
}

func CampaignCreated(id domain.CampaignID, name string, owner domain.Address) Event {
	return newEvent(TypeCampaignCreated, id, Payload{Name: name, Owner: &owner})
}

func Donated(id domain.CampaignID, donor domain.Address, accepted domain.Amount) Event {
	return newEvent(TypeDonated, id, Payload{Donor: &donor, Amount: &accepted})
}

func Withdrawn(id domain.CampaignID, owner domain.Address, amount domain.Amount) Event {
	return newEvent(TypeWithdrawn, id, Payload{Owner: &owner, Amount: &amount})
}

func PriceGoalReached(id domain.CampaignID, priceGoal domain.Amount) Event {
	return newEvent(TypePriceGoalReached, id, Payload{PriceGoal: &priceGoal})
}

func ReceiptIssued(id domain.CampaignID, receiptID domain.ReceiptID, recipient domain.Address) Event {
	return newEvent(TypeReceiptIssued, id, Payload{ReceiptID: &receiptID, Recipient: &recipient})
}
