package models

import (
	"strings"
	"time"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
)

// Receipt is a non-fungible proof of participation, minted to a donor on
// their first contribution to a campaign and transferable afterwards.
type Receipt struct {
	ID         domain.ReceiptID  `json:"id"`
	Owner      domain.Address    `json:"owner"`
	CampaignID domain.CampaignID `json:"campaign_id"`
	MintedTo   domain.Address    `json:"minted_to"`
	IssuedAt   time.Time         `json:"issued_at"`
}

// CanTransfer checks that from currently owns the receipt and to is a real address.
func (r *Receipt) CanTransfer(from, to domain.Address) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "cannot transfer to the zero address")
	}
	if r.Owner != from {
		return dErrors.New(dErrors.CodeForbidden, "only the receipt owner can transfer it")
	}
	return nil
}

// TransferRequest is the body of POST /receipts/{id}/transfer.
type TransferRequest struct {
	To string `json:"to"`
}

func (r *TransferRequest) Normalize() {
	r.To = strings.TrimSpace(r.To)
}

func (r *TransferRequest) Validate() error {
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	return nil
}

// ReceiptList is the response of GET /receipts?owner=.
type ReceiptList struct {
	Owner    domain.Address `json:"owner"`
	Receipts []*Receipt     `json:"receipts"`
}
