// Package exchange adapts external swap venues to the ledger. Every adapter
// returns the realized output amount; callers must account with that value,
// never with the requested input.
package exchange

import (
	"time"

	"fundledger/pkg/domain"
)

// SwapRequest converts AmountIn of AssetIn into AssetOut, delivered to Recipient.
//
// Allowance is the approval granted for this swap alone; adapters must not pull
// more than it and must not retain it. Route is opaque venue routing (fee tier
// or path). There is no minimum-output bound.
type SwapRequest struct {
	AssetIn   domain.Address
	AssetOut  domain.Address
	AmountIn  domain.Amount
	Allowance domain.Amount
	Route     string
	Deadline  time.Time
	Recipient domain.Address
}
