package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/requestcontext"
)

// Rate prices one token in settlement units as Num/Den.
type Rate struct {
	Num domain.Amount
	Den domain.Amount
}

// FixedRateBook is an in-process venue quoting fixed rates against the
// settlement asset. It serves local runs and tests.
type FixedRateBook struct {
	settlement domain.Address

	mu    sync.RWMutex
	rates map[domain.Address]Rate
}

func NewFixedRateBook(settlement domain.Address, rates map[domain.Address]Rate) *FixedRateBook {
	cp := make(map[domain.Address]Rate, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &FixedRateBook{settlement: settlement, rates: cp}
}

// SetRate installs or replaces a token rate.
func (b *FixedRateBook) SetRate(token domain.Address, rate Rate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rates[token] = rate
}

// Swap converts between a listed token and the settlement asset in either direction.
func (b *FixedRateBook) Swap(ctx context.Context, req SwapRequest) (domain.Amount, error) {
	if !req.Deadline.IsZero() && requestcontext.Now(ctx).After(req.Deadline) {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeExpired, "swap deadline has passed")
	}
	if req.AmountIn.Cmp(req.Allowance) > 0 {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "swap input exceeds approved allowance")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var (
		out domain.Amount
		err error
	)
	switch {
	case req.AssetOut == b.settlement:
		rate, ok := b.rates[req.AssetIn]
		if !ok {
			return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "no market for input token")
		}
		out, err = req.AmountIn.MulDiv(rate.Num, rate.Den)
	case req.AssetIn == b.settlement:
		rate, ok := b.rates[req.AssetOut]
		if !ok {
			return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "no market for output token")
		}
		out, err = req.AmountIn.MulDiv(rate.Den, rate.Num)
	default:
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "one side of the swap must be the settlement asset")
	}
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "swap output could not be computed")
	}
	return out, nil
}

// ParseRates parses "0xToken=num/den,0xOther=num" into a rate table.
func ParseRates(s string) (map[domain.Address]Rate, error) {
	rates := make(map[domain.Address]Rate)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, ratio, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("rate %q: expected token=rate", entry)
		}
		addr, err := domain.ParseAddress(token)
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", entry, err)
		}
		numStr, denStr, hasDen := strings.Cut(ratio, "/")
		if !hasDen {
			denStr = "1"
		}
		num, err := domain.ParseAmount(strings.TrimSpace(numStr))
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", entry, err)
		}
		den, err := domain.ParseAmount(strings.TrimSpace(denStr))
		if err != nil || den.IsZero() || num.IsZero() {
			return nil, fmt.Errorf("rate %q: invalid ratio", entry)
		}
		rates[addr] = Rate{Num: num, Den: den}
	}
	return rates, nil
}
