// Package settlement holds the settlement-asset custody for campaign funds:
// contributions are deposited here and refunds and payouts leave from here.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"fundledger/pkg/domain"
	"fundledger/pkg/platform/tx"
)

var ErrInsufficientFunds = errors.New("vault holds insufficient funds")

// Receiver is called after funds reach a recipient, with control handed to the
// recipient. Returning an error rejects the transfer. A Receiver may call back
// into the ledger with the context it was given.
type Receiver func(ctx context.Context, to domain.Address, amount domain.Amount) error

// MemoryVault is the in-process custody of the settlement asset.
//
// Movements made inside a unit of work (tx.Begin) register compensations so a
// rolled-back operation returns the funds.
type MemoryVault struct {
	mu       sync.Mutex
	balance  domain.Amount
	paid     map[domain.Address]domain.Amount
	received map[domain.Address]domain.Amount

	receiver Receiver
	logger   *slog.Logger
}

type Option func(*MemoryVault)

func WithReceiver(r Receiver) Option {
	return func(v *MemoryVault) { v.receiver = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *MemoryVault) { v.logger = logger }
}

// WithFloat seeds the vault balance.
func WithFloat(amount domain.Amount) Option {
	return func(v *MemoryVault) { v.balance = amount }
}

func NewMemoryVault(opts ...Option) *MemoryVault {
	v := &MemoryVault{
		paid:     make(map[domain.Address]domain.Amount),
		received: make(map[domain.Address]domain.Amount),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetReceiver replaces the recipient callback.
func (v *MemoryVault) SetReceiver(r Receiver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.receiver = r
}

// Deposit records funds arriving from a contributor.
func (v *MemoryVault) Deposit(ctx context.Context, from domain.Address, amount domain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := v.credit(from, amount); err != nil {
		return err
	}
	tx.OnRollback(ctx, func(ctx context.Context) {
		if err := v.debit(from, amount); err != nil {
			v.logger.ErrorContext(ctx, "failed to reverse deposit", "from", from.Hex(), "amount", amount.String(), "error", err)
		}
	})
	return nil
}

// Transfer moves amount out of the vault to to. The recipient callback runs
// after the funds move and without the vault lock held.
func (v *MemoryVault) Transfer(ctx context.Context, to domain.Address, amount domain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := v.pay(to, amount); err != nil {
		return err
	}

	v.mu.Lock()
	receiver := v.receiver
	v.mu.Unlock()
	if receiver != nil {
		if err := receiver(ctx, to, amount); err != nil {
			if rerr := v.unpay(to, amount); rerr != nil {
				v.logger.ErrorContext(ctx, "failed to reverse rejected transfer", "to", to.Hex(), "error", rerr)
			}
			return err
		}
	}

	tx.OnRollback(ctx, func(ctx context.Context) {
		if err := v.unpay(to, amount); err != nil {
			v.logger.ErrorContext(ctx, "failed to reverse transfer", "to", to.Hex(), "amount", amount.String(), "error", err)
		}
	})
	return nil
}

func (v *MemoryVault) Balance() domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance
}

// PaidTo returns the total transferred out to addr.
func (v *MemoryVault) PaidTo(addr domain.Address) domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paid[addr]
}

// ReceivedFrom returns the total deposited by addr.
func (v *MemoryVault) ReceivedFrom(addr domain.Address) domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.received[addr]
}

func (v *MemoryVault) credit(from domain.Address, amount domain.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	balance, err := v.balance.Add(amount)
	if err != nil {
		return err
	}
	received, err := v.received[from].Add(amount)
	if err != nil {
		return err
	}
	v.balance = balance
	v.received[from] = received
	return nil
}

func (v *MemoryVault) debit(from domain.Address, amount domain.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	balance, err := v.balance.Sub(amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	received, err := v.received[from].Sub(amount)
	if err != nil {
		return err
	}
	v.balance = balance
	v.received[from] = received
	return nil
}

func (v *MemoryVault) pay(to domain.Address, amount domain.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	balance, err := v.balance.Sub(amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	paid, err := v.paid[to].Add(amount)
	if err != nil {
		return err
	}
	v.balance = balance
	v.paid[to] = paid
	return nil
}

func (v *MemoryVault) unpay(to domain.Address, amount domain.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	paid, err := v.paid[to].Sub(amount)
	if err != nil {
		return err
	}
	balance, err := v.balance.Add(amount)
	if err != nil {
		return err
	}
	v.balance = balance
	v.paid[to] = paid
	return nil
}
