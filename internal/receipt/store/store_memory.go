package store

import (
	"context"
	"sort"
	"sync"

	"fundledger/internal/receipt/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
)

type mintKey struct {
	campaign domain.CampaignID
	donor    domain.Address
}

// InMemory is the in-process receipt registry. Ids start at 0.
type InMemory struct {
	mu       sync.RWMutex
	receipts []*models.Receipt
	minted   map[mintKey]domain.ReceiptID
}

func NewInMemory() *InMemory {
	return &InMemory{minted: make(map[mintKey]domain.ReceiptID)}
}

func (s *InMemory) Create(_ context.Context, r *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := mintKey{campaign: r.CampaignID, donor: r.MintedTo}
	if _, exists := s.minted[key]; exists {
		return sentinel.ErrConflict
	}
	r.ID = domain.ReceiptID(len(s.receipts))
	cp := *r
	s.receipts = append(s.receipts, &cp)
	s.minted[key] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uint64(id) >= uint64(len(s.receipts)) {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.receipts[id]
	return &cp, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner domain.Address) ([]*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Receipt
	for _, r := range s.receipts {
		if r.Owner == owner {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateOwner moves a receipt from one owner to another. It fails with
// sentinel.ErrConflict if from no longer owns it.
func (s *InMemory) UpdateOwner(_ context.Context, id domain.ReceiptID, from, to domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(id) >= uint64(len(s.receipts)) {
		return sentinel.ErrNotFound
	}
	r := s.receipts[id]
	if r.Owner != from {
		return sentinel.ErrConflict
	}
	r.Owner = to
	return nil
}

// Snapshot implements tx.Snapshotter. Restore drops receipts minted after the
// snapshot. Owner changes are committed on their own by UpdateOwner and are
// kept, including transfers made while the unit of work was open.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	n := len(s.receipts)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if n >= len(s.receipts) {
			return
		}
		for _, r := range s.receipts[n:] {
			delete(s.minted, mintKey{campaign: r.CampaignID, donor: r.MintedTo})
		}
		clear(s.receipts[n:])
		s.receipts = s.receipts[:n]
	}
}
