package store

import (
	"context"
	"sort"
	"sync"

	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
)

type donorKey struct {
	campaign domain.CampaignID
	donor    domain.Address
}

// InMemory is the in-process campaign registry: campaigns indexed by their
// zero-based id plus per-donor totals.
type InMemory struct {
	mu        sync.RWMutex
	campaigns []*models.Campaign
	donations map[donorKey]domain.Amount
}

func NewInMemory() *InMemory {
	return &InMemory{donations: make(map[donorKey]domain.Amount)}
}

// Create appends c and assigns the next id.
func (s *InMemory) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = domain.CampaignID(len(s.campaigns))
	s.campaigns = append(s.campaigns, c.Clone())
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uint64(id) >= uint64(len(s.campaigns)) {
		return nil, sentinel.ErrNotFound
	}
	return s.campaigns[id].Clone(), nil
}

// Update replaces the mutable balances of an existing campaign.
func (s *InMemory) Update(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(c.ID) >= uint64(len(s.campaigns)) {
		return sentinel.ErrNotFound
	}
	stored := s.campaigns[c.ID]
	stored.Amount = c.Amount
	stored.Withdrawn = c.Withdrawn
	return nil
}

func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.Campaign, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.campaigns)
	if offset >= total {
		return []*models.Campaign{}, total, nil
	}
	end := min(offset+limit, total)
	out := make([]*models.Campaign, 0, end-offset)
	for _, c := range s.campaigns[offset:end] {
		out = append(out, c.Clone())
	}
	return out, total, nil
}

// Donation returns donor's running total for id, zero if none.
func (s *InMemory) Donation(_ context.Context, id domain.CampaignID, donor domain.Address) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uint64(id) >= uint64(len(s.campaigns)) {
		return domain.Amount{}, sentinel.ErrNotFound
	}
	return s.donations[donorKey{campaign: id, donor: donor}], nil
}

// AddDonation increments donor's total and returns the new value.
func (s *InMemory) AddDonation(_ context.Context, id domain.CampaignID, donor domain.Address, amount domain.Amount) (domain.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(id) >= uint64(len(s.campaigns)) {
		return domain.Amount{}, sentinel.ErrNotFound
	}
	key := donorKey{campaign: id, donor: donor}
	total, err := s.donations[key].Add(amount)
	if err != nil {
		return domain.Amount{}, err
	}
	s.donations[key] = total
	return total, nil
}

// Donations lists every donor total for id ordered by donor address.
func (s *InMemory) Donations(_ context.Context, id domain.CampaignID) ([]models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uint64(id) >= uint64(len(s.campaigns)) {
		return nil, sentinel.ErrNotFound
	}
	out := []models.Donation{}
	for key, total := range s.donations {
		if key.campaign == id {
			out = append(out, models.Donation{CampaignID: id, Donor: key.donor, Total: total})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Donor.Hex() < out[j].Donor.Hex() })
	return out, nil
}

// Held sums the undisbursed amount across all campaigns.
func (s *InMemory) Held(_ context.Context) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var held domain.Amount
	for _, c := range s.campaigns {
		var err error
		if held, err = held.Add(c.Amount); err != nil {
			return domain.Amount{}, err
		}
	}
	return held, nil
}

// Snapshot implements tx.Snapshotter.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	campaigns := make([]models.Campaign, len(s.campaigns))
	for i, c := range s.campaigns {
		campaigns[i] = *c
	}
	donations := make(map[donorKey]domain.Amount, len(s.donations))
	for k, v := range s.donations {
		donations[k] = v
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.campaigns = s.campaigns[:0]
		for i := range campaigns {
			c := campaigns[i]
			s.campaigns = append(s.campaigns, &c)
		}
		s.donations = donations
	}
}
