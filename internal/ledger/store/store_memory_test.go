package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
)

var (
	owner = domain.MustAddress("0x0000000000000000000000000000000000000001")
	donor = domain.MustAddress("0x0000000000000000000000000000000000000002")
)

func newCampaign(t *testing.T, name string) *models.Campaign {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := models.NewCampaign(owner, name, "", now.Add(24*time.Hour), domain.NewAmount(500), now)
	require.NoError(t, err)
	return c
}

func TestInMemory_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	for i := range 3 {
		c := newCampaign(t, "c")
		require.NoError(t, s.Create(ctx, c))
		assert.Equal(t, domain.CampaignID(i), c.ID)
	}
}

func TestInMemory_FindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newCampaign(t, "c")
	require.NoError(t, s.Create(ctx, c))

	found, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	found.Amount = domain.NewAmount(10)

	again, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, again.Amount.IsZero())

	_, err = s.FindByID(ctx, 7)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_UpdateTouchesBalancesOnly(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newCampaign(t, "original")
	require.NoError(t, s.Create(ctx, c))

	c.Name = "renamed"
	c.Amount = domain.NewAmount(100)
	require.NoError(t, s.Update(ctx, c))

	found, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", found.Name)
	assert.Equal(t, domain.NewAmount(100), found.Amount)

	missing := newCampaign(t, "x")
	missing.ID = 42
	assert.ErrorIs(t, s.Update(ctx, missing), sentinel.ErrNotFound)
}

func TestInMemory_Donations(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newCampaign(t, "c")
	require.NoError(t, s.Create(ctx, c))

	total, err := s.Donation(ctx, c.ID, donor)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = s.AddDonation(ctx, c.ID, donor, domain.NewAmount(30))
	require.NoError(t, err)
	total, err = s.AddDonation(ctx, c.ID, donor, domain.NewAmount(12))
	require.NoError(t, err)
	assert.Equal(t, domain.NewAmount(42), total)

	list, err := s.Donations(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, donor, list[0].Donor)
	assert.Equal(t, domain.NewAmount(42), list[0].Total)

	_, err = s.AddDonation(ctx, 9, donor, domain.NewAmount(1))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_List(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	for range 5 {
		require.NoError(t, s.Create(ctx, newCampaign(t, "c")))
	}

	page, total, err := s.List(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, domain.CampaignID(3), page[0].ID)

	page, _, err = s.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestInMemory_SnapshotRestores(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newCampaign(t, "c")
	require.NoError(t, s.Create(ctx, c))

	restore := s.Snapshot()

	c.Amount = domain.NewAmount(50)
	require.NoError(t, s.Update(ctx, c))
	_, err := s.AddDonation(ctx, c.ID, donor, domain.NewAmount(50))
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newCampaign(t, "later")))

	restore()

	found, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, found.Amount.IsZero())
	total, err := s.Donation(ctx, c.ID, donor)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	_, err = s.FindByID(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_HeldSumsCampaignAmounts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	held, err := s.Held(ctx)
	require.NoError(t, err)
	assert.True(t, held.IsZero())

	for _, amount := range []uint64{120, 30} {
		c := newCampaign(t, "c")
		require.NoError(t, s.Create(ctx, c))
		c.Amount = domain.NewAmount(amount)
		require.NoError(t, s.Update(ctx, c))
	}

	held, err = s.Held(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.NewAmount(150), held)
}
