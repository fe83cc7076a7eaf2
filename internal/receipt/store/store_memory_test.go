package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundledger/internal/receipt/models"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/sentinel"
)

var (
	alice = domain.MustAddress("0x00000000000000000000000000000000000000a1")
	bob   = domain.MustAddress("0x00000000000000000000000000000000000000b2")
)

func mint(campaign domain.CampaignID, to domain.Address) *models.Receipt {
	return &models.Receipt{Owner: to, CampaignID: campaign, MintedTo: to, IssuedAt: time.Now().UTC()}
}

func TestInMemoryCreate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	first := mint(0, alice)
	require.NoError(t, s.Create(ctx, first))
	second := mint(1, alice)
	require.NoError(t, s.Create(ctx, second))
	assert.Equal(t, domain.ReceiptID(0), first.ID)
	assert.Equal(t, domain.ReceiptID(1), second.ID)

	err := s.Create(ctx, mint(0, alice))
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	found, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignID(1), found.CampaignID)

	_, err = s.FindByID(ctx, 2)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryUpdateOwner(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	r := mint(0, alice)
	require.NoError(t, s.Create(ctx, r))

	assert.ErrorIs(t, s.UpdateOwner(ctx, r.ID, bob, alice), sentinel.ErrConflict)
	assert.ErrorIs(t, s.UpdateOwner(ctx, 9, alice, bob), sentinel.ErrNotFound)
	require.NoError(t, s.UpdateOwner(ctx, r.ID, alice, bob))

	owned, err := s.ListByOwner(ctx, bob)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, alice, owned[0].MintedTo, "minting record survives a transfer")

	owned, err = s.ListByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestInMemorySnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Create(ctx, mint(0, alice)))

	restore := s.Snapshot()
	require.NoError(t, s.Create(ctx, mint(1, bob)))
	require.NoError(t, s.UpdateOwner(ctx, 0, alice, bob))
	restore()

	_, err := s.FindByID(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	r, err := s.FindByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, bob, r.Owner, "a transfer made meanwhile is not undone")

	next := mint(1, bob)
	require.NoError(t, s.Create(ctx, next))
	assert.Equal(t, domain.ReceiptID(1), next.ID, "ids are reused only after a rollback")
}
