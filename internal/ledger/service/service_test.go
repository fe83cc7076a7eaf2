package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EventStore,ReceiptIssuer,Exchange,Vault,Guard,StoreTx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"fundledger/internal/events"
	eventstore "fundledger/internal/events/store"
	"fundledger/internal/exchange"
	"fundledger/internal/ledger/guard"
	"fundledger/internal/ledger/metrics"
	"fundledger/internal/ledger/models"
	ledgerstore "fundledger/internal/ledger/store"
	receiptservice "fundledger/internal/receipt/service"
	receiptstore "fundledger/internal/receipt/store"
	"fundledger/internal/settlement"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/tx"
	"fundledger/pkg/requestcontext"
)

var (
	authority       = domain.MustAddress("0x0000000000000000000000000000000000000001")
	settlementAsset = domain.MustAddress("0x00000000000000000000000000000000000000aa")
	custody         = domain.MustAddress("0x00000000000000000000000000000000000000fe")
	owner           = domain.MustAddress("0x00000000000000000000000000000000000000c1")
	otherOwner      = domain.MustAddress("0x00000000000000000000000000000000000000c2")
	donorA          = domain.MustAddress("0x00000000000000000000000000000000000000d1")
	donorB          = domain.MustAddress("0x00000000000000000000000000000000000000d2")
	token           = domain.MustAddress("0x00000000000000000000000000000000000000e1")
	dustToken       = domain.MustAddress("0x00000000000000000000000000000000000000e2")

	now      = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	dateGoal = now.Add(30 * 24 * time.Hour)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func as(caller domain.Address) context.Context {
	return asAt(caller, now)
}

func asAt(caller domain.Address, at time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), at)
	return requestcontext.WithCaller(ctx, caller)
}

type LedgerSuite struct {
	suite.Suite
	campaigns *ledgerstore.InMemory
	events    *eventstore.InMemory
	receipts  *receiptservice.Service
	vault     *settlement.MemoryVault
	book      *exchange.FixedRateBook
	service   *Service
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.campaigns = ledgerstore.NewInMemory()
	s.events = eventstore.NewInMemory()
	receiptStore := receiptstore.NewInMemory()
	s.receipts = receiptservice.New(receiptStore, receiptservice.WithLogger(discardLogger()))
	s.vault = settlement.NewMemoryVault(settlement.WithLogger(discardLogger()))
	s.book = exchange.NewFixedRateBook(settlementAsset, map[domain.Address]exchange.Rate{
		token:     {Num: domain.NewAmount(3), Den: domain.NewAmount(2)},
		dustToken: {Num: domain.NewAmount(1), Den: domain.NewAmount(1000)},
	})

	svc, err := New(Deps{
		Store:    s.campaigns,
		Events:   s.events,
		Receipts: s.receipts,
		Exchange: s.book,
		Vault:    s.vault,
		Guard:    guard.NewLocal(),
		Tx:       tx.NewMemory(s.campaigns, s.events, receiptStore),
	}, Config{Authority: authority, SettlementAsset: settlementAsset, Custody: custody},
		WithLogger(discardLogger()),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *LedgerSuite) createCampaign(campaignOwner domain.Address, goal uint64) domain.CampaignID {
	c, err := s.service.CreateCampaign(as(authority), models.CreateCampaign{
		Owner:     campaignOwner,
		Name:      "Clean water",
		DateGoal:  dateGoal,
		PriceGoal: domain.NewAmount(goal),
	})
	s.Require().NoError(err)
	return c.ID
}

func (s *LedgerSuite) contribute(donor domain.Address, id domain.CampaignID, amount uint64) *models.ContributionResult {
	res, err := s.service.ContributeNative(as(donor), id, domain.NewAmount(amount))
	s.Require().NoError(err)
	return res
}

func (s *LedgerSuite) campaign(id domain.CampaignID) *models.Campaign {
	c, err := s.service.GetCampaign(context.Background(), id)
	s.Require().NoError(err)
	return c
}

func (s *LedgerSuite) eventTypes() []events.Type {
	evs, err := s.events.ListAfter(context.Background(), 0, 0)
	s.Require().NoError(err)
	types := make([]events.Type, 0, len(evs))
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	return types
}

// assertIdentity checks amount + withdrawn == sum of donor totals.
func (s *LedgerSuite) assertIdentity(id domain.CampaignID) {
	c := s.campaign(id)
	list, err := s.service.Donations(context.Background(), id)
	s.Require().NoError(err)
	var sum domain.Amount
	for _, d := range list.Donations {
		sum, err = sum.Add(d.Total)
		s.Require().NoError(err)
	}
	held, err := c.Amount.Add(c.Withdrawn)
	s.Require().NoError(err)
	s.Equal(sum, held, "amount + withdrawn must equal the donor totals")
	s.LessOrEqual(c.Amount.Cmp(c.PriceGoal), 0, "amount must not exceed the price goal")
}

func (s *LedgerSuite) TestCreateCampaign() {
	s.Run("authority creates campaigns with sequential ids from zero", func() {
		first := s.createCampaign(owner, 500)
		second := s.createCampaign(otherOwner, 10)
		s.Equal(domain.CampaignID(0), first)
		s.Equal(domain.CampaignID(1), second)

		c := s.campaign(first)
		s.Equal(owner, c.Owner)
		s.True(c.Amount.IsZero())
		s.Equal([]events.Type{events.TypeCampaignCreated, events.TypeCampaignCreated}, s.eventTypes())
	})

	s.Run("non-authority caller is forbidden", func() {
		_, err := s.service.CreateCampaign(as(donorA), models.CreateCampaign{
			Owner: owner, Name: "x", DateGoal: dateGoal, PriceGoal: domain.NewAmount(1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.CreateCampaign(context.Background(), models.CreateCampaign{
			Owner: owner, Name: "x", DateGoal: dateGoal, PriceGoal: domain.NewAmount(1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("zero owner is rejected", func() {
		_, err := s.service.CreateCampaign(as(authority), models.CreateCampaign{
			Name: "x", DateGoal: dateGoal, PriceGoal: domain.NewAmount(1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LedgerSuite) TestContributeNative_ExactFill() {
	id := s.createCampaign(owner, 500)

	res := s.contribute(donorA, id, 500)

	s.Equal(domain.NewAmount(500), res.Accepted)
	s.True(res.Change.IsZero())
	s.True(res.PriceGoalReached)
	reached, err := s.service.IsPriceGoalReached(context.Background(), id)
	s.Require().NoError(err)
	s.True(reached)
	s.True(s.vault.PaidTo(donorA).IsZero(), "no refund on an exact fill")
	s.Contains(s.eventTypes(), events.TypePriceGoalReached)
}

func (s *LedgerSuite) TestContributeNative_OverflowRefundsChange() {
	id := s.createCampaign(owner, 500)

	res := s.contribute(donorA, id, 700)

	s.Equal(domain.NewAmount(500), res.Accepted)
	s.Equal(domain.NewAmount(200), res.Change)
	s.True(res.PriceGoalReached)
	s.Equal(domain.NewAmount(200), s.vault.PaidTo(donorA))
	s.Equal(domain.NewAmount(500), s.vault.Balance())
	s.Equal(domain.NewAmount(500), s.campaign(id).Amount)
	s.Contains(s.eventTypes(), events.TypePriceGoalReached)
}

func (s *LedgerSuite) TestContributeNative_ClampsToRemainingRoom() {
	cases := []struct {
		name     string
		prior    uint64
		offer    uint64
		accepted uint64
		change   uint64
	}{
		{name: "below room", prior: 100, offer: 50, accepted: 50},
		{name: "exactly room", prior: 300, offer: 200, accepted: 200},
		{name: "above room", prior: 300, offer: 350, accepted: 200, change: 150},
		{name: "one unit of room", prior: 499, offer: 1000, accepted: 1, change: 999},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			id := s.createCampaign(owner, 500)
			s.contribute(donorB, id, tc.prior)

			res := s.contribute(donorA, id, tc.offer)

			s.Equal(domain.NewAmount(tc.accepted), res.Accepted)
			s.Equal(domain.NewAmount(tc.change), res.Change)
			s.Equal(domain.NewAmount(tc.change), s.vault.PaidTo(donorA))
			s.assertIdentity(id)
		})
	}
}

func (s *LedgerSuite) TestContributeNative_Preconditions() {
	s.Run("date goal closes the campaign regardless of price state", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 500)

		_, err := s.service.ContributeNative(asAt(donorB, dateGoal), id, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeGoalAlreadyReached))
		s.Equal(models.GoalDate, dErrors.ReasonOf(err))
	})

	s.Run("date is checked before a zero amount", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.ContributeNative(asAt(donorB, dateGoal.Add(time.Second)), id, domain.Amount{})
		s.Equal(models.GoalDate, dErrors.ReasonOf(err))
	})

	s.Run("filled price goal rejects further contributions", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 500)

		_, err := s.service.ContributeNative(as(donorB), id, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeGoalAlreadyReached))
		s.Equal(models.GoalPrice, dErrors.ReasonOf(err))
	})

	s.Run("zero amount is rejected", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.ContributeNative(as(donorA), id, domain.Amount{})
		s.True(dErrors.HasCode(err, dErrors.CodeZeroContribution))
	})

	s.Run("unknown campaign", func() {
		_, err := s.service.ContributeNative(as(donorA), 99, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("anonymous caller", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.ContributeNative(context.Background(), id, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *LedgerSuite) TestReceiptIssuedOnlyOnFirstContribution() {
	id := s.createCampaign(owner, 500)
	other := s.createCampaign(owner, 500)

	first := s.contribute(donorA, id, 10)
	second := s.contribute(donorA, id, 10)
	third := s.contribute(donorB, id, 10)
	elsewhere := s.contribute(donorA, other, 10)

	s.Require().NotNil(first.ReceiptID)
	s.Equal(domain.ReceiptID(0), *first.ReceiptID)
	s.Nil(second.ReceiptID)
	s.Require().NotNil(third.ReceiptID)
	s.Equal(domain.ReceiptID(1), *third.ReceiptID)
	s.Require().NotNil(elsewhere.ReceiptID, "first donation to another campaign earns its own receipt")

	owned, err := s.receipts.ListByOwner(context.Background(), donorA)
	s.Require().NoError(err)
	s.Len(owned, 2)
}

func (s *LedgerSuite) TestAccountingIdentityAndMonotonicity() {
	rng := rand.New(rand.NewPCG(7, 11))
	id := s.createCampaign(owner, 5000)
	donors := []domain.Address{donorA, donorB, otherOwner}

	previous := domain.Amount{}
	for round := 0; round < 200; round++ {
		if round%50 == 49 {
			res, err := s.service.Withdraw(as(owner), id)
			if err == nil {
				s.Equal(previous, res.Amount)
				s.True(s.campaign(id).Amount.IsZero(), "withdraw zeroes the balance")
				previous = domain.Amount{}
			} else {
				s.True(dErrors.HasCode(err, dErrors.CodeNothingToWithdraw))
			}
			s.assertIdentity(id)
			continue
		}

		donor := donors[rng.IntN(len(donors))]
		_, err := s.service.ContributeNative(as(donor), id, domain.NewAmount(rng.Uint64N(400)))
		if err != nil {
			s.True(dErrors.HasCode(err, dErrors.CodeZeroContribution) || dErrors.HasCode(err, dErrors.CodeGoalAlreadyReached))
		}
		current := s.campaign(id).Amount
		s.GreaterOrEqual(current.Cmp(previous), 0, "amount never decreases outside a withdrawal")
		previous = current
		s.assertIdentity(id)
	}
}

func (s *LedgerSuite) TestWithdraw() {
	s.Run("owner receives the whole balance", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 120)
		s.contribute(donorB, id, 80)

		res, err := s.service.Withdraw(as(owner), id)
		s.Require().NoError(err)

		s.Equal(domain.NewAmount(200), res.Amount)
		s.Equal(domain.NewAmount(200), s.vault.PaidTo(owner))
		c := s.campaign(id)
		s.True(c.Amount.IsZero())
		s.Equal(domain.NewAmount(200), c.Withdrawn)
		s.Contains(s.eventTypes(), events.TypeWithdrawn)
		s.assertIdentity(id)

		total, err := s.service.GetDonatedAmount(context.Background(), id, donorA)
		s.Require().NoError(err)
		s.Equal(domain.NewAmount(120), total, "donor totals survive a withdrawal")
	})

	s.Run("non-owner is forbidden and balance is unchanged", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 100)

		_, err := s.service.Withdraw(as(donorA), id)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(domain.NewAmount(100), s.campaign(id).Amount)
	})

	s.Run("empty campaign has nothing to withdraw", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.Withdraw(as(owner), id)
		s.True(dErrors.HasCode(err, dErrors.CodeNothingToWithdraw))
	})

	s.Run("second withdrawal finds nothing", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 100)
		_, err := s.service.Withdraw(as(owner), id)
		s.Require().NoError(err)
		_, err = s.service.Withdraw(as(owner), id)
		s.True(dErrors.HasCode(err, dErrors.CodeNothingToWithdraw))
	})

	s.Run("withdrawn campaign keeps accepting until a goal closes it", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorA, id, 300)
		_, err := s.service.Withdraw(as(owner), id)
		s.Require().NoError(err)

		res := s.contribute(donorB, id, 300)
		s.Equal(domain.NewAmount(300), res.Accepted)
		s.assertIdentity(id)
	})
}

func (s *LedgerSuite) TestWithdraw_ReentrantCallsAreRejected() {
	id := s.createCampaign(owner, 500)
	other := s.createCampaign(owner, 500)
	s.contribute(donorA, id, 300)
	s.contribute(donorA, other, 200)

	var reentrant []error
	s.vault.SetReceiver(func(ctx context.Context, to domain.Address, _ domain.Amount) error {
		if to != owner {
			return nil
		}
		_, errSame := s.service.Withdraw(ctx, id)
		_, errOther := s.service.Withdraw(ctx, other)
		reentrant = append(reentrant, errSame, errOther)
		return nil
	})

	res, err := s.service.Withdraw(as(owner), id)
	s.Require().NoError(err)

	s.Equal(domain.NewAmount(300), res.Amount)
	s.Require().Len(reentrant, 2)
	for _, rerr := range reentrant {
		s.True(dErrors.HasCode(rerr, dErrors.CodeWithdrawalInProgress))
	}
	s.Equal(domain.NewAmount(300), s.vault.PaidTo(owner), "paid exactly once")
	s.Equal(domain.NewAmount(200), s.campaign(other).Amount)

	s.vault.SetReceiver(nil)
	_, err = s.service.Withdraw(as(owner), other)
	s.Require().NoError(err, "guard is released after the outer withdrawal")
}

func (s *LedgerSuite) TestWithdraw_FailedPayoutRollsBack() {
	id := s.createCampaign(owner, 500)
	s.contribute(donorA, id, 250)
	before := s.eventTypes()

	s.vault.SetReceiver(func(_ context.Context, to domain.Address, _ domain.Amount) error {
		if to == owner {
			return errors.New("owner rejected funds")
		}
		return nil
	})

	_, err := s.service.Withdraw(as(owner), id)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	c := s.campaign(id)
	s.Equal(domain.NewAmount(250), c.Amount)
	s.True(c.Withdrawn.IsZero())
	s.Equal(domain.NewAmount(250), s.vault.Balance())
	s.Equal(before, s.eventTypes())
	s.assertIdentity(id)
}

func (s *LedgerSuite) TestContributeNative_FailedRefundRejectsEverything() {
	id := s.createCampaign(owner, 500)
	s.vault.SetReceiver(func(context.Context, domain.Address, domain.Amount) error {
		return errors.New("donor cannot receive")
	})

	_, err := s.service.ContributeNative(as(donorA), id, domain.NewAmount(700))
	s.True(dErrors.HasCode(err, dErrors.CodeRefundFailed))

	s.True(s.campaign(id).Amount.IsZero())
	total, err := s.service.GetDonatedAmount(context.Background(), id, donorA)
	s.Require().NoError(err)
	s.True(total.IsZero())
	s.True(s.vault.Balance().IsZero())
	s.True(s.vault.ReceivedFrom(donorA).IsZero())
	owned, err := s.receipts.ListByOwner(context.Background(), donorA)
	s.Require().NoError(err)
	s.Empty(owned)
	s.Equal([]events.Type{events.TypeCampaignCreated}, s.eventTypes())
}

func (s *LedgerSuite) TestContributeNative_RollbackKeepsReceiptTransfers() {
	id := s.createCampaign(owner, 500)
	held := s.contribute(donorB, id, 10)
	s.Require().NotNil(held.ReceiptID)

	var transferErr error
	s.vault.SetReceiver(func(_ context.Context, to domain.Address, _ domain.Amount) error {
		if to != donorA {
			return nil
		}
		_, transferErr = s.receipts.Transfer(as(donorB), *held.ReceiptID, otherOwner)
		return errors.New("donor cannot receive")
	})

	_, err := s.service.ContributeNative(as(donorA), id, domain.NewAmount(700))
	s.True(dErrors.HasCode(err, dErrors.CodeRefundFailed))
	s.Require().NoError(transferErr)

	r, err := s.receipts.Get(context.Background(), *held.ReceiptID)
	s.Require().NoError(err)
	s.Equal(otherOwner, r.Owner, "an acknowledged transfer survives another contribution's rollback")
	owned, err := s.receipts.ListByOwner(context.Background(), donorA)
	s.Require().NoError(err)
	s.Empty(owned)
	s.assertIdentity(id)
}

func (s *LedgerSuite) TestContributeNative_ReentrantContributionDuringRefund() {
	id := s.createCampaign(owner, 500)
	var reentrant error
	s.vault.SetReceiver(func(ctx context.Context, to domain.Address, _ domain.Amount) error {
		_, reentrant = s.service.ContributeNative(ctx, id, domain.NewAmount(5))
		return nil
	})

	res := s.contribute(donorA, id, 600)

	s.Equal(domain.NewAmount(500), res.Accepted)
	s.True(dErrors.HasCode(reentrant, dErrors.CodeGoalAlreadyReached), "state is updated before the refund leaves")
	s.assertIdentity(id)
}

func (s *LedgerSuite) TestContributeToken() {
	s.Run("accounts with the realized output", func() {
		id := s.createCampaign(owner, 500)

		res, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: token, Amount: domain.NewAmount(100), Deadline: dateGoal,
		})
		s.Require().NoError(err)

		s.Equal(domain.NewAmount(100), res.Offered)
		s.Equal(domain.NewAmount(150), res.Donation)
		s.Equal(domain.NewAmount(150), res.Accepted)
		s.NotNil(res.ReceiptID)
		total, err := s.service.GetDonatedAmount(context.Background(), id, donorA)
		s.Require().NoError(err)
		s.Equal(domain.NewAmount(150), total)
	})

	s.Run("overflow is clamped and change returned through the exchange", func() {
		id := s.createCampaign(owner, 500)
		s.contribute(donorB, id, 450)

		res, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: token, Amount: domain.NewAmount(100), Deadline: dateGoal,
		})
		s.Require().NoError(err)

		s.Equal(domain.NewAmount(50), res.Accepted)
		s.Equal(domain.NewAmount(100), res.Change)
		s.True(res.PriceGoalReached)
		s.assertIdentity(id)
	})

	s.Run("expired deadline records nothing", func() {
		id := s.createCampaign(owner, 500)

		_, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: token, Amount: domain.NewAmount(100), Deadline: now.Add(-time.Minute),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeExchangeExpired))
		s.True(s.campaign(id).Amount.IsZero())
	})

	s.Run("zero output is an exchange failure", func() {
		id := s.createCampaign(owner, 500)

		_, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: dustToken, Amount: domain.NewAmount(5), Deadline: dateGoal,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeExchangeFailed))
	})

	s.Run("zero input is rejected before any swap", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: token, Deadline: dateGoal,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeZeroContribution))
	})

	s.Run("settlement asset must use the native path", func() {
		id := s.createCampaign(owner, 500)
		_, err := s.service.ContributeToken(as(donorA), id, models.TokenContribution{
			Token: settlementAsset, Amount: domain.NewAmount(1), Deadline: dateGoal,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LedgerSuite) TestQueries() {
	id := s.createCampaign(owner, 500)
	s.contribute(donorA, id, 200)

	status, err := s.service.GoalStatus(asAt(donorA, dateGoal), id)
	s.Require().NoError(err)
	s.False(status.PriceGoalReached)
	s.True(status.DateGoalReached)
	s.Equal(domain.NewAmount(200), status.Amount)

	reached, err := s.service.IsDateGoalReached(as(donorA), id)
	s.Require().NoError(err)
	s.False(reached)

	total, err := s.service.GetDonatedAmount(context.Background(), id, donorB)
	s.Require().NoError(err)
	s.True(total.IsZero())

	_, err = s.service.GetDonatedAmount(context.Background(), 42, donorB)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.IsPriceGoalReached(context.Background(), 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	list, err := s.service.ListCampaigns(context.Background(), 0, 0)
	s.Require().NoError(err)
	s.Equal(1, list.Total)
	s.Equal(defaultPageSize, list.Limit)

	evs, err := s.service.ListEvents(context.Background(), 1, 0)
	s.Require().NoError(err)
	s.Require().NotEmpty(evs)
	s.Equal(int64(2), evs[0].Seq)
	s.True(evs[0].OccurredAt.Equal(now))
}
