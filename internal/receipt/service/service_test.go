package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fundledger/internal/receipt/metrics"
	"fundledger/internal/receipt/models"
	"fundledger/internal/receipt/service/mocks"
	"fundledger/internal/receipt/store"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/requestcontext"
)

var (
	alice = domain.MustAddress("0x00000000000000000000000000000000000000a1")
	bob   = domain.MustAddress("0x00000000000000000000000000000000000000b2")
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func (s *ServiceSuite) TestIssueToAssignsSequentialIDsFromZero() {
	ctx := context.Background()
	first, err := s.service.IssueTo(ctx, alice, 0)
	s.Require().NoError(err)
	second, err := s.service.IssueTo(ctx, bob, 0)
	s.Require().NoError(err)
	third, err := s.service.IssueTo(ctx, alice, 1)
	s.Require().NoError(err)

	s.Equal(domain.ReceiptID(0), first)
	s.Equal(domain.ReceiptID(1), second)
	s.Equal(domain.ReceiptID(2), third)
}

func (s *ServiceSuite) TestIssueToRejectsSecondMintForSameCampaign() {
	ctx := context.Background()
	_, err := s.service.IssueTo(ctx, alice, 3)
	s.Require().NoError(err)
	_, err = s.service.IssueTo(ctx, alice, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestIssueToRejectsZeroAddress() {
	_, err := s.service.IssueTo(context.Background(), domain.ZeroAddress, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestGetUnknown() {
	_, err := s.service.Get(context.Background(), 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestTransfer() {
	ctx := context.Background()
	id, err := s.service.IssueTo(ctx, alice, 0)
	s.Require().NoError(err)

	s.Run("requires a caller", func() {
		_, err := s.service.Transfer(ctx, id, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects non-owner", func() {
		_, err := s.service.Transfer(requestcontext.WithCaller(ctx, bob), id, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects zero recipient", func() {
		_, err := s.service.Transfer(requestcontext.WithCaller(ctx, alice), id, domain.ZeroAddress)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("owner transfers", func() {
		r, err := s.service.Transfer(requestcontext.WithCaller(ctx, alice), id, bob)
		s.Require().NoError(err)
		s.Equal(bob, r.Owner)
		s.Equal(alice, r.MintedTo)

		owned, err := s.service.ListByOwner(ctx, bob)
		s.Require().NoError(err)
		s.Len(owned, 1)
		left, err := s.service.ListByOwner(ctx, alice)
		s.Require().NoError(err)
		s.Empty(left)
	})
}

func (s *ServiceSuite) TestStoreFailureIsInternal() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().Create(gomock.Any(), gomock.AssignableToTypeOf(&models.Receipt{})).Return(errors.New("db down"))

	svc := New(mockStore, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := svc.IssueTo(context.Background(), alice, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
