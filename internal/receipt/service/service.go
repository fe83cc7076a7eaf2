package service

import (
	"context"
	"errors"
	"log/slog"

	"fundledger/internal/receipt/metrics"
	"fundledger/internal/receipt/models"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/sentinel"
	"fundledger/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Receipt) error
	FindByID(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error)
	ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Receipt, error)
	UpdateOwner(ctx context.Context, id domain.ReceiptID, from, to domain.Address) error
}

// Service is the receipt registry: it owns numbering and ownership records.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueTo mints the next sequential receipt to recipient for a first
// donation to campaignID.
func (s *Service) IssueTo(ctx context.Context, recipient domain.Address, campaignID domain.CampaignID) (domain.ReceiptID, error) {
	if recipient.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "cannot issue a receipt to the zero address")
	}
	r := &models.Receipt{
		Owner:      recipient,
		CampaignID: campaignID,
		MintedTo:   recipient,
		IssuedAt:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return 0, dErrors.New(dErrors.CodeConflict, "receipt already issued for this donor and campaign")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue receipt")
	}
	if s.metrics != nil {
		s.metrics.IncrementIssued()
	}
	s.logger.InfoContext(ctx, "receipt issued",
		"receipt_id", r.ID.String(),
		"recipient", recipient.Hex(),
		"campaign_id", campaignID.String(),
	)
	return r.ID, nil
}

func (s *Service) Get(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "receipt not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receipt")
	}
	return r, nil
}

func (s *Service) ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Receipt, error) {
	receipts, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list receipts")
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}
	return receipts, nil
}

// Transfer moves a receipt from the caller to another address.
func (s *Service) Transfer(ctx context.Context, id domain.ReceiptID, to domain.Address) (*models.Receipt, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.CanTransfer(caller, to); err != nil {
		return nil, err
	}
	if err := s.store.UpdateOwner(ctx, id, caller, to); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "receipt not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeForbidden, "only the receipt owner can transfer it")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer receipt")
		}
	}
	r.Owner = to
	if s.metrics != nil {
		s.metrics.IncrementTransferred()
	}
	s.logger.InfoContext(ctx, "receipt transferred",
		"receipt_id", id.String(),
		"from", caller.Hex(),
		"to", to.Hex(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return r, nil
}
