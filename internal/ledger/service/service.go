// Package service implements the campaign ledger: campaign creation, the two
// contribution paths, withdrawal, and the read queries.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fundledger/internal/events"
	"fundledger/internal/exchange"
	"fundledger/internal/ledger/guard"
	"fundledger/internal/ledger/metrics"
	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/sentinel"
	"fundledger/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Store interface {
	Create(ctx context.Context, c *models.Campaign) error
	FindByID(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	List(ctx context.Context, offset, limit int) ([]*models.Campaign, int, error)
	Donation(ctx context.Context, id domain.CampaignID, donor domain.Address) (domain.Amount, error)
	AddDonation(ctx context.Context, id domain.CampaignID, donor domain.Address, amount domain.Amount) (domain.Amount, error)
	Donations(ctx context.Context, id domain.CampaignID) ([]models.Donation, error)
}

type EventStore interface {
	Append(ctx context.Context, evs ...events.Event) ([]events.Event, error)
	ListAfter(ctx context.Context, afterSeq int64, limit int) ([]events.Event, error)
}

// ReceiptIssuer mints a donor receipt. The ledger only ever writes through it.
type ReceiptIssuer interface {
	IssueTo(ctx context.Context, recipient domain.Address, campaignID domain.CampaignID) (domain.ReceiptID, error)
}

// Exchange converts between a token and the settlement asset and returns the
// realized output.
type Exchange interface {
	Swap(ctx context.Context, req exchange.SwapRequest) (domain.Amount, error)
}

// Vault holds settlement-asset custody. Transfer hands control to the
// recipient, which may call back into the ledger.
type Vault interface {
	Deposit(ctx context.Context, from domain.Address, amount domain.Amount) error
	Transfer(ctx context.Context, to domain.Address, amount domain.Amount) error
}

// Guard is the global withdrawal lock.
type Guard interface {
	Acquire(ctx context.Context) (guard.Release, error)
}

// StoreTx runs fn as one unit of work. Calls made with the context passed to
// fn join the running unit instead of starting another.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config carries the ledger's fixed addresses.
type Config struct {
	// Authority is the only caller allowed to create campaigns.
	Authority domain.Address
	// SettlementAsset denominates every campaign amount.
	SettlementAsset domain.Address
	// Custody receives swap outputs on behalf of the ledger.
	Custody domain.Address
}

// Service is the campaign ledger.
type Service struct {
	store    Store
	events   EventStore
	receipts ReceiptIssuer
	exchange Exchange
	vault    Vault
	guard    Guard
	tx       StoreTx
	cfg      Config

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Deps groups the collaborators New requires.
type Deps struct {
	Store    Store
	Events   EventStore
	Receipts ReceiptIssuer
	Exchange Exchange
	Vault    Vault
	Guard    Guard
	Tx       StoreTx
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(deps Deps, cfg Config, opts ...Option) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("ledger: store is required")
	case deps.Events == nil:
		return nil, errors.New("ledger: event store is required")
	case deps.Receipts == nil:
		return nil, errors.New("ledger: receipt issuer is required")
	case deps.Exchange == nil:
		return nil, errors.New("ledger: exchange is required")
	case deps.Vault == nil:
		return nil, errors.New("ledger: vault is required")
	case deps.Guard == nil:
		return nil, errors.New("ledger: withdrawal guard is required")
	case deps.Tx == nil:
		return nil, errors.New("ledger: transaction runner is required")
	}
	if cfg.Authority.IsZero() {
		return nil, errors.New("ledger: authority address is required")
	}
	s := &Service{
		store:    deps.Store,
		events:   deps.Events,
		receipts: deps.Receipts,
		exchange: deps.Exchange,
		vault:    deps.Vault,
		guard:    deps.Guard,
		tx:       deps.Tx,
		cfg:      cfg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("fundledger/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateCampaign registers a campaign. Only the authority may call it. Goal
// bounds are not checked.
func (s *Service) CreateCampaign(ctx context.Context, cmd models.CreateCampaign) (*models.Campaign, error) {
	ctx, span := s.startSpan(ctx, "ledger.CreateCampaign")
	defer span.End()

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, s.fail(span, "create", err)
	}
	if caller != s.cfg.Authority {
		return nil, s.fail(span, "create", dErrors.New(dErrors.CodeForbidden, "only the authority can create campaigns"))
	}

	campaign, err := models.NewCampaign(cmd.Owner, cmd.Name, cmd.Description, cmd.DateGoal, cmd.PriceGoal, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.fail(span, "create", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, campaign); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store campaign")
		}
		return s.appendEvents(ctx, events.CampaignCreated(campaign.ID, campaign.Name, campaign.Owner))
	})
	if err != nil {
		return nil, s.fail(span, "create", err)
	}

	span.SetAttributes(attribute.String("campaign.id", campaign.ID.String()))
	if s.metrics != nil {
		s.metrics.IncrementCampaignsCreated()
	}
	s.logger.InfoContext(ctx, "campaign created",
		"campaign_id", campaign.ID.String(),
		"owner", campaign.Owner.Hex(),
		"price_goal", campaign.PriceGoal.String(),
		"date_goal", campaign.DateGoal,
		"request_id", requestcontext.RequestID(ctx),
	)
	return campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	return s.loadCampaign(ctx, id)
}

// ListCampaigns pages through the registry in id order.
func (s *Service) ListCampaigns(ctx context.Context, offset, limit int) (*models.CampaignList, error) {
	offset, limit = pageBounds(offset, limit)
	campaigns, total, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return &models.CampaignList{Campaigns: campaigns, Offset: offset, Limit: limit, Total: total}, nil
}

// IsPriceGoalReached reports amount >= priceGoal.
func (s *Service) IsPriceGoalReached(ctx context.Context, id domain.CampaignID) (bool, error) {
	c, err := s.loadCampaign(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsPriceGoalReached(), nil
}

// IsDateGoalReached reports now >= dateGoal.
func (s *Service) IsDateGoalReached(ctx context.Context, id domain.CampaignID) (bool, error) {
	c, err := s.loadCampaign(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsDateGoalReached(requestcontext.Now(ctx)), nil
}

func (s *Service) GoalStatus(ctx context.Context, id domain.CampaignID) (*models.GoalStatus, error) {
	c, err := s.loadCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.GoalStatus{
		CampaignID:       c.ID,
		PriceGoalReached: c.IsPriceGoalReached(),
		DateGoalReached:  c.IsDateGoalReached(requestcontext.Now(ctx)),
		Amount:           c.Amount,
		PriceGoal:        c.PriceGoal,
		DateGoal:         c.DateGoal,
	}, nil
}

// GetDonatedAmount returns donor's cumulative contribution, zero if none.
func (s *Service) GetDonatedAmount(ctx context.Context, id domain.CampaignID, donor domain.Address) (domain.Amount, error) {
	total, err := s.store.Donation(ctx, id, donor)
	if err != nil {
		return domain.Amount{}, translateStoreErr(err, "failed to load donation")
	}
	return total, nil
}

func (s *Service) Donations(ctx context.Context, id domain.CampaignID) (*models.DonationList, error) {
	list, err := s.store.Donations(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load donations")
	}
	return &models.DonationList{CampaignID: id, Donations: list}, nil
}

// ListEvents returns log entries with sequence numbers above afterSeq.
func (s *Service) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]events.Event, error) {
	if afterSeq < 0 {
		afterSeq = 0
	}
	_, limit = pageBounds(0, limit)
	evs, err := s.events.ListAfter(ctx, afterSeq, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	if evs == nil {
		evs = []events.Event{}
	}
	return evs, nil
}

func (s *Service) loadCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load campaign")
	}
	return c, nil
}

// appendEvents stamps and appends events in the caller's unit of work.
func (s *Service) appendEvents(ctx context.Context, evs ...events.Event) error {
	now := requestcontext.Now(ctx).UTC()
	requestID := requestcontext.RequestID(ctx)
	for i := range evs {
		evs[i].OccurredAt = now
		evs[i].RequestID = requestID
	}
	if _, err := s.events.Append(ctx, evs...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append ledger events")
	}
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("request.id", requestcontext.RequestID(ctx)),
	))
}

// fail records err on the span and rejection metrics and returns it.
func (s *Service) fail(span trace.Span, operation string, err error) error {
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	if s.metrics != nil {
		s.metrics.IncrementRejected(operation, string(code))
	}
	return err
}

func callerFrom(ctx context.Context) (domain.Address, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	return caller, nil
}

func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func pageBounds(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}
