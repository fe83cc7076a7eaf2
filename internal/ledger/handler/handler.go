package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fundledger/internal/events"
	"fundledger/internal/ledger/models"
	"fundledger/internal/platform/metrics"
	"fundledger/internal/platform/middleware"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/httputil"
	authmw "fundledger/pkg/platform/middleware/auth"
	"fundledger/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	CreateCampaign(ctx context.Context, cmd models.CreateCampaign) (*models.Campaign, error)
	GetCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int) (*models.CampaignList, error)
	GoalStatus(ctx context.Context, id domain.CampaignID) (*models.GoalStatus, error)
	ContributeNative(ctx context.Context, id domain.CampaignID, amount domain.Amount) (*models.ContributionResult, error)
	ContributeToken(ctx context.Context, id domain.CampaignID, tc models.TokenContribution) (*models.ContributionResult, error)
	Withdraw(ctx context.Context, id domain.CampaignID) (*models.WithdrawalResult, error)
	GetDonatedAmount(ctx context.Context, id domain.CampaignID, donor domain.Address) (domain.Amount, error)
	Donations(ctx context.Context, id domain.CampaignID) (*models.DonationList, error)
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]events.Event, error)
}

// Handler serves /campaigns and /events.
type Handler struct {
	logger       *slog.Logger
	ledger       Service
	metrics      *metrics.Metrics
	jwtValidator authmw.JWTValidator
}

func New(ledger Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator authmw.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		ledger:       ledger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	campaignRouter := h.baseRouter()
	campaignRouter.Get("/", h.handleList)
	campaignRouter.Get("/{id}", h.handleGet)
	campaignRouter.Get("/{id}/goals", h.handleGoals)
	campaignRouter.Get("/{id}/donations", h.handleDonations)
	campaignRouter.Get("/{id}/donations/{address}", h.handleDonationByAddress)
	campaignRouter.Group(func(authed chi.Router) {
		authed.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		authed.Post("/", h.handleCreate)
		authed.Post("/{id}/contributions", h.handleContribute)
		authed.Post("/{id}/contributions/token", h.handleContributeToken)
		authed.Post("/{id}/withdrawals", h.handleWithdraw)
		authed.Get("/{id}/donations/me", h.handleMyDonation)
	})
	r.Mount("/campaigns", campaignRouter)

	eventRouter := h.baseRouter()
	eventRouter.Get("/", h.handleEvents)
	r.Mount("/events", eventRouter)
}

func (h *Handler) baseRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		router.Use(middleware.Latency(h.metrics))
	}
	return router
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateCampaignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create campaign request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	cmd, err := req.Command()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	campaign, err := h.ledger.CreateCampaign(ctx, cmd)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.CreateCampaignResponse{CampaignID: campaign.ID, Campaign: campaign})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offset, err := intQuery(r, "offset")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.ledger.ListCampaigns(ctx, offset, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list campaigns", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	campaign, err := h.ledger.GetCampaign(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.ledger.GoalStatus(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get goal status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleContribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ContributeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid contribution request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.ledger.ContributeNative(ctx, id, req.Amount)
	if err != nil {
		h.writeServiceError(ctx, w, "contribution rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleContributeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ContributeTokenRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid token contribution request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	tc, err := req.Contribution()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.ledger.ContributeToken(ctx, id, tc)
	if err != nil {
		h.writeServiceError(ctx, w, "token contribution rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.ledger.Withdraw(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "withdrawal rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleMyDonation(w http.ResponseWriter, r *http.Request) {
	h.writeDonation(w, r, requestcontext.Caller(r.Context()))
}

func (h *Handler) handleDonationByAddress(w http.ResponseWriter, r *http.Request) {
	donor, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeDonation(w, r, donor)
}

func (h *Handler) writeDonation(w http.ResponseWriter, r *http.Request, donor domain.Address) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.ledger.GetDonatedAmount(ctx, id, donor)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.DonationResponse{CampaignID: id, Donor: donor, Amount: amount})
}

func (h *Handler) handleDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.ledger.Donations(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list donations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

type eventPage struct {
	Events []events.Event `json:"events"`
	Next   int64          `json:"next"`
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	after, err := intQuery(r, "after")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	evs, err := h.ledger.ListEvents(ctx, int64(after), limit)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list events", err)
		return
	}
	next := int64(after)
	if len(evs) > 0 {
		next = evs[len(evs)-1].Seq
	}
	httputil.WriteJSON(w, http.StatusOK, eventPage{Events: evs, Next: next})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func campaignID(r *http.Request) (domain.CampaignID, error) {
	return domain.ParseCampaignID(chi.URLParam(r, "id"))
}

func intQuery(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be a non-negative integer")
	}
	return n, nil
}
