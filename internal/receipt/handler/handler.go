package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fundledger/internal/platform/metrics"
	"fundledger/internal/platform/middleware"
	"fundledger/internal/receipt/models"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/httputil"
	authmw "fundledger/pkg/platform/middleware/auth"
	"fundledger/pkg/requestcontext"
)

// Service defines the receipt operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error)
	ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Receipt, error)
	Transfer(ctx context.Context, id domain.ReceiptID, to domain.Address) (*models.Receipt, error)
}

// Handler serves /receipts.
type Handler struct {
	logger       *slog.Logger
	receipts     Service
	metrics      *metrics.Metrics
	jwtValidator authmw.JWTValidator
}

func New(receipts Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator authmw.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		receipts:     receipts,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the receipt routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	receiptRouter := chi.NewRouter()
	receiptRouter.Use(middleware.Recovery(h.logger))
	receiptRouter.Use(middleware.RequestID)
	receiptRouter.Use(middleware.Logger(h.logger))
	receiptRouter.Use(middleware.Timeout(30 * time.Second))
	receiptRouter.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		receiptRouter.Use(middleware.Latency(h.metrics))
	}
	receiptRouter.Get("/", h.handleListByOwner)
	receiptRouter.Get("/{id}", h.handleGet)
	receiptRouter.Group(func(authed chi.Router) {
		authed.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		authed.Post("/{id}/transfer", h.handleTransfer)
	})

	r.Mount("/receipts", receiptRouter)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseReceiptID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := h.receipts.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get receipt", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := domain.ParseAddress(r.URL.Query().Get("owner"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "owner query parameter must be a hex address"))
		return
	}
	receipts, err := h.receipts.ListByOwner(ctx, owner)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list receipts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ReceiptList{Owner: owner, Receipts: receipts})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseReceiptID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid transfer request",
			"request_id", requestID,
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
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.receipts.Transfer(ctx, id, to)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to transfer receipt", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
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
