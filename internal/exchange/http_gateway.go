package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/circuit"
	"fundledger/pkg/requestcontext"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultProbeInterval  = 15 * time.Second
	maxResponseBytes      = 64 << 10

	reasonRejected = "venue_rejected"
)

// Options configures the HTTP venue client.
type Options struct {
	BaseURL          string
	HTTPClient       *http.Client
	RequestTimeout   time.Duration
	FailureThreshold int
	SuccessThreshold int
	// ProbeInterval is how long an open breaker fails fast before letting one call through.
	ProbeInterval time.Duration
	Logger        *slog.Logger
	Metrics       *Metrics
}

// HTTPGateway calls an external swap venue over JSON/HTTP behind a circuit breaker.
type HTTPGateway struct {
	baseURL       string
	httpClient    *http.Client
	breaker       *circuit.Breaker
	probeInterval time.Duration
	logger        *slog.Logger
	metrics       *Metrics

	mu       sync.Mutex
	openedAt time.Time
}

type swapRequestBody struct {
	AssetIn     string        `json:"asset_in"`
	AssetOut    string        `json:"asset_out"`
	AmountIn    domain.Amount `json:"amount_in"`
	MaxAmountIn domain.Amount `json:"max_amount_in"`
	Route       string        `json:"route,omitempty"`
	Deadline    *int64        `json:"deadline,omitempty"`
	Recipient   string        `json:"recipient"`
}

type swapResponseBody struct {
	AmountOut *domain.Amount `json:"amount_out"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
}

func NewHTTPGateway(opts Options) (*HTTPGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("exchange: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	probe := opts.ProbeInterval
	if probe <= 0 {
		probe = defaultProbeInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGateway{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker: circuit.New("exchange",
			circuit.WithFailureThreshold(opts.FailureThreshold),
			circuit.WithSuccessThreshold(opts.SuccessThreshold),
		),
		probeInterval: probe,
		logger:        logger,
		metrics:       opts.Metrics,
	}, nil
}

// Swap posts the swap to the venue and returns the realized output amount.
func (g *HTTPGateway) Swap(ctx context.Context, req SwapRequest) (domain.Amount, error) {
	if !req.Deadline.IsZero() && requestcontext.Now(ctx).After(req.Deadline) {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeExpired, "swap deadline has passed")
	}
	if req.AmountIn.Cmp(req.Allowance) > 0 {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "swap input exceeds approved allowance")
	}
	if !g.allow() {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "exchange temporarily unavailable")
	}

	start := time.Now()
	out, err := g.do(ctx, req)
	if g.metrics != nil {
		g.metrics.ObserveSwap(time.Since(start), err)
	}
	if err != nil {
		// A venue verdict (expired, rejected) is not an availability failure.
		if !dErrors.HasCode(err, dErrors.CodeExchangeExpired) && !isVenueRejection(err) {
			g.recordFailure(ctx)
		}
		return domain.Amount{}, err
	}
	g.recordSuccess(ctx)
	return out, nil
}

func (g *HTTPGateway) do(ctx context.Context, req SwapRequest) (domain.Amount, error) {
	payload := swapRequestBody{
		AssetIn:     req.AssetIn.Hex(),
		AssetOut:    req.AssetOut.Hex(),
		AmountIn:    req.AmountIn,
		MaxAmountIn: req.Allowance,
		Route:       req.Route,
		Recipient:   req.Recipient.Hex(),
	}
	if !req.Deadline.IsZero() {
		deadline := req.Deadline.Unix()
		payload.Deadline = &deadline
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "encode swap request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "build swap request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := requestcontext.RequestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "swap request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "read swap response")
	}

	// Error bodies are best effort; only a 200 must decode.
	var parsed swapResponseBody
	decodeErr := json.Unmarshal(raw, &parsed)

	switch {
	case resp.StatusCode == http.StatusRequestTimeout || parsed.Code == "expired":
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeExpired, "venue reported the swap deadline passed")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return domain.Amount{}, dErrors.NewWithReason(dErrors.CodeExchangeFailed, reasonRejected,
			fmt.Sprintf("venue rejected swap (status %d): %s", resp.StatusCode, parsed.Message))
	case resp.StatusCode != http.StatusOK:
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, fmt.Sprintf("venue returned status %d", resp.StatusCode))
	case decodeErr != nil:
		return domain.Amount{}, dErrors.Wrap(decodeErr, dErrors.CodeExchangeFailed, "decode swap response")
	case parsed.AmountOut == nil:
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "venue returned no output amount")
	}
	return *parsed.AmountOut, nil
}

// allow reports whether a call may proceed: always while closed, and once per
// probe interval while open.
func (g *HTTPGateway) allow() bool {
	if !g.breaker.IsOpen() {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if time.Since(g.openedAt) < g.probeInterval {
		return false
	}
	g.openedAt = time.Now()
	return true
}

func (g *HTTPGateway) recordFailure(ctx context.Context) {
	_, change := g.breaker.RecordFailure()
	if change.Opened {
		g.mu.Lock()
		g.openedAt = time.Now()
		g.mu.Unlock()
		g.logger.WarnContext(ctx, "exchange circuit opened", "breaker", g.breaker.Name())
		if g.metrics != nil {
			g.metrics.BreakerOpen.Set(1)
		}
	}
}

func (g *HTTPGateway) recordSuccess(ctx context.Context) {
	_, change := g.breaker.RecordSuccess()
	if change.Closed {
		g.logger.InfoContext(ctx, "exchange circuit closed", "breaker", g.breaker.Name())
		if g.metrics != nil {
			g.metrics.BreakerOpen.Set(0)
		}
	}
}

// Healthy reports whether the breaker is closed.
func (g *HTTPGateway) Healthy() bool {
	return !g.breaker.IsOpen()
}

func isVenueRejection(err error) bool {
	return dErrors.ReasonOf(err) == reasonRejected
}
