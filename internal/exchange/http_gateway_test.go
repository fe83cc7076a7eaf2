package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/requestcontext"
)

func newGateway(t *testing.T, handler http.HandlerFunc, opts Options) (*HTTPGateway, *Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	metrics := NewMetrics(prometheus.NewRegistry())
	opts.BaseURL = srv.URL + "/"
	opts.Metrics = metrics
	gw, err := NewHTTPGateway(opts)
	require.NoError(t, err)
	return gw, metrics
}

func gatewayCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC))
	return requestcontext.WithRequestID(ctx, "req-1")
}

func TestHTTPGateway_Swap(t *testing.T) {
	t.Run("returns the realized output", func(t *testing.T) {
		var got swapRequestBody
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/swap", r.URL.Path)
			assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"amount_out":"149"}`))
		}, Options{})

		out, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		require.NoError(t, err)
		assert.Equal(t, domain.NewAmount(149), out)
		assert.Equal(t, tokenA.Hex(), got.AssetIn)
		assert.Equal(t, domain.NewAmount(100), got.MaxAmountIn)
		assert.Equal(t, donor.Hex(), got.Recipient)
	})

	t.Run("408 maps to expired", func(t *testing.T) {
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusRequestTimeout)
		}, Options{})

		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeExpired))
	})

	t.Run("expired code in body maps to expired", func(t *testing.T) {
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"expired"}`))
		}, Options{})

		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeExpired))
	})

	t.Run("rejection maps to exchange failed", func(t *testing.T) {
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"no route"}`))
		}, Options{})

		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeFailed))
		assert.True(t, gw.Healthy())
	})

	t.Run("missing output maps to exchange failed", func(t *testing.T) {
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}, Options{})

		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeFailed))
	})

	t.Run("malformed output surfaces the decode failure", func(t *testing.T) {
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"amount_out":"12x"}`))
		}, Options{})

		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 100))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeFailed))
		assert.Contains(t, err.Error(), "decode swap response")
	})

	t.Run("deadline is sent as unix seconds and omitted when unset", func(t *testing.T) {
		var bodies []map[string]any
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			bodies = append(bodies, body)
			_, _ = w.Write([]byte(`{"amount_out":"1"}`))
		}, Options{})

		req := swapIn(tokenA, 100)
		_, err := gw.Swap(gatewayCtx(), req)
		require.NoError(t, err)
		req.Deadline = time.Time{}
		_, err = gw.Swap(gatewayCtx(), req)
		require.NoError(t, err)

		require.Len(t, bodies, 2)
		assert.Equal(t, float64(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()), bodies[0]["deadline"])
		assert.NotContains(t, bodies[1], "deadline")
	})

	t.Run("past deadline never reaches the venue", func(t *testing.T) {
		var calls atomic.Int32
		gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}, Options{})

		req := swapIn(tokenA, 100)
		req.Deadline = time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := gw.Swap(gatewayCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeExpired))
		assert.Zero(t, calls.Load())
	})
}

func TestHTTPGateway_Breaker(t *testing.T) {
	var calls atomic.Int32
	var healthy atomic.Bool
	gw, metrics := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"amount_out":"1"}`))
	}, Options{FailureThreshold: 2, SuccessThreshold: 1, ProbeInterval: 20 * time.Millisecond})

	ctx := gatewayCtx()
	for range 2 {
		_, err := gw.Swap(ctx, swapIn(tokenA, 1))
		require.Error(t, err)
	}
	assert.False(t, gw.Healthy())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BreakerOpen))

	_, err := gw.Swap(ctx, swapIn(tokenA, 1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExchangeFailed))
	assert.Equal(t, int32(2), calls.Load(), "open breaker fails fast")

	healthy.Store(true)
	time.Sleep(30 * time.Millisecond)

	_, err = gw.Swap(ctx, swapIn(tokenA, 1))
	require.NoError(t, err)
	assert.True(t, gw.Healthy())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.BreakerOpen))
}

func TestHTTPGateway_VenueVerdictsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}, Options{FailureThreshold: 1, ProbeInterval: time.Hour})

	for range 4 {
		_, err := gw.Swap(gatewayCtx(), swapIn(tokenA, 1))
		require.Error(t, err)
	}
	assert.True(t, gw.Healthy())
	assert.Equal(t, int32(4), calls.Load(), "every call reached the venue")
}

func TestNewHTTPGateway_RequiresURL(t *testing.T) {
	_, err := NewHTTPGateway(Options{BaseURL: "  "})
	assert.Error(t, err)
}
