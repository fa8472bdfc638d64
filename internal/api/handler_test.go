package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Crypton/internal/collector"
	"Crypton/internal/forecast"
	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(f collector.Fetcher, eng *forecast.Engine) *gin.Engine {
	if eng == nil {
		eng = forecast.NewEngine(strategy.DefaultSearchConfig())
	}
	svc := forecast.NewService(collector.NewCollector(f), eng, nil, nil)
	return NewRouter(NewHandler(svc, 2, 0))
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestRouter(&collector.MockFetcher{}, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSymbols(t *testing.T) {
	r := newTestRouter(&collector.MockFetcher{}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/v1/symbols", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct{ Symbols []string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"BTC", "ETH"}, body.Symbols)

	w = doJSON(t, r, http.MethodGet, "/api/v1/symbols?limit=1", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"BTC"}, body.Symbols)
}

func TestPredict_Linear(t *testing.T) {
	r := newTestRouter(&collector.MockFetcher{Price: 100, Step: 1}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/predict",
		PredictRequest{Symbol: "btc", Horizon: "12m", Strategy: "linear"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC", resp.Symbol)
	assert.Equal(t, "12 months", resp.Horizon)
	assert.Equal(t, "Linear Regression", resp.Strategy)
	assert.Empty(t, resp.Order)
	require.Len(t, resp.Entries, 12)
	assert.Len(t, resp.Entries[0].Label, len("2006-01-02"))
	assert.NotEmpty(t, resp.ID)
}

func TestPredict_ARIMADefaults(t *testing.T) {
	r := newTestRouter(&collector.MockFetcher{Price: 100, Step: 0.5}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/predict", PredictRequest{Symbol: "ETH"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ARIMA", resp.Strategy)
	assert.Contains(t, resp.Order, "ARIMA(")
	assert.Len(t, resp.Entries, 24)
}

func TestPredict_BadInput(t *testing.T) {
	r := newTestRouter(&collector.MockFetcher{Price: 100}, nil)

	cases := []struct {
		name string
		body any
		code string
	}{
		{"missing symbol", map[string]string{"horizon": "24h"}, "invalid_request"},
		{"bad horizon", PredictRequest{Symbol: "BTC", Horizon: "1y"}, "invalid_horizon"},
		{"bad strategy", PredictRequest{Symbol: "BTC", Strategy: "lstm"}, "invalid_strategy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/predict", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestPredict_BoundaryErrors(t *testing.T) {
	short := &collector.MockFetcher{Samples: []model.HistorySample{
		{Time: 3600, Close: 1}, {Time: 7200, Close: 2}, {Time: 10800, Close: 3},
	}}
	w := doJSON(t, newTestRouter(short, nil), http.MethodPost, "/api/v1/predict",
		PredictRequest{Symbol: "BTC", Strategy: "arima"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "data_insufficient")

	eng := forecast.NewEngine(strategy.DefaultSearchConfig())
	eng.Searcher = eng.Searcher.WithScoreFunc(func(context.Context, model.Order, []float64) (float64, error) {
		return 0, strategy.ErrFitFailed
	})
	w = doJSON(t, newTestRouter(&collector.MockFetcher{Price: 100, Step: 1}, eng), http.MethodPost, "/api/v1/predict",
		PredictRequest{Symbol: "BTC", Strategy: "arima"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no_viable_order")
}

func TestErrorStatus(t *testing.T) {
	status, code := errorStatus(strategy.ErrForecastStep)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "forecast_step_failed", code)

	status, code = errorStatus(forecast.ErrUnorderedSeries)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "unordered_series", code)
}

func TestForecasts_Empty(t *testing.T) {
	w := doJSON(t, newTestRouter(&collector.MockFetcher{}, nil), http.MethodGet, "/api/v1/forecasts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"forecasts":null}`, w.Body.String())
}
