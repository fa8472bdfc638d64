// Package api exposes the forecast service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"Crypton/internal/forecast"
	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Horizon  string `json:"horizon"`
	Strategy string `json:"strategy"`
}

// EntryResponse is one forecast step.
type EntryResponse struct {
	Label string  `json:"label"`
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// ForecastResponse is the JSON form of a forecast.
type ForecastResponse struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Horizon   string          `json:"horizon"`
	Strategy  string          `json:"strategy"`
	Order     string          `json:"order,omitempty"`
	Criterion float64         `json:"criterion,omitempty"`
	Samples   int             `json:"samples"`
	Report    string          `json:"report,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Entries   []EntryResponse `json:"entries"`
}

// Handler serves the forecast endpoints.
type Handler struct {
	service  *forecast.Service
	topLimit int
	timeout  time.Duration
}

// NewHandler creates a handler. timeout bounds one prediction; zero means none.
func NewHandler(svc *forecast.Service, topLimit int, timeout time.Duration) *Handler {
	return &Handler{service: svc, topLimit: topLimit, timeout: timeout}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Symbols lists symbols available for prediction.
func (h *Handler) Symbols(c *gin.Context) {
	limit := queryInt(c, "limit", h.topLimit)
	symbols, err := h.service.Symbols(limit)
	if err != nil {
		log.Errorf("list symbols: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unavailable", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

// Predict runs one forecast.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	hz := model.HorizonHourly
	if req.Horizon != "" {
		parsed, err := model.ParseHorizon(req.Horizon)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_horizon", "message": err.Error()})
			return
		}
		hz = parsed
	}
	st := model.StrategyARIMA
	if req.Strategy != "" {
		parsed, err := model.ParseStrategy(req.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_strategy", "message": err.Error()})
			return
		}
		st = parsed
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.service.Run(ctx, strings.ToUpper(req.Symbol), hz, st)
	if err != nil {
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

// Forecasts lists recently recorded forecasts.
func (h *Handler) Forecasts(c *gin.Context) {
	runs, err := h.service.History(queryInt(c, "limit", 20))
	if err != nil {
		log.Errorf("load history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_unavailable", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": runs})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, strategy.ErrDataInsufficient):
		return http.StatusUnprocessableEntity, "data_insufficient"
	case errors.Is(err, strategy.ErrNoViableOrder):
		return http.StatusUnprocessableEntity, "no_viable_order"
	case errors.Is(err, strategy.ErrForecastStep):
		return http.StatusInternalServerError, "forecast_step_failed"
	case errors.Is(err, forecast.ErrUnorderedSeries):
		return http.StatusBadGateway, "unordered_series"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func toResponse(res *forecast.Result) ForecastResponse {
	fc := res.Forecast
	out := ForecastResponse{
		ID:        fc.ID,
		Symbol:    fc.Symbol,
		Horizon:   fc.Horizon.Name,
		Strategy:  string(fc.Strategy),
		Criterion: fc.Criterion,
		Samples:   fc.Samples,
		Report:    res.ReportPath,
		CreatedAt: fc.CreatedAt,
		Entries:   make([]EntryResponse, len(fc.Entries)),
	}
	if fc.Order != nil {
		out.Order = fc.Order.String()
	}
	for i, e := range fc.Entries {
		out.Entries[i] = EntryResponse{Label: e.Label(), Time: e.When.Format(time.RFC3339), Price: e.Price}
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
