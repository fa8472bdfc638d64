package model

import (
	"fmt"
	"strings"
	"time"
)

// Horizon describes how far ahead to forecast and how much history to load.
type Horizon struct {
	Name         string
	Steps        int
	Unit         time.Duration
	DateOnly     bool // labels drop the time of day
	HistoryLimit int  // hourly bars requested from the price provider
}

// A month is fixed at 30 days.
var (
	HorizonHourly  = Horizon{Name: "24 hours", Steps: 24, Unit: time.Hour, HistoryLimit: 24}
	HorizonDaily   = Horizon{Name: "7 days", Steps: 7, Unit: 24 * time.Hour, HistoryLimit: 168}
	HorizonMonthly = Horizon{Name: "12 months", Steps: 12, Unit: 30 * 24 * time.Hour, DateOnly: true, HistoryLimit: 365}
)

// Horizons lists the supported horizons in display order.
var Horizons = []Horizon{HorizonHourly, HorizonDaily, HorizonMonthly}

// ParseHorizon resolves a horizon by name or short alias.
func ParseHorizon(s string) (Horizon, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24 hours", "24h", "hourly", "hour":
		return HorizonHourly, nil
	case "7 days", "7d", "daily", "day":
		return HorizonDaily, nil
	case "12 months", "12m", "monthly", "month":
		return HorizonMonthly, nil
	}
	return Horizon{}, fmt.Errorf("unknown horizon %q", s)
}

// Strategy selects the forecasting model.
type Strategy string

const (
	StrategyLinear Strategy = "Linear Regression"
	StrategyARIMA  Strategy = "ARIMA"
)

// ParseStrategy resolves a strategy by name or short alias.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear regression", "linear", "lr":
		return StrategyLinear, nil
	case "arima":
		return StrategyARIMA, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Order is an ARIMA (p, d, q) order.
type Order struct {
	P int // autoregressive lags
	D int // differencing degree
	Q int // moving-average lags
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// PredictionEntry is one forecast point.
type PredictionEntry struct {
	When     time.Time
	Price    float64
	DateOnly bool
}

// Label formats When at the entry's granularity.
func (e PredictionEntry) Label() string {
	if e.DateOnly {
		return e.When.Format("2006-01-02")
	}
	return e.When.Format("2006-01-02 15:04")
}

// Forecast is the output of one prediction request.
type Forecast struct {
	ID        string
	Symbol    string
	Horizon   Horizon
	Strategy  Strategy
	Order     *Order  // nil for linear regression
	Criterion float64 // information criterion of the selected order, ARIMA only
	Samples   int     // history length the model was fitted on
	Entries   []PredictionEntry
	CreatedAt time.Time
}
