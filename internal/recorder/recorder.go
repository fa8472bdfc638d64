package recorder

import (
	"time"

	"Crypton/internal/model"
)

// ForecastSummary is a stored forecast run without its entries.
type ForecastSummary struct {
	ID        string
	Symbol    string
	Horizon   string
	Strategy  string
	Order     string // empty for linear regression
	Criterion float64
	Samples   int
	Steps     int
	FirstAt   time.Time
	LastPrice float64 // price of the final horizon step
	CreatedAt time.Time
}

// Recorder persists forecast reports for later review.
type Recorder interface {
	RecordForecast(f *model.Forecast) error
	RecentForecasts(limit int) ([]ForecastSummary, error)
	Close() error
}
