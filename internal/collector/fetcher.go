package collector

import "Crypton/internal/model"

// Fetcher defines the interface for fetching price history.
type Fetcher interface {
	FetchHistory(symbol string, horizon model.Horizon) ([]model.HistorySample, error)
	FetchTopSymbols(limit int) ([]string, error)
	Name() string
}
