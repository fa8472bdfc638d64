package collector

import (
	"fmt"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"Crypton/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Step    float64 // price change per bar
	Samples []model.HistorySample
	Symbols []string
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ string, horizon model.Horizon) ([]model.HistorySample, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Samples != nil {
		return m.Samples, nil
	}
	return generateMockSamples(m.Price, m.Step, horizon.HistoryLimit+1), nil
}

func (m *MockFetcher) FetchTopSymbols(limit int) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	symbols := m.Symbols
	if symbols == nil {
		symbols = []string{"BTC", "ETH", "SOL"}
	}
	if limit > 0 && limit < len(symbols) {
		symbols = symbols[:limit]
	}
	return symbols, nil
}

func generateMockSamples(basePrice, step float64, count int) []model.HistorySample {
	end := time.Now().Truncate(time.Hour)
	samples := make([]model.HistorySample, count)
	for i := 0; i < count; i++ {
		wiggle := basePrice * 0.002 * float64(i%5-2)
		samples[i] = model.HistorySample{
			Time:  end.Add(-time.Duration(count-1-i) * time.Hour).Unix(),
			Close: basePrice + step*float64(i) + wiggle,
		}
	}
	return samples
}

// Collector loads and cleans price history for the forecasting engine.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches history for symbol and returns it ordered by strictly
// increasing time with unusable samples removed.
func (c *Collector) Collect(symbol string, horizon model.Horizon) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchHistory(symbol, horizon)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	samples := clean(raw)
	if dropped := len(raw) - len(samples); dropped > 0 {
		log.Warnf("dropped %d unusable samples for %s from %s", dropped, symbol, c.Fetcher.Name())
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no usable price history for %s", symbol)
	}

	return &model.PriceSeries{
		Symbol:    symbol,
		Samples:   samples,
		FetchedAt: time.Now(),
	}, nil
}

// TopSymbols lists symbols the user can choose from.
func (c *Collector) TopSymbols(limit int) ([]string, error) {
	return c.Fetcher.FetchTopSymbols(limit)
}

// clean sorts samples by time, keeps the last sample for a repeated
// timestamp and drops non-finite closes.
func clean(raw []model.HistorySample) []model.HistorySample {
	sorted := make([]model.HistorySample, 0, len(raw))
	for _, s := range raw {
		if math.IsNaN(s.Close) || math.IsInf(s.Close, 0) {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	out := sorted[:0]
	for _, s := range sorted {
		if n := len(out); n > 0 && out[n-1].Time == s.Time {
			out[n-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}
