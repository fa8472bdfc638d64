package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"Crypton/internal/model"
)

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Watchlist []string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"NDX":    "^NDX",
			"BTC":    "BTC-USD",
			"ETH":    "ETH-USD",
		},
		Watchlist: []string{"SPX", "NDX", "BTC", "ETH", "AAPL", "MSFT"},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooRange picks a chart range wide enough for the hourly bar count.
func yahooRange(bars int) string {
	switch {
	case bars <= 24:
		return "5d"
	case bars <= 168:
		return "1mo"
	default:
		return "3mo"
	}
}

// FetchHistory loads hourly closes, trimmed to the horizon's history size.
func (f *YahooFetcher) FetchHistory(symbol string, horizon model.Horizon) ([]model.HistorySample, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1h&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), yahooRange(horizon.HistoryLimit))

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	samples := make([]model.HistorySample, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market closed
		}
		samples = append(samples, model.HistorySample{Time: ts, Close: *closes[i]})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Time < samples[j].Time })
	// CryptoCompare returns limit+1 bars; keep the same shape.
	if keep := horizon.HistoryLimit + 1; len(samples) > keep {
		samples = samples[len(samples)-keep:]
	}
	return samples, nil
}

// FetchTopSymbols returns the configured watchlist; Yahoo has no ranking endpoint.
func (f *YahooFetcher) FetchTopSymbols(limit int) ([]string, error) {
	if limit <= 0 || limit > len(f.Watchlist) {
		limit = len(f.Watchlist)
	}
	return append([]string(nil), f.Watchlist[:limit]...), nil
}
