package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"Crypton/internal/model"
)

// DefaultCryptoCompareURL is the public CryptoCompare API root.
const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

// CryptoCompareFetcher implements Fetcher using the CryptoCompare REST API.
type CryptoCompareFetcher struct {
	BaseURL string
	APIKey  string
	Quote   string // quote currency, e.g. USD
	Client  *http.Client
}

// NewCryptoCompareFetcher creates a new fetcher with optional proxy support.
func NewCryptoCompareFetcher(baseURL, apiKey, quote, proxyURL string) *CryptoCompareFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultCryptoCompareURL
	}
	if quote == "" {
		quote = "USD"
	}
	return &CryptoCompareFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Quote:   quote,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CryptoCompareFetcher) Name() string { return "cryptocompare" }

// ccEnvelope is the common response wrapper of the data API.
type ccEnvelope struct {
	Response string          `json:"Response"`
	Message  string          `json:"Message"`
	Data     json.RawMessage `json:"Data"`
}

// ccBar is one histohour bar.
type ccBar struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// FetchHistory loads hourly closes; the horizon decides how many bars.
func (f *CryptoCompareFetcher) FetchHistory(symbol string, horizon model.Horizon) ([]model.HistorySample, error) {
	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsym", f.Quote)
	q.Set("limit", strconv.Itoa(horizon.HistoryLimit))
	q.Set("aggregate", "1")

	var env ccEnvelope
	if err := f.get("/data/v2/histohour?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if env.Response == "Error" {
		return nil, fmt.Errorf("cryptocompare api error: %s", env.Message)
	}

	var data struct {
		Data []ccBar `json:"Data"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("cryptocompare decode history: %w", err)
	}
	if len(data.Data) == 0 {
		return nil, fmt.Errorf("cryptocompare: no data returned for %s", symbol)
	}

	samples := make([]model.HistorySample, len(data.Data))
	for i, b := range data.Data {
		samples[i] = model.HistorySample{Time: b.Time, Close: b.Close}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time < samples[j].Time })
	return samples, nil
}

// FetchTopSymbols returns the symbols with the largest market cap.
func (f *CryptoCompareFetcher) FetchTopSymbols(limit int) ([]string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("tsym", f.Quote)

	var top struct {
		Message string `json:"Message"`
		Data    []struct {
			CoinInfo struct {
				Name string `json:"Name"`
			} `json:"CoinInfo"`
		} `json:"Data"`
	}
	if err := f.get("/data/top/mktcapfull?"+q.Encode(), &top); err != nil {
		return nil, err
	}
	if len(top.Data) == 0 {
		return nil, fmt.Errorf("cryptocompare: empty top list: %s", top.Message)
	}

	symbols := make([]string, 0, len(top.Data))
	for _, d := range top.Data {
		if d.CoinInfo.Name != "" {
			symbols = append(symbols, d.CoinInfo.Name)
		}
	}
	return symbols, nil
}

func (f *CryptoCompareFetcher) get(path string, out any) error {
	req, err := http.NewRequest("GET", f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Apikey "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("cryptocompare fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cryptocompare: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cryptocompare decode: %w", err)
	}
	return nil
}
