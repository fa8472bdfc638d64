package model

import "time"

// HistorySample is a single closing price observation.
type HistorySample struct {
	Time  int64 // unix seconds
	Close float64
}

// PriceSeries holds raw price history for one symbol.
type PriceSeries struct {
	Symbol    string
	Samples   []HistorySample
	FetchedAt time.Time
}
