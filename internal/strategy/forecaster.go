package strategy

import (
	"context"
	"fmt"
	"time"

	"Crypton/internal/calculator"
	"Crypton/internal/model"
)

// Forecaster is a fitted-on-history, one-step-at-a-time price model.
//
// Next receives the absolute time of the step being forecast. Stateless
// models use it as the regression feature; stateful models ignore it and
// advance their own forecast origin on every call.
type Forecaster interface {
	Fit(ctx context.Context, samples []model.HistorySample) error
	Next(at time.Time) (float64, error)
}

// Fitted is a forecaster ready for scheduling plus what was selected to build it.
type Fitted struct {
	Forecaster Forecaster
	Order      *model.Order
	Criterion  float64
}

// Fit builds and fits the forecaster for the given strategy. ARIMA runs the
// order search first and then refits a fresh model with the winning order.
func Fit(ctx context.Context, kind model.Strategy, samples []model.HistorySample, searcher *Searcher) (*Fitted, error) {
	switch kind {
	case model.StrategyLinear:
		lt := &LinearTrend{}
		if err := lt.Fit(ctx, samples); err != nil {
			return nil, err
		}
		return &Fitted{Forecaster: lt}, nil

	case model.StrategyARIMA:
		if searcher == nil {
			searcher = NewSearcher(DefaultSearchConfig())
		}
		res, err := searcher.Search(ctx, calculator.Closes(samples))
		if err != nil {
			return nil, err
		}
		m := searcher.NewModel(res.Order)
		if err := m.Fit(ctx, samples); err != nil {
			return nil, fmt.Errorf("refit %s: %w", res.Order, err)
		}
		order := res.Order
		return &Fitted{Forecaster: m, Order: &order, Criterion: res.Score}, nil
	}
	return nil, fmt.Errorf("unsupported strategy %q", kind)
}
