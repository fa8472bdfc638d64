// Package forecast turns price history into a labelled forecast sequence.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

// ErrUnorderedSeries means sample timestamps are not strictly increasing.
var ErrUnorderedSeries = errors.New("price history timestamps are not strictly increasing")

// Request is one prediction action.
type Request struct {
	Symbol   string
	Horizon  model.Horizon
	Strategy model.Strategy
	Samples  []model.HistorySample
}

// Engine fits a fresh model per request and schedules the horizon.
type Engine struct {
	Searcher *strategy.Searcher
	Now      func() time.Time
}

// NewEngine creates an engine using the given order search settings.
func NewEngine(cfg strategy.SearchConfig) *Engine {
	return &Engine{
		Searcher: strategy.NewSearcher(cfg),
		Now:      time.Now,
	}
}

// Predict fits the requested strategy on the samples and forecasts the horizon.
func (e *Engine) Predict(ctx context.Context, req Request) (*model.Forecast, error) {
	if err := validate(req.Samples); err != nil {
		return nil, err
	}

	started := time.Now()
	fitted, err := strategy.Fit(ctx, req.Strategy, req.Samples, e.Searcher)
	if err != nil {
		return nil, fmt.Errorf("fit %s for %s: %w", req.Strategy, req.Symbol, err)
	}

	now := e.Now()
	entries, err := Schedule(fitted.Forecaster, req.Horizon, now)
	if err != nil {
		return nil, fmt.Errorf("forecast %s for %s: %w", req.Horizon.Name, req.Symbol, err)
	}

	fc := &model.Forecast{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Horizon:   req.Horizon,
		Strategy:  req.Strategy,
		Order:     fitted.Order,
		Criterion: fitted.Criterion,
		Samples:   len(req.Samples),
		Entries:   entries,
		CreatedAt: now,
	}

	fields := log.Fields{
		"id":       fc.ID,
		"symbol":   fc.Symbol,
		"horizon":  fc.Horizon.Name,
		"strategy": string(fc.Strategy),
		"samples":  fc.Samples,
		"elapsed":  time.Since(started).String(),
	}
	if fc.Order != nil {
		fields["order"] = fc.Order.String()
		fields["criterion"] = fc.Criterion
	}
	log.WithFields(fields).Info("forecast complete")
	return fc, nil
}

func validate(samples []model.HistorySample) error {
	if len(samples) == 0 {
		return fmt.Errorf("empty series: %w", strategy.ErrDataInsufficient)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time <= samples[i-1].Time {
			return fmt.Errorf("sample %d at %d follows %d: %w",
				i, samples[i].Time, samples[i-1].Time, ErrUnorderedSeries)
		}
	}
	return nil
}
